// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binstruct provides declarative construction of composite binary
// record types with C-like memory layout semantics, and byte-level
// serialisation of their values.
//
// A struct type is declared by listing named, typed fields on a StructBuilder
// together with a set of layout Flags and zero or more base struct types. The
// compiler resolves field overrides against the bases, optionally reorders
// fields by size, inserts synthetic padding fields to satisfy the requested
// alignment policy and assigns a byte offset to every field. The compiled
// StructType is immutable and may be read concurrently; it is itself a Type
// and so may be used as the type of a field in another struct.
//
// All multi-byte values are encoded little-endian, regardless of the byte
// order of the machine doing the encoding or decoding.
package binstruct

import (
	"encoding/binary"
	"io"
	"reflect"
)

// byteOrder is the wire byte order for all fixed-width values.
var byteOrder = binary.LittleEndian

// DynamicSize is the size reported by types whose encoded length depends on
// the value being encoded.
const DynamicSize = -1

// Type is a field type descriptor. It carries the in-memory alignment and
// on-wire size contracts used by the struct compiler, and the codec used to
// serialise values of the type.
//
// The set of implementations is closed; types are obtained from the package's
// primitive variables, from the type constructor functions ArrayOf, SliceOf,
// StringOf, PaddingOf, PointerTo and ReferenceTo, or by compiling a struct.
type Type interface {
	// String returns the canonical spelling of the type.
	String() string

	// Size returns the encoded size of the type in bytes, or DynamicSize
	// if the encoded length depends on the value.
	Size() int

	// Alignment returns the in-memory alignment of the type in bytes.
	Alignment() int

	// Accepts reports whether v is in the value domain of the type.
	Accepts(v interface{}) bool

	// Encode writes the encoding of v to w. It is an error to encode a
	// value not accepted by the type.
	Encode(w io.Writer, v interface{}) error

	// Decode reads a value of the type from r, consuming exactly the
	// encoded length of the value.
	Decode(r io.Reader) (interface{}, error)

	// goType returns the canonical Go type values of the type are
	// normalised to.
	goType() reflect.Type
}

// IsDynamic reports whether typ has a value-dependent encoded size.
func IsDynamic(typ Type) bool {
	return typ.Size() == DynamicSize
}

// canonical converts v, which must be accepted by typ, to the canonical Go
// representation for typ.
func canonical(typ Type, v interface{}) interface{} {
	switch typ := typ.(type) {
	case *StructType:
		return v
	case paddingType:
		return nil
	case arrayType:
		return canonicalSeq(typ.elem, v)
	case sliceType:
		return canonicalSeq(typ.elem, v)
	default:
		return reflect.ValueOf(v).Convert(typ.goType()).Interface()
	}
}

func canonicalSeq(elem Type, v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	s := reflect.MakeSlice(reflect.SliceOf(elem.goType()), 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s = reflect.Append(s, reflect.ValueOf(canonical(elem, rv.Index(i).Interface())))
	}
	return s.Interface()
}
