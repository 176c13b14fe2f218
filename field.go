// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import "fmt"

// FieldFlags is a bit set of per-field properties.
type FieldFlags uint8

const (
	// FieldProtected marks a field that may not be overridden by a
	// derived struct.
	FieldProtected FieldFlags = 1 << iota

	// fieldSynthetic marks a padding field inserted by the compiler.
	// Synthetic fields are not user-addressable and are excluded from
	// the field lists contributed to derived structs.
	fieldSynthetic
)

// FieldInfo describes a single struct field. Name and Type are set at
// declaration; Offset is assigned by the compiler and is meaningful only on
// fields obtained from a compiled StructType.
type FieldInfo struct {
	Name   string
	Type   Type
	Offset int
	Flags  FieldFlags
}

// NewField returns a FieldInfo for a field with the given name and type.
// The name must be non-empty and the type non-nil.
func NewField(name string, typ Type) (FieldInfo, error) {
	if name == "" {
		return FieldInfo{}, fmt.Errorf("binstruct: field has empty name")
	}
	if typ == nil {
		return FieldInfo{}, fmt.Errorf("binstruct: field %q has nil type", name)
	}
	return FieldInfo{Name: name, Type: typ}, nil
}

// Protected reports whether the field may not be overridden by a derived
// struct.
func (f FieldInfo) Protected() bool { return f.Flags&FieldProtected != 0 }

// synthetic reports whether the field is compiler-inserted padding.
func (f FieldInfo) synthetic() bool { return f.Flags&fieldSynthetic != 0 }

// padding reports whether the field's type is padding. Padding fields carry
// no instance value.
func (f FieldInfo) padding() bool {
	_, ok := f.Type.(paddingType)
	return ok
}

func (f FieldInfo) String() string { return fmt.Sprintf("%s: %s", f.Name, f.Type) }
