// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"fmt"
	"io"
	"math"
	"reflect"
)

// String is the dynamically sized UTF-8 string type. The wire format is a
// 4-byte signed length followed by the string bytes.
var String Type = stringType{}

// StringOf returns a fixed-length string type of count bytes. Encoding a
// value whose byte length is not exactly count is an error. The wire format
// is the string bytes alone, with no length prefix and no terminator.
func StringOf(count int) Type {
	if count < 1 {
		panic("binstruct: non-positive string length")
	}
	return stringType{count: count}
}

// stringType is a UTF-8 string, fixed-length when count > 0 and
// length-prefixed otherwise. Alignment is 1.
type stringType struct {
	count int
}

func (t stringType) String() string {
	if t.count == 0 {
		return "String"
	}
	return fmt.Sprintf("String[%d]", t.count)
}

func (t stringType) Size() int {
	if t.count == 0 {
		return DynamicSize
	}
	return t.count
}

func (t stringType) Alignment() int { return 1 }

func (t stringType) goType() reflect.Type { return reflect.TypeOf("") }

func (t stringType) Accepts(v interface{}) bool {
	return reflect.ValueOf(v).Kind() == reflect.String
}

func (t stringType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	s := reflect.ValueOf(v).String()
	if t.count != 0 {
		if len(s) != t.count {
			return StringLengthError{Type: t, Want: t.count, Got: len(s)}
		}
		_, err := io.WriteString(w, s)
		return err
	}
	if err := writeLength(w, len(s)); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func (t stringType) Decode(r io.Reader) (interface{}, error) {
	n := t.count
	if n == 0 {
		var err error
		n, err = readLength(r)
		if err != nil {
			return nil, err
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return string(buf), nil
}

// ArrayOf returns a fixed-length array type of count elements of elem. The
// wire format is count back-to-back encodings of elem. Encoding a value with
// a different element count is an error.
func ArrayOf(count int, elem Type) Type {
	if count < 0 {
		panic("binstruct: negative array length")
	}
	if elem == nil {
		panic("binstruct: ArrayOf of nil type")
	}
	return arrayType{elem: elem, count: count}
}

// arrayType is a fixed-length homogeneous sequence. Alignment is the element
// alignment.
type arrayType struct {
	elem  Type
	count int
}

func (t arrayType) String() string { return fmt.Sprintf("%s[%d]", t.elem, t.count) }

func (t arrayType) Size() int {
	if IsDynamic(t.elem) {
		return DynamicSize
	}
	return t.count * t.elem.Size()
}

func (t arrayType) Alignment() int { return t.elem.Alignment() }

func (t arrayType) goType() reflect.Type { return reflect.SliceOf(t.elem.goType()) }

func (t arrayType) Accepts(v interface{}) bool { return acceptsSeq(t.elem, v) }

func (t arrayType) Encode(w io.Writer, v interface{}) error {
	rv := reflect.ValueOf(v)
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	if rv.Len() != t.count {
		return ElementCountError{Type: t, Want: t.count, Got: rv.Len()}
	}
	return encodeSeq(t.elem, w, rv)
}

func (t arrayType) Decode(r io.Reader) (interface{}, error) {
	return decodeSeq(t.elem, t.count, r)
}

// SliceOf returns a dynamically sized sequence type of elem. The wire format
// is a 4-byte signed length followed by that many encodings of elem.
func SliceOf(elem Type) Type {
	if elem == nil {
		panic("binstruct: SliceOf of nil type")
	}
	return sliceType{elem: elem}
}

// sliceType is a length-prefixed homogeneous sequence. Alignment is the
// element alignment.
type sliceType struct {
	elem Type
}

func (t sliceType) String() string { return fmt.Sprintf("Array[%s]", t.elem) }

func (t sliceType) Size() int { return DynamicSize }

func (t sliceType) Alignment() int { return t.elem.Alignment() }

func (t sliceType) goType() reflect.Type { return reflect.SliceOf(t.elem.goType()) }

func (t sliceType) Accepts(v interface{}) bool { return acceptsSeq(t.elem, v) }

func (t sliceType) Encode(w io.Writer, v interface{}) error {
	rv := reflect.ValueOf(v)
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	if err := writeLength(w, rv.Len()); err != nil {
		return err
	}
	return encodeSeq(t.elem, w, rv)
}

func (t sliceType) Decode(r io.Reader) (interface{}, error) {
	n, err := readLength(r)
	if err != nil {
		return nil, err
	}
	return decodeSeq(t.elem, n, r)
}

func acceptsSeq(elem Type, v interface{}) bool {
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if !elem.Accepts(rv.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func encodeSeq(elem Type, w io.Writer, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		if err := elem.Encode(w, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func decodeSeq(elem Type, n int, r io.Reader) (interface{}, error) {
	s := reflect.MakeSlice(reflect.SliceOf(elem.goType()), 0, n)
	for i := 0; i < n; i++ {
		v, err := elem.Decode(r)
		if err != nil {
			return nil, err
		}
		s = reflect.Append(s, reflect.ValueOf(v))
	}
	return s.Interface(), nil
}

// writeLength writes the 4-byte signed length prefix used by dynamically
// sized strings and sequences.
func writeLength(w io.Writer, n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("binstruct: length overflows int32: %d", n)
	}
	return writeWord(w, uint64(uint32(n)), 4)
}

func readLength(r io.Reader) (int, error) {
	u, err := readWord(r, 4)
	if err != nil {
		return 0, err
	}
	n := int32(u)
	if n < 0 {
		return 0, fmt.Errorf("binstruct: invalid negative length: %d", n)
	}
	return int(n), nil
}

// PaddingOf returns a padding type of count bytes. Padding carries no value;
// it encodes as count zero bytes and decoding skips count bytes. Padding
// fields are synthesised by the struct compiler to satisfy alignment, but may
// also be declared explicitly to reserve space.
func PaddingOf(count int) Type {
	if count < 1 {
		panic("binstruct: non-positive padding length")
	}
	return paddingType{count: count}
}

// paddingType is fixed-width padding. Alignment is 1.
type paddingType struct {
	count int
}

func (t paddingType) String() string { return fmt.Sprintf("Padding[%d]", t.count) }

func (t paddingType) Size() int { return t.count }

func (t paddingType) Alignment() int { return 1 }

func (t paddingType) goType() reflect.Type { return reflect.TypeOf([]byte(nil)) }

func (t paddingType) Accepts(v interface{}) bool { return v == nil }

func (t paddingType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	_, err := w.Write(make([]byte, t.count))
	return err
}

func (t paddingType) Decode(r io.Reader) (interface{}, error) {
	if _, err := io.ReadFull(r, make([]byte, t.count)); err != nil {
		return nil, err
	}
	return nil, nil
}
