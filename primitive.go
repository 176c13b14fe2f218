// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"io"
	"math"
	"reflect"
)

// Primitive type handles. Integer and char values assigned to fields of
// these types may be of any Go integer kind provided the value fits the
// width and signedness of the type; they are normalised to the canonical
// Go type on assignment and on decode.
var (
	Int8   Type = intType{"i8", 1, true}
	Uint8  Type = intType{"u8", 1, false}
	Int16  Type = intType{"i16", 2, true}
	Uint16 Type = intType{"u16", 2, false}
	Int32  Type = intType{"i32", 4, true}
	Uint32 Type = intType{"u32", 4, false}
	Int64  Type = intType{"i64", 8, true}
	Uint64 Type = intType{"u64", 8, false}

	Float32 Type = floatType{"f32", 4}
	Float64 Type = floatType{"f64", 8}

	// Char is a single opaque byte.
	Char Type = intType{"char", 1, false}

	// AnyPtr is an opaque machine-word address. The value is the address
	// itself; it is never dereferenced.
	AnyPtr Type = intType{"anyptr", 8, false}
)

// typeClass describes the canonical Go representation of a fixed-width
// integer value.
type typeClass struct {
	size   int
	signed bool
}

var integerTypes = map[typeClass]reflect.Type{
	{1, true}: reflect.TypeOf(int8(0)),
	{2, true}: reflect.TypeOf(int16(0)),
	{4, true}: reflect.TypeOf(int32(0)),
	{8, true}: reflect.TypeOf(int64(0)),

	{1, false}: reflect.TypeOf(uint8(0)),
	{2, false}: reflect.TypeOf(uint16(0)),
	{4, false}: reflect.TypeOf(uint32(0)),
	{8, false}: reflect.TypeOf(uint64(0)),
}

// intType is a fixed-width integer type. Alignment equals width.
type intType struct {
	name   string
	width  int
	signed bool
}

func (t intType) String() string { return t.name }
func (t intType) Size() int { return t.width }
func (t intType) Alignment() int { return t.width }

func (t intType) goType() reflect.Type { return integerTypes[typeClass{t.width, t.signed}] }

func (t intType) Accepts(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if t.signed {
			return minInt(t.width) <= i && i <= maxInt(t.width)
		}
		return 0 <= i && uint64(i) <= maxUint(t.width)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if t.signed {
			return u <= uint64(maxInt(t.width))
		}
		return u <= maxUint(t.width)
	}
	return false
}

func (t intType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	rv := reflect.ValueOf(v)
	var u uint64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		u = uint64(rv.Int())
	default:
		u = rv.Uint()
	}
	return writeWord(w, u, t.width)
}

func (t intType) Decode(r io.Reader) (interface{}, error) {
	u, err := readWord(r, t.width)
	if err != nil {
		return nil, err
	}
	if t.signed {
		shift := 64 - 8*t.width
		i := int64(u<<shift) >> shift
		switch t.width {
		case 1:
			return int8(i), nil
		case 2:
			return int16(i), nil
		case 4:
			return int32(i), nil
		default:
			return i, nil
		}
	}
	switch t.width {
	case 1:
		return uint8(u), nil
	case 2:
		return uint16(u), nil
	case 4:
		return uint32(u), nil
	default:
		return u, nil
	}
}

func maxUint(width int) uint64 { return ^uint64(0) >> (64 - 8*width) }
func maxInt(width int) int64   { return int64(maxUint(width) >> 1) }
func minInt(width int) int64   { return -maxInt(width) - 1 }

// writeWord writes the low width bytes of u to w, little-endian.
func writeWord(w io.Writer, u uint64, width int) error {
	var buf [8]byte
	byteOrder.PutUint64(buf[:], u)
	_, err := w.Write(buf[:width])
	return err
}

// readWord reads width bytes from r and returns them zero-extended.
func readWord(r io.Reader, width int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:width]); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(buf[:]), nil
}

// floatType is a fixed-width IEEE-754 floating point type. Alignment equals
// width.
type floatType struct {
	name  string
	width int
}

func (t floatType) String() string { return t.name }
func (t floatType) Size() int { return t.width }
func (t floatType) Alignment() int { return t.width }

func (t floatType) goType() reflect.Type {
	if t.width == 4 {
		return reflect.TypeOf(float32(0))
	}
	return reflect.TypeOf(float64(0))
}

func (t floatType) Accepts(v interface{}) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (t floatType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	f := reflect.ValueOf(v).Float()
	if t.width == 4 {
		return writeWord(w, uint64(math.Float32bits(float32(f))), 4)
	}
	return writeWord(w, math.Float64bits(f), 8)
}

func (t floatType) Decode(r io.Reader) (interface{}, error) {
	u, err := readWord(r, t.width)
	if err != nil {
		return nil, err
	}
	if t.width == 4 {
		return math.Float32frombits(uint32(u)), nil
	}
	return math.Float64frombits(u), nil
}

// wordType is a typed address word. The element type is documentation only;
// encoded values are opaque machine-word integers and decoding yields the
// integer, not a dereferenced element.
type wordType struct {
	mark byte // '*' for pointers, '&' for references.
	elem Type
}

// PointerTo returns a pointer-to-elem address word type. Size is one machine
// word; alignment is 4 by convention of this system.
func PointerTo(elem Type) Type {
	if elem == nil {
		panic("binstruct: PointerTo of nil type")
	}
	return wordType{mark: '*', elem: elem}
}

// ReferenceTo returns a reference-to-elem address word type. It differs from
// PointerTo only in spelling.
func ReferenceTo(elem Type) Type {
	if elem == nil {
		panic("binstruct: ReferenceTo of nil type")
	}
	return wordType{mark: '&', elem: elem}
}

func (t wordType) String() string { return t.elem.String() + string(t.mark) }
func (t wordType) Size() int { return 8 }
func (t wordType) Alignment() int { return 4 }

func (t wordType) goType() reflect.Type { return reflect.TypeOf(uint64(0)) }

func (t wordType) Accepts(v interface{}) bool { return AnyPtr.Accepts(v) }

func (t wordType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	rv := reflect.ValueOf(v)
	var u uint64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		u = uint64(rv.Int())
	default:
		u = rv.Uint()
	}
	return writeWord(w, u, 8)
}

func (t wordType) Decode(r io.Reader) (interface{}, error) {
	return readWord(r, 8)
}
