// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fieldLayout is a comparable projection of a compiled field.
type fieldLayout struct {
	Name   string
	Type   string
	Offset int
}

func layoutOf(t *StructType) []fieldLayout {
	var l []fieldLayout
	for _, f := range t.Layout() {
		l = append(l, fieldLayout{Name: f.Name, Type: f.Type.String(), Offset: f.Offset})
	}
	return l
}

var layoutTests = []struct {
	name      string
	build     func() (*StructType, error)
	want      []fieldLayout
	wantSize  int
	wantAlign int
	wantErr   error
}{
	{
		name: "empty struct",
		build: func() (*StructType, error) {
			return NewStruct("Empty").Build()
		},
		want:      nil,
		wantSize:  0,
		wantAlign: 1,
	},
	{
		name: "align1",
		build: func() (*StructType, error) {
			return NewStruct("Packed1").Flags(Align1).
				Field("a", Int16).
				Field("b", Int32).
				Field("size", Int32).
				Build()
		},
		want: []fieldLayout{
			{"a", "i16", 0},
			{"b", "i32", 2},
			{"size", "i32", 6},
		},
		wantSize:  10,
		wantAlign: 4,
	},
	{
		name: "align2",
		build: func() (*StructType, error) {
			return NewStruct("Packed2").Flags(Align2).
				Field("a", Int16).
				Field("b", Int32).
				Field("size", Int32).
				Build()
		},
		want: []fieldLayout{
			{"a", "i16", 0},
			{"b", "i32", 2},
			{"size", "i32", 6},
		},
		wantSize:  10,
		wantAlign: 4,
	},
	{
		name: "align4",
		build: func() (*StructType, error) {
			return NewStruct("Packed4").Flags(Align4).
				Field("a", Int16).
				Field("b", Int32).
				Field("size", Int32).
				Build()
		},
		want: []fieldLayout{
			{"a", "i16", 0},
			{"_pad0", "Padding[2]", 2},
			{"b", "i32", 4},
			{"size", "i32", 8},
		},
		wantSize:  12,
		wantAlign: 4,
	},
	{
		name: "align8",
		build: func() (*StructType, error) {
			return NewStruct("Packed8").Flags(Align8).
				Field("a", Int16).
				Field("b", Int32).
				Field("size", Int32).
				Build()
		},
		want: []fieldLayout{
			{"a", "i16", 0},
			{"_pad0", "Padding[2]", 2},
			{"b", "i32", 4},
			{"size", "i32", 8},
			{"_pad1", "Padding[4]", 12},
		},
		wantSize:  16,
		wantAlign: 4,
	},
	{
		name: "auto alignment",
		build: func() (*StructType, error) {
			return NewStruct("Builder").Flags(AlignAuto).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"age", "i8", 10},
			{"_pad0", "Padding[5]", 11},
			{"salary", "f64", 16},
		},
		wantSize:  24,
		wantAlign: 8,
	},
	{
		name: "auto alignment all same width",
		build: func() (*StructType, error) {
			return NewStruct("Span").Flags(AlignAuto).
				Field("s_line", Int32).
				Field("s_column", Int32).
				Field("e_line", Int32).
				Field("e_column", Int32).
				Build()
		},
		want: []fieldLayout{
			{"s_line", "i32", 0},
			{"s_column", "i32", 4},
			{"e_line", "i32", 8},
			{"e_column", "i32", 12},
		},
		wantSize:  16,
		wantAlign: 4,
	},
	{
		name: "reorder without alignment",
		build: func() (*StructType, error) {
			return NewStruct("Reordered").Flags(ReorderFields).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"salary", "f64", 10},
			{"age", "i8", 18},
		},
		wantSize:  19,
		wantAlign: 8,
	},
	{
		name: "reorder then auto align",
		build: func() (*StructType, error) {
			return NewStruct("Reordered").Flags(ReorderFields | AlignAuto).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"_pad0", "Padding[6]", 10},
			{"salary", "f64", 16},
			{"age", "i8", 24},
		},
		wantSize:  25,
		wantAlign: 8,
	},
	{
		name: "reorder is stable for equal sizes",
		build: func() (*StructType, error) {
			return NewStruct("Span").Flags(ReorderFields | AlignAuto).
				Field("s_line", Int32).
				Field("s_column", Int32).
				Field("e_line", Int32).
				Field("e_column", Int32).
				Build()
		},
		want: []fieldLayout{
			{"s_line", "i32", 0},
			{"s_column", "i32", 4},
			{"e_line", "i32", 8},
			{"e_column", "i32", 12},
		},
		wantSize:  16,
		wantAlign: 4,
	},
	{
		name: "explicit align4 caps at type alignment",
		build: func() (*StructType, error) {
			return NewStruct("Builder4").Flags(Align4).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"age", "i8", 10},
			{"_pad0", "Padding[1]", 11},
			{"salary", "f64", 12},
		},
		wantSize:  20,
		wantAlign: 8,
	},
	{
		name: "explicit align8 aligns to type alignment",
		build: func() (*StructType, error) {
			return NewStruct("Builder8").Flags(Align8).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"age", "i8", 10},
			{"_pad0", "Padding[5]", 11},
			{"salary", "f64", 16},
		},
		wantSize:  24,
		wantAlign: 8,
	},
	{
		name: "packed alias",
		build: func() (*StructType, error) {
			return NewStruct("Tight").Flags(Packed).
				Field("name", StringOf(10)).
				Field("age", Int8).
				Field("salary", Float64).
				Build()
		},
		want: []fieldLayout{
			{"name", "String[10]", 0},
			{"age", "i8", 10},
			{"salary", "f64", 11},
		},
		wantSize:  19,
		wantAlign: 8,
	},
	{
		name: "no alignment overrides auto",
		build: func() (*StructType, error) {
			return NewStruct("Raw").Flags(NoAlignment | AlignAuto).
				Field("a", Int8).
				Field("b", Int64).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"b", "i64", 1},
		},
		wantSize:  9,
		wantAlign: 8,
	},
	{
		name: "dynamic field makes struct dynamic and skips alignment",
		build: func() (*StructType, error) {
			return NewStruct("Person").
				Field("name", String).
				Field("age", Int8).
				Build()
		},
		want: []fieldLayout{
			{"name", "String", 0},
			{"age", "i8", 0},
		},
		wantSize:  DynamicSize,
		wantAlign: 1,
	},
	{
		name: "reorder keeps dynamic fields last in declaration order",
		build: func() (*StructType, error) {
			return NewStruct("Mixed").Flags(ReorderFields).
				Field("a", String).
				Field("b", Int32).
				Field("c", String).
				Field("d", Int8).
				Build()
		},
		want: []fieldLayout{
			{"b", "i32", 0},
			{"d", "i8", 4},
			{"a", "String", 5},
			{"c", "String", 5},
		},
		wantSize:  DynamicSize,
		wantAlign: 4,
	},
	{
		name: "reorder of pure dynamic struct is a no-op",
		build: func() (*StructType, error) {
			return NewStruct("Names").Flags(ReorderFields).
				Field("first", String).
				Field("last", String).
				Build()
		},
		want: []fieldLayout{
			{"first", "String", 0},
			{"last", "String", 0},
		},
		wantSize:  DynamicSize,
		wantAlign: 1,
	},
	{
		name: "locked struct is laid out as declared",
		build: func() (*StructType, error) {
			return NewStruct("Header").Flags(Locked | ReorderFields | AlignAuto).
				Field("a", Int8).
				Field("b", Int64).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"b", "i64", 1},
		},
		wantSize:  9,
		wantAlign: 8,
	},
	{
		name: "synthetic padding skips user names",
		build: func() (*StructType, error) {
			return NewStruct("Clash").Flags(AlignAuto).
				Field("_pad0", Int8).
				Field("b", Int32).
				Build()
		},
		want: []fieldLayout{
			{"_pad0", "i8", 0},
			{"_pad1", "Padding[3]", 1},
			{"b", "i32", 4},
		},
		wantSize:  8,
		wantAlign: 4,
	},
	{
		name: "declared padding is kept",
		build: func() (*StructType, error) {
			return NewStruct("Reserved").Flags(NoAlignment).
				Field("a", Int8).
				Field("_reserved", PaddingOf(3)).
				Field("b", Int32).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"_reserved", "Padding[3]", 1},
			{"b", "i32", 4},
		},
		wantSize:  8,
		wantAlign: 4,
	},
	{
		name: "fixed size with fixed fields",
		build: func() (*StructType, error) {
			return NewStruct("Record").Flags(FixedSize | AlignAuto).
				Field("a", Int16).
				Field("b", Int32).
				Field("c", StringOf(10)).
				Build()
		},
		want: []fieldLayout{
			{"a", "i16", 0},
			{"_pad0", "Padding[2]", 2},
			{"b", "i32", 4},
			{"c", "String[10]", 8},
		},
		wantSize:  18,
		wantAlign: 4,
	},
	{
		name: "fixed size with dynamic field",
		build: func() (*StructType, error) {
			return NewStruct("Record").Flags(FixedSize | AlignAuto).
				Field("a", Int16).
				Field("b", Int32).
				Field("c", String).
				Build()
		},
		wantErr: SizeError{Struct: "Record"},
	},
}

func TestCompile(t *testing.T) {
	for _, test := range layoutTests {
		typ, err := test.build()
		if !reflect.DeepEqual(err, test.wantErr) {
			t.Errorf("unexpected error for %s: got:%v want:%v", test.name, err, test.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if got := layoutOf(typ); !cmp.Equal(got, test.want) {
			t.Errorf("unexpected layout for %s:\n%s", test.name, cmp.Diff(test.want, got))
		}
		if got := typ.Size(); got != test.wantSize {
			t.Errorf("unexpected size for %s: got:%d want:%d", test.name, got, test.wantSize)
		}
		if got := typ.Alignment(); got != test.wantAlign {
			t.Errorf("unexpected alignment for %s: got:%d want:%d", test.name, got, test.wantAlign)
		}
	}
}

// TestLayoutInvariants checks that offsets of fixed structs are strictly
// monotonic and that sizes sum to the struct size.
func TestLayoutInvariants(t *testing.T) {
	for _, test := range layoutTests {
		typ, err := test.build()
		if err != nil || typ.Dynamic() {
			continue
		}
		offset := 0
		for _, f := range typ.Layout() {
			if f.Offset != offset {
				t.Errorf("%s: field %s has offset %d, want %d", test.name, f.Name, f.Offset, offset)
			}
			offset += f.Type.Size()
		}
		if offset != typ.Size() {
			t.Errorf("%s: field sizes sum to %d, want %d", test.name, offset, typ.Size())
		}
	}
}

var overrideTests = []struct {
	name    string
	build   func() (*StructType, error)
	want    []fieldLayout
	wantErr error
}{
	{
		name: "override takes later position",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").Flags(NoAlignment).
				Field("a", Int8).
				Field("b", Int16).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(NoAlignment | AllowOverride).
				Extend(base).
				Field("a", Int8).
				Build()
		},
		want: []fieldLayout{
			{"b", "i16", 0},
			{"a", "i8", 2},
		},
	},
	{
		name: "override requires AllowOverride",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").
				Field("a", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(AlignAuto).
				Extend(base).
				Field("a", Int8).
				Build()
		},
		wantErr: OverrideError{Struct: "D", Field: "a"},
	},
	{
		name: "type safe override with same type",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").Flags(NoAlignment).
				Field("a", Int8).
				Field("b", Int16).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(NoAlignment | TypeSafeOverride).
				Extend(base).
				Field("b", Int16).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"b", "i16", 1},
		},
	},
	{
		name: "type safe override with differing type",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").
				Field("age", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(TypeSafeOverride).
				Extend(base).
				Field("age", Int16).
				Build()
		},
		wantErr: UnsafeOverrideError{Struct: "D", Field: "age", Old: Int8, New: Int16},
	},
	{
		name: "protected field cannot be overridden",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").Flags(DefaultFlags | Protected).
				Field("a", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").
				Extend(base).
				Field("a", Int8).
				Build()
		},
		wantErr: UnoverridableFieldError{Struct: "D", Field: "a"},
	},
	{
		name: "locked struct fields cannot be overridden",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").Flags(Locked).
				Field("a", Int16).
				Field("b", Int32).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").
				Extend(base).
				Field("a", Int16).
				Build()
		},
		wantErr: UnoverridableFieldError{Struct: "D", Field: "a"},
	},
	{
		name: "field-level protection",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").
				ProtectedField("id", Uint32).
				Field("a", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").
				Extend(base).
				Field("id", Uint32).
				Build()
		},
		wantErr: UnoverridableFieldError{Struct: "D", Field: "id"},
	},
	{
		name: "final struct cannot be derived",
		build: func() (*StructType, error) {
			base, err := NewStruct("F").Flags(DefaultFlags | Final).
				Field("a", Int16).
				Field("b", Int32).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").
				Extend(base).
				Field("c", Int32).
				Build()
		},
		wantErr: InheritanceError{Struct: "D", Base: "F"},
	},
	{
		name: "multiple bases concatenate in order",
		build: func() (*StructType, error) {
			b1, err := NewStruct("B1").Flags(NoAlignment).
				Field("a", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			b2, err := NewStruct("B2").Flags(NoAlignment).
				Field("b", Int8).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(NoAlignment).
				Extend(b1, b2).
				Field("c", Int8).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"b", "i8", 1},
			{"c", "i8", 2},
		},
	},
	{
		name: "base padding is not inherited",
		build: func() (*StructType, error) {
			base, err := NewStruct("B").Flags(AlignAuto).
				Field("a", Int8).
				Field("b", Int32).
				Build()
			if err != nil {
				return nil, err
			}
			return NewStruct("D").Flags(NoAlignment).
				Extend(base).
				Field("c", Int8).
				Build()
		},
		want: []fieldLayout{
			{"a", "i8", 0},
			{"b", "i32", 1},
			{"c", "i8", 5},
		},
	},
}

func TestOverrides(t *testing.T) {
	for _, test := range overrideTests {
		typ, err := test.build()
		if !reflect.DeepEqual(err, test.wantErr) {
			t.Errorf("unexpected error for %s: got:%v want:%v", test.name, err, test.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if got := layoutOf(typ); !cmp.Equal(got, test.want) {
			t.Errorf("unexpected layout for %s:\n%s", test.name, cmp.Diff(test.want, got))
		}
	}
}
