// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"fmt"
	"reflect"
)

// StructType is a compiled struct layout. It is immutable once built and may
// be read concurrently. A StructType is itself a Type and may be used as the
// type of a field in another struct.
type StructType struct {
	name   string
	fields []FieldInfo    // Compiled order, including synthetic padding.
	index  map[string]int // Addressable field name to fields index.
	size   int
	align  int
	flags  Flags
	bases  []*StructType
}

// NewStruct returns a builder for a struct type with the given name and
// DefaultFlags.
func NewStruct(name string) *StructBuilder {
	return &StructBuilder{name: name, flags: DefaultFlags}
}

// StructBuilder collects a struct declaration: an ordered set of named,
// typed fields, zero or more base struct types and a set of layout flags.
// Methods return the receiver to allow chaining.
type StructBuilder struct {
	name   string
	bases  []*StructType
	fields []FieldInfo
	flags  Flags
	err    error
}

// Extend appends base struct types to the declaration. Bases contribute
// their fields, in order, ahead of the declared fields.
func (b *StructBuilder) Extend(bases ...*StructType) *StructBuilder {
	for _, base := range bases {
		if base == nil {
			if b.err == nil {
				b.err = fmt.Errorf("binstruct: %s extends nil struct", b.name)
			}
			continue
		}
		b.bases = append(b.bases, base)
	}
	return b
}

// Field appends a field with the given name and type.
func (b *StructBuilder) Field(name string, typ Type) *StructBuilder {
	return b.field(name, typ, 0)
}

// ProtectedField appends a field that may not be overridden by derived
// structs, independent of the struct-level Protected flag.
func (b *StructBuilder) ProtectedField(name string, typ Type) *StructBuilder {
	return b.field(name, typ, FieldProtected)
}

func (b *StructBuilder) field(name string, typ Type, flags FieldFlags) *StructBuilder {
	f, err := NewField(name, typ)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	f.Flags = flags
	b.fields = append(b.fields, f)
	return b
}

// Flags replaces the declaration's layout flags.
func (b *StructBuilder) Flags(flags Flags) *StructBuilder {
	b.flags = flags
	return b
}

// Build compiles the declaration into an immutable StructType.
func (b *StructBuilder) Build() (*StructType, error) {
	if b.err != nil {
		return nil, b.err
	}
	lay, err := compile(b.name, b.bases, b.fields, b.flags)
	if err != nil {
		return nil, err
	}
	t := &StructType{
		name:   b.name,
		fields: lay.fields,
		index:  make(map[string]int),
		size:   lay.size,
		align:  lay.align,
		flags:  b.flags,
		bases:  append([]*StructType(nil), b.bases...),
	}
	for i, f := range t.fields {
		if !f.synthetic() {
			t.index[f.Name] = i
		}
	}
	return t, nil
}

// MustBuild is like Build but panics on error. It simplifies package-level
// struct declarations.
func (b *StructBuilder) MustBuild() *StructType {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the struct's declared name.
func (t *StructType) Name() string { return t.name }

func (t *StructType) String() string {
	if t.name == "" {
		return "struct"
	}
	return t.name
}

// Size returns the encoded size of the struct in bytes, or DynamicSize if
// any field is dynamically sized.
func (t *StructType) Size() int { return t.size }

// Alignment returns the struct alignment: the maximum alignment of its
// fields, or 1 for an empty struct.
func (t *StructType) Alignment() int { return t.align }

// Dynamic reports whether the struct has a value-dependent encoded size.
func (t *StructType) Dynamic() bool { return t.size == DynamicSize }

// Fixed reports whether the struct has a fixed encoded size.
func (t *StructType) Fixed() bool { return t.size != DynamicSize }

// Flags returns the flags the struct was declared with.
func (t *StructType) Flags() Flags { return t.flags }

// Bases returns the struct's base types in declaration order.
func (t *StructType) Bases() []*StructType {
	return append([]*StructType(nil), t.bases...)
}

// Fields returns the struct's fields in compiled order with offsets
// assigned, excluding synthetic padding.
func (t *StructType) Fields() []FieldInfo {
	fields := make([]FieldInfo, 0, len(t.index))
	for _, f := range t.fields {
		if !f.synthetic() {
			fields = append(fields, f)
		}
	}
	return fields
}

// Layout returns the complete compiled field list, including synthetic
// padding fields.
func (t *StructType) Layout() []FieldInfo {
	return append([]FieldInfo(nil), t.fields...)
}

// Field returns the named field and whether it is present. Synthetic padding
// fields are not addressable by name.
func (t *StructType) Field(name string) (FieldInfo, bool) {
	i, ok := t.index[name]
	if !ok {
		return FieldInfo{}, false
	}
	return t.fields[i], true
}

// userFields returns the fields a derived struct inherits: the compiled list
// minus synthetic padding, with offsets cleared.
func (t *StructType) userFields() []FieldInfo {
	fields := t.Fields()
	for i := range fields {
		fields[i].Offset = 0
	}
	return fields
}

// New returns a new instance of the struct with the given field values set.
// A nil map yields an instance with no fields initialised.
func (t *StructType) New(values map[string]interface{}) (*Instance, error) {
	x := &Instance{typ: t, values: make(map[string]interface{}, len(t.index))}
	for name, v := range values {
		if err := x.Set(name, v); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// MustNew is like New but panics on error.
func (t *StructType) MustNew(values map[string]interface{}) *Instance {
	x, err := t.New(values)
	if err != nil {
		panic(err)
	}
	return x
}

func (t *StructType) goType() reflect.Type { return reflect.TypeOf((*Instance)(nil)) }

// Accepts reports whether v is an instance of exactly this struct type.
func (t *StructType) Accepts(v interface{}) bool {
	x, ok := v.(*Instance)
	return ok && x.typ == t
}
