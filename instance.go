// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Instance is a value of a compiled struct type: a mapping from field name
// to a value accepted by the field's type. Padding fields carry no value.
// Instances are not safe for concurrent mutation.
type Instance struct {
	typ    *StructType
	values map[string]interface{}
}

// Type returns the instance's struct type.
func (x *Instance) Type() *StructType { return x.typ }

// Set assigns v to the named field. The value must be accepted by the
// field's type; it is normalised to the type's canonical Go representation.
func (x *Instance) Set(name string, v interface{}) error {
	f, ok := x.typ.Field(name)
	if !ok {
		return UnknownFieldError{Struct: x.typ.name, Field: name}
	}
	if f.padding() || !f.Type.Accepts(v) {
		return TypeError{Field: name, Type: f.Type, Value: v}
	}
	x.values[name] = canonical(f.Type, v)
	return nil
}

// Get returns the value of the named field. Padding fields yield nil.
func (x *Instance) Get(name string) (interface{}, error) {
	f, ok := x.typ.Field(name)
	if !ok {
		return nil, UnknownFieldError{Struct: x.typ.name, Field: name}
	}
	if f.padding() {
		return nil, nil
	}
	v, ok := x.values[name]
	if !ok {
		return nil, UninitializedFieldError{Struct: x.typ.name, Field: name}
	}
	return v, nil
}

// Values returns a copy of the instance's initialised field values.
func (x *Instance) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(x.values))
	for name, v := range x.values {
		values[name] = v
	}
	return values
}

// MarshalBinary encodes the instance. All non-padding fields must be set.
// For a fixed-size struct type the result is exactly Type().Size() bytes.
func (x *Instance) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := x.typ.Encode(&buf, x); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Equal reports whether y has the same type and equal field values.
func (x *Instance) Equal(y *Instance) bool {
	return y != nil && x.typ == y.typ && reflect.DeepEqual(x.values, y.values)
}

func (x *Instance) String() string {
	var sb strings.Builder
	sb.WriteString(x.typ.String())
	sb.WriteByte('{')
	first := true
	for _, f := range x.typ.fields {
		if f.synthetic() || f.padding() {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		if v, ok := x.values[f.Name]; ok {
			fmt.Fprintf(&sb, "%#v", v)
		} else {
			sb.WriteString("<unset>")
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// Encode writes the encoding of v, which must be an instance of t, to w.
// The compiled field list is walked in order; synthetic and declared padding
// encode as zero bytes.
func (t *StructType) Encode(w io.Writer, v interface{}) error {
	if !t.Accepts(v) {
		return TypeError{Type: t, Value: v}
	}
	x := v.(*Instance)
	for _, f := range t.fields {
		if f.padding() {
			if err := f.Type.Encode(w, nil); err != nil {
				return err
			}
			continue
		}
		val, ok := x.values[f.Name]
		if !ok {
			return UninitializedFieldError{Struct: t.name, Field: f.Name}
		}
		if err := f.Type.Encode(w, val); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads an instance of t from r, consuming exactly the encoded
// length of the value. The returned value is a *Instance.
func (t *StructType) Decode(r io.Reader) (interface{}, error) {
	x := &Instance{typ: t, values: make(map[string]interface{}, len(t.index))}
	for _, f := range t.fields {
		v, err := f.Type.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("binstruct: decoding field %q of %s: %w", f.Name, t.String(), err)
		}
		if f.padding() {
			continue
		}
		x.values[f.Name] = v
	}
	return x, nil
}

// Unmarshal decodes an instance of t from the start of data. Trailing bytes
// beyond the encoded value are ignored.
func (t *StructType) Unmarshal(data []byte) (*Instance, error) {
	v, err := t.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return v.(*Instance), nil
}
