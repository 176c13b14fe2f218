// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import "fmt"

// InheritanceError is returned when a struct attempts to derive from a
// struct marked Final.
type InheritanceError struct {
	Struct string // Name of the struct being declared.
	Base   string // Name of the final base.
}

func (e InheritanceError) Error() string {
	return fmt.Sprintf("binstruct: %s cannot derive from final struct %s", e.Struct, e.Base)
}

// OverrideError is returned when a declared field collides with an inherited
// field and AllowOverride is not set.
type OverrideError struct {
	Struct string
	Field  string
}

func (e OverrideError) Error() string {
	return fmt.Sprintf("binstruct: %s redeclares field %q without AllowOverride", e.Struct, e.Field)
}

// UnoverridableFieldError is returned when a declared field shadows a
// protected field.
type UnoverridableFieldError struct {
	Struct string
	Field  string
}

func (e UnoverridableFieldError) Error() string {
	return fmt.Sprintf("binstruct: %s overrides protected field %q", e.Struct, e.Field)
}

// UnsafeOverrideError is returned when a field override under
// TypeSafeOverride changes the field's type.
type UnsafeOverrideError struct {
	Struct string
	Field  string
	Old    Type
	New    Type
}

func (e UnsafeOverrideError) Error() string {
	return fmt.Sprintf("binstruct: %s overrides field %q with unsafe type change: %s != %s", e.Struct, e.Field, e.New, e.Old)
}

// SizeError is returned when a struct compiled with FixedSize has a
// dynamically sized field.
type SizeError struct {
	Struct string
}

func (e SizeError) Error() string {
	return fmt.Sprintf("binstruct: cannot determine fixed size for %s", e.Struct)
}

// TypeError is returned when a value is outside the domain of the type it is
// assigned or encoded as.
type TypeError struct {
	Field string // Field name if the failure is a field assignment.
	Type  Type
	Value interface{}
}

func (e TypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("binstruct: %s does not accept %#v", e.Type, e.Value)
	}
	return fmt.Sprintf("binstruct: field %q of type %s does not accept %#v", e.Field, e.Type, e.Value)
}

// UnknownFieldError is returned for access to a field name not present in
// the struct.
type UnknownFieldError struct {
	Struct string
	Field  string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("binstruct: %s has no field %q", e.Struct, e.Field)
}

// UninitializedFieldError is returned when a struct value is encoded with a
// field that has not been set.
type UninitializedFieldError struct {
	Struct string
	Field  string
}

func (e UninitializedFieldError) Error() string {
	return fmt.Sprintf("binstruct: field %q of %s is not initialized", e.Field, e.Struct)
}

// ElementCountError is returned when a fixed-length array is encoded with
// the wrong number of elements.
type ElementCountError struct {
	Type Type
	Want int
	Got  int
}

func (e ElementCountError) Error() string {
	return fmt.Sprintf("binstruct: %s expects %d elements, got %d", e.Type, e.Want, e.Got)
}

// StringLengthError is returned when a fixed-length string is encoded with a
// value whose byte length does not match the type.
type StringLengthError struct {
	Type Type
	Want int
	Got  int
}

func (e StringLengthError) Error() string {
	return fmt.Sprintf("binstruct: %s expects %d bytes, got %d", e.Type, e.Want, e.Got)
}
