// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import (
	"fmt"
	"sort"
)

// layout is the result of compiling a struct declaration: the ordered field
// list including synthetic padding, with offsets assigned, the total encoded
// size (or DynamicSize) and the struct alignment.
type layout struct {
	fields []FieldInfo
	size   int
	align  int
}

// compile produces the layout for a struct named name deriving from bases
// with the given declared fields and flags. It is a pure function; the input
// slices are not modified.
func compile(name string, bases []*StructType, decls []FieldInfo, flags Flags) (layout, error) {
	if flags&TypeSafeOverride != 0 {
		flags |= AllowOverride
	}

	// Flatten the parent chain. Each base contributes its compiled field
	// list minus synthetic padding, in declaration order.
	var all []FieldInfo
	for _, base := range bases {
		if base.flags&Final != 0 {
			return layout{}, InheritanceError{Struct: name, Base: base.name}
		}
		all = append(all, base.userFields()...)
	}
	for _, f := range decls {
		if flags&(Protected|Locked) != 0 {
			f.Flags |= FieldProtected
		}
		all = append(all, f)
	}

	fields, err := resolveOverrides(name, all, flags)
	if err != nil {
		return layout{}, err
	}

	if flags&ReorderFields != 0 && flags&Locked == 0 {
		fields = reorder(fields)
	}

	dynamic := false
	for _, f := range fields {
		if IsDynamic(f.Type) {
			dynamic = true
			break
		}
	}

	// Alignment on a dynamically sized struct is a no-op; offsets past the
	// first dynamic field cannot be fixed.
	if boundary, auto, ok := flags.alignMode(); ok && !dynamic && len(fields) != 0 {
		fields = align(fields, boundary, auto)
	}

	size := 0
	maxAlign := 1
	for i := range fields {
		fields[i].Offset = size
		if s := fields[i].Type.Size(); s != DynamicSize {
			size += s
		}
		if a := fields[i].Type.Alignment(); a > maxAlign {
			maxAlign = a
		}
	}
	if dynamic {
		size = DynamicSize
	}

	if flags&FixedSize != 0 && size == DynamicSize {
		return layout{}, SizeError{Struct: name}
	}

	return layout{fields: fields, size: size, align: maxAlign}, nil
}

// resolveOverrides walks the concatenated field list applying the override
// policy. A colliding field replaces the earlier one and takes the later
// declaration position.
func resolveOverrides(name string, all []FieldInfo, flags Flags) ([]FieldInfo, error) {
	fields := make([]FieldInfo, 0, len(all))
	index := make(map[string]int, len(all))
	for _, f := range all {
		j, ok := index[f.Name]
		if !ok {
			index[f.Name] = len(fields)
			fields = append(fields, f)
			continue
		}
		old := fields[j]
		switch {
		case old.Protected():
			return nil, UnoverridableFieldError{Struct: name, Field: f.Name}
		case flags&TypeSafeOverride != 0 && f.Type != old.Type:
			return nil, UnsafeOverrideError{Struct: name, Field: f.Name, Old: old.Type, New: f.Type}
		case flags&AllowOverride == 0:
			return nil, OverrideError{Struct: name, Field: f.Name}
		}
		fields = append(fields[:j], fields[j+1:]...)
		for k, v := range index {
			if v > j {
				index[k] = v - 1
			}
		}
		index[f.Name] = len(fields)
		fields = append(fields, f)
	}
	return fields, nil
}

// reorder stable-partitions fields into fixed-size and dynamic, sorts the
// fixed partition by descending size and appends the dynamic fields in
// declaration order.
func reorder(fields []FieldInfo) []FieldInfo {
	sized := make([]FieldInfo, 0, len(fields))
	var dynamic []FieldInfo
	for _, f := range fields {
		if IsDynamic(f.Type) {
			dynamic = append(dynamic, f)
		} else {
			sized = append(sized, f)
		}
	}
	sort.SliceStable(sized, func(i, j int) bool {
		return sized[i].Type.Size() > sized[j].Type.Size()
	})
	return append(sized, dynamic...)
}

// align inserts synthetic padding fields so that each field lands on its
// alignment boundary. With an explicit boundary each field is aligned to
// min(boundary, type alignment) and the struct is trailing-padded to a
// multiple of the boundary; in auto mode each field is aligned to its own
// type's alignment and no trailing padding is added.
func align(fields []FieldInfo, boundary int, auto bool) []FieldInfo {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Name] = true
	}
	out := make([]FieldInfo, 0, len(fields))
	offset := 0
	padIdx := 0
	for _, f := range fields {
		a := f.Type.Alignment()
		if !auto && a > boundary {
			a = boundary
		}
		if pad := -offset & (a - 1); pad > 0 {
			out = append(out, paddingField(pad, &padIdx, seen))
			offset += pad
		}
		out = append(out, f)
		offset += f.Type.Size()
	}
	if !auto {
		if pad := -offset & (boundary - 1); pad > 0 {
			out = append(out, paddingField(pad, &padIdx, seen))
		}
	}
	return out
}

// paddingField returns a synthetic padding field of the given width with a
// generated name that does not collide with any existing field name.
func paddingField(width int, padIdx *int, seen map[string]bool) FieldInfo {
	var name string
	for {
		name = fmt.Sprintf("_pad%d", *padIdx)
		*padIdx++
		if !seen[name] {
			break
		}
	}
	seen[name] = true
	return FieldInfo{Name: name, Type: PaddingOf(width), Flags: fieldSynthetic}
}
