// Copyright ©2022 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binstruct

import "strings"

// Flags is a bit set of struct layout options.
type Flags uint16

const (
	// Align1, Align2, Align4 and Align8 force an explicit alignment
	// boundary. Each field is aligned to the smaller of the boundary and
	// its own type's alignment, and the struct is trailing-padded to a
	// multiple of the boundary. If more than one is set the largest wins.
	Align1 Flags = 1 << iota
	Align2
	Align4
	Align8

	// AlignAuto aligns each field to its own type's alignment. No
	// trailing padding is added.
	AlignAuto

	// NoAlignment skips all alignment passes.
	NoAlignment

	// ReorderFields permutes fixed-size fields by descending size.
	// Dynamically sized fields keep declaration order at the end.
	ReorderFields

	// AllowOverride permits a declared field to shadow an inherited field
	// of the same name. The override takes the later declaration position.
	AllowOverride

	// TypeSafeOverride implies AllowOverride and additionally requires an
	// overriding field to have the same type as the field it shadows.
	TypeSafeOverride

	// FixedSize requires the compiled struct to have a fixed size.
	FixedSize

	// Protected marks all declared fields as protected; no derived struct
	// may shadow them.
	Protected

	// Final rejects any attempt to derive from the struct.
	Final

	// Locked marks all declared fields protected and lays the struct out
	// exactly as declared, with no alignment or reordering.
	Locked
)

// Packed is an alias for Align1: no padding is ever inserted.
const Packed = Align1

// DefaultFlags is the flag set used by NewStruct.
const DefaultFlags = AllowOverride | AlignAuto

var flagNames = []struct {
	flag Flags
	name string
}{
	{Align1, "Align1"},
	{Align2, "Align2"},
	{Align4, "Align4"},
	{Align8, "Align8"},
	{AlignAuto, "AlignAuto"},
	{NoAlignment, "NoAlignment"},
	{ReorderFields, "ReorderFields"},
	{AllowOverride, "AllowOverride"},
	{TypeSafeOverride, "TypeSafeOverride"},
	{FixedSize, "FixedSize"},
	{Protected, "Protected"},
	{Final, "Final"},
	{Locked, "Locked"},
}

func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var names []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// alignMode returns the alignment policy selected by f: an explicit boundary
// if any of the AlignN flags is set, otherwise automatic per-field alignment
// if AlignAuto is set. ok is false when no alignment pass should run.
func (f Flags) alignMode() (boundary int, auto, ok bool) {
	if f&(NoAlignment|Locked) != 0 {
		return 0, false, false
	}
	switch {
	case f&Align8 != 0:
		return 8, false, true
	case f&Align4 != 0:
		return 4, false, true
	case f&Align2 != 0:
		return 2, false, true
	case f&Align1 != 0:
		return 1, false, true
	case f&AlignAuto != 0:
		return 0, true, true
	}
	return 0, false, false
}
