// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"encoding/json"

	"github.com/khampha-vn/khampha/utils/textutils"
)

// SeenNames is the set of short names admitted in a session. It only grows.
// It is not safe for concurrent use.
type SeenNames struct {
	order []string
	index map[string]struct{}
}

// NewSeenNames returns a set holding names.
func NewSeenNames(names ...string) *SeenNames {
	s := &SeenNames{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}

	return s
}

// Has reports whether name was admitted.
func (s *SeenNames) Has(name string) bool {
	if s == nil {
		return false
	}

	_, ok := s.index[name]

	return ok
}

// Add records name. It reports false when name was already present.
func (s *SeenNames) Add(name string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}

	if _, ok := s.index[name]; ok {
		return false
	}

	s.index[name] = struct{}{}
	s.order = append(s.order, name)

	return true
}

// Len is the number of names.
func (s *SeenNames) Len() int {
	if s == nil {
		return 0
	}

	return len(s.order)
}

// Names returns the names in admission order.
func (s *SeenNames) Names() []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s.order...)
}

// Clone returns an independent copy.
func (s *SeenNames) Clone() *SeenNames {
	return NewSeenNames(s.Names()...)
}

// MarshalJSON encodes the set as an array in admission order.
func (s *SeenNames) MarshalJSON() ([]byte, error) {
	names := s.Names()
	if names == nil {
		names = []string{}
	}

	return json.Marshal(names)
}

// UnmarshalJSON decodes an array of names.
func (s *SeenNames) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	*s = *NewSeenNames(names...)

	return nil
}

// RegionMatch selects how candidate regions are compared to the constraint.
type RegionMatch string

const (
	// RegionMatchExact compares names byte for byte.
	RegionMatchExact RegionMatch = "exact"
	// RegionMatchFolded ignores case and Vietnamese diacritics.
	RegionMatchFolded RegionMatch = "folded"
)

func (m RegionMatch) equal(a, b string) bool {
	if m == RegionMatchFolded {
		return textutils.LowerASCIIFolding(a) == textutils.LowerASCIIFolding(b)
	}

	return a == b
}

// Reason explains a Verdict.
type Reason string

const (
	ReasonAdmitted       Reason = "admitted"
	ReasonDuplicate      Reason = "duplicate name"
	ReasonNoName         Reason = "no name"
	ReasonNoCoordinates  Reason = "missing coordinates"
	ReasonRegionMismatch Reason = "outside region"
)

// Verdict is the filter decision on one candidate.
type Verdict struct {
	Admitted bool
	Reason   Reason
}

// Filter deduplicates candidates by short name and, when a region constraint
// is set, rejects candidates reporting a different region. Admitting a
// candidate records its name in the shared SeenNames.
//
// A Filter must be used sequentially.
type Filter struct {
	seen       *SeenNames
	constraint string
	match      RegionMatch
}

// NewFilter returns a filter over seen. An empty constraint disables the
// region check.
func NewFilter(seen *SeenNames, constraint string, match RegionMatch) *Filter {
	if seen == nil {
		seen = NewSeenNames()
	}

	return &Filter{seen: seen, constraint: constraint, match: match}
}

// Admit decides on c.
func (f *Filter) Admit(c Candidate) Verdict {
	switch {
	case c.Name == "":
		return Verdict{Reason: ReasonNoName}
	case f.seen.Has(c.Name):
		return Verdict{Reason: ReasonDuplicate}
	case !c.Point().Valid():
		return Verdict{Reason: ReasonNoCoordinates}
	case f.constraint != "" && c.Region != "" && !f.match.equal(c.Region, f.constraint):
		return Verdict{Reason: ReasonRegionMismatch}
	}

	f.seen.Add(c.Name)

	return Verdict{Admitted: true, Reason: ReasonAdmitted}
}
