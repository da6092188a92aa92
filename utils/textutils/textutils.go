// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds string helpers shared by the discovery pipeline,
// the store and the command line.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
//
// Vietnamese stacks two marks on some vowels (ệ = e + circumflex + dot
// below); both are nonspacing marks so both go away. đ has no canonical
// decomposition and is mapped explicitly.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Map(func(r rune) rune {
				if r == 'đ' {
					return 'd'
				}

				return r
			}),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// ContainsFolded reports whether any of the needles appears in s once both
// sides are ASCII folded.
func ContainsFolded(s string, needles ...string) bool {
	folded := LowerASCIIFolding(s)
	for _, n := range needles {
		if strings.Contains(folded, LowerASCIIFolding(n)) {
			return true
		}
	}

	return false
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// TitleCase capitalizes every word with Vietnamese casing rules, so
// "hội an" becomes "Hội An".
func TitleCase(s string) string {
	return cases.Title(language.Vietnamese).String(strings.TrimSpace(s))
}

// AnyToStringSlice converts an interface{} to []string safely.
func AnyToStringSlice(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}

	if i, ok := v.([]string); ok {
		return i, true
	}

	if i, ok := v.([]any); ok {
		s := make([]string, len(i))

		for j, e := range i {
			val, ok := e.(string)
			if !ok {
				return nil, false
			}

			s[j] = val
		}

		return s, true
	}

	return nil, false
}
