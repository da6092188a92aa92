// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/khampha-vn/khampha/spatial"
)

const maxQueryLength = 200

// Generous bounds around Vietnam, islands included.
var vietnamBounds = spatial.BBox{West: 101.0, South: 7.0, East: 118.0, North: 24.0}

// SanitizeQuery trims q and caps its length.
func SanitizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")

	if utf8.RuneCountInString(q) > maxQueryLength {
		q = string([]rune(q)[:maxQueryLength])
	}

	return q
}

// ValidateQuery returns the sanitized query, or a KindUserInput error when
// nothing is left.
func ValidateQuery(q string) (string, error) {
	q = SanitizeQuery(q)
	if q == "" {
		return "", &SearchError{Kind: KindUserInput, Message: MsgEmptyQuery}
	}

	return q, nil
}

// ValidateCoordinates checks that lat/lon is a real point in or near Vietnam.
func ValidateCoordinates(lat, lon float64) error {
	p := spatial.Point{Lat: lat, Lng: lon}
	if !p.Valid() {
		return eris.Errorf("invalid coordinates %f,%f", lat, lon)
	}

	if !vietnamBounds.Contains(p) {
		return eris.Errorf("coordinates %f,%f outside Vietnam (%s)", lat, lon, vietnamBounds.ViewBox())
	}

	return nil
}
