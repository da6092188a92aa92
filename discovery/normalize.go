// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"math"
	"strconv"
	"strings"

	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/utils/textutils"
)

const (
	defaultCategory = "attraction"
	// unnamedSentinel marks an Overpass element without any usable name.
	unnamedSentinel = "Unnamed"
)

// shortName is the display name up to the first comma.
func shortName(displayName string) string {
	name, _, _ := strings.Cut(displayName, ",")

	return strings.TrimSpace(name)
}

// regionOf picks the administrative region reported in an address.
func regionOf(a geo.Address) string {
	return textutils.FirstNonEmpty(a.State, a.Historic, a.Province, a.County)
}

func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// FromPlace normalizes a Nominatim record. ok is false when the record has
// no name or no usable coordinates.
func FromPlace(p geo.Place) (Candidate, bool) {
	name := shortName(p.DisplayName)
	if name == "" {
		return Candidate{}, false
	}

	lat, okLat := parseCoordinate(p.Lat)
	lon, okLon := parseCoordinate(p.Lon)

	if !okLat || !okLon {
		return Candidate{}, false
	}

	category := p.Type
	if category == "" {
		category = defaultCategory
	}

	return Candidate{
		POI: POI{
			ID:       placeID(p.PlaceID),
			Name:     name,
			FullName: p.DisplayName,
			Lat:      lat,
			Lon:      lon,
			Category: category,
			Provider: geo.ProviderNominatim,
		},
		Region: regionOf(p.Address),
	}, true
}

// FromElement normalizes an Overpass element. Elements carry no region.
func FromElement(e geo.Element) (Candidate, bool) {
	name := textutils.FirstNonEmpty(e.Tags["name"], e.Tags["tourism"], e.Tags["amenity"], unnamedSentinel)
	if name == unnamedSentinel {
		return Candidate{}, false
	}

	pos, ok := e.Position()
	if !ok || !pos.Valid() {
		return Candidate{}, false
	}

	return Candidate{
		POI: POI{
			ID:       elementID(e),
			Name:     name,
			FullName: name,
			Lat:      pos.Lat,
			Lon:      pos.Lng,
			Category: textutils.FirstNonEmpty(e.Tags["tourism"], e.Tags["amenity"], defaultCategory),
			Provider: geo.ProviderOverpass,
		},
	}, true
}
