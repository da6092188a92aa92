// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/utils/textutils"
)

// countryMarkers are the spellings accepted as "in Vietnam".
var countryMarkers = []string{"Vietnam", "Việt Nam", "Viet Nam"}

// InScope reports whether p lies in Vietnam, judged by its country field or,
// when absent, its display name.
func InScope(p geo.Place) bool {
	country := textutils.FirstNonEmpty(p.Address.Country, p.DisplayName)

	return textutils.ContainsFolded(country, countryMarkers...)
}

// ClassifyLevel decides whether p stands for a whole province.
func ClassifyLevel(p geo.Place) Level {
	hasRegion := p.Address.State != "" || p.Address.Historic != ""
	adminLike := p.Type == "administrative" || p.Type == "historic" || p.Class == "boundary" || p.Address.City == ""

	if hasRegion && adminLike {
		return LevelProvince
	}

	return LevelPoint
}

// Resolve turns the geocoder's first answer into a ResolvedPlace. It fails
// with KindNotFound when p is outside Vietnam or has unusable coordinates.
func Resolve(p geo.Place) (ResolvedPlace, error) {
	if !InScope(p) {
		return ResolvedPlace{}, &SearchError{Kind: KindNotFound, Message: MsgOutOfScope}
	}

	lat, okLat := parseCoordinate(p.Lat)
	lon, okLon := parseCoordinate(p.Lon)
	center := spatial.Point{Lat: lat, Lng: lon}

	if !okLat || !okLon || !center.Valid() {
		return ResolvedPlace{}, &SearchError{Kind: KindNotFound, Message: MsgNotFound}
	}

	return ResolvedPlace{
		PlaceID:     p.PlaceID,
		DisplayName: p.DisplayName,
		Center:      center,
		Level:       ClassifyLevel(p),
		Region:      regionOf(p.Address),
		Country:     p.Address.Country,
	}, nil
}
