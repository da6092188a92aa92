// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package discovery finds points of interest around a place in Vietnam.
//
// A search resolves the query with a geocoder, then widens its scope tier by
// tier (a bounded search around the place, bounded searches around places
// sharing the same name, a radial feature query) until enough distinct POIs
// have been admitted. The state needed to extend a finished search is kept
// in a SearchContext that a ContinuationManager can resume.
package discovery

import (
	"fmt"

	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
)

// Level tells whether a resolved place is a whole province or a point.
type Level string

const (
	LevelProvince Level = "province"
	LevelPoint    Level = "point"
)

// HighlightedCities are offered as one click suggestions.
var HighlightedCities = []string{"Hà Nội", "Đà Nẵng", "Hội An", "Huế", "Sài Gòn"}

// DefaultCenter is where a map starts before any search (Đà Nẵng).
var DefaultCenter = spatial.Point{Lat: 16.0544, Lng: 108.2022}

// ResolvedPlace is the geocoder's answer for a query. It is built once per
// search and never modified.
type ResolvedPlace struct {
	PlaceID     int64         `json:"place_id"`
	DisplayName string        `json:"display_name"`
	Center      spatial.Point `json:"center"`
	Level       Level         `json:"level"`
	Region      string        `json:"region,omitempty"`
	Country     string        `json:"country,omitempty"`
}

// POI is an admitted point of interest.
type POI struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Category string  `json:"category"`
	Provider string  `json:"provider"`
}

// Point returns the POI location.
func (p POI) Point() spatial.Point {
	return spatial.Point{Lat: p.Lat, Lng: p.Lon}
}

// Candidate is a normalized provider record not yet admitted. An empty
// Region means the provider did not report one.
type Candidate struct {
	POI
	Region string
}

func placeID(id int64) string {
	return fmt.Sprintf("%s/%d", geo.ProviderNominatim, id)
}

func elementID(e geo.Element) string {
	return fmt.Sprintf("%s/%s/%d", geo.ProviderOverpass, e.Type, e.ID)
}

// Status summarizes how a search or a load more ended.
type Status string

const (
	// StatusComplete the tier quota was reached.
	StatusComplete Status = "complete"
	// StatusPartial some POIs were found, fewer than the quota.
	StatusPartial Status = "partial"
	// StatusMore a load more added POIs.
	StatusMore Status = "more"
	// StatusExhausted a load more found nothing new.
	StatusExhausted Status = "exhausted"
)

// SearchContext carries what a load more needs from a finished search.
type SearchContext struct {
	ID         string        `json:"id"`
	Query      string        `json:"query"`
	Place      ResolvedPlace `json:"place"`
	HalfExtent float64       `json:"half_extent"`
	SeenNames  *SeenNames    `json:"seen_names"`

	pacer *geo.Pacer
}

// Level is the classification of the resolved place.
func (c *SearchContext) Level() Level {
	return c.Place.Level
}

// Region is the administrative constraint applied to candidates, empty when
// the place is point-level.
func (c *SearchContext) Region() string {
	if c.Place.Level != LevelProvince {
		return ""
	}

	return c.Place.Region
}

// Total is the number of POIs admitted so far in the session.
func (c *SearchContext) Total() int {
	return c.SeenNames.Len()
}

// Result is the outcome of a successful search.
type Result struct {
	POIs     []POI          `json:"pois"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Selected string         `json:"selected,omitempty"`
	Center   spatial.Point  `json:"center"`
	Context  *SearchContext `json:"context"`
}

// MoreResult is the outcome of a load more. POIs holds only the new ones.
type MoreResult struct {
	POIs    []POI  `json:"pois"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Total   int    `json:"total"`
}
