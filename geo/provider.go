// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo adapts the public geodata services (Nominatim and Overpass)
// into a small set of interfaces the discovery pipeline depends on.
package geo

import (
	"context"

	"github.com/khampha-vn/khampha/spatial"
)

// Provider names, used in logs, errors and POI identifiers.
const (
	ProviderNominatim = "nominatim"
	ProviderOverpass  = "overpass"
)

// Address is the structured address block Nominatim attaches when asked for
// addressdetails. Only the administrative fields the pipeline reads are kept.
type Address struct {
	State    string `json:"state,omitempty"`
	Historic string `json:"historic,omitempty"`
	Province string `json:"province,omitempty"`
	County   string `json:"county,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Place is a Nominatim search record. Coordinates come over the wire as
// strings and are kept that way until normalization.
type Place struct {
	PlaceID     int64   `json:"place_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Class       string  `json:"class"`
	Address     Address `json:"address"`
}

// Center is the centroid Overpass reports for ways with "out center".
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is an Overpass node or way.
type Element struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Position returns the element coordinates: the node position, or the way
// centroid. ok is false when neither is present.
func (e Element) Position() (p spatial.Point, ok bool) {
	switch {
	case e.Lat != nil && e.Lon != nil:
		return spatial.Point{Lat: *e.Lat, Lng: *e.Lon}, true
	case e.Center != nil:
		return spatial.Point{Lat: e.Center.Lat, Lng: e.Center.Lon}, true
	default:
		return spatial.Point{}, false
	}
}

// BoxQuery is a bounded free text search.
type BoxQuery struct {
	Box        spatial.BBox
	Categories []string
	Limit      int
}

// AroundQuery asks for tagged features within a radius of a center.
type AroundQuery struct {
	Center       spatial.Point
	RadiusMeters int
	Limit        int
}

// Geocoder resolves free text to places. An empty slice means nothing
// matched and is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, text string, limit int) ([]Place, error)
}

// PlaceSearcher searches places inside a bounding box.
type PlaceSearcher interface {
	SearchBox(ctx context.Context, q BoxQuery) ([]Place, error)
}

// FeatureQuerier lists tagged map features around a point.
type FeatureQuerier interface {
	Around(ctx context.Context, q AroundQuery) ([]Element, error)
}
