// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/khampha-vn/khampha/geo"
)

// Settings holds the tunables of the search tiers. Half extents are in
// degrees, radii in meters.
type Settings struct {
	Target int `mapstructure:"target"`

	ProvinceHalfExtent float64 `mapstructure:"province_half_extent"`
	PointHalfExtent    float64 `mapstructure:"point_half_extent"`
	PrimaryLimit       int     `mapstructure:"primary_limit"`

	SiblingGeocodeLimit int     `mapstructure:"sibling_geocode_limit"`
	SiblingHalfExtent   float64 `mapstructure:"sibling_half_extent"`
	SiblingLimit        int     `mapstructure:"sibling_limit"`

	ProvinceRadius int `mapstructure:"province_radius"`
	PointRadius    int `mapstructure:"point_radius"`
	FeatureLimit   int `mapstructure:"feature_limit"`

	MoreProvinceHalfExtent float64 `mapstructure:"more_province_half_extent"`
	MorePointHalfExtent    float64 `mapstructure:"more_point_half_extent"`
	MoreLimit              int     `mapstructure:"more_limit"`

	Categories         []string `mapstructure:"categories"`
	ExpandedCategories []string `mapstructure:"expanded_categories"`

	RegionMatch  RegionMatch   `mapstructure:"region_match"`
	PaceInterval time.Duration `mapstructure:"pace_interval"`
}

// DefaultCategories is the bounded search vocabulary.
var DefaultCategories = []string{
	"tourism", "attraction", "museum", "restaurant", "hotel",
	"temple", "pagoda", "church", "market", "beach", "park",
}

// DefaultSettings returns the tuning used by the public services.
func DefaultSettings() Settings {
	return Settings{
		Target: 5,

		ProvinceHalfExtent: 0.15,
		PointHalfExtent:    0.05,
		PrimaryLimit:       50,

		SiblingGeocodeLimit: 10,
		SiblingHalfExtent:   0.03,
		SiblingLimit:        30,

		ProvinceRadius: 20000,
		PointRadius:    5000,
		FeatureLimit:   20,

		MoreProvinceHalfExtent: 0.25,
		MorePointHalfExtent:    0.1,
		MoreLimit:              100,

		Categories:         append([]string(nil), DefaultCategories...),
		ExpandedCategories: append(append([]string(nil), DefaultCategories...), "cafe"),

		RegionMatch:  RegionMatchExact,
		PaceInterval: geo.DefaultPaceInterval,
	}
}

// Validate rejects settings the tiers cannot run with.
func (s Settings) Validate() error {
	switch {
	case s.Target <= 0:
		return eris.Errorf("discovery: target must be positive, got %d", s.Target)
	case s.ProvinceHalfExtent <= 0, s.PointHalfExtent <= 0, s.SiblingHalfExtent <= 0,
		s.MoreProvinceHalfExtent <= 0, s.MorePointHalfExtent <= 0:
		return eris.New("discovery: half extents must be positive")
	case s.ProvinceRadius <= 0, s.PointRadius <= 0:
		return eris.New("discovery: radii must be positive")
	case s.PrimaryLimit <= 0, s.SiblingGeocodeLimit <= 0, s.SiblingLimit <= 0, s.FeatureLimit <= 0, s.MoreLimit <= 0:
		return eris.New("discovery: limits must be positive")
	case len(s.Categories) == 0, len(s.ExpandedCategories) == 0:
		return eris.New("discovery: category vocabularies must not be empty")
	case s.RegionMatch != RegionMatchExact && s.RegionMatch != RegionMatchFolded:
		return eris.Errorf("discovery: unknown region match %q", s.RegionMatch)
	case s.PaceInterval < 0:
		return eris.New("discovery: pace interval must not be negative")
	}

	return nil
}

func (s Settings) primaryHalfExtent(l Level) float64 {
	if l == LevelProvince {
		return s.ProvinceHalfExtent
	}

	return s.PointHalfExtent
}

func (s Settings) radius(l Level) int {
	if l == LevelProvince {
		return s.ProvinceRadius
	}

	return s.PointRadius
}

func (s Settings) moreHalfExtent(l Level) float64 {
	if l == LevelProvince {
		return s.MoreProvinceHalfExtent
	}

	return s.MorePointHalfExtent
}
