// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/khampha-vn/khampha/geo"
)

func TestFromPlace(t *testing.T) {
	got, ok := FromPlace(geo.Place{
		PlaceID:     42,
		Lat:         "15.8770",
		Lon:         "108.3260",
		DisplayName: "Chùa Cầu, Nguyễn Thị Minh Khai, Hội An, Quảng Nam, Việt Nam",
		Type:        "attraction",
		Address:     geo.Address{State: "Quảng Nam", County: "Hội An"},
	})
	assert.True(t, ok)

	want := Candidate{
		POI: POI{
			ID:       "nominatim/42",
			Name:     "Chùa Cầu",
			FullName: "Chùa Cầu, Nguyễn Thị Minh Khai, Hội An, Quảng Nam, Việt Nam",
			Lat:      15.877,
			Lon:      108.326,
			Category: "attraction",
			Provider: geo.ProviderNominatim,
		},
		Region: "Quảng Nam",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromPlace() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromPlaceDefaultsAndDrops(t *testing.T) {
	c, ok := FromPlace(geo.Place{Lat: "16", Lon: "108", DisplayName: "Không dấu phẩy"})
	assert.True(t, ok)
	assert.Equal(t, "Không dấu phẩy", c.Name)
	assert.Equal(t, "attraction", c.Category)
	assert.Empty(t, c.Region)

	tests := []struct {
		name  string
		place geo.Place
	}{
		{"missing lat", geo.Place{Lon: "108", DisplayName: "A"}},
		{"garbage lon", geo.Place{Lat: "16", Lon: "east", DisplayName: "A"}},
		{"nan", geo.Place{Lat: "NaN", Lon: "108", DisplayName: "A"}},
		{"infinite", geo.Place{Lat: "16", Lon: "+Inf", DisplayName: "A"}},
		{"no name", geo.Place{Lat: "16", Lon: "108", DisplayName: ", Việt Nam"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FromPlace(tt.place)
			assert.False(t, ok)
		})
	}
}

func TestFromElement(t *testing.T) {
	tests := []struct {
		name     string
		element  geo.Element
		wantOK   bool
		wantName string
		wantCat  string
	}{
		{"named", node(1, 16, 108, map[string]string{"name": "Cầu Rồng", "tourism": "attraction"}), true, "Cầu Rồng", "attraction"},
		{"tourism fallback", node(2, 16, 108, map[string]string{"tourism": "viewpoint"}), true, "viewpoint", "viewpoint"},
		{"amenity fallback", node(3, 16, 108, map[string]string{"amenity": "restaurant"}), true, "restaurant", "restaurant"},
		{"historic only", node(4, 16, 108, map[string]string{"historic": "monument"}), false, "", ""},
		{"no tags", node(5, 16, 108, nil), false, "", ""},
		{"way centroid", geo.Element{ID: 6, Type: "way", Center: &geo.Center{Lat: 16, Lon: 108}, Tags: map[string]string{"name": "Chợ Hàn"}}, true, "Chợ Hàn", "attraction"},
		{"way without centroid", geo.Element{ID: 7, Type: "way", Tags: map[string]string{"name": "Chợ Cồn"}}, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := FromElement(tt.element)
			assert.Equal(t, tt.wantOK, ok)

			if ok {
				assert.Equal(t, tt.wantName, c.Name)
				assert.Equal(t, tt.wantName, c.FullName)
				assert.Equal(t, tt.wantCat, c.Category)
				assert.Equal(t, geo.ProviderOverpass, c.Provider)
				assert.Empty(t, c.Region)
			}
		})
	}
}
