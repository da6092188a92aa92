// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khampha-vn/khampha/spatial"
)

func TestBuildAroundQuery(t *testing.T) {
	q := BuildAroundQuery(AroundQuery{
		Center:       spatial.Point{Lat: 16.4637, Lng: 107.5909},
		RadiusMeters: 5000,
		Limit:        20,
	})

	assert.Contains(t, q, "[out:json][timeout:25];")
	assert.Contains(t, q, `node["tourism"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, `node["amenity"="restaurant"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, `node["amenity"="cafe"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, `node["historic"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, `node["leisure"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, `way["tourism"](around:5000,16.4637,107.5909);`)
	assert.Contains(t, q, "out center 20;")
}

func TestOverpassAround(t *testing.T) {
	var gotQuery, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("data")
		gotContentType = r.Header.Get("Content-Type")

		_, _ = w.Write([]byte(`{
			"elements": [
				{"type": "node", "id": 1, "lat": 16.46, "lon": 107.59, "tags": {"name": "Đại Nội", "tourism": "attraction"}},
				{"type": "way", "id": 2, "center": {"lat": 16.45, "lon": 107.56}, "tags": {"tourism": "museum"}},
				{"type": "node", "id": 3, "lat": 16.47, "lon": 107.58}
			]
		}`))
	}))
	defer srv.Close()

	o := NewOverpass(WithOverpassURL(srv.URL))

	elements, err := o.Around(context.Background(), AroundQuery{
		Center:       spatial.Point{Lat: 16.4637, Lng: 107.5909},
		RadiusMeters: 20000,
		Limit:        20,
	})
	require.NoError(t, err)
	require.Len(t, elements, 3)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, gotQuery, "around:20000,")

	p, ok := elements[0].Position()
	require.True(t, ok)
	assert.Equal(t, spatial.Point{Lat: 16.46, Lng: 107.59}, p)

	p, ok = elements[1].Position()
	require.True(t, ok)
	assert.Equal(t, spatial.Point{Lat: 16.45, Lng: 107.56}, p)
	assert.Equal(t, "museum", elements[1].Tags["tourism"])

	assert.Nil(t, elements[2].Tags)
}

func TestElementPositionMissing(t *testing.T) {
	_, ok := Element{Type: "way", ID: 9}.Position()
	assert.False(t, ok)
}

func TestOverpassGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := NewOverpass(WithOverpassURL(srv.URL)).Around(context.Background(), AroundQuery{Limit: 20})
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err))
}
