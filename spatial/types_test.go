// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	hoiAn := &Point{Lat: 15.8801, Lng: 108.3380}
	daNang := &Point{Lat: 16.0544, Lng: 108.2022}

	d := hoiAn.HaversineDistance(daNang)
	assert.InDelta(t, 24_000, d, 1_500)
	assert.InDelta(t, 0, hoiAn.HaversineDistance(hoiAn), 1e-9)
}

func TestAround(t *testing.T) {
	box := Around(Point{Lat: 15.88, Lng: 108.33}, 0.05)

	assert.InDelta(t, 108.28, box.West, 1e-9)
	assert.InDelta(t, 15.83, box.South, 1e-9)
	assert.InDelta(t, 108.38, box.East, 1e-9)
	assert.InDelta(t, 15.93, box.North, 1e-9)
	assert.True(t, box.Contains(Point{Lat: 15.9, Lng: 108.3}))
	assert.False(t, box.Contains(Point{Lat: 16.1, Lng: 108.3}))
}

func TestViewBox(t *testing.T) {
	box := BBox{West: 108.25, South: 15.75, East: 108.5, North: 16}
	assert.Equal(t, "108.25,15.75,108.5,16", box.ViewBox())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"hue", Point{Lat: 16.4637, Lng: 107.5909}, true},
		{"origin", Point{}, true},
		{"nan", Point{Lat: math.NaN(), Lng: 1}, false},
		{"inf", Point{Lat: 1, Lng: math.Inf(1)}, false},
		{"out of range", Point{Lat: 91, Lng: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Valid())
		})
	}
}

func TestCell(t *testing.T) {
	a, err := Point{Lat: 21.0285, Lng: 105.8542}.Cell(5)
	require.NoError(t, err)

	b, err := Point{Lat: 21.0290, Lng: 105.8550}.Cell(5)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 5, a.Resolution())
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("16.0544, 108.2022")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 16.0544, Lng: 108.2022}, p)

	for _, in := range []string{"", "16.05", "abc,108", "16,east", "95,108"} {
		_, err := ParsePoint(in)
		assert.Error(t, err, in)
	}
}
