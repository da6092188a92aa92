// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"fmt"

	"github.com/khampha-vn/khampha/geo"
)

// fakeGeocoder answers by limit: the primary lookup asks for 1 result, the
// sibling lookup for more.
type fakeGeocoder struct {
	primary  []geo.Place
	siblings []geo.Place
	err      error
	calls    []int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string, limit int) ([]geo.Place, error) {
	f.calls = append(f.calls, limit)
	if f.err != nil {
		return nil, f.err
	}

	if limit == 1 {
		return f.primary, nil
	}

	return f.siblings, nil
}

// fakeSearcher returns its responses in order, one per call.
type fakeSearcher struct {
	responses [][]geo.Place
	errs      []error
	queries   []geo.BoxQuery
}

func (f *fakeSearcher) SearchBox(_ context.Context, q geo.BoxQuery) ([]geo.Place, error) {
	i := len(f.queries)
	f.queries = append(f.queries, q)

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}

	if i < len(f.responses) {
		return f.responses[i], nil
	}

	return nil, nil
}

type fakeFeatures struct {
	elements []geo.Element
	err      error
	queries  []geo.AroundQuery
}

func (f *fakeFeatures) Around(_ context.Context, q geo.AroundQuery) ([]geo.Element, error) {
	f.queries = append(f.queries, q)

	return f.elements, f.err
}

func testSettings() Settings {
	s := DefaultSettings()
	s.PaceInterval = 0

	return s
}

func newTestOrchestrator(g *fakeGeocoder, s *fakeSearcher, f *fakeFeatures, opts ...Option) *Orchestrator {
	return NewOrchestrator(g, s, f, append([]Option{WithSettings(testSettings())}, opts...)...)
}

func hoiAnPlace() geo.Place {
	return geo.Place{
		PlaceID:     1001,
		Lat:         "15.8801",
		Lon:         "108.3380",
		DisplayName: "Hội An, Quảng Nam, Việt Nam",
		Type:        "town",
		Class:       "place",
		Address:     geo.Address{State: "Quảng Nam", City: "Hội An", Country: "Việt Nam"},
	}
}

func quangNamPlace() geo.Place {
	return geo.Place{
		PlaceID:     2002,
		Lat:         "15.5394",
		Lon:         "108.0191",
		DisplayName: "Quảng Nam, Việt Nam",
		Type:        "administrative",
		Class:       "boundary",
		Address:     geo.Address{State: "Quảng Nam", Country: "Việt Nam"},
	}
}

// poiPlace builds a bounded search record named name in region state.
func poiPlace(id int64, name, state string) geo.Place {
	return geo.Place{
		PlaceID:     id,
		Lat:         fmt.Sprintf("%.4f", 15.8+float64(id%100)/1000),
		Lon:         fmt.Sprintf("%.4f", 108.3+float64(id%100)/1000),
		DisplayName: name + ", " + state + ", Việt Nam",
		Type:        "attraction",
		Class:       "tourism",
		Address:     geo.Address{State: state, Country: "Việt Nam"},
	}
}

func node(id int64, lat, lon float64, tags map[string]string) geo.Element {
	return geo.Element{ID: id, Type: "node", Lat: &lat, Lon: &lon, Tags: tags}
}
