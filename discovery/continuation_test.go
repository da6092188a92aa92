// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
)

func searchedContext(t *testing.T) *SearchContext {
	t.Helper()

	g := &fakeGeocoder{primary: []geo.Place{quangNamPlace()}}
	s := &fakeSearcher{responses: [][]geo.Place{{
		poiPlace(1, "Mỹ Sơn", "Quảng Nam"),
		poiPlace(2, "Cù Lao Chàm", "Quảng Nam"),
		poiPlace(3, "Tháp Bằng An", "Quảng Nam"),
		poiPlace(4, "Phố cổ Hội An", "Quảng Nam"),
		poiPlace(5, "Biển Tam Thanh", "Quảng Nam"),
	}}}

	res, err := newTestOrchestrator(g, s, &fakeFeatures{}).Search(context.Background(), "Quảng Nam")
	require.NoError(t, err)
	require.Len(t, res.POIs, 5)

	return res.Context
}

func TestLoadMore(t *testing.T) {
	sc := searchedContext(t)

	s := &fakeSearcher{responses: [][]geo.Place{{
		poiPlace(1, "Mỹ Sơn", "Quảng Nam"),
		poiPlace(6, "Rừng dừa Bảy Mẫu", "Quảng Nam"),
		poiPlace(7, "Cầu Rồng", "Đà Nẵng"),
		poiPlace(8, "Cà phê Faifo", "Quảng Nam"),
	}}}

	m := NewContinuationManager(s, WithSettings(testSettings()))

	more, err := m.LoadMore(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"Rừng dừa Bảy Mẫu", "Cà phê Faifo"}, names(more.POIs))
	assert.Equal(t, StatusMore, more.Status)
	assert.Equal(t, "Đã thêm 2 điểm tham quan mới. Tổng: 7 địa điểm.", more.Message)
	assert.Equal(t, 7, more.Total)

	require.Len(t, s.queries, 1)
	q := s.queries[0]
	assert.Equal(t, spatial.Around(spatial.Point{Lat: 15.5394, Lng: 108.0191}, 0.25), q.Box)
	assert.Equal(t, 100, q.Limit)
	assert.Contains(t, q.Categories, "cafe")

	assert.Equal(t, 7, sc.Total())
	assert.True(t, sc.SeenNames.Has("Cà phê Faifo"))
	assert.InDelta(t, 0.25, sc.HalfExtent, 1e-9)
}

func TestLoadMoreCapsAtTarget(t *testing.T) {
	sc := searchedContext(t)

	var page []geo.Place
	for i := int64(10); i < 20; i++ {
		page = append(page, poiPlace(i, "Mới "+string(rune('A'+i-10)), "Quảng Nam"))
	}

	m := NewContinuationManager(&fakeSearcher{responses: [][]geo.Place{page}}, WithSettings(testSettings()))

	more, err := m.LoadMore(context.Background(), sc)
	require.NoError(t, err)
	assert.Len(t, more.POIs, 5)
	assert.Equal(t, 10, more.Total)

	// the cumulative list keeps growing across calls
	more, err = m.LoadMore(context.Background(), sc)
	require.NoError(t, err)
	assert.Empty(t, more.POIs)
	assert.Equal(t, StatusExhausted, more.Status)

	m = NewContinuationManager(&fakeSearcher{responses: [][]geo.Place{page}}, WithSettings(testSettings()))
	more, err = m.LoadMore(context.Background(), sc)
	require.NoError(t, err)
	assert.Len(t, more.POIs, 5)
	assert.Equal(t, 15, more.Total)
}

func TestLoadMoreNothingNew(t *testing.T) {
	sc := searchedContext(t)

	s := &fakeSearcher{responses: [][]geo.Place{{
		poiPlace(1, "Mỹ Sơn", "Quảng Nam"),
		poiPlace(2, "Cù Lao Chàm", "Quảng Nam"),
	}}}

	more, err := NewContinuationManager(s, WithSettings(testSettings())).LoadMore(context.Background(), sc)
	require.NoError(t, err)

	assert.Empty(t, more.POIs)
	assert.Equal(t, StatusExhausted, more.Status)
	assert.Equal(t, MsgNoMore, more.Message)
	assert.Equal(t, 5, more.Total)
}

func TestLoadMorePointLevel(t *testing.T) {
	sc := &SearchContext{
		ID:        "s1",
		Query:     "Hội An",
		Place:     ResolvedPlace{Center: spatial.Point{Lat: 15.88, Lng: 108.33}, Level: LevelPoint, Region: "Quảng Nam"},
		SeenNames: NewSeenNames("Chùa Cầu"),
	}

	s := &fakeSearcher{responses: [][]geo.Place{{poiPlace(3, "Cầu Rồng", "Đà Nẵng")}}}

	more, err := NewContinuationManager(s, WithSettings(testSettings())).LoadMore(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cầu Rồng"}, names(more.POIs), "no region constraint for point-level places")
	assert.Equal(t, spatial.Around(sc.Place.Center, 0.1), s.queries[0].Box)
}

func TestLoadMoreProviderError(t *testing.T) {
	sc := searchedContext(t)
	before := sc.SeenNames.Names()

	s := &fakeSearcher{errs: []error{errors.New("nominatim down")}}

	more, err := NewContinuationManager(s, WithSettings(testSettings())).LoadMore(context.Background(), sc)
	require.Error(t, err)
	assert.Nil(t, more)
	assert.True(t, IsKind(err, KindProvider))
	assert.Equal(t, MsgLoadMoreFailed, UserMessage(err))
	assert.Equal(t, before, sc.SeenNames.Names())
	assert.InDelta(t, 0.15, sc.HalfExtent, 1e-9)
}

func TestLoadMoreWithoutContext(t *testing.T) {
	m := NewContinuationManager(&fakeSearcher{}, WithSettings(testSettings()))

	_, err := m.LoadMore(context.Background(), nil)
	assert.True(t, IsKind(err, KindUserInput))
}

func TestLoadMoreRestoredContext(t *testing.T) {
	raw, err := json.Marshal(searchedContext(t))
	require.NoError(t, err)

	var sc SearchContext
	require.NoError(t, json.Unmarshal(raw, &sc))
	assert.Equal(t, 5, sc.Total())
	assert.Equal(t, "Quảng Nam", sc.Region())

	s := &fakeSearcher{responses: [][]geo.Place{{poiPlace(9, "Mỹ Sơn", "Quảng Nam"), poiPlace(10, "Hồ Phú Ninh", "Quảng Nam")}}}

	more, err := NewContinuationManager(s, WithSettings(testSettings())).LoadMore(context.Background(), &sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hồ Phú Ninh"}, names(more.POIs))
}
