// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
)

// ContinuationManager extends finished searches with a wider bounded search.
type ContinuationManager struct {
	searcher geo.PlaceSearcher
	options
}

// NewContinuationManager returns a manager issuing its searches to searcher.
func NewContinuationManager(searcher geo.PlaceSearcher, opts ...Option) *ContinuationManager {
	return &ContinuationManager{searcher: searcher, options: buildOptions(opts)}
}

// LoadMore looks for up to Target POIs not yet seen in sc. On success sc is
// updated in place; on error it is left untouched. Finding nothing new is
// reported through StatusExhausted, not as an error.
func (m *ContinuationManager) LoadMore(ctx context.Context, sc *SearchContext) (*MoreResult, error) {
	if sc == nil || sc.SeenNames == nil {
		return nil, &SearchError{Kind: KindUserInput, Message: MsgLoadMoreFailed}
	}

	log := m.logger.With(zap.String("session", sc.ID), zap.String("query", sc.Query))

	if sc.pacer == nil {
		// A restored context does not know when its last call went out.
		sc.pacer = geo.NewPacer(m.settings.PaceInterval)
		sc.pacer.Record(geo.ProviderNominatim)
	}

	if err := sc.pacer.Wait(ctx, geo.ProviderNominatim); err != nil {
		return nil, err
	}

	level := sc.Level()
	halfExtent := m.settings.moreHalfExtent(level)

	places, err := m.searcher.SearchBox(ctx, geo.BoxQuery{
		Box:        spatial.Around(sc.Place.Center, halfExtent),
		Categories: m.settings.ExpandedCategories,
		Limit:      m.settings.MoreLimit,
	})
	if err != nil {
		if aErr := abandoned(ctx); aErr != nil {
			return nil, aErr
		}

		log.Warn("load more failed", zap.Error(err))

		return nil, &SearchError{Kind: KindProvider, Message: MsgLoadMoreFailed, Err: err}
	}

	seen := sc.SeenNames.Clone()
	filter := NewFilter(seen, sc.Region(), m.settings.RegionMatch)

	var added []POI

	for _, c := range placeCandidates(places) {
		if len(added) >= m.settings.Target {
			break
		}

		if v := filter.Admit(c); v.Admitted {
			added = append(added, c.POI)
		} else {
			log.Debug("skipping candidate", zap.String("name", c.Name), zap.String("reason", string(v.Reason)))
		}
	}

	sc.SeenNames = seen
	sc.HalfExtent = halfExtent

	log.Info("load more finished", zap.Int("added", len(added)), zap.Int("total", sc.Total()))

	if len(added) == 0 {
		return &MoreResult{POIs: []POI{}, Status: StatusExhausted, Message: MsgNoMore, Total: sc.Total()}, nil
	}

	return &MoreResult{
		POIs:    added,
		Status:  StatusMore,
		Message: moreMessage(len(added), sc.Total()),
		Total:   sc.Total(),
	}, nil
}
