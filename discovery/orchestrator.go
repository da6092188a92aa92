// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/spatial"
)

// State is a step of a search.
type State int

const (
	StateIdle State = iota
	StateResolving
	StatePrimarySearch
	StateSubLocationExpansion
	StateFeatureQueryFallback
	StateDone
)

var stateNames = [...]string{
	StateIdle:                 "idle",
	StateResolving:            "resolving",
	StatePrimarySearch:        "primary_search",
	StateSubLocationExpansion: "sub_location_expansion",
	StateFeatureQueryFallback: "feature_query_fallback",
	StateDone:                 "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "unknown"
}

// Event is sent to the Observer on every state change.
type Event struct {
	State    State
	Admitted int
}

// Observer follows the progress of a search. It runs on the search goroutine.
type Observer func(Event)

type options struct {
	settings Settings
	logger   *zap.Logger
	observer Observer
}

// Option configures an Orchestrator or a ContinuationManager.
type Option func(*options)

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver registers a progress callback.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = zap.L()
	}

	return o
}

// Orchestrator runs tiered searches. It holds no per-search state and may
// serve concurrent searches; each one gets its own pacing and seen names.
type Orchestrator struct {
	geocoder geo.Geocoder
	searcher geo.PlaceSearcher
	features geo.FeatureQuerier
	options
}

// NewOrchestrator wires the three providers into an Orchestrator.
func NewOrchestrator(geocoder geo.Geocoder, searcher geo.PlaceSearcher, features geo.FeatureQuerier, opts ...Option) *Orchestrator {
	return &Orchestrator{
		geocoder: geocoder,
		searcher: searcher,
		features: features,
		options:  buildOptions(opts),
	}
}

// Settings returns the tuning in use.
func (o *Orchestrator) Settings() Settings {
	return o.settings
}

// session is the mutable state of one search.
type session struct {
	o      *Orchestrator
	log    *zap.Logger
	place  ResolvedPlace
	pacer  *geo.Pacer
	seen   *SeenNames
	filter *Filter
	pois   []POI
}

func (s *session) enter(st State) {
	s.log.Debug("search state", zap.Stringer("state", st), zap.Int("admitted", len(s.pois)))

	if s.o.observer != nil {
		s.o.observer(Event{State: st, Admitted: len(s.pois)})
	}
}

func (s *session) full() bool {
	return len(s.pois) >= s.o.settings.Target
}

// admit runs candidates through the filter until the tier quota is reached.
func (s *session) admit(tier State, candidates []Candidate) int {
	added := 0

	for _, c := range candidates {
		if s.full() {
			break
		}

		v := s.filter.Admit(c)
		if !v.Admitted {
			s.log.Debug("skipping candidate",
				zap.Stringer("tier", tier),
				zap.String("name", c.Name),
				zap.String("region", c.Region),
				zap.String("reason", string(v.Reason)),
			)

			continue
		}

		s.pois = append(s.pois, c.POI)
		added++
	}

	return added
}

func placeCandidates(places []geo.Place) []Candidate {
	out := make([]Candidate, 0, len(places))

	for _, p := range places {
		if c, ok := FromPlace(p); ok {
			out = append(out, c)
		}
	}

	return out
}

func elementCandidates(elements []geo.Element) []Candidate {
	out := make([]Candidate, 0, len(elements))

	for _, e := range elements {
		if c, ok := FromElement(e); ok {
			out = append(out, c)
		}
	}

	return out
}

// abandoned reports a canceled search. Provider errors caused by the
// cancellation must not be mistaken for tier failures.
func abandoned(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "discovery: search abandoned")
	}

	return nil
}

// Search runs a full tiered search for query.
func (o *Orchestrator) Search(ctx context.Context, query string) (*Result, error) {
	q, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &session{
		o:     o,
		log:   o.logger.With(zap.String("session", id), zap.String("query", q)),
		pacer: geo.NewPacer(o.settings.PaceInterval),
		seen:  NewSeenNames(),
	}

	s.enter(StateResolving)

	if err := s.resolve(ctx, q); err != nil {
		s.enter(StateDone)

		return nil, err
	}

	constraint := ""
	if s.place.Level == LevelProvince {
		constraint = s.place.Region
	}

	s.filter = NewFilter(s.seen, constraint, o.settings.RegionMatch)

	s.log.Info("resolved place",
		zap.String("display_name", s.place.DisplayName),
		zap.String("level", string(s.place.Level)),
		zap.String("region", s.place.Region),
		zap.Stringer("center", s.place.Center),
	)

	tiers := []struct {
		state State
		run   func(context.Context, string) error
	}{
		{StatePrimarySearch, s.primary},
		{StateSubLocationExpansion, s.siblings},
		{StateFeatureQueryFallback, s.featureFallback},
	}

	for _, tier := range tiers {
		if s.full() {
			break
		}

		s.enter(tier.state)

		if err := tier.run(ctx, q); err != nil {
			if aErr := abandoned(ctx); aErr != nil {
				s.enter(StateDone)

				return nil, aErr
			}

			s.log.Warn("tier failed, skipping", zap.Stringer("tier", tier.state), zap.Error(err))
		}
	}

	s.enter(StateDone)

	return s.result(id, q)
}

func (s *session) resolve(ctx context.Context, q string) error {
	if err := s.pacer.Wait(ctx, geo.ProviderNominatim); err != nil {
		return err
	}

	places, err := s.o.geocoder.Geocode(ctx, q, 1)
	if err != nil {
		if aErr := abandoned(ctx); aErr != nil {
			return aErr
		}

		s.log.Warn("geocoding failed", zap.Error(err))

		return &SearchError{Kind: KindProvider, Message: MsgSearchFailed, Err: err}
	}

	if len(places) == 0 {
		return &SearchError{Kind: KindNotFound, Message: MsgNotFound}
	}

	place, err := Resolve(places[0])
	if err != nil {
		s.log.Info("place rejected", zap.String("display_name", places[0].DisplayName), zap.Error(err))

		return err
	}

	s.place = place

	return nil
}

func (s *session) searchBox(ctx context.Context, tier State, center spatial.Point, halfExtent float64, limit int) error {
	if err := s.pacer.Wait(ctx, geo.ProviderNominatim); err != nil {
		return err
	}

	places, err := s.o.searcher.SearchBox(ctx, geo.BoxQuery{
		Box:        spatial.Around(center, halfExtent),
		Categories: s.o.settings.Categories,
		Limit:      limit,
	})
	if err != nil {
		return eris.Wrapf(err, "discovery: %s bounded search", tier)
	}

	added := s.admit(tier, placeCandidates(places))
	s.log.Debug("bounded search done",
		zap.Stringer("tier", tier),
		zap.Stringer("center", center),
		zap.Int("candidates", len(places)),
		zap.Int("added", added),
	)

	return nil
}

func (s *session) primary(ctx context.Context, _ string) error {
	settings := s.o.settings

	return s.searchBox(ctx, StatePrimarySearch, s.place.Center, settings.primaryHalfExtent(s.place.Level), settings.PrimaryLimit)
}

// siblings searches around the other places matching the query. The first
// failing call ends the tier.
func (s *session) siblings(ctx context.Context, q string) error {
	settings := s.o.settings

	if err := s.pacer.Wait(ctx, geo.ProviderNominatim); err != nil {
		return err
	}

	places, err := s.o.geocoder.Geocode(ctx, q, settings.SiblingGeocodeLimit)
	if err != nil {
		return eris.Wrap(err, "discovery: sibling geocoding")
	}

	s.log.Debug("sibling places", zap.Int("count", len(places)))

	for _, p := range places {
		if s.full() {
			break
		}

		if p.PlaceID == s.place.PlaceID {
			continue
		}

		lat, okLat := parseCoordinate(p.Lat)
		lon, okLon := parseCoordinate(p.Lon)

		if !okLat || !okLon {
			continue
		}

		center := spatial.Point{Lat: lat, Lng: lon}
		if err := s.searchBox(ctx, StateSubLocationExpansion, center, settings.SiblingHalfExtent, settings.SiblingLimit); err != nil {
			return err
		}
	}

	return nil
}

func (s *session) featureFallback(ctx context.Context, _ string) error {
	settings := s.o.settings

	if err := s.pacer.Wait(ctx, geo.ProviderOverpass); err != nil {
		return err
	}

	elements, err := s.o.features.Around(ctx, geo.AroundQuery{
		Center:       s.place.Center,
		RadiusMeters: settings.radius(s.place.Level),
		Limit:        settings.FeatureLimit,
	})
	if err != nil {
		return eris.Wrap(err, "discovery: feature query")
	}

	added := s.admit(StateFeatureQueryFallback, elementCandidates(elements))
	s.log.Debug("feature query done", zap.Int("elements", len(elements)), zap.Int("added", added))

	return nil
}

func (s *session) result(id, q string) (*Result, error) {
	total := len(s.pois)
	s.log.Info("search finished", zap.Int("pois", total))

	if total == 0 {
		return nil, &SearchError{Kind: KindEmptyResult, Message: MsgEmptyResult}
	}

	r := &Result{
		POIs:     s.pois,
		Status:   StatusComplete,
		Selected: s.pois[0].ID,
		Center:   s.place.Center,
		Context: &SearchContext{
			ID:         id,
			Query:      q,
			Place:      s.place,
			HalfExtent: s.o.settings.primaryHalfExtent(s.place.Level),
			SeenNames:  s.seen,
			pacer:      s.pacer,
		},
	}

	if total < s.o.settings.Target {
		r.Status = StatusPartial
		r.Message = partialMessage(total)
	}

	return r, nil
}
