// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khampha-vn/khampha/config"
	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/geo"
	"github.com/khampha-vn/khampha/store"
	"github.com/khampha-vn/khampha/utils/httputils"
	"github.com/khampha-vn/khampha/weather"
)

// app holds the services shared by every subcommand.
type app struct {
	geocoder     geo.Geocoder
	orchestrator *discovery.Orchestrator
	more         *discovery.ContinuationManager
	weather      *weather.Client
	repo         store.Repository

	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			zap.L().Warn("closing resource", zap.Error(err))
		}
	}
}

func httpClient(c *config.Config, timeout time.Duration) *http.Client {
	opts := httputils.ClientOptions{
		UserAgent: c.Nominatim.UserAgent,
		Timeout:   timeout,
		Logger:    zap.L(),
	}

	if c.Log.HTTPDump {
		opts.Trace = os.Stderr
		opts.TraceBody = true
	}

	return httputils.NewClient(opts)
}

type placeService interface {
	geo.Geocoder
	geo.PlaceSearcher
}

// withCache puts the redis cache in front of nominatim when one is configured
// and reachable.
func withCache(ctx context.Context, c *config.Config, nominatim placeService) (placeService, io.Closer) {
	if c.Cache.Addr == "" {
		return nominatim, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.Cache.Addr, DB: c.Cache.DB})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis unavailable, running without cache", zap.String("addr", c.Cache.Addr), zap.Error(err))
		_ = rdb.Close()

		return nominatim, nil
	}

	zap.L().Debug("nominatim cache enabled", zap.String("addr", c.Cache.Addr), zap.Duration("ttl", c.Cache.TTL))

	return geo.NewCachedNominatim(nominatim, rdb, c.Cache.TTL, zap.L()), rdb
}

func openStore(ctx context.Context, path string) (store.Repository, *sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := store.NewRepository(db)
	if err := repo.CreateSchema(ctx); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, db, nil
}

// newApp wires providers, discovery and storage from cfg. The store is only
// opened when withStore is set.
func newApp(ctx context.Context, c *config.Config, withStore bool, opts ...discovery.Option) (*app, error) {
	nominatim := geo.NewNominatim(
		geo.WithNominatimURL(c.Nominatim.BaseURL),
		geo.WithScopeSuffix(c.Nominatim.ScopeSuffix),
		geo.WithNominatimHTTPClient(httpClient(c, c.Nominatim.Timeout)),
	)
	overpass := geo.NewOverpass(
		geo.WithOverpassURL(c.Overpass.URL),
		geo.WithOverpassHTTPClient(httpClient(c, c.Overpass.Timeout)),
	)

	a := &app{}

	places, closer := withCache(ctx, c, nominatim)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	opts = append([]discovery.Option{
		discovery.WithSettings(c.Search),
		discovery.WithLogger(zap.L()),
	}, opts...)

	a.geocoder = places
	a.orchestrator = discovery.NewOrchestrator(places, places, overpass, opts...)
	a.more = discovery.NewContinuationManager(places, opts...)
	a.weather = weather.NewClient(c.Weather.APIKey,
		weather.WithBaseURL(c.Weather.BaseURL),
		weather.WithUnits(c.Weather.Units),
		weather.WithLang(c.Weather.Lang),
		weather.WithHTTPClient(httpClient(c, c.Weather.Timeout)),
	)

	if withStore {
		repo, db, err := openStore(ctx, c.Store.Path)
		if err != nil {
			a.Close()

			return nil, err
		}

		a.repo = repo
		a.closers = append(a.closers, db)
	}

	return a, nil
}
