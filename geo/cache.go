// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL keeps Nominatim answers for a day. Administrative data
// barely moves and the public instance asks clients to cache.
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "khampha:nominatim:"

// placeService is what CachedNominatim wraps.
type placeService interface {
	Geocoder
	PlaceSearcher
}

// CachedNominatim stores Nominatim responses in redis. Cache failures are
// logged and fall through to the wrapped client; they never fail a call.
type CachedNominatim struct {
	next   placeService
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedNominatim wraps next with a redis cache. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedNominatim(next placeService, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedNominatim {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	if logger == nil {
		logger = zap.L()
	}

	return &CachedNominatim{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))

	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Geocode implements Geocoder.
func (c *CachedNominatim) Geocode(ctx context.Context, text string, limit int) ([]Place, error) {
	key := cacheKey("geocode", strings.TrimSpace(text), fmt.Sprint(limit))

	return c.cached(ctx, key, func() ([]Place, error) {
		return c.next.Geocode(ctx, text, limit)
	})
}

// SearchBox implements PlaceSearcher.
func (c *CachedNominatim) SearchBox(ctx context.Context, q BoxQuery) ([]Place, error) {
	key := cacheKey("box", q.Box.ViewBox(), strings.Join(q.Categories, "|"), fmt.Sprint(q.Limit))

	return c.cached(ctx, key, func() ([]Place, error) {
		return c.next.SearchBox(ctx, q)
	})
}

func (c *CachedNominatim) cached(ctx context.Context, key string, fetch func() ([]Place, error)) ([]Place, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		var places []Place
		if err := json.Unmarshal(raw, &places); err == nil {
			c.logger.Debug("nominatim cache hit", zap.String("key", key))

			return places, nil
		}

		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("nominatim cache read failed", zap.Error(err))
	}

	places, err := fetch()
	if err != nil {
		return nil, err
	}

	raw, err = json.Marshal(places)
	if err != nil {
		return places, nil
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("nominatim cache write failed", zap.Error(err))
	}

	return places, nil
}
