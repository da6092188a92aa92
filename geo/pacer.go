// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultPaceInterval is the minimum gap between two calls to the same
// provider. Nominatim's usage policy allows one request per second.
const DefaultPaceInterval = time.Second

// Pacer enforces a minimum interval between consecutive calls to the same
// provider. The first call to each provider goes through immediately.
//
// A Pacer belongs to one search session; two sessions never share one.
type Pacer struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPacer returns a Pacer with the given interval. A non-positive interval
// disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (p *Pacer) limiter(provider string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[provider]
	if !ok {
		limit := rate.Inf
		if p.interval > 0 {
			limit = rate.Every(p.interval)
		}

		l = rate.NewLimiter(limit, 1)
		p.limiters[provider] = l
	}

	return l
}

// Record counts a call to provider that happened outside Wait, so the next
// Wait for it blocks for a full interval.
func (p *Pacer) Record(provider string) {
	p.limiter(provider).Allow()
}

// Wait blocks until a call to provider is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context, provider string) error {
	if err := p.limiter(provider).Wait(ctx); err != nil {
		return eris.Wrapf(err, "geo: pacing %s", provider)
	}

	return nil
}
