// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerFirstCallIsImmediate(t *testing.T) {
	p := NewPacer(time.Hour)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), ProviderNominatim))
	require.NoError(t, p.Wait(context.Background(), ProviderOverpass))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerSpacesCallsToSameProvider(t *testing.T) {
	const interval = 50 * time.Millisecond

	p := NewPacer(interval)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx, ProviderNominatim))

	start := time.Now()
	require.NoError(t, p.Wait(ctx, ProviderNominatim))
	require.NoError(t, p.Wait(ctx, ProviderNominatim))
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-10*time.Millisecond)
}

func TestPacerHonoursCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background(), ProviderNominatim))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, ProviderNominatim)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	for range 10 {
		require.NoError(t, p.Wait(context.Background(), ProviderNominatim))
	}

	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacerRecord(t *testing.T) {
	const interval = 50 * time.Millisecond

	p := NewPacer(interval)
	p.Record(ProviderNominatim)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), ProviderNominatim))
	assert.GreaterOrEqual(t, time.Since(start), interval-10*time.Millisecond)

	// other providers are unaffected
	start = time.Now()
	require.NoError(t, p.Wait(context.Background(), ProviderOverpass))
	assert.Less(t, time.Since(start), interval/2)
}
