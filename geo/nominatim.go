// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	// DefaultNominatimURL is the public OSM search endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	// DefaultScopeSuffix narrows free text geocoding to Vietnam.
	DefaultScopeSuffix = ", Vietnam"
)

// Nominatim implements Geocoder and PlaceSearcher on top of the Nominatim
// search API.
type Nominatim struct {
	baseURL     string
	scopeSuffix string
	httpClient  *http.Client
}

// NominatimOption configures a Nominatim client.
type NominatimOption func(*Nominatim)

// WithNominatimURL overrides the search endpoint.
func WithNominatimURL(u string) NominatimOption {
	return func(n *Nominatim) {
		n.baseURL = u
	}
}

// WithScopeSuffix overrides the text appended to every geocoding query.
func WithScopeSuffix(s string) NominatimOption {
	return func(n *Nominatim) {
		n.scopeSuffix = s
	}
}

// WithNominatimHTTPClient sets the HTTP client. It is expected to send a
// User-Agent; see httputils.NewClient.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(n *Nominatim) {
		n.httpClient = hc
	}
}

// NewNominatim creates a Nominatim client.
func NewNominatim(opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:     DefaultNominatimURL,
		scopeSuffix: DefaultScopeSuffix,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Geocode resolves text, scoped with the configured suffix.
func (n *Nominatim) Geocode(ctx context.Context, text string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(text)+n.scopeSuffix)
	params.Set("limit", strconv.Itoa(limit))

	return n.search(ctx, params)
}

// SearchBox runs a bounded search for the categories inside q.Box.
func (n *Nominatim) SearchBox(ctx context.Context, q BoxQuery) ([]Place, error) {
	if len(q.Categories) == 0 {
		return nil, &ProviderError{
			Provider: ProviderNominatim,
			Type:     ErrorTypeInvalidRequest,
			Message:  "bounded search without categories",
		}
	}

	params := url.Values{}
	params.Set("q", strings.Join(q.Categories, "|"))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("bounded", "1")
	params.Set("viewbox", q.Box.ViewBox())

	return n.search(ctx, params)
}

func (n *Nominatim) search(ctx context.Context, params url.Values) ([]Place, error) {
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geo: building nominatim request")
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ProviderNominatim, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, ClassifyHTTPError(ProviderNominatim, resp.StatusCode)
	}

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		if IsTimeoutError(err) {
			return nil, classifyTransportError(ProviderNominatim, err)
		}

		return nil, &ProviderError{
			Provider: ProviderNominatim,
			Type:     ErrorTypeDecode,
			Message:  "decoding response",
			Err:      err,
		}
	}

	return places, nil
}
