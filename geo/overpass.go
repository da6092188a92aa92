// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultOverpassURL is the main public Overpass instance.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// overpassServerTimeout is the [timeout:N] setting sent in the query, in seconds.
const overpassServerTimeout = 25

// featureSelectors are the element filters requested around the center.
var featureSelectors = []string{
	`node["tourism"]`,
	`node["amenity"="restaurant"]`,
	`node["amenity"="cafe"]`,
	`node["historic"]`,
	`node["leisure"]`,
	`way["tourism"]`,
}

// Overpass implements FeatureQuerier against an Overpass interpreter.
type Overpass struct {
	endpoint   string
	httpClient *http.Client
}

// OverpassOption configures an Overpass client.
type OverpassOption func(*Overpass)

// WithOverpassURL overrides the interpreter endpoint.
func WithOverpassURL(u string) OverpassOption {
	return func(o *Overpass) {
		o.endpoint = u
	}
}

// WithOverpassHTTPClient sets the HTTP client.
func WithOverpassHTTPClient(hc *http.Client) OverpassOption {
	return func(o *Overpass) {
		o.httpClient = hc
	}
}

// NewOverpass creates an Overpass client.
func NewOverpass(opts ...OverpassOption) *Overpass {
	o := &Overpass{
		endpoint:   DefaultOverpassURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

// BuildAroundQuery renders the Overpass QL for q.
func BuildAroundQuery(q AroundQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", overpassServerTimeout)

	for _, sel := range featureSelectors {
		fmt.Fprintf(&b, "  %s(around:%d,%g,%g);\n", sel, q.RadiusMeters, q.Center.Lat, q.Center.Lng)
	}

	fmt.Fprintf(&b, ");\nout center %d;\n", q.Limit)

	return b.String()
}

// Around returns the tagged features within q.RadiusMeters of q.Center.
func (o *Overpass) Around(ctx context.Context, q AroundQuery) ([]Element, error) {
	form := url.Values{}
	form.Set("data", BuildAroundQuery(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "geo: building overpass request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ProviderOverpass, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, ClassifyHTTPError(ProviderOverpass, resp.StatusCode)
	}

	var out overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if IsTimeoutError(err) {
			return nil, classifyTransportError(ProviderOverpass, err)
		}

		return nil, &ProviderError{
			Provider: ProviderOverpass,
			Type:     ErrorTypeDecode,
			Message:  "decoding response",
			Err:      err,
		}
	}

	return out.Elements, nil
}
