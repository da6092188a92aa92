// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package weather fetches current conditions from OpenWeather.
package weather

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/utils/textutils"
)

// DefaultBaseURL is the OpenWeather current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = eris.New("weather: no API key configured")

// Conditions is a summary of the current weather at a place.
type Conditions struct {
	LocationName string  `json:"location_name"`
	Temp         int     `json:"temp"`
	FeelsLike    int     `json:"feels_like"`
	Humidity     int     `json:"humidity"`
	Description  string  `json:"description"`
	Icon         string  `json:"icon"`
	WindSpeed    float64 `json:"wind_speed"`
}

// IconURL returns the URL of the icon image.
func (c Conditions) IconURL() string {
	if c.Icon == "" {
		return ""
	}

	return "https://openweathermap.org/img/wn/" + c.Icon + "@2x.png"
}

// Client talks to OpenWeather.
type Client struct {
	baseURL    string
	apiKey     string
	units      string
	lang       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUnits sets the unit system (metric, imperial, standard).
func WithUnits(units string) Option {
	return func(c *Client) {
		c.units = units
	}
}

// WithLang sets the language of descriptions.
func WithLang(lang string) Option {
	return func(c *Client) {
		c.lang = lang
	}
}

// NewClient returns a client using apiKey, metric units and Vietnamese
// descriptions.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		units:      "metric",
		lang:       "vi",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Enabled reports whether the client has a key to work with.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current returns the conditions at p, labeled with locationName.
func (c *Client) Current(ctx context.Context, p spatial.Point, locationName string) (*Conditions, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", c.units)
	params.Set("lang", c.lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "weather: building request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weather: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil, eris.Errorf("weather: openweather returned status %d", resp.StatusCode)
	}

	var body currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "weather: decoding response")
	}

	out := &Conditions{
		LocationName: textutils.TitleCase(locationName),
		Temp:         int(math.Round(body.Main.Temp)),
		FeelsLike:    int(math.Round(body.Main.FeelsLike)),
		Humidity:     body.Main.Humidity,
		WindSpeed:    body.Wind.Speed,
	}

	if len(body.Weather) > 0 {
		out.Description = body.Weather[0].Description
		out.Icon = body.Weather[0].Icon
	}

	return out, nil
}
