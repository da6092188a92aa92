// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/store"
	"github.com/khampha-vn/khampha/weather"
)

func TestFormatPOIs(t *testing.T) {
	pois := []discovery.POI{
		{Name: "Chùa Cầu", Category: "attraction", Lat: 15.8771, Lon: 108.3262, Provider: "nominatim"},
		{Name: "Hội quán Phúc Kiến", Category: "place_of_worship", Lat: 15.8775, Lon: 108.3307, Provider: "overpass"},
	}

	center := spatial.Point{Lat: 15.8801, Lng: 108.3380}

	var buf bytes.Buffer
	formatPOIs(&buf, center, pois, 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "KM")
	assert.True(t, strings.HasPrefix(lines[1], "6 "))
	assert.Contains(t, lines[1], "Chùa Cầu")
	assert.Contains(t, lines[1], "15.87710,108.32620")
	assert.Contains(t, lines[1], " 1.3 ")
	assert.True(t, strings.HasPrefix(lines[2], "7 "))
	assert.Contains(t, lines[2], "overpass")
	assert.Contains(t, lines[2], " 0.8 ")
}

func TestFormatSessions(t *testing.T) {
	created := time.Date(2026, 3, 8, 9, 15, 0, 0, time.UTC)

	sessions := []*store.Session{
		{ID: "0b5c7e2a-93f1-4b7e-8d8e-1f6c2a9d4e11", Query: "Đà Nẵng", DisplayName: "Đà Nẵng, Việt Nam", Level: discovery.LevelProvince, POICount: 5, Status: "complete", CreatedAt: created},
		{ID: "short", Query: "Hội An", DisplayName: "Hội An", Level: discovery.LevelPoint, POICount: 2, Status: "partial", Superseded: true, CreatedAt: created},
	}

	var buf bytes.Buffer
	formatSessions(&buf, sessions)

	output := buf.String()
	assert.Contains(t, output, "QUERY")
	assert.Contains(t, output, "0b5c7e2a ")
	assert.NotContains(t, output, "93f1")
	assert.Contains(t, output, "partial (superseded)")
	assert.Contains(t, output, "2026-03-08 09:15")
}

func TestFormatSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	formatSessions(&buf, nil)

	assert.Contains(t, buf.String(), "STATUS")
}

func TestFormatWeather(t *testing.T) {
	var buf bytes.Buffer
	formatWeather(&buf, &weather.Conditions{LocationName: "Huế", Temp: 27, FeelsLike: 30, Humidity: 84, Description: "mưa nhẹ", WindSpeed: 2.1})

	assert.Equal(t, "Huế: 27°C (cảm giác 30°C), mưa nhẹ, độ ẩm 84%, gió 2.1 m/s\n", buf.String())
}

func TestFormatWeatherIcon(t *testing.T) {
	var buf bytes.Buffer
	formatWeather(&buf, &weather.Conditions{LocationName: "Huế", Temp: 27, FeelsLike: 30, Humidity: 84, Description: "mưa nhẹ", Icon: "10d", WindSpeed: 2.1})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", lines[1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Huế", truncate("Huế", 5))
	assert.Equal(t, "Thành...", truncate("Thành phố Hồ Chí Minh", 8))
	assert.Equal(t, "abcd1234", truncateID("abcd1234-ffff"))
	assert.Equal(t, "abc", truncateID("abc"))
}

func TestSearchWithoutPlaceListsSuggestions(t *testing.T) {
	t.Chdir(t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"search"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Gợi ý: Hà Nội, Đà Nẵng, Hội An, Huế, Sài Gòn\n", buf.String())
}
