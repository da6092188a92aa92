// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/store"
	"github.com/khampha-vn/khampha/weather"
)

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n-3]) + "..."
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

// formatPOIs writes a numbered table of POIs, starting at offset+1, with
// their distance from center in kilometers.
func formatPOIs(out io.Writer, center spatial.Point, pois []discovery.POI, offset int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tCATEGORY\tLAT,LON\tKM\tSOURCE")

	for i, p := range pois {
		at := spatial.Point{Lat: p.Lat, Lng: p.Lon}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.5f,%.5f\t%.1f\t%s\n",
			offset+i+1,
			truncate(p.Name, 40),
			p.Category,
			p.Lat, p.Lon,
			center.HaversineDistance(&at)/1000,
			p.Provider,
		)
	}

	_ = w.Flush()
}

func formatWeather(out io.Writer, c *weather.Conditions) {
	_, _ = fmt.Fprintf(out, "%s: %d°C (cảm giác %d°C), %s, độ ẩm %d%%, gió %.1f m/s\n",
		c.LocationName, c.Temp, c.FeelsLike, c.Description, c.Humidity, c.WindSpeed)

	if icon := c.IconURL(); icon != "" {
		_, _ = fmt.Fprintln(out, icon)
	}
}

// formatSessions writes a tabular list of sessions.
func formatSessions(out io.Writer, sessions []*store.Session) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tQUERY\tPLACE\tLEVEL\tPOIS\tSTATUS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-----\t-----\t-----\t----\t------\t-------")

	for _, s := range sessions {
		status := s.Status
		if s.Superseded {
			status += " (superseded)"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(s.ID),
			truncate(s.Query, 20),
			truncate(s.DisplayName, 30),
			s.Level,
			s.POICount,
			status,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	_ = w.Flush()
}
