// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists search sessions and their POIs in DuckDB.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/khampha-vn/khampha/discovery"
	"github.com/khampha-vn/khampha/spatial"
	"github.com/khampha-vn/khampha/utils/textutils"
)

// Resolution of the H3 cell sessions are indexed by. Res 5 cells are about
// 250 km², roughly a district.
const cellResolution = 5

var (
	// ErrSessionNotFound no session has the requested id.
	ErrSessionNotFound = errors.New("store: session not found")
	// ErrSessionSuperseded a newer search from the same client replaced the session.
	ErrSessionSuperseded = errors.New("store: session superseded")
)

// Session is a persisted search.
type Session struct {
	ID          string          `json:"id"`
	Client      string          `json:"client"`
	Query       string          `json:"query"`
	DisplayName string          `json:"display_name"`
	Level       discovery.Level `json:"level"`
	Region      string          `json:"region,omitempty"`
	Center      spatial.Point   `json:"center"`
	Status      string          `json:"status"`
	POICount    int             `json:"poi_count"`
	Superseded  bool            `json:"superseded"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListOptions filters ListSessions.
type ListOptions struct {
	Limit  int
	Client string
	// Near keeps sessions whose center lies in the same or a neighbouring H3 cell
	Near *spatial.Point
}

// Repository handles persistence of search sessions.
type Repository interface {
	// CreateSchema creates the sessions and pois tables
	CreateSchema(ctx context.Context) error

	// SaveSession stores a finished search and supersedes the client's previous sessions
	SaveSession(ctx context.Context, client string, res *discovery.Result) error

	// AppendPOIs stores the POIs added by a load more along with the updated context.
	// It fails with ErrSessionSuperseded once a newer search replaced the session.
	AppendPOIs(ctx context.Context, sc *discovery.SearchContext, res *discovery.MoreResult) error

	// LoadContext rebuilds the SearchContext of an active session
	LoadContext(ctx context.Context, id string) (*discovery.SearchContext, error)

	// GetSession returns one session
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions, newest first
	ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error)

	// SessionPOIs returns the POIs of a session in admission order
	SessionPOIs(ctx context.Context, id string) ([]discovery.POI, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a repository on db, an open duckdb handle.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

// DB returns the underlying database connection.
func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR PRIMARY KEY,
			client VARCHAR NOT NULL,
			query VARCHAR NOT NULL,
			place_id BIGINT,
			display_name VARCHAR NOT NULL,
			level VARCHAR NOT NULL,
			region VARCHAR,
			country VARCHAR,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			h3_res5 BIGINT,
			half_extent DOUBLE NOT NULL,
			seen_names VARCHAR[] NOT NULL,
			status VARCHAR NOT NULL,
			superseded BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE SEQUENCE IF NOT EXISTS pois_seq START 1;

		CREATE TABLE IF NOT EXISTS pois (
			id INTEGER PRIMARY KEY DEFAULT nextval('pois_seq'),
			session_id VARCHAR NOT NULL,
			position INTEGER NOT NULL,
			poi_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			full_name VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			category VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			UNIQUE(session_id, name)
		);
	`)
	if err != nil {
		return eris.Wrap(err, "store: creating schema")
	}

	return nil
}

func cellOf(p spatial.Point) (int64, error) {
	cell, err := p.Cell(cellResolution)
	if err != nil {
		return 0, err
	}

	return int64(cell), nil
}

func seenNames(sc *discovery.SearchContext) []string {
	names := sc.SeenNames.Names()
	if names == nil {
		names = []string{}
	}

	return names
}

func insertPOIs(ctx context.Context, tx *sql.Tx, sessionID string, offset int, pois []discovery.POI) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pois (session_id, position, poi_id, name, full_name, lat, lon, category, provider)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range pois {
		if _, err := stmt.ExecContext(ctx, sessionID, offset+i, p.ID, p.Name, p.FullName, p.Lat, p.Lon, p.Category, p.Provider); err != nil {
			return fmt.Errorf("inserting poi %q: %w", p.Name, err)
		}
	}

	return nil
}

func (r *sqlRepository) SaveSession(ctx context.Context, client string, res *discovery.Result) error {
	if res == nil || res.Context == nil {
		return eris.New("store: result without search context")
	}

	sc := res.Context

	cell, err := cellOf(sc.Place.Center)
	if err != nil {
		return eris.Wrap(err, "store: indexing session")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}

	err = func() error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET superseded = TRUE, updated_at = CURRENT_TIMESTAMP WHERE client = ? AND NOT superseded`,
			client,
		); err != nil {
			return fmt.Errorf("superseding sessions: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, client, query, place_id, display_name, level, region, country,
				lat, lon, h3_res5, half_extent, seen_names, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sc.ID, client, sc.Query, sc.Place.PlaceID, sc.Place.DisplayName, string(sc.Place.Level),
			sc.Place.Region, sc.Place.Country, sc.Place.Center.Lat, sc.Place.Center.Lng, cell,
			sc.HalfExtent, seenNames(sc), string(res.Status),
		); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}

		return insertPOIs(ctx, tx, sc.ID, 0, res.POIs)
	}()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return eris.Wrap(rbErr, "store: rollback")
		}

		return eris.Wrap(err, "store: saving session")
	}

	return eris.Wrap(tx.Commit(), "store: commit")
}

func (r *sqlRepository) AppendPOIs(ctx context.Context, sc *discovery.SearchContext, more *discovery.MoreResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}

	err = func() error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pois WHERE session_id = ?`, sc.ID).Scan(&count); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET seen_names = ?, half_extent = ?, status = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND NOT superseded`,
			seenNames(sc), sc.HalfExtent, string(more.Status), sc.ID,
		)
		if err != nil {
			return fmt.Errorf("updating session: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			var superseded bool

			err := tx.QueryRowContext(ctx, `SELECT superseded FROM sessions WHERE id = ?`, sc.ID).Scan(&superseded)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return ErrSessionNotFound
			case err != nil:
				return err
			case superseded:
				return ErrSessionSuperseded
			}
		}

		return insertPOIs(ctx, tx, sc.ID, count, more.POIs)
	}()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return eris.Wrap(rbErr, "store: rollback")
		}

		return eris.Wrap(err, "store: appending pois")
	}

	return eris.Wrap(tx.Commit(), "store: commit")
}

func (r *sqlRepository) LoadContext(ctx context.Context, id string) (*discovery.SearchContext, error) {
	var (
		sc         discovery.SearchContext
		level      string
		region     sql.NullString
		country    sql.NullString
		placeID    sql.NullInt64
		seenVal    any
		superseded bool
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, query, place_id, display_name, level, region, country, lat, lon,
			half_extent, seen_names, superseded
		FROM sessions WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.Query, &placeID, &sc.Place.DisplayName, &level, &region, &country,
		&sc.Place.Center.Lat, &sc.Place.Center.Lng, &sc.HalfExtent, &seenVal, &superseded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, eris.Wrap(err, "store: loading session")
	}

	if superseded {
		return nil, ErrSessionSuperseded
	}

	seen, ok := textutils.AnyToStringSlice(seenVal)
	if !ok {
		return nil, eris.Errorf("store: failed to convert seen_names to []string for session %s", id)
	}

	sc.Place.PlaceID = placeID.Int64
	sc.Place.Level = discovery.Level(level)
	sc.Place.Region = region.String
	sc.Place.Country = country.String
	sc.SeenNames = discovery.NewSeenNames(seen...)

	return &sc, nil
}

const sessionColumns = `
	s.id, s.client, s.query, s.display_name, s.level, s.region, s.lat, s.lon, s.status,
	s.superseded, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM pois p WHERE p.session_id = s.id) AS poi_count`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var (
		s      Session
		level  string
		region sql.NullString
	)

	if err := row.Scan(&s.ID, &s.Client, &s.Query, &s.DisplayName, &level, &region,
		&s.Center.Lat, &s.Center.Lng, &s.Status, &s.Superseded, &s.CreatedAt, &s.UpdatedAt, &s.POICount); err != nil {
		return nil, err
	}

	s.Level = discovery.Level(level)
	s.Region = region.String

	return &s, nil
}

func (r *sqlRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, eris.Wrap(err, "store: getting session")
	}

	return s, nil
}

func (r *sqlRepository) ListSessions(ctx context.Context, opts ListOptions) ([]*Session, error) {
	var (
		where []string
		args  []any
	)

	if opts.Client != "" {
		where = append(where, "s.client = ?")
		args = append(args, opts.Client)
	}

	if opts.Near != nil {
		origin, err := opts.Near.Cell(cellResolution)
		if err != nil {
			return nil, eris.Wrap(err, "store: indexing near point")
		}

		disk, err := origin.GridDisk(1)
		if err != nil {
			return nil, eris.Wrap(err, "store: expanding near cell")
		}

		placeholders := make([]string, len(disk))
		for i, c := range disk {
			placeholders[i] = "?"
			args = append(args, int64(c))
		}

		where = append(where, "s.h3_res5 IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions s`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY s.created_at DESC, s.id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: listing sessions")
	}
	defer rows.Close()

	var sessions []*Session

	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scanning session")
		}

		sessions = append(sessions, s)
	}

	return sessions, eris.Wrap(rows.Err(), "store: listing sessions")
}

func (r *sqlRepository) SessionPOIs(ctx context.Context, id string) ([]discovery.POI, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT poi_id, name, full_name, lat, lon, category, provider
		FROM pois WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, eris.Wrap(err, "store: listing pois")
	}
	defer rows.Close()

	var pois []discovery.POI

	for rows.Next() {
		var p discovery.POI
		if err := rows.Scan(&p.ID, &p.Name, &p.FullName, &p.Lat, &p.Lon, &p.Category, &p.Provider); err != nil {
			return nil, eris.Wrap(err, "store: scanning poi")
		}

		pois = append(pois, p)
	}

	return pois, eris.Wrap(rows.Err(), "store: listing pois")
}
