// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists detection runs in a SQLite database: the run
// totals, the organization PMIDs per site and the category records.
// Implements: docs/ARCHITECTURE § Result Store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/affiliation-engine/pkg/types"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run has the requested identifier.
var ErrRunNotFound = errors.New("run not found")

// Run is one detection run as persisted.
type Run struct {
	ID           string        `json:"id" yaml:"id"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
	Identifiers  int           `json:"identifiers" yaml:"identifiers"`
	Publications int           `json:"publications" yaml:"publications"`

	// OrgIDs lists the organization publications in detection order.
	OrgIDs []string `json:"org_ids" yaml:"org_ids"`
	// Missing lists identifiers the service did not return.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	// Sites lists the organization publications per site.
	Sites types.SiteMembership `json:"sites" yaml:"sites"`
	// Categories holds the category records per site, in membership order.
	Categories map[types.Site][]types.CategoryRecord `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// RunInfo is the listing view of a run.
type RunInfo struct {
	ID           string
	StartedAt    time.Time
	Elapsed      time.Duration
	Identifiers  int
	Publications int
	Matched      int
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store manages the result database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: store path is empty", types.ErrConfiguration)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			identifiers INTEGER NOT NULL,
			publications INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS org_ids (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			pmid TEXT NOT NULL,
			missing INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, missing, position)
		)`,
		`CREATE TABLE IF NOT EXISTS site_members (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			site TEXT NOT NULL,
			position INTEGER NOT NULL,
			pmid TEXT NOT NULL,
			PRIMARY KEY (run_id, site, position)
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			site TEXT NOT NULL,
			position INTEGER NOT NULL,
			pmid TEXT NOT NULL,
			embl INTEGER NOT NULL,
			member_states INTEGER NOT NULL,
			worldwide INTEGER NOT NULL,
			partnership INTEGER NOT NULL,
			PRIMARY KEY (run_id, site, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_pmid ON categories(pmid)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun writes a run in one transaction, replacing any run with the same
// ID. A run without an ID is given one; the ID is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return "", fmt.Errorf("deleting old run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, elapsed_ns, identifiers, publications) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), int64(run.Elapsed), run.Identifiers, run.Publications,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	ids, err := tx.PrepareContext(ctx, `INSERT INTO org_ids (run_id, position, pmid, missing) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer ids.Close()
	for i, id := range run.OrgIDs {
		if _, err := ids.ExecContext(ctx, run.ID, i, id, 0); err != nil {
			return "", fmt.Errorf("inserting pmid %s: %w", id, err)
		}
	}
	for i, id := range run.Missing {
		if _, err := ids.ExecContext(ctx, run.ID, i, id, 1); err != nil {
			return "", fmt.Errorf("inserting missing pmid %s: %w", id, err)
		}
	}

	members, err := tx.PrepareContext(ctx, `INSERT INTO site_members (run_id, site, position, pmid) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer members.Close()
	cats, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (run_id, site, position, pmid, embl, member_states, worldwide, partnership)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer cats.Close()

	for _, site := range types.Sites {
		for i, id := range run.Sites[site] {
			if _, err := members.ExecContext(ctx, run.ID, string(site), i, id); err != nil {
				return "", fmt.Errorf("inserting %s member %s: %w", site, id, err)
			}
		}
		for i, r := range run.Categories[site] {
			_, err := cats.ExecContext(ctx, run.ID, string(site), i, r.PMID, r.IsOrg, r.MemberState, r.Worldwide, r.Partnership)
			if err != nil {
				return "", fmt.Errorf("inserting %s category %s: %w", site, r.PMID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns every run, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.elapsed_ns, r.identifiers, r.publications,
			(SELECT count(*) FROM org_ids o WHERE o.run_id = r.id AND o.missing = 0)
		 FROM runs r ORDER BY r.started_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var started string
		var elapsed int64
		if err := rows.Scan(&info.ID, &started, &elapsed, &info.Identifiers, &info.Publications, &info.Matched); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		info.StartedAt, _ = time.Parse(timeLayout, started)
		info.Elapsed = time.Duration(elapsed)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying latest run: %w", err)
	}
	return id, nil
}

// LoadRun reads a run back.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id, Sites: types.NewSiteMembership(), Categories: make(map[types.Site][]types.CategoryRecord)}

	var started string
	var elapsed int64
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, elapsed_ns, identifiers, publications FROM runs WHERE id = ?`, id,
	).Scan(&started, &elapsed, &run.Identifiers, &run.Publications)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("loading run %s: %w", id, err)
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)
	run.Elapsed = time.Duration(elapsed)

	if err := s.loadIDs(ctx, &run); err != nil {
		return Run{}, err
	}
	if err := s.loadMembers(ctx, &run); err != nil {
		return Run{}, err
	}
	if err := s.loadCategories(ctx, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) loadIDs(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pmid, missing FROM org_ids WHERE run_id = ? ORDER BY missing, position`, run.ID)
	if err != nil {
		return fmt.Errorf("loading pmids: %w", err)
	}
	defer rows.Close()

	run.OrgIDs = []string{}
	for rows.Next() {
		var id string
		var missing bool
		if err := rows.Scan(&id, &missing); err != nil {
			return fmt.Errorf("scanning pmid: %w", err)
		}
		if missing {
			run.Missing = append(run.Missing, id)
		} else {
			run.OrgIDs = append(run.OrgIDs, id)
		}
	}
	return rows.Err()
}

func (s *Store) loadMembers(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site, pmid FROM site_members WHERE run_id = ? ORDER BY site, position`, run.ID)
	if err != nil {
		return fmt.Errorf("loading site members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var site, id string
		if err := rows.Scan(&site, &id); err != nil {
			return fmt.Errorf("scanning site member: %w", err)
		}
		run.Sites[types.Site(site)] = append(run.Sites[types.Site(site)], id)
	}
	return rows.Err()
}

func (s *Store) loadCategories(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT site, pmid, embl, member_states, worldwide, partnership
		 FROM categories WHERE run_id = ? ORDER BY site, position`, run.ID)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var site string
		var r types.CategoryRecord
		if err := rows.Scan(&site, &r.PMID, &r.IsOrg, &r.MemberState, &r.Worldwide, &r.Partnership); err != nil {
			return fmt.Errorf("scanning category: %w", err)
		}
		run.Categories[types.Site(site)] = append(run.Categories[types.Site(site)], r)
	}
	return rows.Err()
}

// FindPublication returns, per run, the category records of a PMID.
func (s *Store) FindPublication(ctx context.Context, pmid string) (map[string][]SiteCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, site, embl, member_states, worldwide, partnership
		 FROM categories WHERE pmid = ? ORDER BY run_id, site`, pmid)
	if err != nil {
		return nil, fmt.Errorf("querying publication %s: %w", pmid, err)
	}
	defer rows.Close()

	out := make(map[string][]SiteCategory)
	for rows.Next() {
		var runID, site string
		r := types.CategoryRecord{PMID: pmid}
		if err := rows.Scan(&runID, &site, &r.IsOrg, &r.MemberState, &r.Worldwide, &r.Partnership); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out[runID] = append(out[runID], SiteCategory{Site: types.Site(site), Record: r})
	}
	return out, rows.Err()
}

// SiteCategory is a category record tagged with its site.
type SiteCategory struct {
	Site   types.Site
	Record types.CategoryRecord
}
