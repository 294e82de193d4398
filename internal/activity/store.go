// SPDX-License-Identifier: MIT

// Package activity tracks plugin item activations so the host can rank
// frequently used results above rarely used ones.
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the store's recommended connection settings.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// recencyHalfLife controls how fast an activation's weight decays: an entry
// last used one half-life ago counts half as much as one used just now.
const recencyHalfLife = 7 * 24 * time.Hour

// ScoredTitle is one ranked candidate.
type ScoredTitle struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Store persists activation counts in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes the SQLite store at dbPath, creating the schema if
// needed. The DSN pragmas apply to every pooled connection.
func Open(dbPath string, cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("activity: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("activity: ping failed: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS activations (
			plugin    TEXT NOT NULL,
			title     TEXT NOT NULL,
			frequency INTEGER NOT NULL,
			last_use  TIMESTAMP NOT NULL,
			PRIMARY KEY (plugin, title)
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("activity: create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record increments the frequency counter for a title and stamps its last
// use.
func (s *Store) Record(ctx context.Context, plugin, title string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activations (plugin, title, frequency, last_use)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (plugin, title) DO UPDATE SET
			frequency = frequency + 1,
			last_use = excluded.last_use
		`, plugin, title, s.now().UTC())
	if err != nil {
		return fmt.Errorf("activity: record activation: %w", err)
	}
	return nil
}

// Rank orders candidate titles by frecency: activation frequency weighted
// by an exponential decay on time since last use. Unknown titles score zero
// and keep their input order relative to each other.
func (s *Store) Rank(ctx context.Context, plugin string, titles []string) ([]ScoredTitle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, frequency, last_use FROM activations WHERE plugin = ?`, plugin)
	if err != nil {
		return nil, fmt.Errorf("activity: query activations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type record struct {
		frequency int64
		lastUse   time.Time
	}
	known := make(map[string]record)
	for rows.Next() {
		var title string
		var rec record
		if err := rows.Scan(&title, &rec.frequency, &rec.lastUse); err != nil {
			return nil, fmt.Errorf("activity: scan activation: %w", err)
		}
		known[title] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activity: iterate activations: %w", err)
	}

	now := s.now().UTC()
	out := make([]ScoredTitle, 0, len(titles))
	for _, title := range titles {
		score := 0.0
		if rec, ok := known[title]; ok {
			age := now.Sub(rec.lastUse)
			if age < 0 {
				age = 0
			}
			decay := math.Exp2(-age.Hours() / recencyHalfLife.Hours())
			score = float64(rec.frequency) * decay
		}
		out = append(out, ScoredTitle{Title: title, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
