// Package sqlite keeps the history of generated reports in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// timeLayout has a fixed width so generated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a report ID has no history row.
var ErrNotFound = errors.New("report not found")

// Store records generated reports.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// CreateSchema creates the report history table.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS report (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    file_name TEXT NOT NULL,
    path TEXT NOT NULL,
    total_accidents INTEGER NOT NULL,
    zone_count INTEGER NOT NULL,
    high_risk_zones INTEGER NOT NULL,
    medium_risk_zones INTEGER NOT NULL,
    low_risk_zones INTEGER NOT NULL,
    highest_risk_zone TEXT NOT NULL,
    concentration REAL NOT NULL,
    generated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_generated_at ON report(generated_at);
`

// Save inserts one history row.
func (s *Store) Save(ctx context.Context, r domain.ReportReady) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report (
			id, request_id, kind, file_name, path, total_accidents, zone_count,
			high_risk_zones, medium_risk_zones, low_risk_zones, highest_risk_zone,
			concentration, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReportID, r.RequestID, r.Kind, r.FileName, r.Path, r.TotalAccidents, r.ZoneCount,
		r.HighRiskZones, r.MediumRiskZones, r.LowRiskZones, r.HighestRiskZone,
		r.Concentration, r.GeneratedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ReportID, err)
	}
	return nil
}

const selectColumns = `
	SELECT id, request_id, kind, file_name, path, total_accidents, zone_count,
		high_risk_zones, medium_risk_zones, low_risk_zones, highest_risk_zone,
		concentration, generated_at
	FROM report`

// List returns the most recent reports first, at most limit rows
// (all rows when limit <= 0).
func (s *Store) List(ctx context.Context, limit int) ([]domain.ReportReady, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY generated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []domain.ReportReady
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// Get returns the report with the given ID.
func (s *Store) Get(ctx context.Context, id string) (domain.ReportReady, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ReportReady{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (domain.ReportReady, error) {
	var (
		r           domain.ReportReady
		generatedAt string
	)
	err := row.Scan(
		&r.ReportID, &r.RequestID, &r.Kind, &r.FileName, &r.Path, &r.TotalAccidents, &r.ZoneCount,
		&r.HighRiskZones, &r.MediumRiskZones, &r.LowRiskZones, &r.HighestRiskZone,
		&r.Concentration, &generatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan report: %w", err)
	}
	r.GeneratedAt, err = time.Parse(timeLayout, generatedAt)
	if err != nil {
		return r, fmt.Errorf("scan report %s: generated_at: %w", r.ReportID, err)
	}
	return r, nil
}
