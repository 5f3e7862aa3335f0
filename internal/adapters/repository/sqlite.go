package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/royalty/internal/domain/model"
	"github.com/okian/royalty/internal/domain/revenue"
	"github.com/okian/royalty/pkg/metrics"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteStore persists reports in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{version: strings.TrimSuffix(name, ".sql"), sql: string(data)})
	}
	return out, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// Save implements Store.Save.
func (s *SQLiteStore) Save(ctx context.Context, report model.Report) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	id := strings.TrimSpace(report.CatalogID)
	if id == "" {
		metrics.RecordErrorByComponent("repository", "missing_id")
		return ErrMissingID
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (catalog_id, name, gross_valuation, value_cents, confidence, risk_level, report_json, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(catalog_id) DO UPDATE SET
            name = excluded.name,
            gross_valuation = excluded.gross_valuation,
            value_cents = excluded.value_cents,
            confidence = excluded.confidence,
            risk_level = excluded.risk_level,
            report_json = excluded.report_json,
            updated_at = excluded.updated_at`,
		id,
		report.Name,
		report.GrossValuation,
		int64(toFixedPoint(report.GrossValuation)),
		report.Confidence,
		string(report.Risk.Level),
		string(body),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("upsert report %s: %w", id, err)
	}
	return nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, catalogID string) (model.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT report_json FROM reports WHERE catalog_id = ?", catalogID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Report{}, ErrNotFound
	}
	if err != nil {
		return model.Report{}, fmt.Errorf("get report %s: %w", catalogID, err)
	}
	var r model.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return model.Report{}, fmt.Errorf("decode report %s: %w", catalogID, err)
	}
	return r, nil
}

// Rank implements Store.Rank.
func (s *SQLiteStore) Rank(ctx context.Context, catalogID string) (model.RankedEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var cents int64
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		"SELECT catalog_id, name, gross_valuation, confidence, risk_level, value_cents FROM reports WHERE catalog_id = ?", catalogID), &cents)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.RankedEntry{}, ErrNotFound
	}
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("rank %s: %w", catalogID, err)
	}

	var ahead int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM reports WHERE value_cents > ? OR (value_cents = ? AND catalog_id < ?)",
		cents, cents, e.CatalogID,
	).Scan(&ahead)
	if err != nil {
		return model.RankedEntry{}, fmt.Errorf("rank %s: %w", catalogID, err)
	}
	e.Rank = ahead + 1
	return e, nil
}

// TopN implements Store.TopN.
func (s *SQLiteStore) TopN(ctx context.Context, n int) ([]model.RankedEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_id, name, gross_valuation, confidence, risk_level FROM reports
         ORDER BY value_cents DESC, catalog_id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	defer rows.Close()

	var out []model.RankedEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking: %w", err)
	}
	if out == nil {
		out = []model.RankedEntry{}
	}
	return out, nil
}

// Count implements Store.Count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM reports").Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads the ranking columns of a row followed by any extra
// destinations.
func scanEntry(row rowScanner, extra ...any) (model.RankedEntry, error) {
	var (
		e     model.RankedEntry
		level string
	)
	dest := append([]any{&e.CatalogID, &e.Name, &e.GrossValuation, &e.Confidence, &level}, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.RankedEntry{}, err
	}
	e.RiskLevel = revenue.Level(level)
	return e, nil
}
