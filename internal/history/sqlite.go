package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contextcli/context-cli/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audits (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	url           TEXT NOT NULL,
	timestamp     TEXT NOT NULL,
	overall_score REAL NOT NULL,
	robots_score  REAL NOT NULL,
	llms_score    REAL NOT NULL,
	schema_score  REAL NOT NULL,
	content_score REAL NOT NULL,
	report_blob   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url);
CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);
`

// SQLiteStore is the default embedded history backend. A mutex serializes
// writers; SQLite itself only supports one at a time.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (and if needed creates) the history database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("open %s: %w", path, err)}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("init schema: %w", err)}
	}
	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "history", "backend", "sqlite"),
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, report *types.AuditReport) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, types.ErrStoreClosed
	}

	blob, err := json.Marshal(report)
	if err != nil {
		return 0, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("encode report: %w", err)}
	}

	scores := report.Scores()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audits (url, timestamp, overall_score, robots_score, llms_score, schema_score, content_score, report_blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.URL,
		time.Now().UTC().Format(time.RFC3339),
		scores.Overall, scores.Robots, scores.LlmsTxt, scores.SchemaOrg, scores.Content,
		string(blob),
	)
	if err != nil {
		return 0, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("insert audit: %w", err)}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &types.StoreError{Backend: "sqlite", Err: err}
	}
	s.logger.Debug("audit saved", "id", id, "url", report.URL)
	return id, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, url string, limit int) ([]types.HistoryEntry, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	query := `SELECT id, url, timestamp, overall_score, robots_score, llms_score, schema_score, content_score
	          FROM audits`
	args := []any{}
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("list entries: %w", err)}
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, &types.StoreError{Backend: "sqlite", Err: err}
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) GetReport(ctx context.Context, id int64) (*types.AuditReport, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT report_blob FROM audits WHERE id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("get report %d: %w", id, err)}
	}
	return decodeReport(blob)
}

func (s *SQLiteStore) GetLatest(ctx context.Context, url string) (*types.HistoryEntry, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, timestamp, overall_score, robots_score, llms_score, schema_score, content_score
		 FROM audits WHERE url = ? ORDER BY id DESC LIMIT 1`, url)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNoHistory
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("latest for %s: %w", url, err)}
	}
	return entry, nil
}

func (s *SQLiteStore) GetLatestReport(ctx context.Context, url string) (*types.AuditReport, error) {
	if s.isClosed() {
		return nil, types.ErrStoreClosed
	}

	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_blob FROM audits WHERE url = ? ORDER BY id DESC LIMIT 1`, url).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNoHistory
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("latest report for %s: %w", url, err)}
	}
	return decodeReport(blob)
}

func (s *SQLiteStore) DeleteURL(ctx context.Context, url string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM audits WHERE url = ?`, url)
	if err != nil {
		return 0, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("delete %s: %w", url, err)}
	}
	return res.RowsAffected()
}

// Close shuts down the database. Calling it twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*types.HistoryEntry, error) {
	var entry types.HistoryEntry
	var ts string
	if err := row.Scan(&entry.ID, &entry.URL, &ts,
		&entry.OverallScore, &entry.RobotsScore, &entry.LlmsTxtScore,
		&entry.SchemaOrgScore, &entry.ContentScore); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	entry.Timestamp = parsed
	return &entry, nil
}

func decodeReport(blob string) (*types.AuditReport, error) {
	var report types.AuditReport
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, &types.StoreError{Backend: "sqlite", Err: fmt.Errorf("decode report: %w", err)}
	}
	return &report, nil
}
