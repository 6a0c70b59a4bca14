// Package history persists audit results so later runs can be compared
// against earlier ones.
package history

import (
	"context"
	"os"
	"path/filepath"

	"github.com/contextcli/context-cli/internal/types"
)

// Store is an append-only audit archive. Entries carry monotonically
// increasing ids per backend; timestamps are recorded in UTC.
type Store interface {
	// Save appends a report and returns its assigned id.
	Save(ctx context.Context, report *types.AuditReport) (int64, error)

	// ListEntries returns index rows for a URL, newest first. limit <= 0
	// means no limit. An empty url lists all entries.
	ListEntries(ctx context.Context, url string, limit int) ([]types.HistoryEntry, error)

	// GetReport loads the full report stored under id.
	GetReport(ctx context.Context, id int64) (*types.AuditReport, error)

	// GetLatest returns the most recent index row for a URL, or
	// types.ErrNoHistory.
	GetLatest(ctx context.Context, url string) (*types.HistoryEntry, error)

	// GetLatestReport loads the most recent full report for a URL.
	GetLatestReport(ctx context.Context, url string) (*types.AuditReport, error)

	// DeleteURL removes all entries for a URL and reports how many went.
	DeleteURL(ctx context.Context, url string) (int64, error)

	// Close releases the backend. Safe to call more than once.
	Close() error
}

// DefaultPath returns the user-data location of the embedded history
// database, creating the parent directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".context-cli")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
