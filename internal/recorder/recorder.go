// Package recorder persists run history for later inspection.
package recorder

import (
	"GrantSentinel/internal/model"
)

// Recorder stores the outcome of crawl runs. Implementations must be safe
// for use from the scheduler goroutine.
type Recorder interface {
	RecordRun(summary *model.RunSummary) error
	RecordMatches(matches []model.Match) error
	Close() error
}

// New returns a SQLite-backed recorder when a database path is configured,
// otherwise a no-op recorder.
func New(sqlitePath string) (Recorder, error) {
	if sqlitePath == "" {
		return &NoopRecorder{}, nil
	}
	return NewSQLiteRecorder(sqlitePath)
}
