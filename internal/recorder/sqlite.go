package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"GrantSentinel/internal/model"
)

// SQLiteRecorder persists run summaries and delivered matches to a SQLite
// database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			opportunities INTEGER,
			matched       INTEGER,
			new_matches   INTEGER,
			skipped       INTEGER,
			sources       TEXT,
			errors        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS delivered_matches (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			opportunity_id TEXT NOT NULL,
			source         TEXT,
			title          TEXT,
			agency         TEXT,
			close_date     TEXT,
			score          INTEGER,
			keywords       TEXT,
			url            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_delivered_ts ON delivered_matches(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_delivered_opp ON delivered_matches(opportunity_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores one run summary row.
func (r *SQLiteRecorder) RecordRun(summary *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources := make([]string, 0, len(summary.Sources))
	for _, report := range summary.Sources {
		sources = append(sources, report.String())
	}

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, opportunities, matched, new_matches, skipped, sources, errors)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), summary.TotalOpportunities, summary.Matched,
		summary.NewMatches, summary.Skipped,
		strings.Join(sources, ","), strings.Join(summary.Errors, "; "),
	)
	return err
}

// RecordMatches stores one row per delivered match.
func (r *SQLiteRecorder) RecordMatches(matches []model.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	for _, match := range matches {
		opp := match.Opportunity
		_, err := r.db.Exec(`INSERT INTO delivered_matches
			(timestamp, opportunity_id, source, title, agency, close_date, score, keywords, url)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			now, opp.ID, opp.Source, opp.Title(), opp.Agency, opp.CloseDate,
			match.Score, strings.Join(match.MatchedKeywords, ","), opp.URL,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
