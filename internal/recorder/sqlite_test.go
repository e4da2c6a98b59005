package recorder

import (
	"path/filepath"
	"testing"

	"GrantSentinel/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer rec.Close()

	summary := &model.RunSummary{
		TotalOpportunities: 12,
		Matched:            3,
		NewMatches:         2,
		Skipped:            9,
		Sources:            []model.SourceReport{{Name: "sbir", Count: 12}},
		Errors:             []string{"NSF solicitations: fetch solicitations page: status 500"},
	}
	if err := rec.RecordRun(summary); err != nil {
		t.Fatalf("record run: %v", err)
	}

	matches := []model.Match{{
		Opportunity: &model.Opportunity{
			ID:                "sbir::x",
			Source:            "sbir",
			SolicitationTitle: "Quantum Sensing",
			Agency:            "DOD",
		},
		Score:           2,
		MatchedKeywords: []string{"quantum", "sensor"},
	}}
	if err := rec.RecordMatches(matches); err != nil {
		t.Fatalf("record matches: %v", err)
	}

	var runs int
	if err := rec.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if runs != 1 {
		t.Errorf("expected 1 run row, got %d", runs)
	}

	var id, keywords string
	err = rec.db.QueryRow("SELECT opportunity_id, keywords FROM delivered_matches").Scan(&id, &keywords)
	if err != nil {
		t.Fatalf("query delivered match: %v", err)
	}
	if id != "sbir::x" || keywords != "quantum,sensor" {
		t.Errorf("unexpected row %s / %s", id, keywords)
	}
}

func TestNew_PathSelectsImplementation(t *testing.T) {
	rec, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := rec.(*NoopRecorder); !ok {
		t.Errorf("expected noop recorder without a path, got %T", rec)
	}

	rec, err = New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer rec.Close()
	if _, ok := rec.(*SQLiteRecorder); !ok {
		t.Errorf("expected sqlite recorder, got %T", rec)
	}
}
