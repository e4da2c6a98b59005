package recorder

import "GrantSentinel/internal/model"

// NoopRecorder discards everything. Used when no database is configured.
type NoopRecorder struct{}

func (n *NoopRecorder) RecordRun(*model.RunSummary) error { return nil }
func (n *NoopRecorder) RecordMatches([]model.Match) error { return nil }
func (n *NoopRecorder) Close() error                      { return nil }
