// Package state persists the set of opportunity ids already delivered.
package state

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"

	"GrantSentinel/internal/model"
)

// State is the in-memory seen-id set for one run. The run owns it
// exclusively; concurrent runs are not supported.
type State struct {
	seen map[string]bool
}

// persistedState is the on-disk shape. Order of the list is not
// significant; membership must round-trip exactly.
type persistedState struct {
	SeenIDs []string `json:"seen_ids"`
}

// New returns an empty state.
func New() *State {
	return &State{seen: make(map[string]bool)}
}

// Load reads the state file. It never fails: a missing, unreadable or
// malformed file degrades to an empty state, so a corrupt dedup file can
// cause re-delivery but never block delivery.
func Load(path string) *State {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] read state %s: %v, starting empty", path, err)
		}
		return s
	}

	var persisted persistedState
	if err := json.Unmarshal(data, &persisted); err != nil {
		log.Printf("[WARN] parse state %s: %v, starting empty", path, err)
		return s
	}
	for _, id := range persisted.SeenIDs {
		s.seen[id] = true
	}
	return s
}

// Seen reports whether an id was delivered in a previous run.
func (s *State) Seen(id string) bool {
	return s.seen[id]
}

// Len returns the number of remembered ids.
func (s *State) Len() int {
	return len(s.seen)
}

// FilterNew returns the matches whose opportunity id is not yet seen,
// preserving input order.
func (s *State) FilterNew(matches []model.Match) []model.Match {
	var fresh []model.Match
	for _, match := range matches {
		if !s.seen[match.Opportunity.ID] {
			fresh = append(fresh, match)
		}
	}
	return fresh
}

// Remember adds each match's id to the set. Re-adding is a no-op.
func (s *State) Remember(matches []model.Match) {
	for _, match := range matches {
		s.seen[match.Opportunity.ID] = true
	}
}

// Save writes the full seen-id set, creating parent directories as needed.
// Callers only invoke it when a run produced new matches.
func (s *State) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(persistedState{SeenIDs: ids}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
