package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"GrantSentinel/internal/model"
)

func matchFor(id string) model.Match {
	return model.Match{Opportunity: &model.Opportunity{ID: id}}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "absent.json"))
	if s.Len() != 0 {
		t.Fatalf("expected empty state, got %d ids", s.Len())
	}
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Load(path)
	if s.Len() != 0 {
		t.Fatalf("expected corrupt file to degrade to empty state, got %d ids", s.Len())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := New()
	s.Remember([]model.Match{matchFor("b"), matchFor("a"), matchFor("a")})
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := Load(path)
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 ids after round trip, got %d", loaded.Len())
	}
	for _, id := range []string{"a", "b"} {
		if !loaded.Seen(id) {
			t.Errorf("expected %s to be seen", id)
		}
	}
}

func TestSave_IDsSortedOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := New()
	s.Remember([]model.Match{matchFor("c"), matchFor("a"), matchFor("b")})
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var persisted struct {
		SeenIDs []string `json:"seen_ids"`
	}
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("parse written state: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(persisted.SeenIDs, want) {
		t.Errorf("expected sorted ids %v, got %v", want, persisted.SeenIDs)
	}
}

func TestFilterNew_PreservesOrderAndDropsSeen(t *testing.T) {
	s := New()
	s.Remember([]model.Match{matchFor("b")})

	fresh := s.FilterNew([]model.Match{matchFor("a"), matchFor("b"), matchFor("c")})

	if len(fresh) != 2 {
		t.Fatalf("expected 2 fresh matches, got %d", len(fresh))
	}
	if fresh[0].Opportunity.ID != "a" || fresh[1].Opportunity.ID != "c" {
		t.Errorf("expected order a, c; got %s, %s", fresh[0].Opportunity.ID, fresh[1].Opportunity.ID)
	}
}
