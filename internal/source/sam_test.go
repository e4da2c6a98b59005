package source

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GrantSentinel/internal/config"
)

func testSamAdapter(cfg config.SamConfig) *SamAdapter {
	return &SamAdapter{
		cfg:       cfg,
		userAgent: "test",
		client:    http.DefaultClient,
		now: func() time.Time {
			return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestSamFetch_MissingKeyFails(t *testing.T) {
	a := testSamAdapter(config.SamConfig{})
	_, err := a.Fetch()
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if !strings.Contains(err.Error(), "SAM_API_KEY") {
		t.Errorf("error should name the env var, got %v", err)
	}
}

func TestSamBuildParams_DateWindowCapped(t *testing.T) {
	a := testSamAdapter(config.SamConfig{
		APIKey:     "k",
		PostedDays: 5000,
		Limit:      100,
		TitleQuery: "SBIR",
		PType:      "o",
	})

	params := a.buildParams()
	if got := params.Get("postedTo"); got != "06/15/2024" {
		t.Errorf("unexpected postedTo %s", got)
	}
	// 364 days back from 2024-06-15.
	if got := params.Get("postedFrom"); got != "06/17/2023" {
		t.Errorf("unexpected postedFrom %s", got)
	}
	if params.Get("title") != "SBIR" || params.Get("ptype") != "o" {
		t.Errorf("unexpected query params %v", params)
	}
}

func TestSamFetch_PaginatesWithOffset(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		records := []map[string]any{}
		if offset == "0" {
			records = []map[string]any{
				{"title": "Notice A", "noticeId": "n1"},
				{"title": "Notice B", "noticeId": "n2"},
			}
		} else {
			records = []map[string]any{
				{"title": "Notice C", "noticeId": "n3"},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"opportunitiesData": records})
	}))
	defer server.Close()

	a := testSamAdapter(config.SamConfig{
		APIKey:   "k",
		Limit:    2,
		MaxPages: 5,
		BaseURL:  server.URL,
	})

	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(opps))
	}
	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != "2" {
		t.Errorf("expected offsets [0 2], got %v", offsets)
	}
	if opps[0].ID != "sam::n1" {
		t.Errorf("unexpected id %s", opps[0].ID)
	}
}

func TestSamOpportunity_FieldFallbacks(t *testing.T) {
	record := map[string]any{
		"title":              "Hypersonics Testbed",
		"solicitationNumber": "SOL-99",
		"department":         "DEPT OF DEFENSE",
		"subTier":            "AIR FORCE",
		"postedDate":         "2024-06-01",
		"responseDeadline":   "2024-07-01",
		"additionalInfoLink": "https://sam.gov/opp/1",
		"type":               "Solicitation",
		"naicsCode":          "541715",
	}

	opp, ok := samOpportunity(record)
	if !ok {
		t.Fatal("expected record to convert")
	}
	if opp.ID != "sam::SOL-99" {
		t.Errorf("expected solicitation number key, got %s", opp.ID)
	}
	if opp.Agency != "DEPT OF DEFENSE" || opp.Branch != "AIR FORCE" {
		t.Errorf("unexpected agency %s / branch %s", opp.Agency, opp.Branch)
	}
	if opp.CloseDate != "2024-07-01" {
		t.Errorf("unexpected close date %s", opp.CloseDate)
	}
	if opp.URL != "https://sam.gov/opp/1" {
		t.Errorf("unexpected url %s", opp.URL)
	}
	if !strings.Contains(opp.TopicDescription, "naicsCode:541715") {
		t.Errorf("expected classification summary, got %q", opp.TopicDescription)
	}
}

func TestSamOpportunity_UntitledDropped(t *testing.T) {
	if _, ok := samOpportunity(map[string]any{"noticeId": "n1"}); ok {
		t.Fatal("expected untitled record to be dropped")
	}
}
