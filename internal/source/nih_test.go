package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
)

const nihFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>NIH Guide</title>
<item>
<title>SBIR Phase I: Wearable Biosensors (R43)</title>
<link>https://grants.nih.gov/guide/pa-files/PAR-24-100.html</link>
<guid>PAR-24-100</guid>
<description>Small business innovation research for biosensors.</description>
<pubDate>Mon, 03 Jun 2024 09:00:00 GMT</pubDate>
</item>
<item>
<title>Research Project Grant (R01)</title>
<link>https://grants.nih.gov/guide/pa-files/PAR-24-101.html</link>
<guid>PAR-24-101</guid>
<description>Investigator-initiated research.</description>
</item>
</channel>
</rss>`

func TestNihFetch_FiltersByRequiredTerms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nihFeedFixture)
	}))
	defer server.Close()

	a := &NihAdapter{
		feedURL:       server.URL,
		requiredTerms: []string{"sbir", "sttr", "small business"},
		userAgent:     "test",
		client:        server.Client(),
		parser:        gofeed.NewParser(),
	}
	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 filtered opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.ID != "nih_guide::PAR-24-100" {
		t.Errorf("unexpected id %s", opp.ID)
	}
	if opp.Agency != "HHS" || opp.Branch != "NIH/CDC" {
		t.Errorf("unexpected agency %s / branch %s", opp.Agency, opp.Branch)
	}
	if opp.URL != "https://grants.nih.gov/guide/pa-files/PAR-24-100.html" {
		t.Errorf("unexpected url %s", opp.URL)
	}
}

func TestNihFetch_NoRequiredTermsKeepsEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nihFeedFixture)
	}))
	defer server.Close()

	a := &NihAdapter{
		feedURL:   server.URL,
		userAgent: "test",
		client:    server.Client(),
		parser:    gofeed.NewParser(),
	}
	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("expected both items without a term filter, got %d", len(opps))
	}
}

func TestFetchFeed_SanitizesAndRetriesBrokenXML(t *testing.T) {
	broken := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Feeds & Friends</title>
<item>
<title>SBIR Topic A` + "\x0b" + ` & B</title>
<link>https://example.test/a</link>
</item>
</channel>
</rss>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, broken)
	}))
	defer server.Close()

	feed, err := fetchFeed(server.Client(), gofeed.NewParser(), server.URL, "test")
	if err != nil {
		t.Fatalf("expected sanitize retry to recover, got %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(feed.Items))
	}
	if feed.Items[0].Title != "SBIR Topic A & B" {
		t.Errorf("unexpected title %q", feed.Items[0].Title)
	}
}

func TestFetchFeed_StatusErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := fetchFeed(server.Client(), gofeed.NewParser(), server.URL, "test"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
