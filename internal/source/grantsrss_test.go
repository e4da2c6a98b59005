package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
)

const grantsFeedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>New Opportunities by Agency</title>
<item>
<title>Advanced Manufacturing Research</title>
<link>https://grants.gov/opportunity/123</link>
<guid>GRANT-123</guid>
<description>&lt;p&gt;Funding for &lt;b&gt;advanced&lt;/b&gt; manufacturing.&lt;/p&gt;</description>
<category>Department of Energy</category>
<pubDate>Tue, 04 Jun 2024 12:00:00 GMT</pubDate>
</item>
<item>
<title></title>
<link>https://grants.gov/opportunity/456</link>
</item>
</channel>
</rss>`

func TestGrantsRSSFetch_NormalizesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, grantsFeedFixture)
	}))
	defer server.Close()

	a := &GrantsRSSAdapter{
		feedURLs:  []string{server.URL},
		userAgent: "test",
		client:    server.Client(),
		parser:    gofeed.NewParser(),
	}
	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected untitled item dropped, got %d opportunities", len(opps))
	}

	opp := opps[0]
	if opp.ID != "rss::GRANT-123" {
		t.Errorf("unexpected id %s", opp.ID)
	}
	if opp.Agency != "Department of Energy" {
		t.Errorf("expected category as agency, got %s", opp.Agency)
	}
	if strings.Contains(opp.TopicDescription, "<") {
		t.Errorf("expected markup stripped from description, got %q", opp.TopicDescription)
	}
	if !strings.Contains(opp.TopicDescription, "advanced") {
		t.Errorf("description text lost: %q", opp.TopicDescription)
	}
}

func TestGrantsRSSFetch_AnyFeedFailureFailsAdapter(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, grantsFeedFixture)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	a := &GrantsRSSAdapter{
		feedURLs:  []string{good.URL, bad.URL},
		userAgent: "test",
		client:    http.DefaultClient,
		parser:    gofeed.NewParser(),
	}
	if _, err := a.Fetch(); err == nil {
		t.Fatal("expected adapter failure when one feed fails")
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Funding for <b>robotics</b> research</p>")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("markup left in %q", got)
	}
	if !strings.Contains(got, "robotics") {
		t.Errorf("text lost in %q", got)
	}
}

func TestSanitizeXML(t *testing.T) {
	in := "a & b &amp; c &#38; d &#x26; e\x00"
	got := sanitizeXML(in)
	want := "a &amp; b &amp; c &#38; d &#x26; e"
	if got != want {
		t.Errorf("sanitizeXML(%q) = %q, want %q", in, got, want)
	}
}
