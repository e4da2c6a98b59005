package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const nsfFixture = `<html><body>
<h1>America's Seed Fund</h1>
<p>Funding for startups and small businesses.</p>
<h2>Solicitations</h2>
<p><a href="/solicitations/sbir-phase-i">SBIR Phase I Solicitation</a></p>
<p><a href="https://example.test/solicitations/sttr">STTR Phase I Solicitation</a></p>
<p><a href="/news/award-stats">Award statistics announced</a></p>
<p>Upcoming webinars about the program</p>
<p>Return to top</p>
<p><a href="/solicitations/closed">SBIR Closed Solicitation</a></p>
</body></html>`

func TestNsfFetch_KeepsLinkedSolicitationsInSection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, nsfFixture)
	}))
	defer server.Close()

	a := &NsfAdapter{pageURL: server.URL, userAgent: "test", client: server.Client()}
	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("expected 2 opportunities, got %d: %+v", len(opps), opps)
	}

	first := opps[0]
	if first.ID != "nsf_seedfund::/solicitations/sbir-phase-i" {
		t.Errorf("unexpected id %s", first.ID)
	}
	if first.URL != server.URL+"/solicitations/sbir-phase-i" {
		t.Errorf("expected resolved URL, got %s", first.URL)
	}
	if first.Agency != "NSF" {
		t.Errorf("unexpected agency %s", first.Agency)
	}

	if opps[1].URL != "https://example.test/solicitations/sttr" {
		t.Errorf("absolute href must pass through, got %s", opps[1].URL)
	}
}

func TestNsfFetch_SkipsIrrelevantAndUnlinkedLines(t *testing.T) {
	page := `<html><body>
<h2>Solicitations</h2>
<p>SBIR Phase I Solicitation without a link</p>
<p><a href="/news/item">General program news</a></p>
<p><a href="/about">SBIR overview page</a></p>
</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	a := &NsfAdapter{pageURL: server.URL, userAgent: "test", client: server.Client()}
	opps, err := a.Fetch()
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities, got %+v", opps)
	}
}

func TestSliceSolicitationSection_StopsAtFooterMarker(t *testing.T) {
	lines := []Line{
		{Text: "Solicitations"},
		{Text: "kept"},
		{Text: "America's Seed Fund"},
		{Text: "footer"},
	}
	got := sliceSolicitationSection(lines)
	if len(got) != 1 || got[0].Text != "kept" {
		t.Fatalf("expected only the in-section line, got %+v", got)
	}
}
