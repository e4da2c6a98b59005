package source

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// NsfAdapter scrapes the NSF seedfund solicitations page.
type NsfAdapter struct {
	pageURL   string
	userAgent string
	client    *http.Client
}

// NewNsfAdapter creates the adapter from configuration.
func NewNsfAdapter(cfg *config.Config) *NsfAdapter {
	return &NsfAdapter{
		pageURL:   cfg.Nsf.SolicitationsURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *NsfAdapter) Name() string  { return "nsf_seedfund" }
func (a *NsfAdapter) Label() string { return "NSF solicitations" }

func (a *NsfAdapter) Fetch() ([]model.Opportunity, error) {
	req, err := http.NewRequest(http.MethodGet, a.pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch solicitations page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch solicitations page: status %d", resp.StatusCode)
	}

	lines, err := ParseLines(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse solicitations page: %w", err)
	}

	var opportunities []model.Opportunity
	for _, line := range sliceSolicitationSection(lines) {
		title := strings.TrimSpace(line.Text)
		if title == "" || len(line.Hrefs) == 0 {
			continue
		}
		if !isRelevantNsfTitle(title) {
			continue
		}
		href := pickURL(line.Hrefs)
		if !strings.Contains(strings.ToLower(href), "solicitation") {
			continue
		}

		opportunities = append(opportunities, model.Opportunity{
			ID:                "nsf_seedfund::" + href,
			Source:            "nsf_seedfund",
			SolicitationTitle: title,
			Agency:            "NSF",
			URL:               resolveURL(a.pageURL, href),
			Raw:               map[string]any{"title": title, "href": href},
		})
	}
	return opportunities, nil
}

// sliceSolicitationSection keeps the lines between the "solicitations"
// heading and the page footer markers.
func sliceSolicitationSection(lines []Line) []Line {
	start := -1
	for i, line := range lines {
		text := strings.ToLower(strings.TrimSpace(line.Text))
		if start < 0 && text == "solicitations" {
			start = i + 1
			continue
		}
		if start >= 0 && (text == "return to top" || text == "america's seed fund") {
			return lines[start:i]
		}
	}
	if start < 0 {
		return lines
	}
	return lines[start:]
}

func isRelevantNsfTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "sbir") ||
		strings.Contains(lower, "sttr") ||
		strings.Contains(lower, "solicitation")
}
