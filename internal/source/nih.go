package source

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// NihAdapter reads the NIH guide funding-opportunities feed. Entries must
// mention one of the configured required terms to count; the guide carries
// far more than small-business programs.
type NihAdapter struct {
	feedURL       string
	requiredTerms []string
	userAgent     string
	client        *http.Client
	parser        *gofeed.Parser
}

// NewNihAdapter creates the adapter from configuration.
func NewNihAdapter(cfg *config.Config) *NihAdapter {
	return &NihAdapter{
		feedURL:       cfg.Nih.FeedURL,
		requiredTerms: cfg.Nih.RequiredTerms,
		userAgent:     cfg.UserAgent,
		client:        &http.Client{Timeout: 30 * time.Second},
		parser:        gofeed.NewParser(),
	}
}

func (a *NihAdapter) Name() string  { return "nih_guide" }
func (a *NihAdapter) Label() string { return "NIH Guide" }

func (a *NihAdapter) Fetch() ([]model.Opportunity, error) {
	feed, err := fetchFeed(a.client, a.parser, a.feedURL, a.userAgent)
	if err != nil {
		return nil, err
	}

	var opportunities []model.Opportunity
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		summary := strings.TrimSpace(item.Description)
		if !matchesRequiredTerms(title, summary, a.requiredTerms) {
			continue
		}

		published := strings.TrimSpace(item.Published)
		if published == "" {
			published = strings.TrimSpace(item.Updated)
		}
		naturalKey := strings.TrimSpace(item.GUID)
		if naturalKey == "" {
			naturalKey = link
		}
		if naturalKey == "" {
			naturalKey = title + ":" + published
		}

		opportunities = append(opportunities, model.Opportunity{
			ID:                "nih_guide::" + naturalKey,
			Source:            "nih_guide",
			SolicitationTitle: title,
			Agency:            "HHS",
			Branch:            "NIH/CDC",
			OpenDate:          published,
			TopicDescription:  summary,
			URL:               link,
			Raw: map[string]any{
				"title":     item.Title,
				"link":      item.Link,
				"summary":   item.Description,
				"published": item.Published,
				"guid":      item.GUID,
			},
		})
	}
	return opportunities, nil
}

func matchesRequiredTerms(title, summary string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	text := strings.ToLower(title + " " + summary)
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// fetchFeed downloads and parses one feed, shared by the feed adapters.
func fetchFeed(client *http.Client, parser *gofeed.Parser, feedURL, userAgent string) (*gofeed.Feed, error) {
	req, err := http.NewRequest(http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	feed, err := parser.ParseString(string(body))
	if err == nil {
		return feed, nil
	}

	// Some feeds ship stray control bytes or bare ampersands; scrub and retry
	// before declaring the feed unparsable.
	feed, retryErr := parser.ParseString(sanitizeXML(string(body)))
	if retryErr != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}
