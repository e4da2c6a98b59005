package source

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

var (
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	controlBytePattern = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	bareAmpPattern     = regexp.MustCompile(`&(?:[a-zA-Z]{2,6};|#\d{2,5};|#x[0-9a-fA-F]{2,5};)?`)
)

// GrantsRSSAdapter reads the grants.gov announcement feeds. Multiple feed
// URLs are fetched in configured order; a failure on any one fails the
// adapter as a whole.
type GrantsRSSAdapter struct {
	feedURLs  []string
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
}

// NewGrantsRSSAdapter creates the adapter from configuration.
func NewGrantsRSSAdapter(cfg *config.Config) *GrantsRSSAdapter {
	return &GrantsRSSAdapter{
		feedURLs:  cfg.RSS.FeedURLs,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		parser:    gofeed.NewParser(),
	}
}

func (a *GrantsRSSAdapter) Name() string  { return "grants_rss" }
func (a *GrantsRSSAdapter) Label() string { return "Grants.gov RSS" }

func (a *GrantsRSSAdapter) Fetch() ([]model.Opportunity, error) {
	var opportunities []model.Opportunity
	for _, feedURL := range a.feedURLs {
		feed, err := fetchFeed(a.client, a.parser, feedURL, a.userAgent)
		if err != nil {
			return nil, err
		}
		for _, item := range feed.Items {
			if opp, ok := rssOpportunity(item); ok {
				opportunities = append(opportunities, opp)
			}
		}
	}
	return opportunities, nil
}

func rssOpportunity(item *gofeed.Item) (model.Opportunity, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return model.Opportunity{}, false
	}

	link := strings.TrimSpace(item.Link)
	description := stripHTML(item.Description)
	published := strings.TrimSpace(item.Published)
	if published == "" {
		published = strings.TrimSpace(item.Updated)
	}

	var category string
	if len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}

	naturalKey := strings.TrimSpace(item.GUID)
	if naturalKey == "" {
		naturalKey = link
	}
	if naturalKey == "" {
		naturalKey = title + ":" + published
	}

	return model.Opportunity{
		ID:                "rss::" + naturalKey,
		Source:            "grants_rss",
		SolicitationTitle: title,
		Agency:            category,
		OpenDate:          published,
		TopicDescription:  description,
		URL:               link,
		Raw: map[string]any{
			"title":       item.Title,
			"link":        item.Link,
			"description": item.Description,
			"published":   item.Published,
			"guid":        item.GUID,
			"categories":  item.Categories,
		},
	}, true
}

func stripHTML(value string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(value, " "))
}

// sanitizeXML removes control bytes and escapes bare ampersands that are
// not part of an entity reference.
func sanitizeXML(content string) string {
	cleaned := controlBytePattern.ReplaceAllString(content, "")
	return bareAmpPattern.ReplaceAllStringFunc(cleaned, func(m string) string {
		if m == "&" {
			return "&amp;"
		}
		return m
	})
}
