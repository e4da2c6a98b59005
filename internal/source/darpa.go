package source

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// darpaTopic is the intermediate record the line classifier accumulates.
type darpaTopic struct {
	Title       string
	Program     string
	TopicNumber string
	Objective   string
	TechOffice  string
	PreRelease  string
	OpenDate    string
	CloseDate   string
	URL         string
}

// DarpaAdapter scrapes the DARPA SBIR/STTR topics page.
type DarpaAdapter struct {
	topicsURL string
	userAgent string
	client    *http.Client
}

// NewDarpaAdapter creates the adapter from configuration.
func NewDarpaAdapter(cfg *config.Config) *DarpaAdapter {
	return &DarpaAdapter{
		topicsURL: cfg.Dod.DarpaTopicsURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *DarpaAdapter) Name() string  { return "dod_darpa" }
func (a *DarpaAdapter) Label() string { return "DARPA topics" }

func (a *DarpaAdapter) Fetch() ([]model.Opportunity, error) {
	req, err := http.NewRequest(http.MethodGet, a.topicsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch topics page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch topics page: status %d", resp.StatusCode)
	}

	lines, err := ParseLines(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse topics page: %w", err)
	}

	topics := classifyDarpaLines(sliceActiveSection(lines))

	var opportunities []model.Opportunity
	for _, topic := range topics {
		program := topic.Program
		if program == "" {
			program = "DARPA SBIR/STTR"
		}
		naturalKey := topic.TopicNumber
		if naturalKey == "" {
			naturalKey = topic.Title
		}
		opportunities = append(opportunities, model.Opportunity{
			ID:                "dod_darpa::" + naturalKey,
			Source:            "dod_darpa",
			SolicitationTitle: program,
			Agency:            "DOD",
			Branch:            "DARPA",
			OpenDate:          topic.OpenDate,
			CloseDate:         topic.CloseDate,
			TopicTitle:        topic.Title,
			TopicNumber:       topic.TopicNumber,
			TopicDescription:  topic.Objective,
			URL:               resolveURL(a.topicsURL, topic.URL),
			Raw: map[string]any{
				"title":        topic.Title,
				"program":      topic.Program,
				"topic_number": topic.TopicNumber,
				"tech_office":  topic.TechOffice,
				"pre_release":  topic.PreRelease,
			},
		})
	}
	return opportunities, nil
}

// sliceActiveSection keeps only the lines between the "active announcement
// topics" heading and the closed-topics heading. When the markers are
// missing the whole page is classified.
func sliceActiveSection(lines []Line) []Line {
	start := -1
	for i, line := range lines {
		text := strings.ToLower(strings.TrimSpace(line.Text))
		if start < 0 && text == "active announcement topics" {
			start = i + 1
			continue
		}
		if start >= 0 && strings.HasPrefix(text, "closed announcement topics") {
			return lines[start:i]
		}
	}
	if start < 0 {
		return lines
	}
	return lines[start:]
}

// classifyDarpaLines runs the line-pattern classifier: program headers set
// context, "Key: value" lines annotate the current topic, and any other
// line starts a new topic.
func classifyDarpaLines(lines []Line) []darpaTopic {
	var (
		topics  []darpaTopic
		current *darpaTopic
		program string
	)

	flush := func() {
		if current != nil {
			topics = append(topics, *current)
			current = nil
		}
	}

	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)

		switch {
		case strings.HasPrefix(lower, "sbir |") || strings.HasPrefix(lower, "sttr |") || strings.HasPrefix(lower, "baa"):
			program = text
			continue
		case strings.HasPrefix(lower, "each year") || strings.HasPrefix(lower, "all sbir/sttr topics"):
			continue
		case lower == "important" || lower == "active announcement topics":
			continue
		case lower == "solicitation" || lower == "faqs" || lower == "faq":
			continue
		}

		if key, value, ok := darpaField(lower, text); ok {
			if current != nil {
				switch key {
				case "objective":
					current.Objective = value
				case "tech_office":
					current.TechOffice = value
				case "topic_number":
					current.TopicNumber = value
				case "pre_release":
					current.PreRelease = value
				case "open":
					current.OpenDate = value
				case "close":
					current.CloseDate = value
				}
			}
			continue
		}

		flush()
		current = &darpaTopic{
			Title:   text,
			Program: program,
			URL:     pickURL(line.Hrefs),
		}
	}
	flush()
	return topics
}

// darpaField recognizes the "Key: value" annotation lines under a topic.
func darpaField(lower, text string) (key, value string, ok bool) {
	prefixes := []struct {
		prefix string
		key    string
	}{
		{"objective:", "objective"},
		{"description:", "objective"},
		{"tech office:", "tech_office"},
		{"topic #:", "topic_number"},
		{"topic #", "topic_number"},
		{"pre-release:", "pre_release"},
		{"open:", "open"},
		{"closes:", "close"},
		{"closed:", "close"},
		{"deadline:", "close"},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p.prefix) {
			if idx := strings.Index(text, ":"); idx >= 0 {
				return p.key, strings.TrimSpace(text[idx+1:]), true
			}
			return p.key, "", true
		}
	}
	return "", "", false
}
