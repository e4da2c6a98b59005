package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// Statuses worth another attempt; everything else fails the page at once.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Rate-limit responses get at least this much breathing room.
const rateLimitMinDelay = 10 * time.Second

// SbirGovAdapter is the primary adapter: the sbir.gov solicitations API,
// fetched page by page with bounded retries and exponential backoff.
type SbirGovAdapter struct {
	baseURLs  []string
	rows      int
	maxPages  int
	openOnly  bool
	retryMax  int
	backoff   time.Duration
	userAgent string
	client    *http.Client
	sleep     func(time.Duration)
}

// NewSbirGovAdapter creates the adapter from configuration.
func NewSbirGovAdapter(cfg *config.Config) *SbirGovAdapter {
	backoff := time.Duration(cfg.Match.RetryBackoffSeconds * float64(time.Second))
	if backoff < 100*time.Millisecond {
		backoff = 100 * time.Millisecond
	}
	retryMax := cfg.Match.RetryMax
	if retryMax < 0 {
		retryMax = 0
	}
	return &SbirGovAdapter{
		baseURLs:  cfg.Match.APIBaseURLs,
		rows:      cfg.Match.Rows,
		maxPages:  cfg.Match.MaxPages,
		openOnly:  cfg.Match.OpenOnly,
		retryMax:  retryMax,
		backoff:   backoff,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		sleep:     time.Sleep,
	}
}

func (a *SbirGovAdapter) Name() string  { return "sbir" }
func (a *SbirGovAdapter) Label() string { return "SBIR.gov" }

// Fetch pages through the solicitations API and expands each solicitation
// into per-topic (and per-subtopic) opportunity records.
func (a *SbirGovAdapter) Fetch() ([]model.Opportunity, error) {
	baseURL, err := a.selectBaseURL()
	if err != nil {
		return nil, err
	}

	rows := a.rows
	if rows < 1 {
		rows = 1
	}
	if rows > 50 {
		rows = 50
	}

	var records []map[string]any
	start := 0
	for page := 0; page < a.maxPages; page++ {
		pageRecords, err := a.fetchPage(baseURL, rows, start)
		if err != nil {
			return nil, err
		}
		if len(pageRecords) == 0 {
			break
		}
		records = append(records, pageRecords...)
		// A short page means the origin has no more data.
		if len(pageRecords) < rows {
			break
		}
		start += rows
	}

	var opportunities []model.Opportunity
	for _, record := range records {
		opportunities = append(opportunities, expandSolicitation(record)...)
	}
	return opportunities, nil
}

// selectBaseURL probes each configured base URL with a minimal request and
// returns the first that answers, failing only when all candidates fail.
func (a *SbirGovAdapter) selectBaseURL() (string, error) {
	var probeErrs []string
	for _, baseURL := range a.baseURLs {
		if _, err := a.fetchPage(baseURL, 1, 0); err != nil {
			probeErrs = append(probeErrs, fmt.Sprintf("%s: %v", baseURL, err))
			continue
		}
		return baseURL, nil
	}
	if len(probeErrs) > 0 {
		return "", fmt.Errorf("all API base URLs failed: %v", probeErrs)
	}
	return "", fmt.Errorf("no API base URL configured")
}

// fetchPage requests one page, retrying transient failures up to retryMax
// additional attempts with backoff * 2^attempt delays.
func (a *SbirGovAdapter) fetchPage(baseURL string, rows, start int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("rows", strconv.Itoa(rows))
	params.Set("start", strconv.Itoa(start))
	if a.openOnly {
		params.Set("open", "1")
	}
	pageURL := baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= a.retryMax; attempt++ {
		records, status, err := a.doRequest(pageURL)
		if err == nil {
			return records, nil
		}
		lastErr = err

		if status != 0 && !retryableStatus[status] {
			return nil, err
		}
		if attempt == a.retryMax {
			break
		}

		delay := a.backoff * (1 << attempt)
		if status == http.StatusTooManyRequests && delay < rateLimitMinDelay {
			delay = rateLimitMinDelay
		}
		a.sleep(delay)
	}
	return nil, lastErr
}

// doRequest performs a single GET. A non-zero status accompanies HTTP-level
// failures so the caller can distinguish them from transport errors.
func (a *SbirGovAdapter) doRequest(pageURL string) ([]map[string]any, int, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode page: %w", err)
	}
	return extractRecords(payload), 0, nil
}

// extractRecords accepts either a bare list or an envelope object keyed by
// one of the names the API has used over time.
func extractRecords(payload any) []map[string]any {
	switch data := payload.(type) {
	case []any:
		return onlyObjects(data)
	case map[string]any:
		for _, key := range []string{"solicitations", "results", "data", "items"} {
			if list, ok := data[key].([]any); ok {
				return onlyObjects(list)
			}
		}
	}
	return nil
}

func onlyObjects(list []any) []map[string]any {
	var out []map[string]any
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// expandSolicitation flattens one solicitation into opportunity records:
// one per subtopic, one per topic without subtopics, or a single record for
// a topicless solicitation. Records without a title are dropped.
func expandSolicitation(solicitation map[string]any) []model.Opportunity {
	title := cleanString(solicitation["solicitation_title"])
	if title == "" {
		return nil
	}

	base := model.Opportunity{
		Source:             "sbir",
		SolicitationTitle:  title,
		SolicitationNumber: cleanString(solicitation["solicitation_number"]),
		Agency:             cleanString(solicitation["agency"]),
		Branch:             cleanString(solicitation["branch"]),
		OpenDate:           cleanString(solicitation["open_date"]),
		CloseDate:          cleanString(solicitation["close_date"]),
	}

	topics, _ := solicitation["solicitation_topics"].([]any)
	if len(topics) == 0 {
		opp := base
		opp.ID = sbirID(base.SolicitationNumber, "", "")
		opp.URL = bestURL(solicitation, nil, nil)
		opp.Raw = map[string]any{"solicitation": solicitation}
		return []model.Opportunity{opp}
	}

	var opportunities []model.Opportunity
	for _, rawTopic := range topics {
		topic, ok := rawTopic.(map[string]any)
		if !ok {
			continue
		}
		subtopics, _ := topic["subtopics"].([]any)
		if len(subtopics) == 0 {
			opportunities = append(opportunities, topicOpportunity(base, solicitation, topic, nil))
			continue
		}
		for _, rawSubtopic := range subtopics {
			subtopic, ok := rawSubtopic.(map[string]any)
			if !ok {
				continue
			}
			opportunities = append(opportunities, topicOpportunity(base, solicitation, topic, subtopic))
		}
	}
	return opportunities
}

func topicOpportunity(base model.Opportunity, solicitation, topic, subtopic map[string]any) model.Opportunity {
	opp := base
	opp.TopicTitle = cleanString(topic["topic_title"])
	opp.TopicNumber = cleanString(topic["topic_number"])
	opp.TopicDescription = cleanString(topic["topic_description"])
	if subtopic != nil {
		opp.SubtopicTitle = cleanString(subtopic["subtopic_title"])
		opp.SubtopicDescription = cleanString(subtopic["subtopic_description"])
	}
	opp.URL = bestURL(solicitation, topic, subtopic)
	opp.ID = sbirID(opp.SolicitationNumber, opp.TopicNumber, opp.SubtopicTitle)
	opp.Raw = map[string]any{"solicitation": solicitation, "topic": topic, "subtopic": subtopic}
	return opp
}

// bestURL walks from the most specific level outward and takes the first
// link field that is populated.
func bestURL(solicitation, topic, subtopic map[string]any) string {
	for _, level := range []map[string]any{subtopic, topic, solicitation} {
		if level == nil {
			continue
		}
		for _, key := range []string{
			"sbir_subtopic_link",
			"sbir_topic_link",
			"sbir_solicitation_link",
			"solicitation_agency_url",
		} {
			if v := cleanString(level[key]); v != "" {
				return v
			}
		}
	}
	return ""
}

// sbirID derives the stable dedup key from the immutable numbering fields.
func sbirID(solicitationNumber, topicNumber, subtopicTitle string) string {
	id := "sbir"
	for _, part := range []string{solicitationNumber, topicNumber, subtopicTitle} {
		if part != "" {
			id += "::" + part
		}
	}
	if id == "sbir" {
		return "sbir::unknown"
	}
	return id
}
