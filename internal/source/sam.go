package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// SamAdapter queries the SAM.gov opportunities API. It is the designated
// last resort in the priority chain and requires an API key.
type SamAdapter struct {
	cfg       config.SamConfig
	userAgent string
	client    *http.Client
	now       func() time.Time
}

// NewSamAdapter creates the adapter from configuration.
func NewSamAdapter(cfg *config.Config) *SamAdapter {
	return &SamAdapter{
		cfg:       cfg.Sam,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

func (a *SamAdapter) Name() string  { return "sam" }
func (a *SamAdapter) Label() string { return "SAM.gov" }

func (a *SamAdapter) Fetch() ([]model.Opportunity, error) {
	if a.cfg.APIKey == "" {
		return nil, fmt.Errorf("SAM.gov API key not configured (set SAM_API_KEY)")
	}

	records, err := a.fetchRecords()
	if err != nil {
		return nil, err
	}

	var opportunities []model.Opportunity
	for _, record := range records {
		if opp, ok := samOpportunity(record); ok {
			opportunities = append(opportunities, opp)
		}
	}
	return opportunities, nil
}

func (a *SamAdapter) fetchRecords() ([]map[string]any, error) {
	params := a.buildParams()

	var records []map[string]any
	offset := 0
	for page := 0; page < a.cfg.MaxPages; page++ {
		params.Set("offset", strconv.Itoa(offset))
		pageRecords, err := a.fetchPage(params)
		if err != nil {
			return nil, err
		}
		if len(pageRecords) == 0 {
			break
		}
		records = append(records, pageRecords...)
		if len(pageRecords) < a.cfg.Limit {
			break
		}
		offset += a.cfg.Limit
	}
	return records, nil
}

func (a *SamAdapter) buildParams() url.Values {
	now := a.now().UTC()
	// The API rejects date windows longer than a year.
	days := a.cfg.PostedDays
	if days > 364 {
		days = 364
	}

	params := url.Values{}
	params.Set("api_key", a.cfg.APIKey)
	params.Set("postedFrom", now.AddDate(0, 0, -days).Format("01/02/2006"))
	params.Set("postedTo", now.Format("01/02/2006"))
	params.Set("limit", strconv.Itoa(a.cfg.Limit))
	if a.cfg.TitleQuery != "" {
		params.Set("title", a.cfg.TitleQuery)
	}
	if a.cfg.PType != "" {
		params.Set("ptype", a.cfg.PType)
	}
	return params
}

func (a *SamAdapter) fetchPage(params url.Values) ([]map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, a.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	for _, key := range []string{"opportunitiesData", "opportunities", "data", "items"} {
		if list, ok := payload[key].([]any); ok {
			return onlyObjects(list), nil
		}
	}
	return nil, nil
}

func samOpportunity(record map[string]any) (model.Opportunity, bool) {
	title := cleanString(record["title"])
	if title == "" {
		return model.Opportunity{}, false
	}

	noticeID := cleanString(record["noticeId"])
	if noticeID == "" {
		noticeID = cleanString(record["noticeID"])
	}
	solicitationNumber := cleanString(record["solicitationNumber"])
	agency := cleanString(record["fullParentPathName"])
	if agency == "" {
		agency = cleanString(record["department"])
	}
	branch := cleanString(record["office"])
	if branch == "" {
		branch = cleanString(record["subTier"])
	}
	openDate := cleanString(record["postedDate"])
	closeDate := firstNonEmpty(record, "responseDeadLine", "reponseDeadLine", "responseDeadline")
	link := firstNonEmpty(record, "uiLink", "additionalInfoLink", "description")

	naturalKey := noticeID
	if naturalKey == "" {
		naturalKey = solicitationNumber
	}
	if naturalKey == "" {
		naturalKey = title + ":" + openDate
	}

	return model.Opportunity{
		ID:                 "sam::" + naturalKey,
		Source:             "sam",
		SolicitationTitle:  title,
		SolicitationNumber: solicitationNumber,
		Agency:             agency,
		Branch:             branch,
		OpenDate:           openDate,
		CloseDate:          closeDate,
		TopicDescription:   samDescription(record),
		URL:                link,
		Raw:                record,
	}, true
}

// samDescription assembles a searchable summary from the classification
// fields, since the API does not inline the notice body.
func samDescription(record map[string]any) string {
	var parts []string
	for _, key := range []string{"type", "setAside", "naicsCode", "classificationCode"} {
		if v := cleanString(record[key]); v != "" {
			parts = append(parts, key+":"+v)
		}
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := cleanString(record[key]); v != "" {
			return v
		}
	}
	return ""
}
