package model

// Opportunity is a normalized funding-announcement record from any source.
// ID is source-namespaced ("<source>::<natural key>") and stable across runs
// for the same real-world announcement; it is the dedup key.
type Opportunity struct {
	ID     string
	Source string

	SolicitationTitle   string
	SolicitationNumber  string
	Agency              string
	Branch              string
	OpenDate            string
	CloseDate           string
	TopicTitle          string
	TopicNumber         string
	TopicDescription    string
	SubtopicTitle       string
	SubtopicDescription string

	URL string

	// Raw holds the origin payload for diagnostics. Matching never reads it.
	Raw map[string]any
}

// Field returns the named text-bearing field, or "" for unknown names.
// Field names follow the config convention (snake_case).
func (o *Opportunity) Field(name string) string {
	switch name {
	case "solicitation_title":
		return o.SolicitationTitle
	case "solicitation_number":
		return o.SolicitationNumber
	case "agency":
		return o.Agency
	case "branch":
		return o.Branch
	case "open_date":
		return o.OpenDate
	case "close_date":
		return o.CloseDate
	case "topic_title":
		return o.TopicTitle
	case "topic_number":
		return o.TopicNumber
	case "topic_description":
		return o.TopicDescription
	case "subtopic_title":
		return o.SubtopicTitle
	case "subtopic_description":
		return o.SubtopicDescription
	case "url":
		return o.URL
	default:
		return ""
	}
}

// Title returns the most specific non-empty title for display.
func (o *Opportunity) Title() string {
	if o.TopicTitle != "" {
		return o.TopicTitle
	}
	return o.SolicitationTitle
}
