package model

// Evaluation records the matching decision for one opportunity.
// Exactly one Evaluation is produced per opportunity per run, in input order.
type Evaluation struct {
	Opportunity     *Opportunity
	Score           int
	MatchedKeywords []string
	// Reason explains a skip ("agency_filtered", "no_text",
	// "excluded_keyword:<kw>", "score<N>") or a benign acceptance note
	// ("source_whitelist"). Empty for a regular match.
	Reason string
}

// Match is an opportunity that passed matching.
type Match struct {
	Opportunity     *Opportunity
	Score           int
	MatchedKeywords []string
	MatchedText     string
}

// MatchResult is the full output of one matcher invocation.
type MatchResult struct {
	Matches     []Match
	Skipped     int
	Evaluations []Evaluation
}
