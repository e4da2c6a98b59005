package model

import "fmt"

// SourceReport records how many opportunities a successfully executed
// adapter contributed. Failed or skipped adapters produce no report.
type SourceReport struct {
	Name  string
	Count int
}

func (r SourceReport) String() string {
	return fmt.Sprintf("%s:%d", r.Name, r.Count)
}

// RunSummary is the observable end-of-run contract.
type RunSummary struct {
	TotalOpportunities int
	Matched            int
	NewMatches         int
	Skipped            int
	Sources            []SourceReport
	Errors             []string
	Evaluations        []Evaluation // populated only in explain mode
}
