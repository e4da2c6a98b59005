package notifier

import (
	"fmt"
	"strings"

	"GrantSentinel/internal/model"
)

// maxContentLength keeps each message comfortably under Discord's 2000
// character content limit.
const maxContentLength = 1800

const (
	reportHeader       = "**SBIR matches:**"
	continuationHeader = "**SBIR matches (cont.):**"
)

// buildPayloads renders matches as one line each under a report header,
// splitting into continuation messages whenever the next line would push a
// message past the length limit.
func buildPayloads(matches []model.Match) []string {
	var payloads []string
	lines := []string{reportHeader}
	length := len(reportHeader)

	for _, match := range matches {
		line := formatMatch(match)
		if length+len(line)+1 > maxContentLength {
			payloads = append(payloads, strings.Join(lines, "\n"))
			lines = []string{continuationHeader}
			length = len(continuationHeader)
		}
		lines = append(lines, line)
		length += len(line) + 1
	}

	return append(payloads, strings.Join(lines, "\n"))
}

func formatMatch(match model.Match) string {
	opp := match.Opportunity
	source := opp.Source
	if source == "" {
		source = "sbir"
	}
	keywords := strings.Join(match.MatchedKeywords, ", ")
	line := fmt.Sprintf("- [%s] **%s** (%s) close %s score %d [%s] %s",
		source, opp.Title(), opp.Agency, opp.CloseDate, match.Score, keywords, opp.URL)
	return strings.TrimSpace(line)
}
