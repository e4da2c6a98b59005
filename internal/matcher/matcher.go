// Package matcher scores opportunities against keyword and filter rules.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// Rules is the compiled form of the matching configuration. Compile once
// per run; Evaluate is pure after that.
type Rules struct {
	keywords         []string
	keywordPatterns  []*regexp.Regexp
	excludes         []string
	excludePatterns  []*regexp.Regexp
	minScore         int
	agencies         map[string]bool
	whitelistSources map[string]bool
	matchFields      []string
}

// Compile builds Rules from the match configuration.
func Compile(cfg *config.MatchConfig) (*Rules, error) {
	r := &Rules{
		minScore:         cfg.MinScore,
		agencies:         make(map[string]bool, len(cfg.Agencies)),
		whitelistSources: make(map[string]bool, len(cfg.AlwaysIncludeSources)),
		matchFields:      cfg.MatchFields,
	}

	for _, agency := range cfg.Agencies {
		r.agencies[strings.ToUpper(agency)] = true
	}
	for _, source := range cfg.AlwaysIncludeSources {
		r.whitelistSources[strings.ToLower(source)] = true
	}

	for _, kw := range cfg.Keywords {
		kw = strings.ToLower(kw)
		pattern, err := compileKeyword(kw)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", kw, err)
		}
		r.keywords = append(r.keywords, kw)
		r.keywordPatterns = append(r.keywordPatterns, pattern)
	}
	for _, kw := range cfg.ExcludeKeywords {
		kw = strings.ToLower(kw)
		pattern, err := compileKeyword(kw)
		if err != nil {
			return nil, fmt.Errorf("compile exclude keyword %q: %w", kw, err)
		}
		r.excludes = append(r.excludes, kw)
		r.excludePatterns = append(r.excludePatterns, pattern)
	}

	return r, nil
}

// compileKeyword turns a keyword into a case-insensitive pattern. Short
// alphanumeric keywords (acronyms like "AI") are anchored on word
// boundaries so they cannot match as substrings inside longer words;
// everything else matches as an escaped literal anywhere.
func compileKeyword(keyword string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(keyword)
	if len(keyword) <= 3 && isAlphanumeric(keyword) {
		return regexp.Compile(`(?i)\b` + escaped + `\b`)
	}
	return regexp.Compile(`(?i)` + escaped)
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Evaluate scores every opportunity, in input order, producing exactly one
// Evaluation per record. The decision sequence per record:
// agency filter, empty-text check, exclusion, inclusion score, threshold.
// Source whitelisting overrides only the empty-text check and the score
// threshold, never agency filtering or exclusion.
func (r *Rules) Evaluate(opportunities []model.Opportunity) model.MatchResult {
	var result model.MatchResult

	for i := range opportunities {
		opp := &opportunities[i]
		whitelisted := r.whitelistSources[strings.ToLower(opp.Source)]

		if len(r.agencies) > 0 && !r.agencies[strings.ToUpper(opp.Agency)] {
			result.Skipped++
			result.Evaluations = append(result.Evaluations, model.Evaluation{
				Opportunity: opp,
				Reason:      "agency_filtered",
			})
			continue
		}

		text := r.buildText(opp)
		if text == "" && !whitelisted {
			result.Skipped++
			result.Evaluations = append(result.Evaluations, model.Evaluation{
				Opportunity: opp,
				Reason:      "no_text",
			})
			continue
		}

		if excluded := r.firstExcluded(text); excluded != "" {
			result.Skipped++
			result.Evaluations = append(result.Evaluations, model.Evaluation{
				Opportunity: opp,
				Reason:      "excluded_keyword:" + excluded,
			})
			continue
		}

		var matched []string
		if text != "" {
			for i, pattern := range r.keywordPatterns {
				if pattern.MatchString(text) {
					matched = append(matched, r.keywords[i])
				}
			}
		}
		score := len(matched)

		if score < r.minScore && !whitelisted {
			result.Skipped++
			result.Evaluations = append(result.Evaluations, model.Evaluation{
				Opportunity:     opp,
				Score:           score,
				MatchedKeywords: matched,
				Reason:          fmt.Sprintf("score<%d", r.minScore),
			})
			continue
		}

		result.Matches = append(result.Matches, model.Match{
			Opportunity:     opp,
			Score:           score,
			MatchedKeywords: matched,
			MatchedText:     text,
		})
		reason := ""
		if score < r.minScore {
			reason = "source_whitelist"
		}
		result.Evaluations = append(result.Evaluations, model.Evaluation{
			Opportunity:     opp,
			Score:           score,
			MatchedKeywords: matched,
			Reason:          reason,
		})
	}

	return result
}

// buildText joins the configured text-bearing fields, lower-cased. Absent
// fields contribute nothing.
func (r *Rules) buildText(opp *model.Opportunity) string {
	var parts []string
	for _, name := range r.matchFields {
		if v := opp.Field(name); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// firstExcluded returns the first exclude keyword matching the text, in
// configured order. Empty text is never excluded.
func (r *Rules) firstExcluded(text string) string {
	if text == "" {
		return ""
	}
	for i, pattern := range r.excludePatterns {
		if pattern.MatchString(text) {
			return r.excludes[i]
		}
	}
	return ""
}
