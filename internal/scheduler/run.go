// Package scheduler wires the crawl pipeline and its cron schedule.
package scheduler

import (
	"fmt"
	"log"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/matcher"
	"GrantSentinel/internal/model"
	"GrantSentinel/internal/notifier"
	"GrantSentinel/internal/recorder"
	"GrantSentinel/internal/source"
	"GrantSentinel/internal/state"
)

// Collector is the slice of the source layer the pipeline needs.
type Collector interface {
	Collect() ([]model.Opportunity, []model.SourceReport, []string, error)
}

// Runner executes one full crawl: collect, match, dedup, notify, persist.
type Runner struct {
	cfg       *config.Config
	collector Collector
	rules     *matcher.Rules
	notifier  *notifier.Notifier
	recorder  recorder.Recorder
	explain   bool
}

// NewRunner assembles the pipeline from configuration.
func NewRunner(cfg *config.Config, rec recorder.Recorder, explain bool) (*Runner, error) {
	rules, err := matcher.Compile(&cfg.Match)
	if err != nil {
		return nil, fmt.Errorf("compile match rules: %w", err)
	}
	return &Runner{
		cfg:       cfg,
		collector: source.NewCollector(cfg),
		rules:     rules,
		notifier:  notifier.New(&cfg.Notify),
		recorder:  rec,
		explain:   explain,
	}, nil
}

// NewRunnerWith assembles a pipeline over explicit components, for tests.
func NewRunnerWith(cfg *config.Config, col Collector, rules *matcher.Rules, n *notifier.Notifier, rec recorder.Recorder, explain bool) *Runner {
	return &Runner{
		cfg:       cfg,
		collector: col,
		rules:     rules,
		notifier:  n,
		recorder:  rec,
		explain:   explain,
	}
}

// Run executes one crawl. Dedup state is only written back after new
// matches were handed to the notifier without error, so a delivery failure
// leaves them undelivered and eligible for the next run.
func (r *Runner) Run() (*model.RunSummary, error) {
	opportunities, reports, errs, err := r.collector.Collect()
	if err != nil {
		return nil, err
	}

	st := state.Load(r.cfg.Match.StatePath)

	result := r.rules.Evaluate(opportunities)
	newMatches := st.FilterNew(result.Matches)

	if len(newMatches) > 0 {
		if _, err := r.notifier.Notify(newMatches); err != nil {
			return nil, fmt.Errorf("notify: %w", err)
		}
		st.Remember(newMatches)
		if err := st.Save(r.cfg.Match.StatePath); err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
		if err := r.recorder.RecordMatches(newMatches); err != nil {
			log.Printf("[ERROR] record matches: %v", err)
		}
	}

	summary := &model.RunSummary{
		TotalOpportunities: len(opportunities),
		Matched:            len(result.Matches),
		NewMatches:         len(newMatches),
		Skipped:            result.Skipped,
		Sources:            reports,
		Errors:             errs,
	}
	if r.explain {
		summary.Evaluations = result.Evaluations
	}

	if err := r.recorder.RecordRun(summary); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	return summary, nil
}
