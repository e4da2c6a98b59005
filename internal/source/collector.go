package source

import (
	"fmt"
	"log"
	"strings"

	"GrantSentinel/internal/config"
	"GrantSentinel/internal/model"
)

// Collector runs the configured adapters in priority order and aggregates
// their results. A failing adapter never aborts the run; its error is
// recorded and later entries see the failure through the cascade flag.
type Collector struct {
	entries         []Entry
	failOnNoResults bool
}

// NewCollector builds the fixed priority chain from configuration:
// sbir.gov first, then the DARPA and NSF scrapers, the NIH and grants.gov
// feeds, and SAM.gov as the last resort.
func NewCollector(cfg *config.Config) *Collector {
	return &Collector{
		entries: []Entry{
			{Adapter: NewSbirGovAdapter(cfg), Enabled: true},
			{Adapter: NewDarpaAdapter(cfg), Enabled: cfg.Dod.Enabled, FallbackOnly: cfg.Dod.FallbackOnly},
			{Adapter: NewNsfAdapter(cfg), Enabled: cfg.Nsf.Enabled, FallbackOnly: cfg.Nsf.FallbackOnly},
			{Adapter: NewNihAdapter(cfg), Enabled: cfg.Nih.Enabled, FallbackOnly: cfg.Nih.FallbackOnly},
			{Adapter: NewGrantsRSSAdapter(cfg), Enabled: cfg.RSS.Enabled, FallbackOnly: cfg.RSS.FallbackOnly},
			{Adapter: NewSamAdapter(cfg), Enabled: cfg.Sam.Enabled, FallbackOnly: cfg.Sam.FallbackOnly},
		},
		failOnNoResults: cfg.FailOnNoResults,
	}
}

// NewCollectorWithEntries builds a collector over an explicit chain.
func NewCollectorWithEntries(entries []Entry, failOnNoResults bool) *Collector {
	return &Collector{entries: entries, failOnNoResults: failOnNoResults}
}

// Collect executes the chain sequentially. Fallback activation cascades:
// once any entry has failed, every later fallback-only entry becomes
// eligible, regardless of intermediate successes.
func (c *Collector) Collect() ([]model.Opportunity, []model.SourceReport, []string, error) {
	var (
		opportunities []model.Opportunity
		reports       []model.SourceReport
		errs          []string
	)

	anyFailed := false
	for _, entry := range c.entries {
		if !entry.Enabled {
			continue
		}
		if entry.FallbackOnly && !anyFailed {
			continue
		}

		opps, err := entry.Adapter.Fetch()
		if err != nil {
			anyFailed = true
			errs = append(errs, fmt.Sprintf("%s: %v", entry.Adapter.Label(), err))
			continue
		}

		opportunities = append(opportunities, opps...)
		reports = append(reports, model.SourceReport{Name: entry.Adapter.Name(), Count: len(opps)})
		log.Printf("[INFO] source %s returned %d opportunities", entry.Adapter.Name(), len(opps))
	}

	if len(opportunities) == 0 && len(errs) > 0 && c.failOnNoResults {
		return nil, nil, nil, fmt.Errorf("all sources failed: %s", strings.Join(errs, "; "))
	}

	return opportunities, reports, errs, nil
}
