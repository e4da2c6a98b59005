package source

import "GrantSentinel/internal/model"

// Adapter fetches and normalizes opportunities from one origin.
// Fetch must return an error on any unrecoverable fetch or parse failure,
// and an empty slice (not an error) when the origin has zero current records.
type Adapter interface {
	// Name is the machine tag used for source reports and opportunity IDs.
	Name() string
	// Label is the human-readable name used to namespace error strings.
	Label() string
	Fetch() ([]model.Opportunity, error)
}

// Entry pairs an adapter with its activation flags. An entry executes when
// it is enabled and either is not fallback-restricted or some earlier entry
// in the chain has failed.
type Entry struct {
	Adapter      Adapter
	Enabled      bool
	FallbackOnly bool
}
