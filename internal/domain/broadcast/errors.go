package broadcast

import crerr "github.com/cockroachdb/errors"

// Upstream failure taxonomy. Source adapters translate transport and parse
// failures into these before deciding how to degrade; none of them ever
// crosses the adapter boundary into the orchestrator.
var (
	ErrUpstreamUnavailable = crerr.New("upstream unavailable")
	ErrUpstreamRateLimited = crerr.New("upstream rate limited")
	ErrParseMismatch       = crerr.New("upstream payload did not match expected shape")
	ErrTimeout             = crerr.New("upstream call timed out")

	// ErrConfigurationMissing is the only error the orchestrator itself
	// returns, e.g. when no sources are enabled.
	ErrConfigurationMissing = crerr.New("configuration missing")
)
