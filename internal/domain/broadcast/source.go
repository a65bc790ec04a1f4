package broadcast

import (
	"context"
	"time"
)

// Source is the capability every upstream adapter exposes. The set of
// implementations is closed and fixed at build time; the orchestrator walks
// them in registry priority order.
//
// FetchCandidates never returns an error: adapters catch their own
// transport/parse failures, log them, fall back to stale cache payloads
// where one exists, and otherwise return an empty slice. The "no adapter
// failure propagates" invariant lives in this signature rather than in a
// convention.
type Source interface {
	ID() string
	TTL() time.Duration
	FetchCandidates(ctx context.Context, req RequestedMatch) []CandidateFixture
}
