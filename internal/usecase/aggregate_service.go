package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

const defaultSourceTimeout = 15 * time.Second

// AggregateService walks the registered sources in priority order and
// merges their accepted candidates into one canonical fixture record.
type AggregateService struct {
	sources         []broadcast.Source
	sourceTimeout   time.Duration
	acceptThreshold int
	logger          *logging.Logger
}

func NewAggregateService(sources []broadcast.Source, sourceTimeout time.Duration, acceptThreshold int, logger *logging.Logger) *AggregateService {
	if sourceTimeout <= 0 {
		sourceTimeout = defaultSourceTimeout
	}
	if acceptThreshold <= 0 {
		acceptThreshold = DefaultAcceptThreshold
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &AggregateService{
		sources:         sources,
		sourceTimeout:   sourceTimeout,
		acceptThreshold: acceptThreshold,
		logger:          logger,
	}
}

// SourceIDs returns the registered source ids in priority order.
func (s *AggregateService) SourceIDs() []string {
	out := make([]string, 0, len(s.sources))
	for _, source := range s.sources {
		out = append(out, source.ID())
	}
	return out
}

// Aggregate resolves one requested match against every enabled source.
// Sources run sequentially in priority order, so a higher-priority source's
// non-empty scalar fields always win regardless of timing. A failing or
// panicking adapter is skipped; the only error this method returns is
// broadcast.ErrConfigurationMissing when the enabled set selects nothing.
func (s *AggregateService) Aggregate(ctx context.Context, req broadcast.RequestedMatch, enabled map[string]bool) (broadcast.FixtureRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AggregateService.Aggregate")
	defer span.End()

	if strings.TrimSpace(req.HomeTeam) == "" || strings.TrimSpace(req.AwayTeam) == "" {
		return broadcast.FixtureRecord{}, fmt.Errorf("%w: home and away team are required", ErrInvalidInput)
	}

	active := make([]broadcast.Source, 0, len(s.sources))
	for _, source := range s.sources {
		if enabled[source.ID()] {
			active = append(active, source)
		}
	}
	if len(active) == 0 {
		return broadcast.FixtureRecord{}, fmt.Errorf("%w: no sources enabled", broadcast.ErrConfigurationMissing)
	}

	record := broadcast.FixtureRecord{
		HomeTeam:    strings.TrimSpace(req.HomeTeam),
		AwayTeam:    strings.TrimSpace(req.AwayTeam),
		Channels:    []broadcast.ChannelEntry{},
		SourcesUsed: make(map[string]bool, len(active)),
	}
	for _, source := range active {
		record.SourcesUsed[source.ID()] = false
	}

	pinnedKey := ""
	for _, source := range active {
		candidates := s.fetchIsolated(ctx, source, req)
		if len(candidates) == 0 {
			continue
		}

		best, score, ok := s.pickBest(candidates, req)
		if !ok {
			s.logger.DebugContext(ctx, "no candidate above threshold",
				"source", source.ID(),
				"candidates", len(candidates),
			)
			continue
		}

		key := FixtureKey(best, req.Date)
		if pinnedKey == "" {
			pinnedKey = key
		} else if key != pinnedKey {
			// A different logical fixture, not extra channels for ours.
			s.logger.DebugContext(ctx, "candidate keyed to a different fixture, skipping",
				"source", source.ID(),
				"key", key,
				"pinned_key", pinnedKey,
			)
			continue
		}

		record = Merge(record, best)
		record.SourcesUsed[source.ID()] = true
		s.logger.DebugContext(ctx, "source contributed",
			"source", source.ID(),
			"score", score,
			"channels", len(best.Channels),
		)
	}

	return record, nil
}

// fetchIsolated runs one adapter under its own timeout and absorbs panics;
// the orchestration of the remaining sources must survive anything a single
// adapter does.
func (s *AggregateService) fetchIsolated(ctx context.Context, source broadcast.Source, req broadcast.RequestedMatch) (candidates []broadcast.CandidateFixture) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "source panicked, skipping",
				"source", source.ID(),
				"panic", rec,
			)
			candidates = nil
		}
	}()

	return source.FetchCandidates(fetchCtx, req)
}

// pickBest scores the candidates, keeps the best one at or above the
// acceptance threshold, and reorients it when it matched via the swapped
// home/away pairing so downstream keying sees the requested orientation.
func (s *AggregateService) pickBest(candidates []broadcast.CandidateFixture, req broadcast.RequestedMatch) (broadcast.CandidateFixture, int, bool) {
	bestScore := -1
	bestSwapped := false
	var best broadcast.CandidateFixture
	for _, candidate := range candidates {
		if score, swapped := ScoreCandidateOriented(candidate, req); score > bestScore {
			bestScore = score
			bestSwapped = swapped
			best = candidate
		}
	}
	if bestScore < s.acceptThreshold {
		return broadcast.CandidateFixture{}, bestScore, false
	}
	if bestSwapped {
		best.HomeTeam, best.AwayTeam = best.AwayTeam, best.HomeTeam
	}
	return best, bestScore, true
}
