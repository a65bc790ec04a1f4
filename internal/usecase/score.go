package usecase

import (
	"math"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/domain/names"
)

// Scoring weights and windows. The 50/40/10 split and the acceptance
// threshold are long-standing constants kept for compatibility with the
// data the sources actually return; the threshold alone is configurable.
const (
	DefaultAcceptThreshold = 50

	teamWeight   = 0.5
	leagueWeight = 0.1

	// Swapped home/away pairings are discounted, never rejected: sources
	// regularly list fixtures in reverse orientation.
	swapDiscount = 0.9

	timeFullScore   = 40.0
	timeSameDay     = 20.0
	timeFullWindow  = 30 * time.Minute
	timeDecayWindow = 3 * time.Hour
)

// ScoreCandidate rates how well a source's candidate matches the requested
// fixture, 0..100. Threshold application is the orchestrator's job.
func ScoreCandidate(candidate broadcast.CandidateFixture, req broadcast.RequestedMatch) int {
	score, _ := ScoreCandidateOriented(candidate, req)
	return score
}

// ScoreCandidateOriented additionally reports whether the score came from
// the swapped home/away pairing, so the caller can reorient the candidate
// before keying and merging it.
func ScoreCandidateOriented(candidate broadcast.CandidateFixture, req broadcast.RequestedMatch) (int, bool) {
	team, swapped := teamComponent(candidate, req)
	total := team*teamWeight +
		timeComponent(candidate, req) +
		leagueComponent(candidate, req)*leagueWeight
	return clampScore(int(math.Round(total))), swapped
}

func teamComponent(candidate broadcast.CandidateFixture, req broadcast.RequestedMatch) (float64, bool) {
	direct := (float64(names.Similarity(candidate.HomeTeam, req.HomeTeam)) +
		float64(names.Similarity(candidate.AwayTeam, req.AwayTeam))) / 2
	swapped := (float64(names.Similarity(candidate.HomeTeam, req.AwayTeam)) +
		float64(names.Similarity(candidate.AwayTeam, req.HomeTeam))) / 2 * swapDiscount
	if swapped > direct {
		return swapped, true
	}
	return direct, false
}

func timeComponent(candidate broadcast.CandidateFixture, req broadcast.RequestedMatch) float64 {
	if candidate.KickoffUTC == nil {
		return 0
	}
	wanted, ok := req.BestKickoff()
	if !ok {
		return 0
	}

	got := candidate.KickoffUTC.UTC()
	diff := got.Sub(wanted)
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= timeFullWindow:
		return timeFullScore
	case diff < timeDecayWindow:
		remaining := float64(timeDecayWindow - diff)
		return timeFullScore * remaining / float64(timeDecayWindow-timeFullWindow)
	case sameUTCDay(got, wanted):
		return timeSameDay
	default:
		return 0
	}
}

func leagueComponent(candidate broadcast.CandidateFixture, req broadcast.RequestedMatch) float64 {
	if candidate.League == "" || req.LeagueHint == "" {
		return 0
	}
	return float64(names.Similarity(candidate.League, req.LeagueHint))
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
