package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

func TestAggregateMany_ResultsInRequestOrder(t *testing.T) {
	source := &fakeSource{id: "sportsdb", candidates: []broadcast.CandidateFixture{{
		HomeTeam:   "Arsenal",
		AwayTeam:   "Chelsea",
		KickoffUTC: ts(t, "2024-12-15T15:00:00Z"),
		Channels: []broadcast.ChannelEntry{
			{Region: "UK", ChannelName: "Sky Sports", SourceID: "sportsdb"},
		},
	}}}

	bulk := NewBulkService(newTestAggregator(source), 3, logging.NewNop())

	reqs := []broadcast.RequestedMatch{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Date: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)},
		{HomeTeam: "Everton", AwayTeam: "Liverpool", Date: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)},
		{HomeTeam: "", AwayTeam: "Chelsea"},
	}

	results, err := bulk.AggregateMany(t.Context(), reqs, allEnabled(source))
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, result := range results {
		if result.Request.HomeTeam != reqs[i].HomeTeam {
			t.Fatalf("result %d out of order: %+v", i, result.Request)
		}
	}

	if results[0].Err != nil || !results[0].Record.HasData() {
		t.Fatalf("first lookup should succeed, got %+v", results[0])
	}
	if results[1].Err != nil || results[1].Record.HasData() {
		t.Fatalf("second lookup should be an empty record, got %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrInvalidInput) {
		t.Fatalf("third lookup should fail validation, got %v", results[2].Err)
	}
}

func TestAggregateMany_RejectsEmptyAndOversizedBatches(t *testing.T) {
	source := &fakeSource{id: "sportsdb"}
	bulk := NewBulkService(newTestAggregator(source), 0, logging.NewNop())

	if _, err := bulk.AggregateMany(t.Context(), nil, allEnabled(source)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty batch should be rejected, got %v", err)
	}

	oversized := make([]broadcast.RequestedMatch, maxBulkRequests+1)
	for i := range oversized {
		oversized[i] = broadcast.RequestedMatch{
			HomeTeam: fmt.Sprintf("Home %d", i),
			AwayTeam: fmt.Sprintf("Away %d", i),
		}
	}
	if _, err := bulk.AggregateMany(t.Context(), oversized, allEnabled(source)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized batch should be rejected, got %v", err)
	}
}
