package usecase

import (
	"reflect"
	"testing"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
)

func TestNormalizeCandidate_ResolvesTimestampShapes(t *testing.T) {
	want := time.Date(2024, 12, 15, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  RawCandidate
	}{
		{"explicit", RawCandidate{Kickoff: &want}},
		{"unix", RawCandidate{KickoffUnix: want.Unix()}},
		{"rfc3339 text", RawCandidate{KickoffText: "2024-12-15T15:00:00Z"}},
		{"space text", RawCandidate{KickoffText: "2024-12-15 15:00:00"}},
		{"date and clock", RawCandidate{DateText: "2024-12-15", TimeText: "15:00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.raw.HomeTeam = "Arsenal"
			tc.raw.AwayTeam = "Chelsea"
			candidate := NormalizeCandidate(tc.raw, "test")
			if candidate.KickoffUTC == nil || !candidate.KickoffUTC.Equal(want) {
				t.Fatalf("kickoff not resolved: %v", candidate.KickoffUTC)
			}
		})
	}
}

func TestNormalizeCandidate_SynthesizesSummaryAndStampsSource(t *testing.T) {
	candidate := NormalizeCandidate(RawCandidate{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Channels: []broadcast.ChannelEntry{
			{Region: "UK", ChannelName: "Sky Sports"},
			{Region: "UK", ChannelName: "  "},
		},
	}, "sportsdb")

	if candidate.Summary != "Arsenal v Chelsea" {
		t.Fatalf("unexpected summary %q", candidate.Summary)
	}
	if len(candidate.Channels) != 1 {
		t.Fatalf("blank channel should be dropped, got %d", len(candidate.Channels))
	}
	if candidate.Channels[0].SourceID != "sportsdb" {
		t.Fatalf("channel should inherit source id, got %q", candidate.Channels[0].SourceID)
	}
}

func TestNormalizeCandidate_NoTimestamp(t *testing.T) {
	candidate := NormalizeCandidate(RawCandidate{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}, "test")
	if candidate.KickoffUTC != nil {
		t.Fatalf("expected nil kickoff, got %v", candidate.KickoffUTC)
	}
	if candidate.Channels == nil {
		t.Fatal("channels must default to an empty list, not nil")
	}
}

func TestFixtureKey_StableAcrossSourcesAndTimes(t *testing.T) {
	a := broadcast.CandidateFixture{
		HomeTeam:   "Arsenal FC",
		AwayTeam:   "Chelsea",
		KickoffUTC: ts(t, "2024-12-15T15:00:00Z"),
	}
	b := broadcast.CandidateFixture{
		HomeTeam:   "Arsenal",
		AwayTeam:   "Chelsea FC",
		KickoffUTC: ts(t, "2024-12-15T15:05:00Z"),
	}

	if FixtureKey(a, time.Time{}) != FixtureKey(b, time.Time{}) {
		t.Fatalf("same match on the same day must key identically: %q vs %q",
			FixtureKey(a, time.Time{}), FixtureKey(b, time.Time{}))
	}
}

func TestFixtureKey_FallbackDate(t *testing.T) {
	c := broadcast.CandidateFixture{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
	fallback := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)

	if got := FixtureKey(c, fallback); got != "arsenal|chelsea|2024-12-15" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMerge_FirstWriterWinsScalarsUnionChannels(t *testing.T) {
	record := broadcast.FixtureRecord{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		League:   "Premier League",
		Channels: []broadcast.ChannelEntry{
			{Region: "UK", ChannelName: "Sky Sports", SourceID: "sportsdb"},
		},
	}

	incoming := broadcast.CandidateFixture{
		KickoffUTC: ts(t, "2024-12-15T15:00:00Z"),
		League:     "EPL",
		Venue:      "Emirates Stadium",
		Channels: []broadcast.ChannelEntry{
			{Region: "UK", ChannelName: "Sky Sports", SourceID: "wikitv"},
			{Region: "US", ChannelName: "NBC", SourceID: "wikitv"},
		},
	}

	merged := Merge(record, incoming)

	if merged.League != "Premier League" {
		t.Fatalf("existing league must not be overwritten, got %q", merged.League)
	}
	if merged.Venue != "Emirates Stadium" {
		t.Fatalf("empty venue should be filled, got %q", merged.Venue)
	}
	if merged.KickoffUTC == nil {
		t.Fatal("nil kickoff should be filled")
	}
	if len(merged.Channels) != 2 {
		t.Fatalf("expected 2 channels after union, got %d", len(merged.Channels))
	}
	if merged.Channels[0].SourceID != "sportsdb" {
		t.Fatal("duplicate channel must keep its original provenance")
	}
}

func TestMerge_Idempotent(t *testing.T) {
	base := broadcast.FixtureRecord{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
	incoming := broadcast.CandidateFixture{
		KickoffUTC: ts(t, "2024-12-15T15:00:00Z"),
		League:     "Premier League",
		Channels: []broadcast.ChannelEntry{
			{Region: "UK", ChannelName: "TNT Sports", SourceID: "wikitv"},
		},
	}

	once := Merge(base, incoming)
	twice := Merge(once, incoming)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge must be idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
