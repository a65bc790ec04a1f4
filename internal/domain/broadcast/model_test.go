package broadcast

import (
	"testing"
	"time"
)

func TestChannelEntry_Identity_IgnoresCaseAndSource(t *testing.T) {
	a := ChannelEntry{Region: "UK", ChannelName: "Sky Sports", SourceID: "sportsdb"}
	b := ChannelEntry{Region: "uk", ChannelName: "SKY SPORTS", SourceID: "wikitv"}

	if a.Identity() != b.Identity() {
		t.Fatalf("identity should ignore case and provenance: %q vs %q", a.Identity(), b.Identity())
	}
}

func TestFixtureRecord_AddChannel_DedupKeepsFirstProvenance(t *testing.T) {
	record := FixtureRecord{}

	if !record.AddChannel(ChannelEntry{Region: "UK", ChannelName: "Sky Sports", SourceID: "sportsdb"}) {
		t.Fatal("first add should succeed")
	}
	if record.AddChannel(ChannelEntry{Region: "uk", ChannelName: "sky sports", SourceID: "wikitv"}) {
		t.Fatal("duplicate identity should be rejected")
	}
	if !record.AddChannel(ChannelEntry{Region: "UK", ChannelName: "TNT Sports", SourceID: "wikitv"}) {
		t.Fatal("novel pair should be added")
	}

	if len(record.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(record.Channels))
	}
	if record.Channels[0].SourceID != "sportsdb" {
		t.Fatalf("first writer's provenance must be kept, got %q", record.Channels[0].SourceID)
	}
}

func TestFixtureRecord_AddChannel_RejectsEmptyName(t *testing.T) {
	record := FixtureRecord{}
	if record.AddChannel(ChannelEntry{Region: "UK", ChannelName: "  "}) {
		t.Fatal("blank channel name should be rejected")
	}
}

func TestRequestedMatch_BestKickoff(t *testing.T) {
	date := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	kickoff := time.Date(2024, 12, 15, 15, 0, 0, 0, time.UTC)

	req := RequestedMatch{Date: date}
	got, ok := req.BestKickoff()
	if !ok || !got.Equal(date) {
		t.Fatalf("expected date fallback, got %v ok=%v", got, ok)
	}

	req.KnownKickoffUTC = &kickoff
	got, ok = req.BestKickoff()
	if !ok || !got.Equal(kickoff) {
		t.Fatalf("known kickoff should win, got %v ok=%v", got, ok)
	}

	var empty RequestedMatch
	if _, ok := empty.BestKickoff(); ok {
		t.Fatal("empty request has no kickoff")
	}
}
