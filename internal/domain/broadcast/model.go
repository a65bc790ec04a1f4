package broadcast

import (
	"strings"
	"time"
)

// RequestedMatch is the immutable input to one aggregation call.
type RequestedMatch struct {
	HomeTeam        string
	AwayTeam        string
	Date            time.Time
	KnownKickoffUTC *time.Time
	LeagueHint      string
}

// BestKickoff prefers the confirmed kickoff over the requested date.
func (r RequestedMatch) BestKickoff() (time.Time, bool) {
	if r.KnownKickoffUTC != nil && !r.KnownKickoffUTC.IsZero() {
		return r.KnownKickoffUTC.UTC(), true
	}
	if !r.Date.IsZero() {
		return r.Date.UTC(), true
	}
	return time.Time{}, false
}

// CandidateFixture is one source's raw hit for a requested match. Adapters
// produce it, the scorer and merge engine consume it; it is never mutated
// after the adapter returns.
type CandidateFixture struct {
	HomeTeam   string
	AwayTeam   string
	KickoffUTC *time.Time
	League     string
	Venue      string
	Summary    string
	Channels   []ChannelEntry
}

// ChannelEntry is one broadcaster listing. SourceID is provenance only and
// takes no part in channel identity.
type ChannelEntry struct {
	Region      string `json:"region"`
	ChannelName string `json:"channelName"`
	SourceID    string `json:"sourceId"`
}

// Identity is the dedup key for a channel: the lower-cased
// (region, channelName) pair.
func (c ChannelEntry) Identity() string {
	return strings.ToLower(strings.TrimSpace(c.Region)) + "\x00" + strings.ToLower(strings.TrimSpace(c.ChannelName))
}

// FixtureRecord is the canonical merged view of one fixture. It is owned by
// the merge engine during a single aggregation call and handed to the caller
// by value.
type FixtureRecord struct {
	HomeTeam    string          `json:"homeTeam"`
	AwayTeam    string          `json:"awayTeam"`
	KickoffUTC  *time.Time      `json:"kickoffUtc,omitempty"`
	League      string          `json:"league,omitempty"`
	Venue       string          `json:"venue,omitempty"`
	Channels    []ChannelEntry  `json:"channels"`
	SourcesUsed map[string]bool `json:"sourcesUsed"`
}

// AddChannel appends the entry unless a channel with the same identity is
// already present. Entries are never replaced or removed within one
// aggregation call, so the first source to report a (region, channel) pair
// keeps its provenance.
func (r *FixtureRecord) AddChannel(entry ChannelEntry) bool {
	if strings.TrimSpace(entry.ChannelName) == "" {
		return false
	}
	id := entry.Identity()
	for _, existing := range r.Channels {
		if existing.Identity() == id {
			return false
		}
	}
	r.Channels = append(r.Channels, entry)
	return true
}

// HasData reports whether any source contributed to the record. An empty
// record is the valid "no data found" outcome, not an error.
func (r FixtureRecord) HasData() bool {
	for _, used := range r.SourcesUsed {
		if used {
			return true
		}
	}
	return false
}
