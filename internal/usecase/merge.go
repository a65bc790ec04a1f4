package usecase

import (
	"strings"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/domain/names"
)

// RawCandidate is the loose shape adapters assemble straight from upstream
// payloads. Timestamps arrive in whichever form the source uses; exactly
// one of the shapes needs to be present for the kickoff to resolve.
type RawCandidate struct {
	HomeTeam    string
	AwayTeam    string
	Kickoff     *time.Time
	KickoffUnix int64
	KickoffText string
	DateText    string
	TimeText    string
	League      string
	Venue       string
	Summary     string
	Channels    []broadcast.ChannelEntry
}

var kickoffTextLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeCandidate canonicalises a raw adapter hit: the kickoff is
// resolved from whichever timestamp shape is present, a display summary is
// synthesised when the source gave none, channels default to an empty list
// and inherit the adapter's source id when they carry no provenance.
func NormalizeCandidate(raw RawCandidate, sourceID string) broadcast.CandidateFixture {
	candidate := broadcast.CandidateFixture{
		HomeTeam: strings.TrimSpace(raw.HomeTeam),
		AwayTeam: strings.TrimSpace(raw.AwayTeam),
		League:   strings.TrimSpace(raw.League),
		Venue:    strings.TrimSpace(raw.Venue),
		Summary:  strings.TrimSpace(raw.Summary),
	}

	if kickoff, ok := resolveKickoff(raw); ok {
		utc := kickoff.UTC()
		candidate.KickoffUTC = &utc
	}

	if candidate.Summary == "" && candidate.HomeTeam != "" && candidate.AwayTeam != "" {
		candidate.Summary = candidate.HomeTeam + " v " + candidate.AwayTeam
	}

	candidate.Channels = make([]broadcast.ChannelEntry, 0, len(raw.Channels))
	for _, channel := range raw.Channels {
		if strings.TrimSpace(channel.ChannelName) == "" {
			continue
		}
		if channel.SourceID == "" {
			channel.SourceID = sourceID
		}
		candidate.Channels = append(candidate.Channels, channel)
	}

	return candidate
}

func resolveKickoff(raw RawCandidate) (time.Time, bool) {
	if raw.Kickoff != nil && !raw.Kickoff.IsZero() {
		return *raw.Kickoff, true
	}
	if raw.KickoffUnix > 0 {
		return time.Unix(raw.KickoffUnix, 0).UTC(), true
	}
	if text := strings.TrimSpace(raw.KickoffText); text != "" {
		for _, layout := range kickoffTextLayouts {
			if parsed, err := time.Parse(layout, text); err == nil {
				return parsed, true
			}
		}
	}
	if date := strings.TrimSpace(raw.DateText); date != "" {
		text := date
		layout := "2006-01-02"
		if clock := strings.TrimSpace(raw.TimeText); clock != "" {
			text += " " + clock
			layout += " 15:04"
		}
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FixtureKey identifies a logical fixture: normalised team names plus the
// kickoff calendar day. Two sources reporting the same match with slightly
// different kickoff times on the same day produce equal keys. The fallback
// date covers candidates whose source reports no timestamp at all.
func FixtureKey(candidate broadcast.CandidateFixture, fallbackDate time.Time) string {
	day := ""
	switch {
	case candidate.KickoffUTC != nil:
		day = candidate.KickoffUTC.UTC().Format("2006-01-02")
	case !fallbackDate.IsZero():
		day = fallbackDate.UTC().Format("2006-01-02")
	}
	return names.Normalize(candidate.HomeTeam) + "|" + names.Normalize(candidate.AwayTeam) + "|" + day
}

// Merge folds an accepted candidate into the record: channels union by
// identity, scalar fields first-writer-wins. Merging the same candidate
// twice is a no-op.
func Merge(existing broadcast.FixtureRecord, incoming broadcast.CandidateFixture) broadcast.FixtureRecord {
	if existing.KickoffUTC == nil && incoming.KickoffUTC != nil {
		utc := incoming.KickoffUTC.UTC()
		existing.KickoffUTC = &utc
	}
	if existing.League == "" {
		existing.League = incoming.League
	}
	if existing.Venue == "" {
		existing.Venue = incoming.Venue
	}
	for _, channel := range incoming.Channels {
		existing.AddChannel(channel)
	}
	return existing
}
