package sportsdb

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

const searchPayload = `{
	"event": [
		{
			"strEvent": "Arsenal vs Chelsea",
			"strHomeTeam": "Arsenal",
			"strAwayTeam": "Chelsea",
			"strTimestamp": "2024-12-15T15:00:00",
			"dateEvent": "2024-12-15",
			"strTime": "15:00:00",
			"strLeague": "English Premier League",
			"strVenue": "Emirates Stadium",
			"strCountry": "England",
			"strTVStation": "Sky Sports; TNT Sports"
		},
		{
			"strEvent": "Arsenal vs Chelsea",
			"strHomeTeam": "",
			"strAwayTeam": "Chelsea",
			"dateEvent": "2024-12-15"
		}
	]
}`

func request() broadcast.RequestedMatch {
	return broadcast.RequestedMatch{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Date:     time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestClient_SearchMapsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/searchevents.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("e"); got != "Arsenal_vs_Chelsea" {
			t.Errorf("unexpected event query %q", got)
		}
		if got := r.URL.Query().Get("d"); got != "2024-12-15" {
			t.Errorf("unexpected date query %q", got)
		}
		_, _ = w.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Logger: logging.NewNop()})

	candidates := client.FetchCandidates(t.Context(), request())
	if len(candidates) != 1 {
		t.Fatalf("incomplete events must be dropped, got %d candidates", len(candidates))
	}

	candidate := candidates[0]
	if candidate.KickoffUTC == nil || !candidate.KickoffUTC.Equal(time.Date(2024, 12, 15, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected kickoff %v", candidate.KickoffUTC)
	}
	if candidate.Venue != "Emirates Stadium" || candidate.League != "English Premier League" {
		t.Fatalf("metadata not mapped: %+v", candidate)
	}
	if len(candidate.Channels) != 2 {
		t.Fatalf("TV stations should split into channels, got %+v", candidate.Channels)
	}
	if candidate.Channels[0].Region != "England" || candidate.Channels[0].ChannelName != "Sky Sports" {
		t.Fatalf("unexpected channel %+v", candidate.Channels[0])
	}
}

func TestClient_SecondLookupServedFromCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(searchPayload))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Logger: logging.NewNop()})

	client.FetchCandidates(t.Context(), request())
	client.FetchCandidates(t.Context(), request())

	if hits.Load() != 1 {
		t.Fatalf("expected one upstream hit, got %d", hits.Load())
	}
}

func TestClient_FailureYieldsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Logger: logging.NewNop()})

	if candidates := client.FetchCandidates(t.Context(), request()); candidates != nil {
		t.Fatalf("failed lookup must yield nothing, got %+v", candidates)
	}
}
