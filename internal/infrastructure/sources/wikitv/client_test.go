package wikitv

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
)

const broadcastersPage = `<html><body>
<table class="wikitable">
<tr><th>Territory</th><th>Broadcaster</th></tr>
<tr><td>United Kingdom</td><td><a href="/wiki/Sky_Sports">Sky Sports</a> <a href="/wiki/TNT_Sports">TNT Sports</a>[1]</td></tr>
<tr><td>United States[2]</td><td>NBC Sports
Peacock</td></tr>
<tr><td></td><td>Orphan Channel</td></tr>
</table>
<table><tr><td>Unrelated</td><td>Other</td></tr></table>
</body></html>`

func request() broadcast.RequestedMatch {
	return broadcast.RequestedMatch{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
}

func TestClient_ParsesBroadcasterTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(broadcastersPage))
	}))
	defer server.Close()

	client := NewClient(Config{PageURL: server.URL, Logger: logging.NewNop()})

	candidates := client.FetchCandidates(t.Context(), request())
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}

	candidate := candidates[0]
	if candidate.HomeTeam != "Arsenal" || candidate.AwayTeam != "Chelsea" {
		t.Fatalf("candidate should inherit the requested pairing: %+v", candidate)
	}
	if candidate.KickoffUTC != nil {
		t.Fatal("broadcaster page carries no kickoff")
	}

	want := []broadcast.ChannelEntry{
		{Region: "United Kingdom", ChannelName: "Sky Sports", SourceID: sourceID},
		{Region: "United Kingdom", ChannelName: "TNT Sports", SourceID: sourceID},
		{Region: "United States", ChannelName: "NBC Sports", SourceID: sourceID},
		{Region: "United States", ChannelName: "Peacock", SourceID: sourceID},
	}
	if len(candidate.Channels) != len(want) {
		t.Fatalf("expected %d channels, got %+v", len(want), candidate.Channels)
	}
	for i, channel := range candidate.Channels {
		if channel != want[i] {
			t.Fatalf("channel %d = %+v, want %+v", i, channel, want[i])
		}
	}
}

func TestClient_NoTableYieldsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>moved</p></body></html>`))
	}))
	defer server.Close()

	client := NewClient(Config{PageURL: server.URL, Logger: logging.NewNop()})

	if candidates := client.FetchCandidates(t.Context(), request()); candidates != nil {
		t.Fatalf("pages without a broadcasters table must yield nothing, got %+v", candidates)
	}
}

func TestClient_MissingURL(t *testing.T) {
	client := NewClient(Config{Logger: logging.NewNop()})

	if candidates := client.FetchCandidates(t.Context(), request()); candidates != nil {
		t.Fatalf("unconfigured client must yield nothing, got %+v", candidates)
	}
}
