package htmltable

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/usecase"
)

const listingPage = `<html><body><table>
<tr><th>Date</th><th>Time</th><th>Home</th><th>Away</th><th>TV</th></tr>
<tr><td>2024-12-15</td><td>15:00</td><td>Arsenal</td><td>Chelsea</td><td>Sky Sports / TNT Sports</td></tr>
<tr><td>2024-12-15</td><td>17:30</td><td>Everton</td><td>Liverpool</td><td>Sky Sports</td></tr>
<tr><td>2024-12-16</td><td></td><td>Leeds</td><td></td><td>Amazon</td></tr>
</table></body></html>`

func listingColumns() Columns {
	return Columns{Date: 0, Time: 1, Home: 2, Away: 3, Channel: 4}
}

func request() broadcast.RequestedMatch {
	return broadcast.RequestedMatch{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Date:     time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestClient_ParsesListingRows(t *testing.T) {
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.String())
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	client := NewClient(Config{
		Sites: []SiteConfig{{
			ID:      "tvguide",
			URL:     server.URL + "/fixtures/{date}",
			Columns: listingColumns(),
			Region:  "UK",
		}},
		Logger: logging.NewNop(),
	})

	candidates := client.FetchCandidates(t.Context(), request())
	if len(candidates) != 2 {
		t.Fatalf("expected 2 complete rows, got %d", len(candidates))
	}
	if got := gotPath.Load(); got != "/fixtures/2024-12-15" {
		t.Fatalf("date placeholder not expanded: %v", got)
	}

	first := candidates[0]
	if first.HomeTeam != "Arsenal" || first.AwayTeam != "Chelsea" {
		t.Fatalf("unexpected pairing %+v", first)
	}
	if first.KickoffUTC == nil || !first.KickoffUTC.Equal(time.Date(2024, 12, 15, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("kickoff not parsed from date+time columns: %v", first.KickoffUTC)
	}
	if len(first.Channels) != 2 || first.Channels[0].Region != "UK" {
		t.Fatalf("unexpected channels %+v", first.Channels)
	}
	if first.Channels[0].SourceID != "htmltable:tvguide" {
		t.Fatalf("channel provenance should name the site, got %q", first.Channels[0].SourceID)
	}
}

func TestClient_RateLimitedSiteStopsSweep(t *testing.T) {
	var throttledHits, healthyHits atomic.Int32
	throttled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		throttledHits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer throttled.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		healthyHits.Add(1)
		_, _ = w.Write([]byte(listingPage))
	}))
	defer healthy.Close()

	client := NewClient(Config{
		Sites: []SiteConfig{
			{ID: "throttled", URL: throttled.URL, Columns: listingColumns()},
			{ID: "healthy", URL: healthy.URL, Columns: listingColumns()},
		},
		Logger: logging.NewNop(),
	})

	if candidates := client.FetchCandidates(t.Context(), request()); candidates != nil {
		t.Fatalf("stopped sweep has no results, got %+v", candidates)
	}
	if throttledHits.Load() != 1 || healthyHits.Load() != 0 {
		t.Fatalf("sites after a 429 must not be fetched: throttled=%d healthy=%d",
			throttledHits.Load(), healthyHits.Load())
	}
}

func TestClient_BatchLimitBoundsSites(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	sites := make([]SiteConfig, 0, 4)
	for _, id := range []string{"a", "b", "c", "d"} {
		sites = append(sites, SiteConfig{ID: id, URL: server.URL + "/" + id, Columns: listingColumns()})
	}

	client := NewClient(Config{
		Sites:  sites,
		Batch:  usecase.BatchLimits{MaxItems: 2},
		Logger: logging.NewNop(),
	})

	candidates := client.FetchCandidates(t.Context(), request())
	if hits.Load() != 2 {
		t.Fatalf("expected 2 site fetches under MaxItems=2, got %d", hits.Load())
	}
	if len(candidates) != 4 {
		t.Fatalf("two sites contribute two rows each, got %d", len(candidates))
	}
}
