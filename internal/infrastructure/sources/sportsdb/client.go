// Package sportsdb queries the sports database event-search API. It is the
// authoritative source for fixture metadata (kickoff, league, venue); its TV
// station field is a bonus, not the reason it exists.
package sportsdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/upstream"
	"github.com/matchcast/matchcast/internal/platform/cache"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
	"github.com/matchcast/matchcast/internal/usecase"
)

const (
	sourceID   = "sportsdb"
	defaultTTL = time.Hour
)

type Config struct {
	BaseURL    string
	APIKey     string
	TTL        time.Duration
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerConfig
}

type Client struct {
	baseURL string
	apiKey  string
	fetcher *upstream.Fetcher
	store   *cache.Store
	logger  *logging.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		fetcher: upstream.NewFetcher(upstream.Config{
			HTTPClient: cfg.HTTPClient,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
			Breaker:    cfg.Breaker,
			Secrets:    []string{strings.TrimSpace(cfg.APIKey)},
		}),
		store:  cache.NewStore(ttl),
		logger: logger,
	}
}

func (c *Client) ID() string         { return sourceID }
func (c *Client) TTL() time.Duration { return c.store.TTL() }

func (c *Client) FetchCandidates(ctx context.Context, req broadcast.RequestedMatch) []broadcast.CandidateFixture {
	candidates, err := c.search(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "sports database search failed",
			"home", req.HomeTeam,
			"away", req.AwayTeam,
			"error", err,
		)
		return nil
	}
	return candidates
}

type searchEnvelope struct {
	Event []eventItem `json:"event"`
}

type eventItem struct {
	Event     string `json:"strEvent"`
	HomeTeam  string `json:"strHomeTeam"`
	AwayTeam  string `json:"strAwayTeam"`
	Timestamp string `json:"strTimestamp"`
	DateEvent string `json:"dateEvent"`
	Time      string `json:"strTime"`
	League    string `json:"strLeague"`
	Venue     string `json:"strVenue"`
	Country   string `json:"strCountry"`
	TVStation string `json:"strTVStation"`
}

func (c *Client) search(ctx context.Context, req broadcast.RequestedMatch) ([]broadcast.CandidateFixture, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: sports database url is required", broadcast.ErrConfigurationMissing)
	}

	query := url.Values{}
	query.Set("e", strings.TrimSpace(req.HomeTeam)+"_vs_"+strings.TrimSpace(req.AwayTeam))
	date := ""
	if !req.Date.IsZero() {
		date = req.Date.UTC().Format("2006-01-02")
		query.Set("d", date)
	}

	fullURL := c.baseURL + "/searchevents.php?" + query.Encode()
	key := cache.RequestKey(sourceID, req.HomeTeam, req.AwayTeam, date)
	raw, err := c.store.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetcher.Do(ctx, key, func(ctx context.Context) (*http.Request, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Accept", "application/json")
			if c.apiKey != "" {
				httpReq.Header.Set("X-Api-Key", c.apiKey)
			}
			return httpReq, nil
		})
	})
	if err != nil {
		return nil, err
	}

	var envelope searchEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode event search response: %v", broadcast.ErrParseMismatch, err)
	}

	candidates := make([]broadcast.CandidateFixture, 0, len(envelope.Event))
	for _, item := range envelope.Event {
		if strings.TrimSpace(item.HomeTeam) == "" || strings.TrimSpace(item.AwayTeam) == "" {
			continue
		}
		candidates = append(candidates, usecase.NormalizeCandidate(usecase.RawCandidate{
			HomeTeam:    item.HomeTeam,
			AwayTeam:    item.AwayTeam,
			KickoffText: item.Timestamp,
			DateText:    item.DateEvent,
			TimeText:    clockMinute(item.Time),
			League:      item.League,
			Venue:       item.Venue,
			Summary:     item.Event,
			Channels:    stationChannels(item.TVStation, item.Country),
		}, sourceID))
	}
	return candidates, nil
}

// clockMinute trims "15:00:00" to "15:04"-layout resolution.
func clockMinute(clock string) string {
	clock = strings.TrimSpace(clock)
	if len(clock) > 5 {
		clock = clock[:5]
	}
	return clock
}

// stationChannels splits the provider's free-text TV station field. Multiple
// broadcasters arrive separated by commas or semicolons.
func stationChannels(stations, region string) []broadcast.ChannelEntry {
	stations = strings.TrimSpace(stations)
	if stations == "" {
		return nil
	}

	split := strings.FieldsFunc(stations, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]broadcast.ChannelEntry, 0, len(split))
	for _, name := range split {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, broadcast.ChannelEntry{
			Region:      strings.TrimSpace(region),
			ChannelName: name,
		})
	}
	return out
}
