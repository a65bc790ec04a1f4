// Package broadcastapi talks to the remote broadcast lookup service, a JSON
// API that answers a single match lookup with its broadcast channels per
// region. It is the highest-priority source because the remote service has
// already done its own matching.
package broadcastapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/upstream"
	"github.com/matchcast/matchcast/internal/platform/cache"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
	"github.com/matchcast/matchcast/internal/usecase"
)

const (
	sourceID   = "broadcastapi"
	defaultTTL = 30 * time.Minute

	// The remote service reports its own match confidence; hits below this
	// are usually a different fixture entirely.
	minMatchScore = 0.5
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

// FetchCandidates never fails: lookup errors are logged and reported as
// "nothing found" so one broken upstream cannot poison the aggregation.
func (c *Client) FetchCandidates(ctx context.Context, req broadcast.RequestedMatch) []broadcast.CandidateFixture {
	candidates, err := c.lookup(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "broadcast service lookup failed",
			"home", req.HomeTeam,
			"away", req.AwayTeam,
			"error", err,
		)
		return nil
	}
	return candidates
}

type lookupRequest struct {
	Home       string `json:"home"`
	Away       string `json:"away"`
	DateUTC    string `json:"dateUtc,omitempty"`
	LeagueHint string `json:"leagueHint,omitempty"`
}

type lookupResponse struct {
	URL            string  `json:"url"`
	KickoffUTC     string  `json:"kickoffUtc"`
	League         string  `json:"league"`
	MatchScore     float64 `json:"matchScore"`
	RegionChannels []struct {
		Region  string `json:"region"`
		Channel string `json:"channel"`
	} `json:"regionChannels"`
}

func (c *Client) lookup(ctx context.Context, req broadcast.RequestedMatch) ([]broadcast.CandidateFixture, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("%w: broadcast service url and api key are required", broadcast.ErrConfigurationMissing)
	}

	date := ""
	if !req.Date.IsZero() {
		date = req.Date.UTC().Format("2006-01-02")
	}

	key := cache.RequestKey(sourceID, req.HomeTeam, req.AwayTeam, date, req.LeagueHint)
	raw, err := c.store.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.post(ctx, key, lookupRequest{
			Home:       strings.TrimSpace(req.HomeTeam),
			Away:       strings.TrimSpace(req.AwayTeam),
			DateUTC:    date,
			LeagueHint: strings.TrimSpace(req.LeagueHint),
		})
	})
	if err != nil {
		return nil, err
	}

	var payload lookupResponse
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode lookup response: %v", broadcast.ErrParseMismatch, err)
	}

	if payload.MatchScore > 0 && payload.MatchScore < minMatchScore {
		c.logger.DebugContext(ctx, "remote match confidence too low, discarding",
			"match_score", payload.MatchScore,
		)
		return nil, nil
	}
	if payload.URL == "" && len(payload.RegionChannels) == 0 {
		return nil, nil
	}

	rawCandidate := usecase.RawCandidate{
		HomeTeam:    strings.TrimSpace(req.HomeTeam),
		AwayTeam:    strings.TrimSpace(req.AwayTeam),
		KickoffText: payload.KickoffUTC,
		League:      payload.League,
	}
	for _, rc := range payload.RegionChannels {
		rawCandidate.Channels = append(rawCandidate.Channels, broadcast.ChannelEntry{
			Region:      rc.Region,
			ChannelName: rc.Channel,
		})
	}

	return []broadcast.CandidateFixture{usecase.NormalizeCandidate(rawCandidate, sourceID)}, nil
}

func (c *Client) post(ctx context.Context, key string, body lookupRequest) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode lookup request: %w", err)
	}

	return c.fetcher.Do(ctx, key, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/lookup", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Api-Key", c.apiKey)
		return req, nil
	})
}
