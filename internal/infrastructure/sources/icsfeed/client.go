// Package icsfeed reads fixture calendars published as ICS feeds. Feeds
// carry reliable kickoff times and venue strings but never channel listings,
// so this source exists to pin down fixture metadata the scrapers are fuzzy
// about.
package icsfeed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/upstream"
	"github.com/matchcast/matchcast/internal/platform/cache"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
	"github.com/matchcast/matchcast/internal/usecase"
)

const (
	sourceID         = "icsfeed"
	defaultTTL       = 6 * time.Hour
	defaultLookahead = 14 * 24 * time.Hour
	// Events slightly in the past still matter: a feed's DTSTART can lag a
	// rescheduled kickoff by a day.
	lookbehind = 24 * time.Hour
)

var summarySeparators = []string{" v ", " vs. ", " vs ", " - ", " – "}

type Config struct {
	FeedURL   string
	Lookahead time.Duration
	// TeamFilters keeps only events whose summary contains one of these
	// substrings, case-insensitive. Empty means no filtering.
	TeamFilters []string
	LeagueName  string
	TTL         time.Duration
	HTTPClient  *http.Client
	Timeout     time.Duration
	MaxRetries  int
	Logger      *logging.Logger
	Breaker     resilience.BreakerConfig
}

type Client struct {
	feedURL     string
	lookahead   time.Duration
	teamFilters []string
	leagueName  string
	fetcher     *upstream.Fetcher
	store       *cache.Store
	logger      *logging.Logger
	now         func() time.Time
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
	lookahead := cfg.Lookahead
	if lookahead <= 0 {
		lookahead = defaultLookahead
	}

	filters := make([]string, 0, len(cfg.TeamFilters))
	for _, filter := range cfg.TeamFilters {
		if filter = strings.ToLower(strings.TrimSpace(filter)); filter != "" {
			filters = append(filters, filter)
		}
	}

	return &Client{
		feedURL:     strings.TrimSpace(cfg.FeedURL),
		lookahead:   lookahead,
		teamFilters: filters,
		leagueName:  strings.TrimSpace(cfg.LeagueName),
		fetcher: upstream.NewFetcher(upstream.Config{
			HTTPClient: cfg.HTTPClient,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
			Breaker:    cfg.Breaker,
		}),
		store:  cache.NewStore(ttl),
		logger: logger,
		now:    time.Now,
	}
}

func (c *Client) ID() string         { return sourceID }
func (c *Client) TTL() time.Duration { return c.store.TTL() }

func (c *Client) FetchCandidates(ctx context.Context, req broadcast.RequestedMatch) []broadcast.CandidateFixture {
	candidates, err := c.readFeed(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "calendar feed read failed", "url", c.feedURL, "error", err)
		return nil
	}
	return candidates
}

func (c *Client) readFeed(ctx context.Context, req broadcast.RequestedMatch) ([]broadcast.CandidateFixture, error) {
	if c.feedURL == "" {
		return nil, fmt.Errorf("%w: calendar feed url is required", broadcast.ErrConfigurationMissing)
	}

	key := cache.RequestKey(sourceID, c.feedURL)
	raw, err := c.store.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetcher.Do(ctx, key, func(ctx context.Context) (*http.Request, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Accept", "text/calendar")
			return httpReq, nil
		})
	})
	if err != nil {
		return nil, err
	}

	calendar, err := ics.ParseCalendar(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse calendar: %v", broadcast.ErrParseMismatch, err)
	}

	reference := req.Date
	if reference.IsZero() {
		reference = c.now().UTC()
	}
	windowStart := reference.Add(-lookbehind)
	windowEnd := reference.Add(c.lookahead)

	var candidates []broadcast.CandidateFixture
	for _, event := range calendar.Events() {
		start, err := event.GetStartAt()
		if err != nil {
			continue
		}
		if start.Before(windowStart) || start.After(windowEnd) {
			continue
		}

		summary := propertyValue(event, ics.ComponentPropertySummary)
		if !c.matchesFilters(summary) {
			continue
		}
		home, away, ok := splitSummary(summary)
		if !ok {
			continue
		}

		start = start.UTC()
		candidates = append(candidates, usecase.NormalizeCandidate(usecase.RawCandidate{
			HomeTeam: home,
			AwayTeam: away,
			Kickoff:  &start,
			League:   c.leagueName,
			Venue:    propertyValue(event, ics.ComponentPropertyLocation),
			Summary:  summary,
		}, sourceID))
	}
	return candidates, nil
}

func (c *Client) matchesFilters(summary string) bool {
	if len(c.teamFilters) == 0 {
		return true
	}
	lowered := strings.ToLower(summary)
	for _, filter := range c.teamFilters {
		if strings.Contains(lowered, filter) {
			return true
		}
	}
	return false
}

func propertyValue(event *ics.VEvent, name ics.ComponentProperty) string {
	property := event.GetProperty(name)
	if property == nil {
		return ""
	}
	return strings.TrimSpace(property.Value)
}

// splitSummary parses the "Home v Away" shapes fixture calendars use.
func splitSummary(summary string) (string, string, bool) {
	summary = strings.TrimSpace(summary)
	for _, separator := range summarySeparators {
		if home, away, found := strings.Cut(summary, separator); found {
			home = strings.TrimSpace(home)
			away = strings.TrimSpace(away)
			if home != "" && away != "" {
				return home, away, true
			}
		}
	}
	return "", "", false
}
