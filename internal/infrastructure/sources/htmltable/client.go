// Package htmltable scrapes fixture/TV listing tables from a configured set
// of listing sites. Sites share one generic column-layout driver; the set is
// config, not code. All sites of one client run through the rate-limited
// batch fetcher so a throttling site stops the whole sweep.
package htmltable

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/upstream"
	"github.com/matchcast/matchcast/internal/platform/cache"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
	"github.com/matchcast/matchcast/internal/usecase"
)

const (
	sourceID           = "htmltable"
	defaultTTL         = 2 * time.Hour
	defaultRowSelector = "table tr"
)

// Columns maps zero-based table columns to fields. Home, Away and Channel
// are required; set Date or Time to -1 when the site has no such column.
type Columns struct {
	Date    int
	Time    int
	Home    int
	Away    int
	Channel int
}

// SiteConfig describes one listing site. The URL may carry a {date}
// placeholder, replaced with the requested date in YYYY-MM-DD form.
type SiteConfig struct {
	ID          string
	URL         string
	RowSelector string
	Columns     Columns
	Region      string
}

type Config struct {
	Sites      []SiteConfig
	Batch      usecase.BatchLimits
	TTL        time.Duration
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
	Breaker    resilience.BreakerConfig
}

type site struct {
	cfg     SiteConfig
	fetcher *upstream.Fetcher
	store   *cache.Store
}

type Client struct {
	sites  []*site
	limits usecase.BatchLimits
	ttl    time.Duration
	logger *logging.Logger
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

	sites := make([]*site, 0, len(cfg.Sites))
	for _, siteCfg := range cfg.Sites {
		if strings.TrimSpace(siteCfg.ID) == "" || strings.TrimSpace(siteCfg.URL) == "" {
			logger.Warn("listing site without id or url skipped", "site", siteCfg.ID)
			continue
		}
		if siteCfg.RowSelector == "" {
			siteCfg.RowSelector = defaultRowSelector
		}
		sites = append(sites, &site{
			cfg: siteCfg,
			// One fetcher per site: they are distinct hosts with distinct
			// failure domains.
			fetcher: upstream.NewFetcher(upstream.Config{
				HTTPClient: cfg.HTTPClient,
				Timeout:    cfg.Timeout,
				MaxRetries: cfg.MaxRetries,
				Logger:     logger,
				Breaker:    cfg.Breaker,
			}),
			store: cache.NewStore(ttl),
		})
	}

	return &Client{
		sites:  sites,
		limits: cfg.Batch,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Client) ID() string         { return sourceID }
func (c *Client) TTL() time.Duration { return c.ttl }

func (c *Client) FetchCandidates(ctx context.Context, req broadcast.RequestedMatch) []broadcast.CandidateFixture {
	if len(c.sites) == 0 {
		return nil
	}

	tasks := make([]usecase.BatchTask[[]broadcast.CandidateFixture], 0, len(c.sites))
	for _, s := range c.sites {
		s := s
		tasks = append(tasks, usecase.BatchTask[[]broadcast.CandidateFixture]{
			Name: sourceID + ":" + s.cfg.ID,
			Run: func(ctx context.Context) ([]broadcast.CandidateFixture, error) {
				return c.scrapeSite(ctx, s, req)
			},
		})
	}

	perSite, state := usecase.RunBatch(ctx, c.logger, tasks, c.limits)
	if state.Stopped {
		c.logger.WarnContext(ctx, "listing sweep stopped early by rate limiting",
			"calls_made", state.CallsMade,
			"sites", len(c.sites),
		)
	}

	var out []broadcast.CandidateFixture
	for _, candidates := range perSite {
		out = append(out, candidates...)
	}
	return out
}

func (c *Client) scrapeSite(ctx context.Context, s *site, req broadcast.RequestedMatch) ([]broadcast.CandidateFixture, error) {
	pageURL := expandURL(s.cfg.URL, req)

	key := cache.RequestKey(sourceID, s.cfg.ID, pageURL)
	raw, err := s.store.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return s.fetcher.Do(ctx, key, func(ctx context.Context) (*http.Request, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Accept", "text/html")
			return httpReq, nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", s.cfg.ID, err)
	}

	candidates, err := parseListing(raw, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", s.cfg.ID, err)
	}
	return candidates, nil
}

func expandURL(template string, req broadcast.RequestedMatch) string {
	if !req.Date.IsZero() {
		template = strings.ReplaceAll(template, "{date}", req.Date.UTC().Format("2006-01-02"))
	}
	return template
}

func parseListing(raw []byte, cfg SiteConfig) ([]broadcast.CandidateFixture, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing page: %v", broadcast.ErrParseMismatch, err)
	}

	var out []broadcast.CandidateFixture
	doc.Find(cfg.RowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		home := cellText(cells, cfg.Columns.Home)
		away := cellText(cells, cfg.Columns.Away)
		if home == "" || away == "" {
			return
		}

		rawCandidate := usecase.RawCandidate{
			HomeTeam: home,
			AwayTeam: away,
			DateText: cellText(cells, cfg.Columns.Date),
			TimeText: cellText(cells, cfg.Columns.Time),
		}
		for _, name := range splitChannels(cellText(cells, cfg.Columns.Channel)) {
			rawCandidate.Channels = append(rawCandidate.Channels, broadcast.ChannelEntry{
				Region:      cfg.Region,
				ChannelName: name,
			})
		}

		out = append(out, usecase.NormalizeCandidate(rawCandidate, sourceID+":"+cfg.ID))
	})

	return out, nil
}

func cellText(cells *goquery.Selection, col int) string {
	if col < 0 || col >= cells.Length() {
		return ""
	}
	return strings.Join(strings.Fields(cells.Eq(col).Text()), " ")
}

func splitChannels(value string) []string {
	split := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '/' || r == ';'
	})
	out := make([]string, 0, len(split))
	for _, name := range split {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
