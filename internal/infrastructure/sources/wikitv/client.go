// Package wikitv scrapes the broadcasters table of an encyclopedia-style
// competition rights page. The page is competition-wide rather than
// per-fixture, so a hit contributes channels for the requested match without
// any kickoff metadata of its own.
package wikitv

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
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
	sourceID        = "wikitv"
	defaultTTL      = 6 * time.Hour
	defaultSelector = "table.wikitable"
)

// Bracketed footnote references like [12] that the page sprinkles into
// broadcaster names.
var footnoteRegex = regexp.MustCompile(`\[[^\]]*\]`)

type Config struct {
	PageURL string
	// TableSelector overrides the CSS selector for the broadcasters table.
	TableSelector string
	TTL           time.Duration
	HTTPClient    *http.Client
	Timeout       time.Duration
	MaxRetries    int
	Logger        *logging.Logger
	Breaker       resilience.BreakerConfig
}

type Client struct {
	pageURL  string
	selector string
	fetcher  *upstream.Fetcher
	store    *cache.Store
	logger   *logging.Logger
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
	selector := strings.TrimSpace(cfg.TableSelector)
	if selector == "" {
		selector = defaultSelector
	}

	return &Client{
		pageURL:  strings.TrimSpace(cfg.PageURL),
		selector: selector,
		fetcher: upstream.NewFetcher(upstream.Config{
			HTTPClient: cfg.HTTPClient,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
			Breaker:    cfg.Breaker,
		}),
		store:  cache.NewStore(ttl),
		logger: logger,
	}
}

func (c *Client) ID() string         { return sourceID }
func (c *Client) TTL() time.Duration { return c.store.TTL() }

func (c *Client) FetchCandidates(ctx context.Context, req broadcast.RequestedMatch) []broadcast.CandidateFixture {
	channels, err := c.regionChannels(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "broadcaster page scrape failed", "url", c.pageURL, "error", err)
		return nil
	}
	if len(channels) == 0 {
		return nil
	}

	// The page carries no per-fixture data: the candidate inherits the
	// requested pairing and relies purely on the team component to clear the
	// acceptance threshold.
	return []broadcast.CandidateFixture{usecase.NormalizeCandidate(usecase.RawCandidate{
		HomeTeam: req.HomeTeam,
		AwayTeam: req.AwayTeam,
		Channels: channels,
	}, sourceID)}
}

func (c *Client) regionChannels(ctx context.Context) ([]broadcast.ChannelEntry, error) {
	if c.pageURL == "" {
		return nil, fmt.Errorf("%w: broadcaster page url is required", broadcast.ErrConfigurationMissing)
	}

	key := cache.RequestKey(sourceID, c.pageURL)
	raw, err := c.store.Fetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetcher.Do(ctx, key, func(ctx context.Context) (*http.Request, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Accept", "text/html")
			return httpReq, nil
		})
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse broadcaster page: %v", broadcast.ErrParseMismatch, err)
	}

	var channels []broadcast.ChannelEntry
	doc.Find(c.selector).Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if row.Find("th").Length() > 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			region := cleanCell(cells.First().Text())
			if region == "" {
				return
			}
			cells.Slice(1, cells.Length()).Each(func(_ int, cell *goquery.Selection) {
				for _, name := range broadcasterNames(cell) {
					channels = append(channels, broadcast.ChannelEntry{
						Region:      region,
						ChannelName: name,
					})
				}
			})
		})
	})

	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no broadcaster rows under selector %q", broadcast.ErrParseMismatch, c.selector)
	}
	return channels, nil
}

// broadcasterNames extracts one name per link when the cell is a list of
// links, otherwise splits the cell's plain text on line breaks.
func broadcasterNames(cell *goquery.Selection) []string {
	var names []string
	cell.Find("a").Each(func(_ int, link *goquery.Selection) {
		if name := cleanCell(link.Text()); name != "" {
			names = append(names, name)
		}
	})
	if len(names) > 0 {
		return names
	}

	for _, line := range strings.Split(cell.Text(), "\n") {
		if name := cleanCell(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func cleanCell(text string) string {
	text = footnoteRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
