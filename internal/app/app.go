package app

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/matchcast/matchcast/internal/config"
	"github.com/matchcast/matchcast/internal/infrastructure/sources"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/broadcastapi"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/htmltable"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/icsfeed"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/sportsdb"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/wikitv"
	"github.com/matchcast/matchcast/internal/interfaces/httpapi"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/platform/resilience"
	"github.com/matchcast/matchcast/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	registry := sources.Build(sources.Config{
		BroadcastAPI: broadcastapi.Config{
			BaseURL:    cfg.BroadcastAPIBaseURL,
			APIKey:     cfg.BroadcastAPIKey,
			TTL:        cfg.SourceTTL("broadcastapi"),
			Timeout:    cfg.BroadcastAPITimeout,
			MaxRetries: cfg.BroadcastAPIMaxRetries,
			Logger:     logger,
			Breaker: resilience.BreakerConfig{
				Enabled:          cfg.BroadcastAPICircuitEnabled,
				FailureThreshold: cfg.BroadcastAPICircuitFailureCount,
				OpenTimeout:      cfg.BroadcastAPICircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.BroadcastAPICircuitHalfOpenMaxReq,
			},
		},
		SportsDB: sportsdb.Config{
			BaseURL:    cfg.SportsDBBaseURL,
			APIKey:     cfg.SportsDBAPIKey,
			TTL:        cfg.SourceTTL("sportsdb"),
			Timeout:    cfg.SportsDBTimeout,
			MaxRetries: cfg.SportsDBMaxRetries,
			Logger:     logger,
			Breaker: resilience.BreakerConfig{
				Enabled:          cfg.SportsDBCircuitEnabled,
				FailureThreshold: cfg.SportsDBCircuitFailureCount,
				OpenTimeout:      cfg.SportsDBCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SportsDBCircuitHalfOpenMaxReq,
			},
		},
		WikiTV: wikitv.Config{
			PageURL:       cfg.WikiTVPageURL,
			TableSelector: cfg.WikiTVTableSelector,
			TTL:           cfg.SourceTTL("wikitv"),
			Logger:        logger,
		},
		HTMLTable: htmltable.Config{
			Sites: htmlTableSites(cfg),
			Batch: usecase.BatchLimits{
				MaxItems: cfg.BatchMaxItems,
				Delay:    cfg.BatchDelay,
			},
			TTL:    cfg.SourceTTL("htmltable"),
			Logger: logger,
		},
		ICSFeed: icsfeed.Config{
			FeedURL:     cfg.ICSFeedURL,
			Lookahead:   cfg.ICSFeedLookahead,
			TeamFilters: cfg.ICSFeedTeamFilters,
			LeagueName:  cfg.ICSFeedLeagueName,
			TTL:         cfg.SourceTTL("icsfeed"),
			Logger:      logger,
		},
	})

	aggregateSvc := usecase.NewAggregateService(registry, cfg.SourceTimeout, cfg.ScoreAcceptThreshold, logger)
	bulkSvc := usecase.NewBulkService(aggregateSvc, cfg.BulkMaxWorkers, logger)

	handler := httpapi.NewHandler(aggregateSvc, bulkSvc, cfg.SourcesEnabled, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// htmlTableSites expands the configured site map into adapter configs. Every
// site shares the same column layout and region; sites are ordered by id so
// the sweep order is stable across restarts.
func htmlTableSites(cfg config.Config) []htmltable.SiteConfig {
	ids := make([]string, 0, len(cfg.HTMLTableSiteURLByID))
	for id := range cfg.HTMLTableSiteURLByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	columns := htmltable.Columns{
		Date:    columnIndex(cfg.HTMLTableColumns, "date"),
		Time:    columnIndex(cfg.HTMLTableColumns, "time"),
		Home:    columnIndex(cfg.HTMLTableColumns, "home"),
		Away:    columnIndex(cfg.HTMLTableColumns, "away"),
		Channel: columnIndex(cfg.HTMLTableColumns, "channel"),
	}

	sites := make([]htmltable.SiteConfig, 0, len(ids))
	for _, id := range ids {
		sites = append(sites, htmltable.SiteConfig{
			ID:      id,
			URL:     cfg.HTMLTableSiteURLByID[id],
			Columns: columns,
			Region:  cfg.HTMLTableRegion,
		})
	}
	return sites
}

func columnIndex(columns map[string]int, key string) int {
	if idx, ok := columns[key]; ok {
		return idx
	}
	return -1
}
