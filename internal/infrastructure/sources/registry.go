// Package sources assembles the closed registry of upstream adapters. The
// set and its priority order are fixed at build time; per-request source
// selection happens through the enabled set the aggregator receives.
package sources

import (
	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/broadcastapi"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/htmltable"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/icsfeed"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/sportsdb"
	"github.com/matchcast/matchcast/internal/infrastructure/sources/wikitv"
)

type Config struct {
	BroadcastAPI broadcastapi.Config
	SportsDB     sportsdb.Config
	WikiTV       wikitv.Config
	HTMLTable    htmltable.Config
	ICSFeed      icsfeed.Config
}

// Build constructs every adapter in priority order: the remote lookup
// service first because it has already done its own matching, then the
// sports database for authoritative metadata, then the scrapers, then the
// calendar feed. An unconfigured adapter still takes its slot; it reports
// nothing until configured.
func Build(cfg Config) []broadcast.Source {
	return []broadcast.Source{
		broadcastapi.NewClient(cfg.BroadcastAPI),
		sportsdb.NewClient(cfg.SportsDB),
		wikitv.NewClient(cfg.WikiTV),
		htmltable.NewClient(cfg.HTMLTable),
		icsfeed.NewClient(cfg.ICSFeed),
	}
}
