package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/matchcast/matchcast/internal/domain/broadcast"
	"github.com/matchcast/matchcast/internal/platform/logging"
	"github.com/matchcast/matchcast/internal/usecase"
)

type Handler struct {
	aggregateService *usecase.AggregateService
	bulkService      *usecase.BulkService
	sourcesEnabled   map[string]bool
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	aggregateService *usecase.AggregateService,
	bulkService *usecase.BulkService,
	sourcesEnabled map[string]bool,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		aggregateService: aggregateService,
		bulkService:      bulkService,
		sourcesEnabled:   sourcesEnabled,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports the enabled source set; with nothing enabled every lookup
// would fail, so the service is not ready.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	enabled := make([]string, 0, len(h.sourcesEnabled))
	for _, id := range h.aggregateService.SourceIDs() {
		if h.sourcesEnabled[id] {
			enabled = append(enabled, id)
		}
	}
	if len(enabled) == 0 {
		writeError(ctx, w, fmt.Errorf("%w: no sources enabled", broadcast.ErrConfigurationMissing))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"status":         "ok",
		"sourcesEnabled": enabled,
	})
}

type broadcastQuery struct {
	Home    string `validate:"required"`
	Away    string `validate:"required"`
	Date    string `validate:"omitempty,datetime=2006-01-02"`
	Kickoff string `validate:"omitempty"`
	League  string
	Sources string
}

func (h *Handler) GetBroadcasts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBroadcasts")
	defer span.End()

	query := broadcastQuery{
		Home:    strings.TrimSpace(r.URL.Query().Get("home")),
		Away:    strings.TrimSpace(r.URL.Query().Get("away")),
		Date:    strings.TrimSpace(r.URL.Query().Get("date")),
		Kickoff: strings.TrimSpace(r.URL.Query().Get("kickoff")),
		League:  strings.TrimSpace(r.URL.Query().Get("league")),
		Sources: strings.TrimSpace(r.URL.Query().Get("sources")),
	}
	if err := h.validator.StructCtx(ctx, query); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	req, err := h.buildRequest(query.Home, query.Away, query.Date, query.Kickoff, query.League)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	record, err := h.aggregateService.Aggregate(ctx, req, h.enabledSubset(query.Sources))
	if err != nil {
		h.logger.WarnContext(ctx, "broadcast lookup failed",
			"home", req.HomeTeam,
			"away", req.AwayTeam,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, record)
}

type batchMatchDTO struct {
	Home       string `json:"home" validate:"required"`
	Away       string `json:"away" validate:"required"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	KickoffUTC string `json:"kickoffUtc" validate:"omitempty"`
	LeagueHint string `json:"leagueHint"`
}

type batchRequestDTO struct {
	Matches []batchMatchDTO `json:"matches" validate:"required,min=1,max=50,dive"`
	Sources string          `json:"sources"`
}

type batchItemDTO struct {
	Home   string                   `json:"home"`
	Away   string                   `json:"away"`
	Record *broadcast.FixtureRecord `json:"record,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

func (h *Handler) BatchBroadcasts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BatchBroadcasts")
	defer span.End()

	var payload batchRequestDTO
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	reqs := make([]broadcast.RequestedMatch, 0, len(payload.Matches))
	for _, match := range payload.Matches {
		req, err := h.buildRequest(match.Home, match.Away, match.Date, match.KickoffUTC, match.LeagueHint)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		reqs = append(reqs, req)
	}

	results, err := h.bulkService.AggregateMany(ctx, reqs, h.enabledSubset(payload.Sources))
	if err != nil {
		h.logger.WarnContext(ctx, "batch broadcast lookup failed", "matches", len(reqs), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]batchItemDTO, 0, len(results))
	for _, result := range results {
		item := batchItemDTO{
			Home: result.Request.HomeTeam,
			Away: result.Request.AwayTeam,
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		} else {
			record := result.Record
			item.Record = &record
		}
		items = append(items, item)
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) buildRequest(home, away, date, kickoff, league string) (broadcast.RequestedMatch, error) {
	req := broadcast.RequestedMatch{
		HomeTeam:   strings.TrimSpace(home),
		AwayTeam:   strings.TrimSpace(away),
		LeagueHint: strings.TrimSpace(league),
	}

	if date = strings.TrimSpace(date); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return broadcast.RequestedMatch{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", usecase.ErrInvalidInput, date)
		}
		req.Date = parsed.UTC()
	}
	if kickoff = strings.TrimSpace(kickoff); kickoff != "" {
		parsed, err := time.Parse(time.RFC3339, kickoff)
		if err != nil {
			return broadcast.RequestedMatch{}, fmt.Errorf("%w: invalid kickoff %q, expected RFC 3339", usecase.ErrInvalidInput, kickoff)
		}
		utc := parsed.UTC()
		req.KnownKickoffUTC = &utc
		if req.Date.IsZero() {
			req.Date = utc.Truncate(24 * time.Hour)
		}
	}

	return req, nil
}

// enabledSubset narrows the configured enabled set to the caller's optional
// comma-separated source selection. A source the config has off stays off no
// matter what the request asks for.
func (h *Handler) enabledSubset(selection string) map[string]bool {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return h.sourcesEnabled
	}

	requested := make(map[string]bool)
	for _, id := range strings.Split(selection, ",") {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			requested[id] = true
		}
	}

	out := make(map[string]bool, len(h.sourcesEnabled))
	for id, enabled := range h.sourcesEnabled {
		out[id] = enabled && requested[id]
	}
	return out
}
