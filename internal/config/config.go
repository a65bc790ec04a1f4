package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matchcast/matchcast/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// KnownSourceIDs is the closed set of source adapters, in priority order.
var KnownSourceIDs = []string{"broadcastapi", "sportsdb", "wikitv", "htmltable", "icsfeed"}

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	SourcesEnabled       map[string]bool
	SourceTTLByID        map[string]time.Duration
	SourceTimeout        time.Duration
	ScoreAcceptThreshold int

	BatchMaxItems  int
	BatchDelay     time.Duration
	BulkMaxWorkers int

	BroadcastAPIBaseURL               string
	BroadcastAPIKey                   string
	BroadcastAPITimeout               time.Duration
	BroadcastAPIMaxRetries            int
	BroadcastAPICircuitEnabled        bool
	BroadcastAPICircuitFailureCount   int
	BroadcastAPICircuitOpenTimeout    time.Duration
	BroadcastAPICircuitHalfOpenMaxReq int

	SportsDBBaseURL               string
	SportsDBAPIKey                string
	SportsDBTimeout               time.Duration
	SportsDBMaxRetries            int
	SportsDBCircuitEnabled        bool
	SportsDBCircuitFailureCount   int
	SportsDBCircuitOpenTimeout    time.Duration
	SportsDBCircuitHalfOpenMaxReq int

	WikiTVPageURL       string
	WikiTVTableSelector string

	HTMLTableSiteURLByID map[string]string
	HTMLTableColumns     map[string]int
	HTMLTableRegion      string

	ICSFeedURL         string
	ICSFeedLookahead   time.Duration
	ICSFeedTeamFilters []string
	ICSFeedLeagueName  string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	// Only sportsdb is usable out of the box; every other source needs its
	// own URL or key before it can be enabled.
	sourcesEnabled, err := parseEnabledSources(getEnv("SOURCES_ENABLED", "sportsdb"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCES_ENABLED: %w", err)
	}
	sourceTTLByID, err := parseDurationMap(getEnv("SOURCE_TTL_MAP", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_TTL_MAP: %w", err)
	}
	for id := range sourceTTLByID {
		if !isKnownSourceID(id) {
			return Config{}, fmt.Errorf("SOURCE_TTL_MAP: unknown source id %q", id)
		}
	}
	sourceTimeout, err := time.ParseDuration(getEnv("SOURCE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_TIMEOUT: %w", err)
	}
	if sourceTimeout <= 0 {
		return Config{}, fmt.Errorf("SOURCE_TIMEOUT must be > 0")
	}

	scoreAcceptThreshold, err := getEnvAsInt("SCORE_ACCEPT_THRESHOLD", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCORE_ACCEPT_THRESHOLD: %w", err)
	}
	if scoreAcceptThreshold < 1 || scoreAcceptThreshold > 100 {
		return Config{}, fmt.Errorf("SCORE_ACCEPT_THRESHOLD must be between 1 and 100")
	}

	batchMaxItems, err := getEnvAsInt("BATCH_MAX_ITEMS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_MAX_ITEMS: %w", err)
	}
	if batchMaxItems < 1 {
		return Config{}, fmt.Errorf("BATCH_MAX_ITEMS must be >= 1")
	}
	batchDelay, err := time.ParseDuration(getEnv("BATCH_DELAY", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_DELAY: %w", err)
	}
	if batchDelay < 0 {
		return Config{}, fmt.Errorf("BATCH_DELAY must be >= 0")
	}
	bulkMaxWorkers, err := getEnvAsInt("BULK_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse BULK_MAX_WORKERS: %w", err)
	}
	if bulkMaxWorkers < 1 {
		return Config{}, fmt.Errorf("BULK_MAX_WORKERS must be >= 1")
	}

	broadcastAPITimeout, err := time.ParseDuration(getEnv("BROADCAST_API_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_TIMEOUT: %w", err)
	}
	if broadcastAPITimeout <= 0 {
		return Config{}, fmt.Errorf("BROADCAST_API_TIMEOUT must be > 0")
	}
	broadcastAPIMaxRetries, err := getEnvAsInt("BROADCAST_API_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_MAX_RETRIES: %w", err)
	}
	if broadcastAPIMaxRetries < 0 {
		return Config{}, fmt.Errorf("BROADCAST_API_MAX_RETRIES must be >= 0")
	}
	broadcastAPICircuitEnabled, err := strconv.ParseBool(getEnv("BROADCAST_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_CIRCUIT_ENABLED: %w", err)
	}
	broadcastAPICircuitFailureCount, err := getEnvAsInt("BROADCAST_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if broadcastAPICircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("BROADCAST_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	broadcastAPICircuitOpenTimeout, err := time.ParseDuration(getEnv("BROADCAST_API_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if broadcastAPICircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("BROADCAST_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	broadcastAPICircuitHalfOpenMaxReq, err := getEnvAsInt("BROADCAST_API_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if broadcastAPICircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("BROADCAST_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	broadcastAPIBaseURL := strings.TrimSpace(getEnv("BROADCAST_API_BASE_URL", ""))
	broadcastAPIKey := strings.TrimSpace(getEnv("BROADCAST_API_KEY", ""))
	if sourcesEnabled["broadcastapi"] {
		if broadcastAPIBaseURL == "" {
			return Config{}, fmt.Errorf("BROADCAST_API_BASE_URL is required when source broadcastapi is enabled")
		}
		if broadcastAPIKey == "" {
			return Config{}, fmt.Errorf("BROADCAST_API_KEY is required when source broadcastapi is enabled")
		}
	}

	sportsDBTimeout, err := time.ParseDuration(getEnv("SPORTSDB_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_TIMEOUT: %w", err)
	}
	if sportsDBTimeout <= 0 {
		return Config{}, fmt.Errorf("SPORTSDB_TIMEOUT must be > 0")
	}
	sportsDBMaxRetries, err := getEnvAsInt("SPORTSDB_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_MAX_RETRIES: %w", err)
	}
	if sportsDBMaxRetries < 0 {
		return Config{}, fmt.Errorf("SPORTSDB_MAX_RETRIES must be >= 0")
	}
	sportsDBCircuitEnabled, err := strconv.ParseBool(getEnv("SPORTSDB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_ENABLED: %w", err)
	}
	sportsDBCircuitFailureCount, err := getEnvAsInt("SPORTSDB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sportsDBCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sportsDBCircuitOpenTimeout, err := time.ParseDuration(getEnv("SPORTSDB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if sportsDBCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	sportsDBCircuitHalfOpenMaxReq, err := getEnvAsInt("SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sportsDBCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	sportsDBBaseURL := strings.TrimSpace(getEnv("SPORTSDB_BASE_URL", "https://www.thesportsdb.com/api/v1/json/3"))
	if sourcesEnabled["sportsdb"] && sportsDBBaseURL == "" {
		return Config{}, fmt.Errorf("SPORTSDB_BASE_URL is required when source sportsdb is enabled")
	}

	wikiTVPageURL := strings.TrimSpace(getEnv("WIKITV_PAGE_URL", ""))
	if sourcesEnabled["wikitv"] && wikiTVPageURL == "" {
		return Config{}, fmt.Errorf("WIKITV_PAGE_URL is required when source wikitv is enabled")
	}

	htmlTableSites, err := parseStringMap(getEnv("HTMLTABLE_SITES", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTMLTABLE_SITES: %w", err)
	}
	htmlTableColumns, err := parseColumnMap(getEnv("HTMLTABLE_COLUMNS", "date:0,time:1,home:2,away:3,channel:4"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTMLTABLE_COLUMNS: %w", err)
	}
	if sourcesEnabled["htmltable"] && len(htmlTableSites) == 0 {
		return Config{}, fmt.Errorf("HTMLTABLE_SITES is required when source htmltable is enabled")
	}

	icsFeedURL := strings.TrimSpace(getEnv("ICSFEED_URL", ""))
	if sourcesEnabled["icsfeed"] && icsFeedURL == "" {
		return Config{}, fmt.Errorf("ICSFEED_URL is required when source icsfeed is enabled")
	}
	icsFeedLookahead, err := time.ParseDuration(getEnv("ICSFEED_LOOKAHEAD", "336h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ICSFEED_LOOKAHEAD: %w", err)
	}
	if icsFeedLookahead <= 0 {
		return Config{}, fmt.Errorf("ICSFEED_LOOKAHEAD must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "matchcast-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		SourcesEnabled:       sourcesEnabled,
		SourceTTLByID:        sourceTTLByID,
		SourceTimeout:        sourceTimeout,
		ScoreAcceptThreshold: scoreAcceptThreshold,

		BatchMaxItems:  batchMaxItems,
		BatchDelay:     batchDelay,
		BulkMaxWorkers: bulkMaxWorkers,

		BroadcastAPIBaseURL:               broadcastAPIBaseURL,
		BroadcastAPIKey:                   broadcastAPIKey,
		BroadcastAPITimeout:               broadcastAPITimeout,
		BroadcastAPIMaxRetries:            broadcastAPIMaxRetries,
		BroadcastAPICircuitEnabled:        broadcastAPICircuitEnabled,
		BroadcastAPICircuitFailureCount:   broadcastAPICircuitFailureCount,
		BroadcastAPICircuitOpenTimeout:    broadcastAPICircuitOpenTimeout,
		BroadcastAPICircuitHalfOpenMaxReq: broadcastAPICircuitHalfOpenMaxReq,

		SportsDBBaseURL:               sportsDBBaseURL,
		SportsDBAPIKey:                strings.TrimSpace(getEnv("SPORTSDB_API_KEY", "")),
		SportsDBTimeout:               sportsDBTimeout,
		SportsDBMaxRetries:            sportsDBMaxRetries,
		SportsDBCircuitEnabled:        sportsDBCircuitEnabled,
		SportsDBCircuitFailureCount:   sportsDBCircuitFailureCount,
		SportsDBCircuitOpenTimeout:    sportsDBCircuitOpenTimeout,
		SportsDBCircuitHalfOpenMaxReq: sportsDBCircuitHalfOpenMaxReq,

		WikiTVPageURL:       wikiTVPageURL,
		WikiTVTableSelector: strings.TrimSpace(getEnv("WIKITV_TABLE_SELECTOR", "")),

		HTMLTableSiteURLByID: htmlTableSites,
		HTMLTableColumns:     htmlTableColumns,
		HTMLTableRegion:      strings.TrimSpace(getEnv("HTMLTABLE_REGION", "")),

		ICSFeedURL:         icsFeedURL,
		ICSFeedLookahead:   icsFeedLookahead,
		ICSFeedTeamFilters: splitCSV(getEnv("ICSFEED_TEAM_FILTERS", "")),
		ICSFeedLeagueName:  strings.TrimSpace(getEnv("ICSFEED_LEAGUE_NAME", "")),

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// SourceTTL returns the configured TTL override for a source id, or zero
// when the adapter should use its own default.
func (c Config) SourceTTL(id string) time.Duration {
	return c.SourceTTLByID[id]
}

func isKnownSourceID(id string) bool {
	for _, known := range KnownSourceIDs {
		if known == id {
			return true
		}
	}
	return false
}

func parseEnabledSources(raw string) (map[string]bool, error) {
	out := make(map[string]bool, len(KnownSourceIDs))
	for _, id := range KnownSourceIDs {
		out[id] = false
	}
	for _, id := range splitCSV(raw) {
		id = strings.ToLower(id)
		if !isKnownSourceID(id) {
			return nil, fmt.Errorf("unknown source id %q: valid ids are %s", id, strings.Join(KnownSourceIDs, ", "))
		}
		out[id] = true
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

// parseDurationMap parses "sportsdb:30m,wikitv:6h" shaped values.
func parseDurationMap(raw string) (map[string]time.Duration, error) {
	out := make(map[string]time.Duration)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected source_id:duration", item)
		}

		key := strings.TrimSpace(segments[0])
		if key == "" {
			return nil, fmt.Errorf("empty source id in item %q", item)
		}
		value, err := time.ParseDuration(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid duration in item %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("duration must be > 0 in item %q", item)
		}

		out[key] = value
	}
	return out, nil
}

// parseStringMap parses "id=url,id2=url2" shaped values. The separator is
// "=" because listing URLs contain colons.
func parseStringMap(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, "=", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected id=url", item)
		}

		key := strings.TrimSpace(segments[0])
		value := strings.TrimSpace(segments[1])
		if key == "" || value == "" {
			return nil, fmt.Errorf("empty id or url in item %q", item)
		}
		out[key] = value
	}
	return out, nil
}

// parseColumnMap parses "date:0,time:1,home:2,away:3,channel:4". Home, away
// and channel columns are mandatory; date and time may be omitted.
func parseColumnMap(raw string) (map[string]int, error) {
	out := map[string]int{"date": -1, "time": -1, "home": -1, "away": -1, "channel": -1}
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected field:column", item)
		}

		key := strings.ToLower(strings.TrimSpace(segments[0]))
		if _, ok := out[key]; !ok {
			return nil, fmt.Errorf("unknown field %q in item %q", key, item)
		}
		value, err := strconv.Atoi(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid column in item %q: %w", item, err)
		}
		if value < 0 {
			return nil, fmt.Errorf("column must be >= 0 in item %q", item)
		}
		out[key] = value
	}

	for _, field := range []string{"home", "away", "channel"} {
		if out[field] < 0 {
			return nil, fmt.Errorf("column for %q is required", field)
		}
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
