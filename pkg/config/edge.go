package config

import "time"

// EdgeConfig holds runtime configuration for the edge renderer service.
type EdgeConfig struct {
	Environment string
	Addr        string
	LogLevel    string

	// SiteOrigin is the public origin used for canonical URLs and sitemaps,
	// e.g. "https://fiddl.art".
	SiteOrigin string
	// OriginURL is the SPA shell origin the renderer fetches and proxies.
	OriginURL string
	// APIBaseURL is the upstream data API.
	APIBaseURL string
	// CDNBaseURL prefixes all media URLs.
	CDNBaseURL string

	SiteName           string
	DefaultDescription string
	DefaultOGImageID   string

	OriginTimeout time.Duration
	APITimeout    time.Duration
	CacheTimeout  time.Duration

	EdgeTTL    time.Duration
	EdgeSWR    time.Duration
	ModelTTL   time.Duration
	SitemapTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatafastScriptURL string
	DatafastEventsURL string

	TracingEnabled bool
}

// LoadEdgeConfig constructs an EdgeConfig from environment variables.
func LoadEdgeConfig() EdgeConfig {
	return EdgeConfig{
		Environment: GetString("APP_ENV", "development"),
		Addr:        GetString("EDGE_ADDR", ":8788"),
		LogLevel:    GetString("LOG_LEVEL", "info"),

		SiteOrigin: GetString("SITE_ORIGIN", "https://fiddl.art"),
		OriginURL:  GetString("SPA_ORIGIN_URL", "http://localhost:8080"),
		APIBaseURL: GetString("API_BASE_URL", "https://api.fiddl.art"),
		CDNBaseURL: GetString("CDN_BASE_URL", "https://cdn.fiddl.art"),

		SiteName:           GetString("SITE_NAME", "Fiddl.art"),
		DefaultDescription: GetString("DEFAULT_DESCRIPTION", "Create and earn with AI art on Fiddl.art. Generate images and videos with the latest AI models."),
		DefaultOGImageID:   GetString("DEFAULT_OG_IMAGE_ID", ""),

		OriginTimeout: GetDuration("ORIGIN_TIMEOUT", 5*time.Second),
		APITimeout:    GetDuration("API_TIMEOUT", 4*time.Second),
		CacheTimeout:  GetDuration("CACHE_TIMEOUT", 500*time.Millisecond),

		EdgeTTL:    GetDuration("EDGE_CACHE_TTL", 24*time.Hour),
		EdgeSWR:    GetDuration("EDGE_CACHE_SWR", 5*time.Minute),
		ModelTTL:   GetDuration("MODEL_CACHE_TTL", time.Hour),
		SitemapTTL: GetDuration("SITEMAP_CACHE_TTL", time.Hour),

		RedisAddr:     GetString("CACHE_REDIS_ADDR", ""),
		RedisPassword: GetString("CACHE_REDIS_PASSWORD", ""),
		RedisDB:       GetInt("CACHE_REDIS_DB", 0),

		DatafastScriptURL: GetString("DATAFAST_SCRIPT_URL", "https://datafa.st/js/script.js"),
		DatafastEventsURL: GetString("DATAFAST_EVENTS_URL", "https://datafa.st/api/events"),

		TracingEnabled: GetBool("TRACING_ENABLED", false),
	}
}
