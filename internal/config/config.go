package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ChannelsFile   string        // path to the channels.yaml catalogue
	ReloadInterval time.Duration // interval to reload channels.yaml (default: 24h)

	WebSubSecret  string        // shared secret for X-Hub-Signature verification
	CallbackURL   string        // public callback URL registered with the hub
	HubURL        string        // PubSubHubbub hub endpoint
	SubLease      time.Duration // lease requested on (re)subscription
	RenewInterval time.Duration // how often to look for expiring subscriptions

	YouTubeAPIKey string        // YouTube Data API v3 key
	FetchTimeout  time.Duration // per-call timeout for metadata fetches

	StalenessThreshold time.Duration // notifications older than this are dropped
	DedupTTL           time.Duration // lifetime of admission markers

	PollInterval  time.Duration // promotion poller cadence (default: 1h)
	PollCutoff    time.Duration // min age of a SCHEDULED record before re-check
	PollBatchSize int           // max SCHEDULED records per poller pass

	WorkflowStream string // redis stream the workflow trigger publishes to

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("YTNEWS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("YTNEWS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("YTNEWS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("YTNEWS_PRETTY_LOG", false),

		// Channel catalogue
		ChannelsFile:   getenv("YTNEWS_CHANNELS_FILE", "/app/channels.yaml"),
		ReloadInterval: mustDuration("YTNEWS_RELOAD_INTERVAL", 24*time.Hour),

		// WebSub
		WebSubSecret:  requireEnv("YTNEWS_WEBSUB_SECRET"),
		CallbackURL:   requireEnv("YTNEWS_CALLBACK_URL"),
		HubURL:        getenv("YTNEWS_HUB_URL", "https://pubsubhubbub.appspot.com/subscribe"),
		SubLease:      mustDuration("YTNEWS_SUBSCRIPTION_LEASE", 4*24*time.Hour),
		RenewInterval: mustDuration("YTNEWS_RENEW_INTERVAL", time.Hour),

		// YouTube Data API
		YouTubeAPIKey: requireEnv("YTNEWS_YOUTUBE_API_KEY"),
		FetchTimeout:  mustDuration("YTNEWS_FETCH_TIMEOUT", 10*time.Second),

		// Admission policy
		StalenessThreshold: mustDuration("YTNEWS_STALENESS_THRESHOLD", 24*time.Hour),
		DedupTTL:           mustDuration("YTNEWS_DEDUP_TTL", 24*time.Hour),

		// Promotion poller
		PollInterval:  mustDuration("YTNEWS_POLL_INTERVAL", time.Hour),
		PollCutoff:    mustDuration("YTNEWS_POLL_CUTOFF", time.Hour),
		PollBatchSize: getenvInt("YTNEWS_POLL_BATCH_SIZE", 25),

		// Downstream workflow
		WorkflowStream: getenv("YTNEWS_WORKFLOW_STREAM", "ytnews:workflow:videos"),

		// Redis settings
		RedisAddr:             requireEnv("YTNEWS_REDIS_ADDR"),
		RedisUser:             getenv("YTNEWS_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("YTNEWS_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("YTNEWS_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("YTNEWS_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: YTNEWS_REDIS_PASSWORD is required when YTNEWS_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.PollBatchSize < 1 {
		cfg.PollBatchSize = 1
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.WebSubSecret = "***REDACTED***"
		cfgCopy.YouTubeAPIKey = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
