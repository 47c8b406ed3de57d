package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by KOMIKU_CACHE_BACKEND and KOMIKU_LIBRARY_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Upstream content API
	UpstreamURL     string        // base URL, no trailing slash
	UpstreamTimeout time.Duration // bound on a single attempt
	UpstreamRetries int           // retries after the first attempt (2 => 3 attempts)
	RetryBase       time.Duration // base unit of both backoff schedules (1s)
	RetryMaxWait    time.Duration // cap of the 429 exponential schedule (10s)
	UpstreamRPS     float64       // outbound pacing, 0 = unlimited
	UpstreamBurst   int           // outbound burst when pacing is enabled

	// Response cache
	CacheBackend    string        // "memory" | "redis"
	CachePolicyFile string        // optional YAML tier overrides
	StaleGrace      time.Duration // how long an expired entry may back a degraded refetch

	// Local library (bookmarks + history)
	LibraryBackend string // "file" | "sqlite" | "redis" | "memory"
	LibraryPath    string // file or sqlite path
	LibraryName    string // name of the persisted blob

	// Background jobs
	JanitorInterval time.Duration // memory cache pruning interval
	WarmInterval    time.Duration // homepage prefetch interval, 0 disables

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions (admin endpoints)
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Public API rate limiting
	RateBurst  int // bucket size per client IP
	RatePerMin int // refill per client IP per minute
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.CacheBackend == BackendRedis || c.LibraryBackend == BackendRedis
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("KOMIKU_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("KOMIKU_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("KOMIKU_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KOMIKU_PRETTY_LOG", true),

		// Upstream
		UpstreamURL:     strings.TrimRight(getenv("KOMIKU_UPSTREAM_URL", "https://api.sansekai.my.id/api"), "/"),
		UpstreamTimeout: mustDuration("KOMIKU_UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRetries: getenvInt("KOMIKU_UPSTREAM_RETRIES", 2),
		RetryBase:       mustDuration("KOMIKU_RETRY_BASE", time.Second),
		RetryMaxWait:    mustDuration("KOMIKU_RETRY_MAX_WAIT", 10*time.Second),
		UpstreamRPS:     getenvFloat("KOMIKU_UPSTREAM_RPS", 0),
		UpstreamBurst:   getenvInt("KOMIKU_UPSTREAM_BURST", 4),

		// Cache
		CacheBackend:    oneOf("KOMIKU_CACHE_BACKEND", BackendMemory, BackendMemory, BackendRedis),
		CachePolicyFile: getenv("KOMIKU_CACHE_POLICY_FILE", ""),
		StaleGrace:      mustDuration("KOMIKU_STALE_GRACE", 10*time.Minute),

		// Library
		LibraryBackend: oneOf("KOMIKU_LIBRARY_BACKEND", BackendFile, BackendFile, BackendSQLite, BackendRedis, BackendMemory),
		LibraryPath:    getenv("KOMIKU_LIBRARY_PATH", "/data/komiku-library.json"),
		LibraryName:    getenv("KOMIKU_LIBRARY_NAME", "komikmanga-storage"),

		// Background jobs
		JanitorInterval: mustDuration("KOMIKU_JANITOR_INTERVAL", 10*time.Minute),
		WarmInterval:    mustDuration("KOMIKU_WARM_INTERVAL", 5*time.Minute),

		// Redis settings
		RedisAddr:           getenv("KOMIKU_REDIS_ADDR", ""),
		RedisUser:           getenv("KOMIKU_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("KOMIKU_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("KOMIKU_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("KOMIKU_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("KOMIKU_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("KOMIKU_TRUST_PROXY", true),

		// Rate limiting
		RateBurst:  getenvInt("KOMIKU_RATE_BURST", 60),
		RatePerMin: getenvInt("KOMIKU_RATE_PER_MIN", 120),
	}

	if cfg.UpstreamRetries < 0 {
		cfg.UpstreamRetries = 0
	}

	// A redis backend without an address is a deployment error.
	if cfg.UsesRedis() {
		cfg.RedisAddr = requireEnv("KOMIKU_REDIS_ADDR")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
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

// oneOf returns the lowercased value of key if it is one of allowed, def when unset.
// Any other value is fatal: silently picking a different backend would lose data.
func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %q (allowed: %s)", key, v, strings.Join(allowed, ", ")))
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
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

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
