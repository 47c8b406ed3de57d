package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/komiku/internal/cache"
	"github.com/MrSnakeDoc/komiku/internal/config"
	"github.com/MrSnakeDoc/komiku/internal/httpserver"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/library"
	"github.com/MrSnakeDoc/komiku/internal/logger"
	"github.com/MrSnakeDoc/komiku/internal/redis"
	"github.com/MrSnakeDoc/komiku/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/komiku/internal/store/redis"
	"github.com/MrSnakeDoc/komiku/internal/store/sqlite"
	"github.com/MrSnakeDoc/komiku/internal/upstream"
	"github.com/MrSnakeDoc/komiku/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	sqliteStore *sqlite.LibraryPersister
	janitor     *scheduler.CacheJanitor
	warmer      *scheduler.Warmer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	probes := map[string]deps.Probe{}

	// Redis is only dialed when a backend needs it - fail fast if unavailable
	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient.Named("redis"))
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		probes["redis"] = func(ctx context.Context) error {
			return redis.Ping(ctx, client, cfg.RedisPingTimeout)
		}
		loggerClient.Info("Redis initialized successfully")
	}

	policy, err := cache.LoadPolicy(cfg.CachePolicyFile)
	if err != nil {
		loggerClient.Errorf("Invalid cache policy: %v", err)
		os.Exit(1)
	}

	// Response cache
	var (
		responseCache cache.Cache
		janitor       *scheduler.CacheJanitor
	)
	switch cfg.CacheBackend {
	case config.BackendRedis:
		responseCache = redisstore.NewCache(redisClient, cfg.StaleGrace)
	default:
		mem := cache.NewMemory(cfg.StaleGrace)
		responseCache = mem
		janitor = scheduler.NewCacheJanitor(mem, loggerClient.Named("janitor"), cfg.JanitorInterval)
	}

	// Local library
	var (
		persister   library.Persister
		sqliteStore *sqlite.LibraryPersister
	)
	switch cfg.LibraryBackend {
	case config.BackendSQLite:
		sqliteStore, err = sqlite.Open(cfg.LibraryPath, cfg.LibraryName)
		if err != nil {
			loggerClient.Errorf("Failed to open library database: %v", err)
			os.Exit(1)
		}
		persister = sqliteStore
		probes["sqlite"] = sqliteStore.Ping
	case config.BackendRedis:
		persister = redisstore.NewLibraryPersister(redisClient, cfg.LibraryName)
	case config.BackendMemory:
		persister = library.NewMemoryPersister()
	default:
		persister = library.NewFilePersister(cfg.LibraryPath)
	}
	lib := library.New(persister, loggerClient.Named("library"))

	// Upstream content API
	var limiter *rate.Limiter
	if cfg.UpstreamRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), max(cfg.UpstreamBurst, 1))
	}
	content := upstream.New(upstream.Options{
		BaseURL:        cfg.UpstreamURL,
		HTTPClient:     &http.Client{Transport: http.DefaultTransport},
		Cache:          responseCache,
		Policy:         policy,
		StaleGrace:     cfg.StaleGrace,
		Retries:        cfg.UpstreamRetries,
		RetryBase:      cfg.RetryBase,
		RetryMaxWait:   cfg.RetryMaxWait,
		AttemptTimeout: cfg.UpstreamTimeout,
		Limiter:        limiter,
	}, loggerClient.Named("upstream"))

	// Homepage warmer, also triggered by /revalidate
	warmTrigger := make(chan struct{}, 1)
	warmer := scheduler.NewWarmer(content, loggerClient.Named("warmer"), cfg.WarmInterval, warmTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RateBurst:      cfg.RateBurst,
		RatePerMin:     cfg.RatePerMin,
		Content:        content,
		Library:        lib,
		CacheBackend:   cfg.CacheBackend,
		LibraryBackend: cfg.LibraryBackend,
		Probes:         probes,
		WarmTrigger:    warmTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		sqliteStore: sqliteStore,
		janitor:     janitor,
		warmer:      warmer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting komiku v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("komiku %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("backends",
		logger.String("upstream", a.cfg.UpstreamURL),
		logger.String("cache", a.cfg.CacheBackend),
		logger.String("library", a.cfg.LibraryBackend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start homepage warmer: %w", err)
	}
	a.logger.Info("homepage warmer started",
		logger.Duration("interval", a.cfg.WarmInterval))

	if a.janitor != nil {
		if err := a.janitor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start cache janitor: %w", err)
		}
		a.logger.Info("cache janitor started",
			logger.Duration("interval", a.cfg.JanitorInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.warmer.Stop()
	if a.janitor != nil {
		a.janitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Backends close after the server so in-flight library flushes land.
	if a.sqliteStore != nil {
		if err := a.sqliteStore.Close(); err != nil {
			a.logger.Warnf("failed to close library database: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ komiku stopped cleanly")
	return nil
}
