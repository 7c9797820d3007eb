package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/grjus/youtube-news/internal/config"
	"github.com/grjus/youtube-news/internal/httpserver"
	"github.com/grjus/youtube-news/internal/httpserver/deps"
	"github.com/grjus/youtube-news/internal/ingest"
	"github.com/grjus/youtube-news/internal/logger"
	"github.com/grjus/youtube-news/internal/redis"
	"github.com/grjus/youtube-news/internal/registry"
	"github.com/grjus/youtube-news/internal/scheduler"
	redisstore "github.com/grjus/youtube-news/internal/store/redis"
	"github.com/grjus/youtube-news/internal/version"
	"github.com/grjus/youtube-news/internal/workflow"
	"github.com/grjus/youtube-news/internal/youtube"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Memory
	reloader    *scheduler.ChannelReloader
	renewer     *scheduler.SubscriptionRenewer
	promoter    *scheduler.Promoter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
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
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	reg := registry.NewMemory()
	store := redisstore.NewStore(redisClient)

	// Restore channel subscription state before the first catalogue load
	syncer := scheduler.NewChannelSyncer(store, reg, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to restore channel state from redis",
			logger.Error(err))
	}

	ytClient, err := youtube.New(context.Background(), cfg.YouTubeAPIKey, cfg.FetchTimeout, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize YouTube client: %v", err)
		os.Exit(1)
	}

	trigger := workflow.NewTrigger(redisClient, cfg.WorkflowStream, loggerClient)

	ingestor := ingest.New(ytClient, store, store, reg, trigger, loggerClient, ingest.Options{
		Staleness: cfg.StalenessThreshold,
		DedupTTL:  cfg.DedupTTL,
	})

	reloader := scheduler.NewChannelReloader(
		cfg.ChannelsFile,
		store,
		reg,
		loggerClient,
		cfg.ReloadInterval,
	)

	renewer := scheduler.NewSubscriptionRenewer(
		store,
		reg,
		loggerClient,
		cfg.HubURL,
		cfg.CallbackURL,
		cfg.WebSubSecret,
		cfg.SubLease,
		cfg.RenewInterval,
	)

	promoter := scheduler.NewPromoter(
		store,
		ytClient,
		trigger,
		loggerClient,
		cfg.PollInterval,
		cfg.PollCutoff,
		cfg.PollBatchSize,
	)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		WebSubSecret: cfg.WebSubSecret,
		Processor:    ingestor,
		Store:        store,
		Registry:     reg,
		RedisClient:  redisClient,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		registry:    reg,
		reloader:    reloader,
		renewer:     renewer,
		promoter:    promoter,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting youtube-news v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("youtube-news %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the catalogue and start periodic refresh
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start channel reloader: %w", err)
	}
	a.logger.Info("channel reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if err := a.renewer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start subscription renewer: %w", err)
	}
	a.logger.Info("subscription renewer started",
		logger.Duration("interval", a.cfg.RenewInterval))

	if err := a.promoter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start promoter: %w", err)
	}
	a.logger.Info("promoter started",
		logger.Duration("interval", a.cfg.PollInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.reloader.Stop()
	a.renewer.Stop()
	a.promoter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("Redis closed cleanly")
		}
	}

	a.logger.Info("youtube-news stopped cleanly")
	return nil
}
