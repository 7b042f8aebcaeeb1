package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/api/rest"
	"github.com/fortuna/tradedesk/internal/api/websocket"
	"github.com/fortuna/tradedesk/internal/cache"
	"github.com/fortuna/tradedesk/internal/config"
	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/ingest/ratings"
	"github.com/fortuna/tradedesk/internal/lease"
	"github.com/fortuna/tradedesk/internal/publisher"
	"github.com/fortuna/tradedesk/internal/ratingsync"
	"github.com/fortuna/tradedesk/internal/scheduler"
	"github.com/fortuna/tradedesk/internal/service"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/store/repository"
	"github.com/fortuna/tradedesk/internal/trade"
)

const (
	serviceName    = "tradedesk"
	serviceVersion = "1.0.0"

	redisMaxRetries = 30
	redisRetryDelay = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to build logger: %v", err)
	}
	logger.Infof("Starting %s v%s - Trade Desk Service", serviceName, serviceVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDatabase(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatalf("Failed to run database migrations: %v", err)
	}
	logger.Info("✓ Database migrations applied")

	redisCache, err := connectRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis after %d attempts: %v", redisMaxRetries, err)
	}
	defer redisCache.Close()
	logger.Info("✓ Connected to Redis")

	playerRepo := repository.NewPlayerRepository(db)
	roster := service.NewRosterService(
		playerRepo,
		repository.NewTeamAliasRepository(db),
		repository.NewPlayerAliasRepository(db),
		redisCache,
		cfg.RosterCacheTTL,
		logger.WithField("component", "roster"),
	)

	var guardStore guard.Store = repository.NewEventRepository(db)
	if cfg.GuardBackend == config.BackendRedis {
		guardStore = cache.NewRedisEventStore(redisCache.Client(), cfg.EventRetention)
	}

	streams := publisher.NewRedisStreamPublisher(redisCache.Client())
	wsServer := websocket.NewServer(logger.WithField("component", "websocket"))

	trades := service.NewTradeService(
		roster,
		repository.NewTradeRepository(db),
		guard.New(guardStore, logger.WithField("component", "guard")),
		trade.Options{StrictTotals: cfg.StrictTotals},
		logger.WithField("component", "trades"),
		streams,
		wsServer,
	)
	players := service.NewPlayerService(playerRepo, roster)

	ratingsClient := ratings.NewClient(ratings.Config{
		BaseURL:           cfg.Ratings.BaseURL,
		Headless:          cfg.Ratings.Headless,
		RequestsPerSecond: cfg.Ratings.RequestsPerSecond,
	}, logger.WithField("component", "ratings"))
	defer ratingsClient.Close()

	runner := ratingsync.NewRunner(ratingsClient, roster, playerRepo, logger.WithField("component", "ratingsync"))
	syncService := ratingsync.NewService(
		ratingsync.NewRepository(db),
		runner,
		cfg.RatingFloor,
		streams,
		logger.WithField("component", "ratingsync"),
	)

	sched := scheduler.NewOrchestrator(syncService, &scheduler.Config{
		SyncHour:         cfg.SyncHour,
		EnableRatingSync: cfg.EnableRatingSync,
		SyncTeams:        cfg.Ratings.Teams,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
	}, logger.WithField("component", "scheduler"))

	var leaseStore lease.Store = cache.NewRedisLeaseStore(redisCache.Client())
	if cfg.LeaseBackend == config.BackendPostgres {
		leaseStore = repository.NewLeaseRepository(db)
	}
	leaseLogger := logger.WithFields(logrus.Fields{"component": "lease", "lease": cfg.LeaseName})
	var leaseMgr *lease.Manager
	if cfg.InstanceID != "" {
		leaseMgr = lease.NewManagerWithOwner(leaseStore, cfg.LeaseName, cfg.InstanceID, cfg.LeaseTTL, leaseLogger)
	} else {
		leaseMgr = lease.NewManager(leaseStore, cfg.LeaseName, cfg.LeaseTTL, leaseLogger)
	}

	leaderErr := make(chan error, 1)
	go func() {
		leaderErr <- runLeader(ctx, leaseMgr, cfg.LeaseTTL/3, syncService, sched, logger)
	}()

	restServer := rest.NewServer(cfg.RESTPort, rest.Deps{
		Trades:  trades,
		Roster:  roster,
		Players: players,
		Sync:    syncService,
		Health: map[string]rest.HealthCheck{
			"postgres": db.HealthCheck,
			"redis":    redisCache.HealthCheck,
		},
	}, logger.WithField("component", "rest"))
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("REST server error")
			cancel()
		}
	}()
	logger.Infof("✓ REST API server listening on :%s", cfg.RESTPort)

	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			logger.WithError(err).Error("WebSocket server error")
			cancel()
		}
	}()

	logger.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)
	logger.Infof("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	logger.Infof("  WebSocket: ws://0.0.0.0:%s/ws/trades", cfg.WSPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Shutting down gracefully...")
	case err := <-leaderErr:
		if err != nil {
			logger.WithError(err).Error("Scheduler role ended, shutting down")
			exitCode = 1
		}
	case <-ctx.Done():
		exitCode = 1
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("REST API server shutdown error")
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("WebSocket server shutdown error")
	}
	if err := syncService.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Rating sync shutdown error")
	}

	logger.Infof("%s stopped", serviceName)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// connectRedis retries until Redis answers or the attempts run out.
func connectRedis(ctx context.Context, url string, logger logrus.FieldLogger) (*cache.RedisCache, error) {
	logger.Info("Connecting to Redis...")

	var lastErr error
	for i := 0; i < redisMaxRetries; i++ {
		rc, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			return rc, nil
		}
		lastErr = err

		if i < redisMaxRetries-1 {
			logger.Warnf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, redisMaxRetries, err, redisRetryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(redisRetryDelay):
			}
		}
	}
	return nil, lastErr
}

// runLeader waits for the scheduler lease, then runs the rating sync worker
// and the daily scheduler while the lease is held. It returns nil when ctx
// ends and lease.ErrLost if the lease is taken over.
func runLeader(
	ctx context.Context,
	mgr *lease.Manager,
	retry time.Duration,
	syncService *ratingsync.Service,
	sched *scheduler.Orchestrator,
	logger logrus.FieldLogger,
) error {
	logger.Info("Waiting for scheduler lease...")
	if err := mgr.AcquireWait(ctx, retry); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	syncService.Start()
	logger.Info("✓ Rating sync worker started")

	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	go sched.Start(schedCtx)
	logger.Info("✓ Scheduler started")

	err := mgr.Keepalive(ctx)
	sched.Stop()
	return err
}
