package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cbrates/internal/adapters/cache"
	"cbrates/internal/adapters/httpclient"
	"cbrates/internal/adapters/postgres"
	"cbrates/internal/api"
	"cbrates/internal/calc"
	"cbrates/internal/config"
	"cbrates/internal/monitor"
	"cbrates/internal/platform/db"
	httpserver "cbrates/internal/platform/http"
	"cbrates/internal/rate"
	"cbrates/internal/rate/handler"

	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts HTTP server and rate monitor
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (migrations, DB connect)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err = db.Migrate(startupCtx, appCfg.DbServer); err != nil {
		logrus.WithError(err).Error("Error applying migrations")
		return err
	}
	logrus.Info("✅ Migrations applied")

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	// In-process rate cache
	rateCache, err := cache.NewRateCache(appCfg.Cache.MaxItems, time.Duration(appCfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		logrus.WithError(err).Error("Error creating rate cache")
		return err
	}
	defer rateCache.Close()

	// External clients
	feedClient := httpclient.NewCBRFeedClient(
		&http.Client{Timeout: time.Duration(appCfg.Feed.TimeoutSeconds) * time.Second},
		strings.TrimSuffix(appCfg.Feed.BaseURL, "/"),
		appCfg.Feed.MaxAttempts,
		time.Duration(appCfg.Feed.BackoffSeconds)*time.Second,
	)
	notifier := httpclient.NewGatewayNotifier(
		&http.Client{Timeout: time.Duration(appCfg.Notifier.TimeoutSeconds) * time.Second},
		strings.TrimSuffix(appCfg.Notifier.BaseURL, "/"),
	)

	// Repositories
	rateRepo := postgres.NewRateRepository(pool, appCfg.Rates.LookbackDays)
	subscriberRepo := postgres.NewSubscriberRepository(pool)
	pendingRepo := postgres.NewPendingRepository(pool)

	// Monitor
	poller := monitor.NewPoller(feedClient, rateRepo, pendingRepo, subscriberRepo, notifier, calc.New(), appCfg.Monitor.NotifyWorkers)
	scheduler := monitor.NewScheduler(poller, time.Duration(appCfg.Monitor.PollIntervalSeconds)*time.Second)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start rate monitor")
		return startErr
	}
	logrus.Info("✅ Rate monitor activation successful")

	// Services, handlers and router
	rateService := rate.NewService(rateCache, rateRepo, feedClient, pendingRepo, subscriberRepo, scheduler)
	rateHandler := handler.NewRateHandler(rateService)
	router := api.NewRouter(rateHandler)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop the monitor and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
