package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/catalog"
	"bicycle_rental/internal/domain/rental"
	"bicycle_rental/internal/domain/telegram"
	"bicycle_rental/internal/infra/config"
	idb "bicycle_rental/internal/infra/database"
	"bicycle_rental/internal/infra/logger"
	"bicycle_rental/internal/infra/membership"
	"bicycle_rental/internal/infra/memory"
	"bicycle_rental/internal/infra/metrics"
	"bicycle_rental/internal/infra/scheduler"
	itelegram "bicycle_rental/internal/infra/telegram"
)

// storage is what both backends provide.
type storage interface {
	rental.Store
	catalog.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Storage
	var store storage
	var ping metrics.PingFunc
	switch cfg.StorageDriver {
	case config.StoragePostgres, config.StorageSQLite:
		var db *sqlx.DB
		if cfg.StorageDriver == config.StoragePostgres {
			db, err = idb.NewPostgresConnection(cfg.DatabaseURL)
		} else {
			db, err = idb.NewSQLiteConnection(cfg.SQLitePath)
		}
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		store = idb.NewStore(db)
		ping = db.PingContext
	case config.StorageMemory:
		mainLogger.Warn("Using in-memory storage; state is lost on shutdown")
		store = memory.NewStore()
	}
	mainLogger.WithField("driver", cfg.StorageDriver).Info("Storage initialized")

	members, err := membership.LoadFile(cfg.MembersFile)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not load members file")
	}
	mainLogger.WithField("members", members.Len()).Info("Members loaded")

	// Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not register metrics")
	}
	opts := []app.Option{app.WithMetrics(recorder)}

	// Initialize Services
	appLogger := logrus.NewEntry(logger.Log)
	membershipValidator := app.NewMembershipValidator(members, store, appLogger, opts...)
	availabilityChecker := app.NewAvailabilityChecker(store, appLogger)
	services := itelegram.Services{
		Rentals:         app.NewRentalService(store, membershipValidator, availabilityChecker, appLogger, opts...),
		Returns:         app.NewReturnService(store, appLogger, opts...),
		Recommendations: app.NewRecommendationService(store, appLogger, opts...),
		Overdue:         app.NewOverdueService(store, appLogger, opts...),
	}
	mainLogger.Info("Services initialized")

	// Initialize Telegram Bot
	var bot *telebot.Bot
	var notifier telegram.Client
	if cfg.BotEnabled() {
		botLogger := logger.Component("telegram")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil {
					entry = entry.WithField("sender_id", c.Sender().ID)
				}
				entry.Error("Telebot error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		itelegram.NewStaffHandlers(services, cfg, botLogger).Register(ctx, bot)
		notifier = itelegram.NewTelebotAdapter(bot)
		mainLogger.Info("Staff command handlers registered")
	} else {
		mainLogger.Info("TELEGRAM_TOKEN not set, staff bot disabled")
	}

	// Initialize OverdueScheduler
	overdueScheduler := scheduler.NewOverdueScheduler(
		services.Overdue,
		notifier,
		cfg.StaffTelegramID,
		cfg.CronSpecOverdueReport,
		logger.Component("scheduler"),
	)
	if err := overdueScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start overdue scheduler")
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, registry, ping)
		go func() {
			mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics endpoint listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics endpoint stopped")
			}
		}()
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	if bot != nil {
		go bot.Start()
	}
	mainLogger.Info("Application setup complete")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	overdueScheduler.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics endpoint did not shut down cleanly")
		}
	}
	mainLogger.Info("Application shut down gracefully")
}
