package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acadwell/wellness-bot/internal/alerting"
	"github.com/acadwell/wellness-bot/internal/analysis"
	"github.com/acadwell/wellness-bot/internal/api"
	"github.com/acadwell/wellness-bot/internal/config"
	"github.com/acadwell/wellness-bot/internal/lexicon"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/acadwell/wellness-bot/internal/monitoring"
	"github.com/acadwell/wellness-bot/internal/notifications"
	"github.com/acadwell/wellness-bot/internal/scheduler"
	"github.com/acadwell/wellness-bot/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting wellness bot")

	ctx := context.Background()

	var lex *lexicon.Lexicon
	if cfg.LexiconPath != "" {
		lex, err = lexicon.Load(cfg.LexiconPath)
		if err != nil {
			logrus.Fatalf("Failed to load lexicon: %v", err)
		}
		logrus.Infof("Loaded lexicon from %s", cfg.LexiconPath)
	}

	// Notifications always live in SQLite; history may be moved to blob storage
	sqliteStore, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		logrus.Fatalf("Failed to open SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	var history storage.HistoryStore = sqliteStore
	if cfg.HistoryBackend == "azure" {
		blobs, err := storage.NewAzureBlobStore(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		history = storage.NewBlobHistoryStore(blobs)
	}

	var throttle storage.ThrottleStore
	var pruner scheduler.Pruner
	switch cfg.ThrottleBackend {
	case "redis":
		redisStore, err := storage.NewRedisThrottleStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "wellbot:")
		if err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		throttle = redisStore
	default:
		memoryStore := storage.NewMemoryThrottleStore()
		throttle = memoryStore
		pruner = memoryStore
	}

	notificationService := notifications.NewService(cfg, sqliteStore)

	staff, err := monitoring.NewStaticDirectory(cfg.StaffContacts)
	if err != nil {
		logrus.Fatalf("Invalid STAFF_CONTACTS: %v", err)
	}

	router, err := alerting.NewRouter(throttle, alertingConfig(cfg))
	if err != nil {
		logrus.Fatalf("Invalid alert throttling: %v", err)
	}

	monitoringService, err := monitoring.NewService(cfg, monitoring.Dependencies{
		Analyzer:   analysis.NewAnalyzer(lex),
		Router:     router,
		History:    history,
		Dispatcher: notificationService,
		Inbox:      notificationService,
		Staff:      staff,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize monitoring: %v", err)
	}

	schedulerService, err := scheduler.NewService(cfg, monitoringService, pruner)
	if err != nil {
		logrus.Fatalf("Failed to initialize scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	handler := api.NewServer(monitoringService, notificationService, monitoringService.Metrics().Handler()).Router()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Alerts already routed must still reach staff
	monitoringService.Wait()

	logrus.Info("Server exited")
}

func alertingConfig(cfg *config.Config) alerting.Config {
	ac := alerting.DefaultConfig()
	ac.Windows = map[models.Level]time.Duration{
		models.LevelRed:    cfg.RedThrottle,
		models.LevelOrange: cfg.OrangeThrottle,
		models.LevelYellow: cfg.YellowThrottle,
	}
	ac.EmailWindow = cfg.EmailThrottle
	if cfg.DashboardBaseURL != "" {
		ac.DashboardBaseURL = cfg.DashboardBaseURL
	}
	return ac
}
