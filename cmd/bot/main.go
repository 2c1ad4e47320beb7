package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/worachai/stock-tracker-bot/internal/alerts"
	"github.com/worachai/stock-tracker-bot/internal/api"
	"github.com/worachai/stock-tracker-bot/internal/config"
	"github.com/worachai/stock-tracker-bot/internal/database"
	"github.com/worachai/stock-tracker-bot/internal/finnhub"
	"github.com/worachai/stock-tracker-bot/internal/kafka"
	"github.com/worachai/stock-tracker-bot/internal/marketaux"
	"github.com/worachai/stock-tracker-bot/internal/portfolio"
	"github.com/worachai/stock-tracker-bot/internal/scheduler"
	"github.com/worachai/stock-tracker-bot/internal/session"
	"github.com/worachai/stock-tracker-bot/internal/telegram"
)

const initialAlertDelay = 5 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}
	log.Info("database ready")

	// Session store: Redis when configured, in-process otherwise
	var sessionStore session.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		sessionStore = session.NewRedisStore(client, cfg.Alerts.SessionTTL)
		log.Infow("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		sessionStore = session.NewMemoryStore(cfg.Alerts.SessionTTL)
		log.Info("using in-memory session store")
	}

	// Core engines
	engine := portfolio.NewEngine(db)
	sessions := session.NewManager(sessionStore, engine)
	quotes := finnhub.NewClient(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey)
	news := marketaux.NewClient(cfg.Marketaux.BaseURL, cfg.Marketaux.APIKey)
	sender := telegram.NewSender(telegram.DefaultBaseURL, cfg.Telegram.BotToken)

	// Alert event bus: the alert engine publishes to Kafka, the
	// consumer delivers to Telegram.
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, sender, log)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Errorw("alert consumer stopped", "error", err)
		}
	}()

	alertEngine := alerts.New(db, quotes, producer,
		cfg.Alerts.ThresholdPercent, cfg.Alerts.FetchPacing, log)
	sched := scheduler.New(cfg.Alerts.CheckInterval, initialAlertDelay, alertEngine.RunCycle, log)
	go sched.Start(ctx)
	log.Infow("alert cycle scheduled",
		"interval", cfg.Alerts.CheckInterval, "threshold_percent", cfg.Alerts.ThresholdPercent)

	// HTTP command surface
	handler := api.NewHandler(db, engine, sessions, quotes, news, cfg.Alerts.NewsLimit, log)
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: api.SetupRoutes(handler),
	}

	go func() {
		log.Infow("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown failed", "error", err)
	}
}

func runMigrations(connStr string) error {
	m, err := migrate.New("file://db/migrations", connStr)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
