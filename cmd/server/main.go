package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/relaydesk/relaydesk/internal/application/repository/cache"
	"github.com/relaydesk/relaydesk/internal/application/repository/history"
	"github.com/relaydesk/relaydesk/internal/application/repository/usercontext"
	"github.com/relaydesk/relaydesk/internal/application/service/channel"
	"github.com/relaydesk/relaydesk/internal/application/service/crm"
	"github.com/relaydesk/relaydesk/internal/application/service/nlp"
	"github.com/relaydesk/relaydesk/internal/application/service/pipeline"
	"github.com/relaydesk/relaydesk/internal/application/service/responder"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/handler"
	"github.com/relaydesk/relaydesk/internal/logger"
	"github.com/relaydesk/relaydesk/internal/router"
	"github.com/relaydesk/relaydesk/internal/types"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf(context.Background(), "failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.Errorf(ctx, "failed to open database: %v", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&types.HistoryEntry{}, &types.UserContext{}); err != nil {
		logger.Errorf(ctx, "failed to migrate database: %v", err)
		os.Exit(1)
	}

	cacheStore := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	crmGateway := crm.NewSalesforce(cfg.Salesforce, cacheStore)

	pipe := pipeline.New(
		nlp.NewClassifier(nil),
		nlp.NewEscalationPolicy(cfg.Conversation.ConfidenceThreshold),
		responder.NewGenerator(nil),
		usercontext.NewRepository(db),
		history.NewRepository(db),
		cacheStore,
		crmGateway,
		pipeline.Options{
			FrequentThreshold: cfg.Conversation.FrequentThreshold,
			FrequentTTL:       cfg.Conversation.FrequentTTL,
			CounterTTL:        cfg.Conversation.CounterTTL,
			ContextTTL:        cfg.Conversation.ContextTTL,
		},
	)

	slackSender := channel.NewSlackSender(cfg.Slack.BotToken, cfg.Slack.AdminChannel)
	whatsappSender := channel.NewWhatsAppSender(
		cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cacheStore)

	engine := router.New(
		handler.NewChatHandler(pipe, cfg.Conversation.MaxMessageLength),
		handler.NewWebhookHandler(pipe, slackSender, whatsappSender, cfg.Slack.SigningSecret),
		handler.NewHealthHandler(db, cacheStore, cfg.Salesforce.Configured(), slackSender.Enabled(), version),
	)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: engine,
	}

	go func() {
		logger.Info(ctx, "listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(shutdownCtx, "graceful shutdown failed: %v", err)
	}
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	default:
		return gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	}
}
