package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/iliyamo/travel-backoffice/internal/config"
	"github.com/iliyamo/travel-backoffice/internal/database"
	"github.com/iliyamo/travel-backoffice/internal/logging"
	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/repository"
	"github.com/iliyamo/travel-backoffice/internal/service"
)

// script to derive the reports and activity entries missing for invoices,
// e.g. when the server stopped between an invoice write and its derivation
func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Failed to load .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}
	logger, logCloser, err := logging.New(cfg.App.LogLevel, cfg.App.LogFilePath)
	if err != nil {
		log.Fatalf("Error opening log output: %v", err)
	}
	defer logCloser.Close()
	zl := logger.Unwrap()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.App.Env}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer db.Close()

	var events service.EventPublisher = service.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p := service.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue, zl)
		defer p.Close()
		events = p
	}

	deriver := service.NewSettlementDeriver(repository.NewReportRepo(db), repository.NewActivityLogRepo(db), events, zl)
	reconciler := service.NewReconciler(repository.NewInvoiceRepo(db), deriver, zl)
	// repaired Income reports change dashboard figures the server may have cached
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		reconciler.AfterRepair = middleware.NewResponseCache(cfg.Cache, rdb).Purge
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	res, err := reconciler.Run(ctx)
	if err != nil {
		sentry.CaptureException(err)
		logger.Errorf("reconciliation failed: %v", err)
		return 1
	}
	logger.Infof("reconciliation done: checked=%d created=%d failed=%d", res.Checked, res.Created, res.Failed)
	if res.Failed > 0 {
		return 1
	}
	return 0
}
