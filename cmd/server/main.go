package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/travel-backoffice/internal/config"
	"github.com/iliyamo/travel-backoffice/internal/database"
	"github.com/iliyamo/travel-backoffice/internal/handler"
	"github.com/iliyamo/travel-backoffice/internal/logging"
	"github.com/iliyamo/travel-backoffice/internal/middleware"
	"github.com/iliyamo/travel-backoffice/internal/printing"
	"github.com/iliyamo/travel-backoffice/internal/queue"
	"github.com/iliyamo/travel-backoffice/internal/repository"
	"github.com/iliyamo/travel-backoffice/internal/router"
	"github.com/iliyamo/travel-backoffice/internal/service"
)

func main() {
	// Load configuration from environment variables
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Failed to load .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger, logCloser, err := logging.New(cfg.App.LogLevel, cfg.App.LogFilePath)
	if err != nil {
		log.Fatalf("Error opening log output: %v", err)
	}
	defer logCloser.Close()
	zl := logger.Unwrap()
	loc := cfg.App.Location()

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		// The migrator owns the connection it wraps, so it is left open
		// here and released with db.
		migrator, err := database.NewMigrator(db, zl)
		if err != nil {
			logger.Fatalf("Error initializing db migrator: %v", err)
		}
		if err := migrator.Up(); err != nil {
			logger.Fatalf("Error migrating database: %v", err)
		}
	}

	// sentry init needs to happen before the echo middlewares are added
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			IgnoreErrors:     []string{"401", "403"},
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	// Without a RABBITMQ_URL activity events are only written to the database.
	var events service.EventPublisher = service.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher := service.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue, zl)
		defer amqpPublisher.Close()
		events = amqpPublisher
	}

	// ---- Repositories ----
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	reservations := repository.NewReservationRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	reports := repository.NewReportRepo(db)
	activity := repository.NewActivityLogRepo(db)
	dashboard := repository.NewDashboardRepo(db)

	// ---- Services ----
	deriver := service.NewSettlementDeriver(reports, activity, events, zl)
	reservationSvc := service.NewReservationService(reservations, activity, events, zl)
	invoiceSvc := service.NewInvoiceService(invoices, deriver, service.InvoiceDefaults{
		Fee:      cfg.Invoice.DefaultFee,
		DueDays:  cfg.Invoice.DefaultDueDays,
		Location: loc,
	}, cfg.Invoice.SettlementTimeout, zl)
	dashboardSvc := service.NewDashboardService(dashboard, reservations, loc)

	renderer := printing.NewChromeRenderer(printing.ChromeConfig{
		RemoteURL: cfg.PDF.ChromeURL,
		NoSandbox: cfg.PDF.NoSandbox,
		Timeout:   cfg.PDF.Timeout,
	}, zl)
	defer renderer.Close()
	var archive printing.Archive
	if cfg.S3.Enabled() {
		s3Archive, err := printing.NewS3Archive(context.Background(), cfg.S3)
		if err != nil {
			logger.Errorf("invoice archive disabled: %v", err)
		} else {
			archive = s3Archive
		}
	}
	printer := printing.NewInvoicePrinter(renderer, archive, printing.Letterhead{
		Company:  cfg.PDF.Company,
		Address:  cfg.PDF.Address,
		Phone:    cfg.PDF.Phone,
		Email:    cfg.PDF.Email,
		City:     cfg.PDF.City,
		BankInfo: cfg.PDF.BankInfo,
	}, loc, zl)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(cfg.App.BodyLimit))
	e.Use(echomw.RequestID())
	if cfg.Sentry.DSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}

	cache := middleware.NewResponseCache(cfg.Cache, rdb)
	authHandler := handler.NewAuthHandler(cfg.JWT, cfg.App.AllowRegistration, users, tokens)

	logMw := middleware.RequestLogger(logger)
	router.RegisterRoutes(e, db, logMw)
	router.RegisterAuth(e, authHandler, cfg.JWT.Secret, logMw)
	router.RegisterAPI(e, router.Handlers{
		Reservations: handler.NewReservationHandler(reservationSvc, cfg.Invoice.ReservationActor),
		Invoices:     handler.NewInvoiceHandler(invoiceSvc, printer, cfg.Invoice.PaidActor),
		Ledger:       handler.NewLedgerHandler(reports, activity),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
	}, router.Options{
		JWTSecret:     cfg.JWT.Secret,
		RateLimit:     cfg.RateLimit,
		Cache:         cache,
		Redis:         rdb,
		RequestLogger: logMw,
	})

	var backgroundWg sync.WaitGroup
	backgroundCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repair invoices whose reports were lost by a previous run.
	backgroundWg.Add(1)
	go func() {
		defer backgroundWg.Done()
		reconciler := service.NewReconciler(invoices, deriver, zl)
		reconciler.AfterRepair = cache.Purge
		res, err := reconciler.Run(backgroundCtx)
		if err != nil {
			logger.Errorf("startup reconciliation: %v", err)
			sentry.CaptureException(err)
			return
		}
		logger.Infof("startup reconciliation: checked=%d created=%d failed=%d", res.Checked, res.Created, res.Failed)
	}()

	if cfg.RabbitMQ.URL != "" && cfg.RabbitMQ.ConsumerEnabled {
		consumer := &queue.Consumer{
			URL:      cfg.RabbitMQ.URL,
			Queue:    cfg.RabbitMQ.ActivityQueue,
			Prefetch: cfg.RabbitMQ.Prefetch,
			Path:     cfg.App.ActivityLogPath,
			Logger:   zl,
		}
		backgroundWg.Add(1)
		go func() {
			defer backgroundWg.Done()
			if err := consumer.Run(backgroundCtx); err != nil {
				logger.Errorf("activity consumer: %v", err)
				sentry.CaptureException(err)
			}
			logger.Info("activity consumer done")
		}()
	}

	// Start server
	go func() {
		addr := ":" + cfg.App.Port
		logger.Infof("listening on %s (env=%s)", addr, cfg.App.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	<-backgroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	backgroundWg.Wait()
	logger.Info("travel back office exiting gracefully")
}
