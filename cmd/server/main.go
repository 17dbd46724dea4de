package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ispbill/backend/internal/bootstrap"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/logger"
	"github.com/ispbill/backend/internal/infrastructure/scheduler"
	"github.com/ispbill/backend/internal/interfaces/http/handler"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
	"github.com/ispbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	bootLog, err := logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry comes first so the application logger can tee into OTLP
	tel, err := bootstrap.NewTelemetry(ctx, cfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log, err := tel.Logger(cfg)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ISP billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.Billing.Timezone),
	)

	meter := tel.ServiceMeter()
	container, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Meter: meter})
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Error closing connections", zap.Error(err))
		}
	}()

	// Billing job scheduler (if enabled)
	jobHandler := handler.NewJobHandler(nil, nil)
	if cfg.Scheduler.Enabled {
		jobScheduler, cronTrigger, err := startScheduler(ctx, cfg, container, log)
		if err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := cronTrigger.Stop(stopCtx); err != nil {
				log.Error("Error stopping cron trigger", zap.Error(err))
			}
			if err := jobScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping billing scheduler", zap.Error(err))
			}
		}()
		jobHandler = handler.NewJobHandler(jobScheduler, cronTrigger)
	}

	// Setup validation
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	mode := gin.DebugMode
	if cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           mode,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS: middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:  meter,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	healthHandler := handler.NewHealthHandler(container.DB)
	engine.GET("/health", healthHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(healthHandler).
		Register(handler.NewCustomerHandler(container.Customers, container.Location)).
		Register(handler.NewInvoiceHandler(container.Invoices)).
		Register(handler.NewPaymentHandler(container.Payments)).
		Register(handler.NewExpenseIncomeHandler(container.Finance)).
		Register(handler.NewReportHandler(container.Summary, container.Location)).
		Register(handler.NewArchiveHandler(container.Archive)).
		Register(jobHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// startScheduler starts the worker pool and the cron trigger that feeds it
func startScheduler(ctx context.Context, cfg *config.Config, container *bootstrap.Container, log *zap.Logger) (*scheduler.Scheduler, *scheduler.CronTrigger, error) {
	schedulerConfig := scheduler.DefaultSchedulerConfig()
	schedulerConfig.Enabled = cfg.Scheduler.Enabled
	schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
	schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
	schedulerConfig.RetryAttempts = cfg.Scheduler.RetryAttempts
	schedulerConfig.RetryDelay = cfg.Scheduler.RetryDelay

	jobScheduler, err := scheduler.NewScheduler(schedulerConfig, container.Executor, log.Named("scheduler"))
	if err != nil {
		return nil, nil, err
	}
	if err := jobScheduler.Start(ctx); err != nil {
		return nil, nil, err
	}

	day, hour, minute, err := scheduler.ParseMonthlySchedule(cfg.Scheduler.InvoiceCronSchedule)
	if err != nil {
		_ = jobScheduler.Stop(ctx)
		return nil, nil, err
	}
	triggerConfig := scheduler.DefaultCronTriggerConfig()
	triggerConfig.SummaryRefreshInterval = cfg.Scheduler.SummaryRefreshInterval
	triggerConfig.InvoiceDay = day
	triggerConfig.InvoiceHour = hour
	triggerConfig.InvoiceMinute = minute
	triggerConfig.Location = container.Location

	cronTrigger := scheduler.NewCronTrigger(triggerConfig, jobScheduler, log.Named("cron"))
	if err := cronTrigger.Start(ctx); err != nil {
		_ = jobScheduler.Stop(ctx)
		return nil, nil, err
	}

	log.Info("Billing scheduler started",
		zap.Int("max_concurrent_jobs", schedulerConfig.MaxConcurrentJobs),
		zap.Duration("job_timeout", schedulerConfig.JobTimeout),
		zap.String("invoice_schedule", cfg.Scheduler.InvoiceCronSchedule),
		zap.Duration("summary_refresh_interval", cfg.Scheduler.SummaryRefreshInterval),
	)
	return jobScheduler, cronTrigger, nil
}
