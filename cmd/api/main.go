package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/barber-api/internal/bootstrap"
	"github.com/jwalitptl/barber-api/internal/config"
	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/handler/appointment"
	"github.com/jwalitptl/barber-api/internal/handler/blackout"
	"github.com/jwalitptl/barber-api/internal/handler/calendar"
	clockHandler "github.com/jwalitptl/barber-api/internal/handler/clock"
	"github.com/jwalitptl/barber-api/internal/handler/health"
	"github.com/jwalitptl/barber-api/internal/handler/settlement"
	"github.com/jwalitptl/barber-api/internal/handler/slot"
	"github.com/jwalitptl/barber-api/internal/middleware"
	"github.com/jwalitptl/barber-api/internal/repository/postgres"
	"github.com/jwalitptl/barber-api/internal/router"
	appointmentService "github.com/jwalitptl/barber-api/internal/service/appointment"
	blackoutService "github.com/jwalitptl/barber-api/internal/service/blackout"
	slotService "github.com/jwalitptl/barber-api/internal/service/slot"
	sweeper "github.com/jwalitptl/barber-api/internal/worker"
	"github.com/jwalitptl/barber-api/pkg/auth"
	"github.com/jwalitptl/barber-api/pkg/messaging"
	"github.com/jwalitptl/barber-api/pkg/metrics"
	"github.com/jwalitptl/barber-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg.Log)
	if cfg.Auth.JWTSecret == "" {
		log.Fatal(errors.New("auth.jwt_secret is empty"), "refusing to start without a signing secret")
	}
	if err := middleware.RegisterBindingValidators(); err != nil {
		log.Fatal(err, "failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics(cfg.Monitoring.Namespace, "")
	core := bootstrap.NewCore(db, bootstrap.CoreConfig{
		CalendarTTL:     cfg.Cache.CalendarTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
		SweepBatch:      cfg.Worker.SweepBatch,
		DefaultRate:     cfg.Scheduling.DefaultCommissionRate,
	}, m, log)

	policy, err := slotService.PolicyFromConfig(cfg.Scheduling)
	if err != nil {
		log.Fatal(err, "invalid scheduling configuration")
	}
	slotSvc := slotService.NewService(core.Calendar, core.Blackouts, core.Appointments, policy, m)
	blackoutSvc := blackoutService.NewService(core.Blackouts, core.Calendar)
	appointmentSvc := appointmentService.NewService(appointmentService.Deps{
		Tx:       core.Tx,
		Repo:     core.Appointments,
		Services: core.Services,
		Slots:    slotSvc,
		Settler:  core.Settlement,
		Advancer: core.StatusClock,
		Events:   core.Events,
		Clock:    core.Clock,
		Metrics:  m,
		Logger:   log.WithComponent("appointment"),
	})

	broker, err := bootstrap.NewBroker(cfg.Events, cfg.Redis, cfg.Kafka, log)
	if err != nil {
		log.Fatal(err, "failed to create message broker")
	}
	defer broker.Close()

	checks := map[string]health.Pinger{"database": db}
	if p, ok := broker.(messaging.Pinger); ok {
		checks["broker"] = health.PingFunc(p.Ping)
	}

	tokens := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		health.NewHandler(checks),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        cfg.RateLimit.RequestsPerSecond,
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
			CORSConfig:       corsConfig,
			MetricsPrefix:    cfg.Monitoring.Namespace + "_http",
			MetricsPath:      cfg.Monitoring.MetricsPath,
			Registerer:       prometheus.DefaultRegisterer,
			Gatherer:         prometheus.DefaultGatherer,
			Logger:           log.WithComponent("http"),
		},
		[]handler.ShopHandler{
			calendar.NewHandler(core.Calendar),
			slot.NewHandler(slotSvc, cfg.Scheduling.AvailabilityStep),
			appointment.NewHandler(appointmentSvc, core.Settlement),
			blackout.NewHandler(blackoutSvc),
			settlement.NewHandler(core.Settlement),
			clockHandler.NewHandler(core.StatusClock, core.Clock),
		}...,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Worker.Embedded {
		processor := worker.NewOutboxProcessor(core.Tx, core.Outbox, broker,
			bootstrap.OutboxConfig(cfg.Outbox, cfg.Events), log, m)
		statusSweeper := sweeper.NewStatusSweeper(core.StatusClock, core.Clock, cfg.Worker.SweepInterval,
			log, m)
		cleanup := worker.NewOutboxCleanupWorker(core.Outbox, cfg.Outbox.Retention, time.Hour, log)

		for _, start := range []func(context.Context){processor.Start, statusSweeper.Start, cleanup.Start} {
			wg.Add(1)
			go func(start func(context.Context)) {
				defer wg.Done()
				start(ctx)
			}(start)
		}
		log.Info("embedded workers started")
	}

	go func() {
		log.Info("http server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
	}

	cancel()
	wg.Wait()
	log.Info("server exited properly")
}
