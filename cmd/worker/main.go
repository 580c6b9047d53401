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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/barber-api/internal/bootstrap"
	"github.com/jwalitptl/barber-api/internal/config"
	"github.com/jwalitptl/barber-api/internal/handler/health"
	promHandler "github.com/jwalitptl/barber-api/internal/handler/prometheus"
	"github.com/jwalitptl/barber-api/internal/repository/postgres"
	sweeper "github.com/jwalitptl/barber-api/internal/worker"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/messaging"
	"github.com/jwalitptl/barber-api/pkg/metrics"
	"github.com/jwalitptl/barber-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load worker configuration: %v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg.Log)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := bootstrap.NewBroker(cfg.Events, cfg.Redis, cfg.Kafka, log)
	if err != nil {
		log.Fatal(err, "failed to create message broker")
	}
	defer broker.Close()

	m := metrics.NewMetrics(cfg.Metrics.Namespace, "worker")
	core := bootstrap.NewCore(db, bootstrap.CoreConfig{
		CalendarTTL:     5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
		SweepBatch:      cfg.SweepBatch,
		DefaultRate:     cfg.DefaultCommissionRate,
	}, m, log)

	processor := worker.NewOutboxProcessor(core.Tx, core.Outbox, broker,
		bootstrap.OutboxConfig(cfg.Outbox, cfg.Events), log, m)
	statusSweeper := sweeper.NewStatusSweeper(core.StatusClock, core.Clock, cfg.SweepInterval,
		log, m)
	cleanup := worker.NewOutboxCleanupWorker(core.Outbox, cfg.Outbox.Retention, time.Hour, log)

	checks := map[string]health.Pinger{"database": db}
	if p, ok := broker.(messaging.Pinger); ok {
		checks["broker"] = health.PingFunc(p.Ping)
	}
	srv := metricsServer(cfg.MetricsPort, health.NewHandler(checks), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, start := range []func(context.Context){processor.Start, statusSweeper.Start, cleanup.Start} {
		wg.Add(1)
		go func(start func(context.Context)) {
			defer wg.Done()
			start(ctx)
		}(start)
	}
	log.Info("worker started", "sweep_interval", cfg.SweepInterval.String(), "broker", cfg.Events.Broker)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down...")

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "metrics server forced to shutdown")
	}
	log.Info("worker exited")
}

// metricsServer exposes /metrics and the health probes for the worker process.
func metricsServer(port int, healthH *health.Handler, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	healthH.RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", promHandler.New(prometheus.DefaultGatherer).Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "metrics server failed")
		}
	}()
	return srv
}
