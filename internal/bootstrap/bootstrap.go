// Package bootstrap holds the wiring shared by the api and worker binaries.
package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/barber-api/internal/config"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/internal/repository/postgres"
	calendarService "github.com/jwalitptl/barber-api/internal/service/calendar"
	eventService "github.com/jwalitptl/barber-api/internal/service/event"
	settlementService "github.com/jwalitptl/barber-api/internal/service/settlement"
	"github.com/jwalitptl/barber-api/internal/service/statusclock"
	"github.com/jwalitptl/barber-api/pkg/clock"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/messaging"
	"github.com/jwalitptl/barber-api/pkg/messaging/kafka"
	"github.com/jwalitptl/barber-api/pkg/messaging/redis"
	"github.com/jwalitptl/barber-api/pkg/metrics"
	"github.com/jwalitptl/barber-api/pkg/worker"
)

func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Format == "json",
	})
}

// NewBroker opens the broker selected by events.broker. "none" keeps events in memory.
func NewBroker(events config.EventsConfig, redisCfg config.RedisConfig, kafkaCfg config.KafkaConfig, log *logger.Logger) (messaging.Broker, error) {
	switch events.Broker {
	case "redis":
		return redis.NewRedisBroker(redis.Config{
			URL:          redisCfg.URL,
			MaxRetries:   redisCfg.MaxRetries,
			RetryBackoff: redisCfg.RetryBackoff,
			PoolSize:     redisCfg.PoolSize,
			MinIdleConns: redisCfg.MinIdleConns,
		}, log.WithComponent("redis").Zerolog())
	case "kafka":
		return kafka.NewKafkaBroker(kafka.Config{
			Brokers: kafkaCfg.Brokers,
		}, log.WithComponent("kafka").Zerolog())
	case "none", "":
		return messaging.NewMemoryBroker(), nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", events.Broker)
	}
}

// Core is the part of the object graph both binaries need: storage, the outbox emitter,
// settlement and the status clock.
type Core struct {
	Tx           repository.Transactor
	Shops        repository.ShopRepository
	Services     repository.ServiceRepository
	Calendar     *calendarService.Service
	Appointments repository.AppointmentRepository
	Blackouts    repository.BlackoutRepository
	Outbox       repository.OutboxRepository
	Events       *eventService.EventService
	Settlement   *settlementService.Service
	StatusClock  *statusclock.Service
	Clock        clock.Clock
	Metrics      *metrics.Metrics
}

type CoreConfig struct {
	CalendarTTL     time.Duration
	CleanupInterval time.Duration
	SweepBatch      int
	DefaultRate     float64
}

func NewCore(db *sqlx.DB, cfg CoreConfig, m *metrics.Metrics, log *logger.Logger) *Core {
	clk := clock.NewRealClock()
	tx := postgres.NewTransactor(db)
	shops := postgres.NewShopRepository(db)
	appointments := postgres.NewAppointmentRepository(db)
	outbox := postgres.NewOutboxRepository(db)
	events := eventService.NewEventService(outbox, clk)
	services := postgres.NewServiceRepository(db)
	calendar := calendarService.NewService(shops, postgres.NewCalendarRepository(db), cfg.CalendarTTL, cfg.CleanupInterval)

	fallback := decimal.NewFromFloat(cfg.DefaultRate)
	settlement := settlementService.NewService(settlementService.Deps{
		Tx:           tx,
		Appointments: appointments,
		Sales:        postgres.NewSaleRepository(db),
		Commissions:  postgres.NewCommissionRepository(db),
		Rules:        postgres.NewCommissionRuleRepository(db),
		Services:     services,
		Shops:        calendar,
		Events:       events,
		Clock:        clk,
		Metrics:      m,
		Logger:       log.WithComponent("settlement"),
		FallbackRate: &fallback,
	})

	return &Core{
		Tx:           tx,
		Shops:        shops,
		Services:     services,
		Calendar:     calendar,
		Appointments: appointments,
		Blackouts:    postgres.NewBlackoutRepository(db),
		Outbox:       outbox,
		Events:       events,
		Settlement:   settlement,
		StatusClock: statusclock.NewService(tx, appointments, settlement, events, m,
			log.WithComponent("statusclock"), cfg.SweepBatch),
		Clock:   clk,
		Metrics: m,
	}
}

func OutboxConfig(cfg config.OutboxConfig, events config.EventsConfig) worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		TopicPrefix:   events.TopicPrefix,
	}
}
