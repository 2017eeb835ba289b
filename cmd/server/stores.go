package main

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/config"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/postgres"
	"github.com/rcarvalho-pb/payment_notifier-go/internal/infrastructure/persistence/sqlite"
)

type stores struct {
	Payments payment.Repository
	Outbox   outbox.Repository
	Close    func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		return &stores{
			Payments: inmemory.NewPaymentRepository(),
			Outbox:   inmemory.NewOutboxRepository(),
			Close:    func() {},
		}, nil
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		return &stores{
			Payments: postgres.NewPaymentRepository(pool),
			Outbox:   postgres.NewOutboxRepository(pool),
			Close:    pool.Close,
		}, nil
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := sqlite.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	return &stores{
		Payments: sqlite.NewPaymentRepository(db),
		Outbox:   outbox.NewSQLiteRepository(db),
		Close:    func() { db.Close() },
	}, nil
}
