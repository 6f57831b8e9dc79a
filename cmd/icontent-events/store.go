package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/event"
	"github.com/icontent-lms/go-icontent/eventlog"
	icontentfirestore "github.com/icontent-lms/go-icontent/firestore"
	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/opentelemetry"
	"github.com/icontent-lms/go-icontent/postgres"
)

type backend struct {
	store  event.Store
	legacy eventlog.LegacyWriter
	close  func()
}

func openBackend(ctx context.Context, config *Config, tel telemetry, log logger.Logger) (backend, error) {
	b, err := openStore(ctx, config, log)
	if err != nil {
		return backend{}, err
	}

	instrumented, err := opentelemetry.NewInstrumentedEventStore(b.store,
		opentelemetry.WithTracerProvider(tel.tracerProvider),
		opentelemetry.WithMeterProvider(tel.meterProvider),
		opentelemetry.WithAttributes(opentelemetry.DriverAttribute.String(config.Store.Driver)),
	)
	if err != nil {
		b.close()
		return backend{}, fmt.Errorf("main: failed to instrument event store, %w", err)
	}

	b.store = instrumented

	return b, nil
}

func openStore(ctx context.Context, config *Config, log logger.Logger) (backend, error) {
	switch config.Store.Driver {
	case DriverPostgres:
		if err := postgres.RunMigrations(config.Postgres.DSN); err != nil {
			return backend{}, fmt.Errorf("main: failed to run migrations, %w", err)
		}

		pool, err := pgxpool.New(ctx, config.Postgres.DSN)
		if err != nil {
			return backend{}, fmt.Errorf("main: failed to connect to postgres, %w", err)
		}

		logger.Info(log, "main: using postgres event store")

		return backend{
			store:  postgres.EventStore{Conn: pool, Serde: activity.NewJSONSerde()},
			legacy: postgres.LegacyLog{Conn: pool},
			close:  pool.Close,
		}, nil

	case DriverFirestore:
		client, err := firestore.NewClient(ctx, config.Firestore.ProjectID)
		if err != nil {
			return backend{}, fmt.Errorf("main: failed to create firestore client, %w", err)
		}

		logger.Info(log, "main: using firestore event store",
			logger.With("project", config.Firestore.ProjectID),
			logger.With("prefix", config.Firestore.Prefix),
		)

		return backend{
			store: icontentfirestore.EventStore{
				Client: client,
				Serde:  activity.NewJSONSerde(),
				Prefix: config.Firestore.Prefix,
			},
			legacy: new(eventlog.InMemoryLegacyLog),
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn(log, "main: failed to close firestore client", logger.Err(err))
				}
			},
		}, nil

	default:
		logger.Info(log, "main: using in-memory event store")

		return backend{
			store:  event.NewInMemoryStore(),
			legacy: new(eventlog.InMemoryLegacyLog),
			close:  func() {},
		}, nil
	}
}
