// Package integration starts the containers used by tests built with the
// "integration" tag.
package integration

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
	"github.com/dmehra2102/agro-marketplace/pkg/logging"
)

const startupTimeout = 2 * time.Minute

type Postgres struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	URL       string
}

// StartPostgres runs a throwaway database with the schema applied.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("marketplace"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout),
		),
	)
	if err != nil {
		return nil, err
	}
	url, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, err
	}
	pool, err := pg.Connect(ctx, url)
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, err
	}
	if err := pg.Migrate(ctx, logging.New("error"), pool); err != nil {
		pool.Close()
		_ = c.Terminate(context.Background())
		return nil, err
	}
	return &Postgres{Container: c, Pool: pool, URL: url}, nil
}

func (p *Postgres) Teardown(ctx context.Context) {
	p.Pool.Close()
	_ = p.Container.Terminate(ctx)
}

type Kafka struct {
	Container *kafka.KafkaContainer
	Brokers   []string
}

func StartKafka(ctx context.Context) (*Kafka, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	c, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("marketplace-test"),
	)
	if err != nil {
		return nil, err
	}
	brokers, err := c.Brokers(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		return nil, err
	}
	return &Kafka{Container: c, Brokers: brokers}, nil
}

func (k *Kafka) Teardown(ctx context.Context) {
	_ = k.Container.Terminate(ctx)
}
