package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	cartapp "github.com/dmehra2102/agro-marketplace/internal/cart/application"
	cartpg "github.com/dmehra2102/agro-marketplace/internal/cart/infrastructure/postgres"
	catalogapp "github.com/dmehra2102/agro-marketplace/internal/catalog/application"
	catalogkafka "github.com/dmehra2102/agro-marketplace/internal/catalog/infrastructure/kafka"
	catalogpg "github.com/dmehra2102/agro-marketplace/internal/catalog/infrastructure/postgres"
	checkoutapp "github.com/dmehra2102/agro-marketplace/internal/checkout/application"
	checkoutpg "github.com/dmehra2102/agro-marketplace/internal/checkout/infrastructure/postgres"
	"github.com/dmehra2102/agro-marketplace/internal/config"
	modapp "github.com/dmehra2102/agro-marketplace/internal/moderation/application"
	moddomain "github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	modpg "github.com/dmehra2102/agro-marketplace/internal/moderation/infrastructure/postgres"
	orderapp "github.com/dmehra2102/agro-marketplace/internal/order/application"
	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	orderpg "github.com/dmehra2102/agro-marketplace/internal/order/infrastructure/postgres"
	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
	"github.com/dmehra2102/agro-marketplace/internal/storage/memory"
	"github.com/dmehra2102/agro-marketplace/pkg/idempotency"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

// backend is every port the services need, bound to one storage mode.
type backend struct {
	catalog   catalogapp.Catalog
	carts     cartapp.CartRepository
	committer checkoutapp.Committer
	orders    orderapp.OrderRepository
	reports   modapp.ReportRepository
	outbox    outbox.Store
	dispatch  outbox.EventDispatcher
	idem      *idempotency.Store
	consumer  *catalogkafka.Consumer
	closers   []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func topics(cfg config.Config) map[string]string {
	return map[string]string{
		orderdomain.AggregateType: cfg.OrderTopic,
		moddomain.AggregateType:   cfg.ModerationTopic,
	}
}

// memoryBackend needs no external services. Moderation events loop straight
// back into the catalog consumer; order events are acknowledged and dropped.
func memoryBackend(log *slog.Logger, cfg config.Config) (*backend, error) {
	store := memory.NewStore()
	if cfg.SeedProducts != "" {
		f, err := os.Open(cfg.SeedProducts)
		if err != nil {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		n, err := store.Seed(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		log.Info("seeded products", "count", n)
	}

	consumer := catalogkafka.NewConsumer(log, nil, catalogapp.NewModeration(log, store.Catalog()), nil)
	return &backend{
		catalog:   store.Catalog(),
		carts:     store.Carts(),
		committer: store.Committer(),
		orders:    store.Orders(),
		reports:   store.Reports(),
		outbox:    store.Outbox(),
		dispatch:  outbox.NewDispatcher(log, consumer.Loopback(cfg.ModerationTopic), topics(cfg)),
	}, nil
}

func postgresBackend(ctx context.Context, log *slog.Logger, cfg config.Config) (*backend, error) {
	b := &backend{}
	pool, err := pg.Connect(ctx, cfg.PGURL)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, pool.Close)
	if err := pg.Migrate(ctx, log, pool); err != nil {
		b.close()
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	b.closers = append(b.closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		b.close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	b.idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	writer := outbox.NewKafkaWriter(cfg.KafkaBrokers)
	b.closers = append(b.closers, func() { _ = writer.Close() })

	catalog := catalogpg.NewRepository(log, pool)
	b.catalog = catalog
	b.carts = cartpg.NewRepository(log, pool)
	b.committer = checkoutpg.NewCommitter(log, pool)
	b.orders = orderpg.NewRepository(log, pool)
	b.reports = modpg.NewRepository(log, pool)
	b.outbox = outbox.NewPostgresStore(log, pool, 10)
	b.dispatch = outbox.NewDispatcher(log, writer, topics(cfg))

	reader := catalogkafka.NewReader(cfg.KafkaBrokers, cfg.ModerationTopic, cfg.ConsumerGroup)
	b.consumer = catalogkafka.NewConsumer(log, reader, catalogapp.NewModeration(log, catalog), b.idem)
	return b, nil
}
