package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	moddomain "github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/idempotency"
	"github.com/dmehra2102/agro-marketplace/pkg/tracing"
)

type Delister interface {
	Delist(ctx context.Context, productID, reportID string) error
}

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer applies moderation outcomes to the catalog.
type Consumer struct {
	log    *slog.Logger
	reader Reader
	delist Delister
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, delist Delister, idem *idempotency.Store) *Consumer {
	return &Consumer{
		log:    log,
		reader: reader,
		delist: delist,
		idem:   idem,
		tracer: otel.Tracer("catalog-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			c.log.Error("moderation event failed", "offset", msg.Offset, "err", err)
			// Let a redelivery try again.
			_ = c.idem.Release(ctx, key)
			continue
		}
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

// handle returns an error only for failures worth retrying; malformed and
// irrelevant messages are logged and acknowledged.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	if tracing.HeaderValue(msg.Headers, "event_type") != moddomain.EventReportResolved {
		return nil
	}
	ctx = tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "ConsumeReportResolved")
	defer span.End()

	var ev moddomain.ReportResolved
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.log.Error("unmarshal failed", "err", err)
		return nil
	}
	span.SetAttributes(attribute.String("report.id", ev.ReportID))
	if !ev.DelistProduct || ev.TargetType != moddomain.TargetProduct {
		return nil
	}
	err := c.delist.Delist(ctx, ev.TargetID, ev.ReportID)
	if apperr.CodeOf(err) == apperr.CodeProductRemoved {
		c.log.Info("delist skipped, product gone", "product_id", ev.TargetID, "report_id", ev.ReportID)
		return nil
	}
	return err
}

// Loopback hands dispatched messages for one topic straight to the consumer.
// It replaces the broker when the service runs on the in-memory store.
type Loopback struct {
	c     *Consumer
	topic string
}

func (c *Consumer) Loopback(topic string) *Loopback {
	return &Loopback{c: c, topic: topic}
}

func (l *Loopback) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if m.Topic != l.topic {
			continue
		}
		if err := l.c.handle(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
