package memory

import (
	"context"
	"time"

	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

// Outbox lets the relay drain events enqueued in memory. Leases are not
// tracked because a single process owns the store.
type Outbox struct{ s *Store }

func (o *Outbox) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for len(o.s.delivery) < len(o.s.events) {
		o.s.delivery = append(o.s.delivery, outbox.StatusPending)
	}

	var out []outbox.Event
	for i, st := range o.s.delivery {
		if len(out) == batchSize {
			break
		}
		if st != outbox.StatusPending {
			continue
		}
		m := o.s.events[i]
		o.s.delivery[i] = outbox.StatusInProgress
		out = append(out, outbox.Event{
			ID:            int64(i + 1),
			AggregateType: m.AggregateType,
			AggregateID:   m.AggregateID,
			Type:          m.Type,
			Payload:       m.Payload,
			Headers:       m.Headers,
			Traceparent:   m.Traceparent,
			Status:        outbox.StatusInProgress,
			RelayID:       relayID,
		})
	}
	return out, nil
}

func (o *Outbox) MarkSent(ctx context.Context, ids []int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, id := range ids {
		o.s.delivery[id-1] = outbox.StatusSent
	}
	return nil
}

// MarkFailed drops the event; there is no retry budget in memory mode.
func (o *Outbox) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.delivery[id-1] = outbox.StatusFailed
	return nil
}

func (o *Outbox) MarkDead(ctx context.Context, id int64, errMsg string) error {
	return o.MarkFailed(ctx, id, errMsg)
}

func (o *Outbox) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	return nil
}
