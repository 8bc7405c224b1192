package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dmehra2102/agro-marketplace/pkg/tracing"
)

// NewMessage marshals payload and captures the caller's trace context so the
// relay can continue the trace when the event is published.
func NewMessage(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return Message{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       raw,
		Headers:       map[string]string{"source": "marketplace"},
		Traceparent:   carrier[tracing.TraceparentHeader],
	}, nil
}
