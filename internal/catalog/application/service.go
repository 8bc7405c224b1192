package application

import (
	"context"
	"log/slog"
)

// Moderation applies catalog side effects of resolved reports.
type Moderation struct {
	log   *slog.Logger
	items AvailabilityWriter
}

func NewModeration(log *slog.Logger, items AvailabilityWriter) *Moderation {
	return &Moderation{log: log, items: items}
}

// Delist hides a product from sale without touching its stock.
func (m *Moderation) Delist(ctx context.Context, productID, reportID string) error {
	if err := m.items.SetAvailable(ctx, productID, false); err != nil {
		return err
	}
	m.log.Info("product delisted by moderation", "product_id", productID, "report_id", reportID)
	return nil
}
