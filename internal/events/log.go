// Package events delivers domain events to observers. The only built-in
// publisher writes them to the structured log; delivery is fire-and-forget and
// never reports back to the caller.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/avetra/sales-api/internal/domain/sale"
)

// LogPublisher implements sale.Publisher by logging each event with its name
// and payload.
type LogPublisher struct {
	lg *zap.Logger
}

// NewLogPublisher creates a publisher writing to lg.
func NewLogPublisher(lg *zap.Logger) *LogPublisher {
	return &LogPublisher{lg: lg.Named("events")}
}

// Publish logs the event. Failures to deliver are invisible to the caller.
func (p *LogPublisher) Publish(_ context.Context, ev sale.Event) {
	p.lg.Info("domain event",
		zap.String("event", ev.EventName()),
		zap.Any("payload", ev),
	)
}
