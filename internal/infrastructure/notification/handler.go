package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// LogNoticeHandler records requested notices in the service log. It stands
// in for a mail or SMS gateway.
type LogNoticeHandler struct {
	logger *zap.Logger
}

// NewLogNoticeHandler creates a log-backed notice handler
func NewLogNoticeHandler(log *zap.Logger) *LogNoticeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNoticeHandler{logger: log.Named("notice")}
}

// EventTypes returns the notice event type
func (h *LogNoticeHandler) EventTypes() []string {
	return []string{EventTypeCustomerNoticeRequested}
}

// Handle logs the notice
func (h *LogNoticeHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	notice, ok := evt.(*CustomerNoticeRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", evt, EventTypeCustomerNoticeRequested)
	}

	fields := []zap.Field{
		zap.String("notice", notice.Kind),
		zap.String("fulfillment_order_id", notice.FulfillmentOrderID.String()),
		zap.String("order_number", notice.OrderNumber),
		zap.String("recipient", notice.CustomerEmail),
	}
	switch notice.Kind {
	case KindShipping:
		fields = append(fields,
			zap.String("tracking_number", notice.TrackingNumber),
			zap.String("carrier", notice.Carrier),
		)
	case KindIssue:
		fields = append(fields, zap.String("issue_description", notice.IssueDescription))
	}

	logger.WithLogger(ctx, h.logger).Info("Customer notice queued", fields...)
	return nil
}

// RegisterEvents registers the notice event with serializer
func RegisterEvents(serializer *event.EventSerializer) {
	serializer.Register(EventTypeCustomerNoticeRequested, &CustomerNoticeRequestedEvent{})
}

// noticeKey keys idempotency on the notice rather than the event envelope
func noticeKey(evt shared.DomainEvent) string {
	if notice, ok := evt.(*CustomerNoticeRequestedEvent); ok {
		return notice.Key()
	}
	return event.EventIDKey(evt)
}

// Subscribe wires a notice handler onto bus behind an idempotency check so
// that each notice reaches the customer at most once per TTL
func Subscribe(bus shared.EventSubscriber, handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) *event.IdempotentHandler {
	cfg := shared.DefaultIdempotencyConfig()
	if ttl > 0 {
		cfg.TTL = ttl
	}
	wrapped := event.NewIdempotentHandler(handler, store, log,
		event.WithIdempotencyConfig(cfg),
		event.WithKeyFunc(noticeKey),
	)
	bus.Subscribe(wrapped)
	return wrapped
}
