package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// AuditHandler writes every published event to the log as JSON so that
// operators can follow an order's lifecycle alongside the request logs
type AuditHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(serializer *EventSerializer, log *zap.Logger) *AuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditHandler{
		serializer: serializer,
		logger:     log.Named("audit"),
	}
}

// EventTypes subscribes to all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle logs the event payload
func (h *AuditHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	log := logger.WithLogger(ctx, h.logger)

	if !h.serializer.IsRegistered(evt.EventType()) {
		log.Warn("Unregistered event type published", zap.String("event_type", evt.EventType()))
	}

	payload, err := h.serializer.Serialize(evt)
	if err != nil {
		return err
	}

	log.Info("Domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
		zap.Reflect("payload", json.RawMessage(payload)),
	)
	return nil
}

var _ shared.EventHandler = (*AuditHandler)(nil)
