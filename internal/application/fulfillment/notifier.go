package fulfillment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// TrackingPendingPlaceholder is sent in place of a tracking number that is not yet known
const TrackingPendingPlaceholder = "Tracking pending"

// Notifier delivers customer notices. Delivery itself (email, SMS) lives
// outside this service; implementations should return quickly.
type Notifier interface {
	SendShippingNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, trackingNumber, carrier string) error
	SendDeliveryNotice(ctx context.Context, order *fulfillment.FulfillmentOrder) error
	SendIssueNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, description string) error
}

// NoticeKind identifies which customer notice a status triggers
type NoticeKind string

const (
	NoticeShipping NoticeKind = "shipping"
	NoticeDelivery NoticeKind = "delivery"
	NoticeIssue    NoticeKind = "issue"
)

// DispatchOutcome describes what happened to a notice
type DispatchOutcome string

const (
	DispatchNone       DispatchOutcome = "none"
	DispatchSent       DispatchOutcome = "sent"
	DispatchSuppressed DispatchOutcome = "suppressed"
	DispatchFailed     DispatchOutcome = "failed"
)

var noticeByStatus = map[fulfillment.Status]NoticeKind{
	fulfillment.StatusShipped:   NoticeShipping,
	fulfillment.StatusDelivered: NoticeDelivery,
	fulfillment.StatusIssue:     NoticeIssue,
}

// NoticeFor returns the notice a status triggers, if any
func NoticeFor(status fulfillment.Status) (NoticeKind, bool) {
	kind, ok := noticeByStatus[status]
	return kind, ok
}

// NotificationDispatcher sends at most one notice per committed transition.
// Dispatch never returns an error: failures and panics in the notifier are
// logged and counted.
type NotificationDispatcher struct {
	notifier Notifier
	logger   *zap.Logger
	metrics  *telemetry.FulfillmentMetrics
}

// NewNotificationDispatcher creates a dispatcher. A nil notifier suppresses every notice.
func NewNotificationDispatcher(notifier Notifier, logger *zap.Logger, metrics *telemetry.FulfillmentMetrics) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch sends the notice for order's current status. notifyCustomer nil
// means notify; an explicit false suppresses the notice.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, order *fulfillment.FulfillmentOrder, notifyCustomer *bool) (outcome DispatchOutcome) {
	kind, ok := NoticeFor(order.Status)
	if !ok {
		return DispatchNone
	}

	log := d.logger.With(
		zap.String("fulfillment_order_id", order.ID.String()),
		zap.String("status", order.Status.String()),
		zap.String("notice", string(kind)),
	)

	if d.notifier == nil || (notifyCustomer != nil && !*notifyCustomer) {
		log.Debug("Customer notice suppressed")
		d.metrics.RecordNotification(ctx, string(kind), telemetry.NotificationSuppressed)
		return DispatchSuppressed
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Customer notice panicked", zap.Any("panic", r))
			d.metrics.RecordNotification(ctx, string(kind), telemetry.NotificationFailed)
			outcome = DispatchFailed
		}
	}()

	if err := d.send(ctx, kind, order); err != nil {
		log.Error("Failed to send customer notice", zap.Error(err))
		d.metrics.RecordNotification(ctx, string(kind), telemetry.NotificationFailed)
		return DispatchFailed
	}

	log.Info("Customer notice sent")
	d.metrics.RecordNotification(ctx, string(kind), telemetry.NotificationSent)
	return DispatchSent
}

func (d *NotificationDispatcher) send(ctx context.Context, kind NoticeKind, order *fulfillment.FulfillmentOrder) error {
	switch kind {
	case NoticeShipping:
		tracking := order.TrackingNumber
		if tracking == "" {
			tracking = TrackingPendingPlaceholder
		}
		return d.notifier.SendShippingNotice(ctx, order, tracking, order.Carrier)
	case NoticeDelivery:
		return d.notifier.SendDeliveryNotice(ctx, order)
	case NoticeIssue:
		return d.notifier.SendIssueNotice(ctx, order, order.IssueDescription)
	default:
		return fmt.Errorf("unknown notice kind %q", kind)
	}
}
