package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FulfillmentMetrics tracks fulfillment synchronization activity.
// A nil *FulfillmentMetrics is valid and records nothing.
type FulfillmentMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	transitionsTotal      *Counter
	transitionsRejected   *Counter
	trackingAttachedTotal *Counter
	notificationsTotal    *Counter
	transitionDuration    *Histogram
	ordersByStatus        *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup

	statusProvider StatusCountProvider
}

// StatusCountProvider reports how many fulfillment orders sit in each status.
type StatusCountProvider interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// FulfillmentMetricsConfig holds configuration for fulfillment metrics.
type FulfillmentMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	StatusProvider StatusCountProvider
}

// Notification outcomes for metrics labeling.
const (
	NotificationSent       = "sent"
	NotificationFailed     = "failed"
	NotificationSuppressed = "suppressed"
)

// NewFulfillmentMetrics creates a new FulfillmentMetrics instance.
func NewFulfillmentMetrics(cfg FulfillmentMetricsConfig) (*FulfillmentMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fm := &FulfillmentMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		statusProvider: cfg.StatusProvider,
	}

	var err error

	fm.transitionsTotal, err = NewCounter(cfg.Meter,
		"fulfillment_transitions_total",
		"Total number of committed fulfillment status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	fm.transitionsRejected, err = NewCounter(cfg.Meter,
		"fulfillment_transitions_rejected_total",
		"Total number of rejected fulfillment status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	fm.trackingAttachedTotal, err = NewCounter(cfg.Meter,
		"fulfillment_tracking_attached_total",
		"Total number of tracking attachments",
		"{attachments}",
	)
	if err != nil {
		return nil, err
	}

	fm.notificationsTotal, err = NewCounter(cfg.Meter,
		"fulfillment_notifications_total",
		"Total number of customer notices by outcome",
		"{notices}",
	)
	if err != nil {
		return nil, err
	}

	fm.transitionDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "fulfillment_transition_duration_seconds",
		Description: "Duration of the fulfillment transition transaction",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	fm.ordersByStatus, err = NewGauge(cfg.Meter,
		"fulfillment_orders_by_status",
		"Current number of fulfillment orders per status",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordTransition records a committed transition.
func (fm *FulfillmentMetrics) RecordTransition(ctx context.Context, from, to string, d time.Duration) {
	if fm == nil {
		return
	}
	fm.transitionsTotal.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
	fm.transitionDuration.RecordDuration(ctx, d, AttrToStatus.String(to))
}

// RecordTransitionRejected records a transition that failed with the given error code.
func (fm *FulfillmentMetrics) RecordTransitionRejected(ctx context.Context, to, code string) {
	if fm == nil {
		return
	}
	if code == "" {
		code = "INTERNAL"
	}
	fm.transitionsRejected.Inc(ctx, AttrToStatus.String(to), AttrErrorCode.String(code))
}

// RecordTrackingAttached records a tracking attachment.
func (fm *FulfillmentMetrics) RecordTrackingAttached(ctx context.Context) {
	if fm == nil {
		return
	}
	fm.trackingAttachedTotal.Inc(ctx)
}

// RecordNotification records a notice dispatch outcome.
func (fm *FulfillmentMetrics) RecordNotification(ctx context.Context, notice, outcome string) {
	if fm == nil {
		return
	}
	fm.notificationsTotal.Inc(ctx, AttrNotice.String(notice), AttrOutcome.String(outcome))
}

// StartPeriodicCollection starts periodic collection of the per-status gauge.
// This is non-blocking; use Stop() to stop collection.
func (fm *FulfillmentMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if fm == nil {
		return
	}
	fm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		fm.wg.Add(1)
		go fm.runPeriodicCollection(ctx, interval)
	})
}

func (fm *FulfillmentMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	defer fm.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fm.collectStatusCounts(ctx)

	for {
		select {
		case <-fm.stopChan:
			fm.logger.Info("Stopping periodic fulfillment metrics collection")
			return
		case <-ctx.Done():
			fm.logger.Info("Context cancelled, stopping periodic fulfillment metrics collection")
			return
		case <-ticker.C:
			fm.collectStatusCounts(ctx)
		}
	}
}

func (fm *FulfillmentMetrics) collectStatusCounts(ctx context.Context) {
	if fm.statusProvider == nil {
		fm.logger.Debug("No status provider configured, skipping fulfillment status collection")
		return
	}

	counts, err := fm.statusProvider.CountByStatus(ctx)
	if err != nil {
		fm.logger.Warn("Failed to count fulfillment orders by status", zap.Error(err))
		return
	}
	for status, count := range counts {
		fm.ordersByStatus.Record(ctx, count, AttrStatus.String(status))
	}
}

// Stop stops the periodic collection and waits for it to exit.
func (fm *FulfillmentMetrics) Stop() {
	if fm == nil {
		return
	}
	fm.stopOnce.Do(func() {
		close(fm.stopChan)
	})
	fm.wg.Wait()
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewFulfillmentMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
