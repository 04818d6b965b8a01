package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubStatusProvider struct {
	counts map[string]int64
	err    error
	calls  atomic.Int32
}

func (p *stubStatusProvider) CountByStatus(context.Context) (map[string]int64, error) {
	p.calls.Add(1)
	return p.counts, p.err
}

func TestNewFulfillmentMetrics_NilMeter(t *testing.T) {
	_, err := NewFulfillmentMetrics(FulfillmentMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Equal(t, "NewFulfillmentMetrics: meter cannot be nil", err.Error())
}

func TestFulfillmentMetrics_NilReceiverIsSafe(t *testing.T) {
	var fm *FulfillmentMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		fm.RecordTransition(ctx, "PENDING", "PLACED", time.Millisecond)
		fm.RecordTransitionRejected(ctx, "SHIPPED", "INVALID_TRANSITION")
		fm.RecordTrackingAttached(ctx)
		fm.RecordNotification(ctx, "shipping", NotificationSent)
		fm.StartPeriodicCollection(ctx, time.Second)
		fm.Stop()
	})
}

func TestFulfillmentMetrics_Records(t *testing.T) {
	reader, provider := newTestMeter(t)
	fm, err := NewFulfillmentMetrics(FulfillmentMetricsConfig{Meter: provider.Meter("fulfillment"), Logger: zap.NewNop()})
	require.NoError(t, err)

	ctx := context.Background()
	fm.RecordTransition(ctx, "CONFIRMED", "SHIPPED", 5*time.Millisecond)
	fm.RecordTransition(ctx, "SHIPPED", "DELIVERED", 3*time.Millisecond)
	fm.RecordTransitionRejected(ctx, "SHIPPED", "INVALID_TRANSITION")
	fm.RecordTransitionRejected(ctx, "DELIVERED", "")
	fm.RecordTrackingAttached(ctx)
	fm.RecordNotification(ctx, "delivery", NotificationFailed)
	fm.RecordNotification(ctx, "delivery", NotificationFailed)

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, metrics["fulfillment_transitions_total"],
		AttrFromStatus.String("CONFIRMED"), AttrToStatus.String("SHIPPED")))
	assert.Equal(t, int64(1), sumFor(t, metrics["fulfillment_transitions_rejected_total"],
		AttrToStatus.String("SHIPPED"), AttrErrorCode.String("INVALID_TRANSITION")))
	assert.Equal(t, int64(1), sumFor(t, metrics["fulfillment_transitions_rejected_total"],
		AttrToStatus.String("DELIVERED"), AttrErrorCode.String("INTERNAL")))
	assert.Equal(t, int64(1), sumFor(t, metrics["fulfillment_tracking_attached_total"]))
	assert.Equal(t, int64(2), sumFor(t, metrics["fulfillment_notifications_total"],
		AttrNotice.String("delivery"), AttrOutcome.String(NotificationFailed)))

	hist, ok := metrics["fulfillment_transition_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestFulfillmentMetrics_PeriodicCollection(t *testing.T) {
	reader, provider := newTestMeter(t)
	statuses := &stubStatusProvider{counts: map[string]int64{"PENDING": 3, "ISSUE": 1}}
	fm, err := NewFulfillmentMetrics(FulfillmentMetricsConfig{
		Meter:          provider.Meter("fulfillment"),
		StatusProvider: statuses,
	})
	require.NoError(t, err)

	fm.StartPeriodicCollection(context.Background(), time.Hour)
	fm.StartPeriodicCollection(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return statuses.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	fm.Stop()
	fm.Stop()

	gauge, ok := collect(t, reader)["fulfillment_orders_by_status"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	values := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		status, _ := dp.Attributes.Value(AttrStatus)
		values[status.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"PENDING": 3, "ISSUE": 1}, values)
	assert.Equal(t, int32(1), statuses.calls.Load())
}

func TestFulfillmentMetrics_CollectionErrorRecordsNothing(t *testing.T) {
	reader, provider := newTestMeter(t)
	fm, err := NewFulfillmentMetrics(FulfillmentMetricsConfig{
		Meter:          provider.Meter("fulfillment"),
		StatusProvider: &stubStatusProvider{err: errors.New("db down")},
	})
	require.NoError(t, err)

	fm.collectStatusCounts(context.Background())

	_, found := collect(t, reader)["fulfillment_orders_by_status"]
	assert.False(t, found)
}
