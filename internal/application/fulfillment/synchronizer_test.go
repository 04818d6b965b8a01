package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type syncFixture struct {
	orders    *MockFulfillmentOrderRepository
	customers *MockCustomerOrderRepository
	shipments *MockShipmentRepository
	sync      *Synchronizer
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		orders:    new(MockFulfillmentOrderRepository),
		customers: new(MockCustomerOrderRepository),
		shipments: new(MockShipmentRepository),
	}
	f.sync = NewSynchronizer(NewNoOpTransactionScope(f.orders, f.customers, f.shipments), 10)
	f.sync.SetClock(func() time.Time { return testNow })
	return f
}

func createTestFulfillmentOrder(t *testing.T, status fulfillment.Status) *fulfillment.FulfillmentOrder {
	t.Helper()
	order, err := fulfillment.NewFulfillmentOrder(uuid.New(), "USD", decimal.NewFromInt(5), []fulfillment.ItemSpec{
		{ProductName: "Ceramic Mug", SupplierSKU: "SUP-MUG-1", Quantity: 2, UnitCost: decimal.NewFromInt(4)},
	})
	require.NoError(t, err)
	order.Status = status
	order.ClearDomainEvents()
	return order
}

func createTestCustomerOrder(order *fulfillment.FulfillmentOrder) *fulfillment.CustomerOrder {
	return &fulfillment.CustomerOrder{
		ID:          order.CustomerOrderID,
		OrderNumber: "SF-1001",
		Status:      "PROCESSING",
		Customer:    fulfillment.CustomerContact{Name: "Grace Hopper", Email: "grace@example.com"},
	}
}

func TestSynchronizer_Transition_ConfirmedToShipped(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
	customerOrder := createTestCustomerOrder(order)

	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	f.customers.On("FindByID", mock.Anything, order.CustomerOrderID).Return(customerOrder, nil)
	f.customers.On("SaveProjection", mock.Anything, customerOrder).Return(nil)

	updated, err := f.sync.Transition(context.Background(), TransitionCommand{
		FulfillmentOrderID: order.ID,
		Status:             fulfillment.StatusShipped,
	})

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
	assert.Equal(t, testNow, *updated.ShippedAt)
	assert.Equal(t, "SHIPPED", customerOrder.Status)
	require.NotNil(t, customerOrder.ShippedAt)
	assert.Equal(t, testNow, *customerOrder.ShippedAt)
	assert.Same(t, customerOrder, updated.CustomerOrder)

	f.shipments.AssertNotCalled(t, "FindByCustomerOrderID", mock.Anything, mock.Anything)
	f.shipments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
	f.customers.AssertExpectations(t)
}

func TestSynchronizer_Transition_DeliveredUpdatesShipment(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusShipped)
	order.TrackingNumber = "1Z999"
	order.Carrier = "UPS"
	customerOrder := createTestCustomerOrder(order)
	shipment := fulfillment.NewShipment(order.CustomerOrderID)
	shipment.TrackingNumber = "1Z999"

	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	f.customers.On("FindByID", mock.Anything, order.CustomerOrderID).Return(customerOrder, nil)
	f.customers.On("SaveProjection", mock.Anything, customerOrder).Return(nil)
	f.shipments.On("FindByCustomerOrderID", mock.Anything, order.CustomerOrderID).Return(shipment, nil)
	f.shipments.On("Save", mock.Anything, shipment).Return(nil)

	updated, err := f.sync.Transition(context.Background(), TransitionCommand{
		FulfillmentOrderID: order.ID,
		Status:             fulfillment.StatusDelivered,
	})

	require.NoError(t, err)
	assert.Equal(t, fulfillment.StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	require.NotNil(t, updated.ActualDeliveryAt)
	assert.Equal(t, "DELIVERED", customerOrder.Status)
	require.NotNil(t, customerOrder.DeliveredAt)
	require.NotNil(t, shipment.ActualDeliveryAt)
	assert.Equal(t, testNow, *shipment.ActualDeliveryAt)

	f.shipments.AssertExpectations(t)
}

func TestSynchronizer_Transition_DeliveredCreatesMissingShipment(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusShipped)
	order.TrackingNumber = "1Z999"
	customerOrder := createTestCustomerOrder(order)

	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	f.customers.On("FindByID", mock.Anything, order.CustomerOrderID).Return(customerOrder, nil)
	f.customers.On("SaveProjection", mock.Anything, customerOrder).Return(nil)
	f.shipments.On("FindByCustomerOrderID", mock.Anything, order.CustomerOrderID).
		Return(nil, fulfillment.NewNotFoundError("Shipment for customer order", order.CustomerOrderID))
	f.shipments.On("Save", mock.Anything, mock.MatchedBy(func(s *fulfillment.Shipment) bool {
		return s.CustomerOrderID == order.CustomerOrderID &&
			s.TrackingNumber == "1Z999" &&
			s.ActualDeliveryAt != nil
	})).Return(nil)

	_, err := f.sync.Transition(context.Background(), TransitionCommand{
		FulfillmentOrderID: order.ID,
		Status:             fulfillment.StatusDelivered,
	})

	require.NoError(t, err)
	f.shipments.AssertExpectations(t)
}

func TestSynchronizer_Transition_PlacedDoesNotTouchCustomerOrder(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusPending)

	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	updated, err := f.sync.Transition(context.Background(), TransitionCommand{
		FulfillmentOrderID: order.ID,
		Status:             fulfillment.StatusPlaced,
	})

	require.NoError(t, err)
	require.NotNil(t, updated.PlacedAt)
	f.customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.customers.AssertNotCalled(t, "SaveProjection", mock.Anything, mock.Anything)
}

func TestSynchronizer_Transition_NotFound(t *testing.T) {
	f := newSyncFixture()
	id := uuid.New()
	f.orders.On("FindStatus", mock.Anything, id).Return(fulfillment.Status(""), fulfillment.NewNotFoundError("Fulfillment order", id))

	_, err := f.sync.Transition(context.Background(), TransitionCommand{FulfillmentOrderID: id, Status: fulfillment.StatusPlaced})

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSynchronizer_Transition_InvalidLeavesRecordsUntouched(t *testing.T) {
	for _, from := range fulfillment.AllStatuses {
		for _, to := range fulfillment.AllStatuses {
			if from.CanTransitionTo(to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := newSyncFixture()
				order := createTestFulfillmentOrder(t, from)
				f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
				f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

				_, err := f.sync.Transition(context.Background(), TransitionCommand{
					FulfillmentOrderID: order.ID,
					Status:             to,
					IssueDescription:   "A long enough description",
				})

				var te *fulfillment.TransitionError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, from, te.From)
				assert.Equal(t, to, te.To)
				assert.Equal(t, from, order.Status)
				assert.Nil(t, order.PlacedAt)
				assert.Nil(t, order.ShippedAt)
				assert.Nil(t, order.DeliveredAt)
				f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
				f.customers.AssertNotCalled(t, "SaveProjection", mock.Anything, mock.Anything)
				f.shipments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			})
		}
	}
}

func TestSynchronizer_Transition_TerminalRejectsEverything(t *testing.T) {
	for _, terminal := range []fulfillment.Status{fulfillment.StatusDelivered, fulfillment.StatusCancelled, fulfillment.StatusRefunded} {
		for _, target := range fulfillment.AllStatuses {
			f := newSyncFixture()
			order := createTestFulfillmentOrder(t, terminal)
			f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
			f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

			_, err := f.sync.Transition(context.Background(), TransitionCommand{
				FulfillmentOrderID: order.ID,
				Status:             target,
				IssueDescription:   "Customer called about it",
			})
			assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err), "%s -> %s", terminal, target)
		}
	}
}

func TestSynchronizer_Transition_IssueDescription(t *testing.T) {
	t.Run("nine characters fails before mutation", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := f.sync.Transition(context.Background(), TransitionCommand{
			FulfillmentOrderID: order.ID,
			Status:             fulfillment.StatusIssue,
			IssueDescription:   "too short",
		})

		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		assert.Equal(t, fulfillment.StatusConfirmed, order.Status)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("ten characters succeeds", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

		updated, err := f.sync.Transition(context.Background(), TransitionCommand{
			FulfillmentOrderID: order.ID,
			Status:             fulfillment.StatusIssue,
			IssueDescription:   "box broken",
		})

		require.NoError(t, err)
		assert.Equal(t, fulfillment.StatusIssue, updated.Status)
		assert.Equal(t, "box broken", updated.IssueDescription)
		f.customers.AssertNotCalled(t, "SaveProjection", mock.Anything, mock.Anything)
	})
}

func TestSynchronizer_Transition_IssueRoundTrip(t *testing.T) {
	for _, target := range []fulfillment.Status{
		fulfillment.StatusPending,
		fulfillment.StatusPlaced,
		fulfillment.StatusConfirmed,
		fulfillment.StatusShipped,
		fulfillment.StatusCancelled,
	} {
		t.Run(string(target), func(t *testing.T) {
			f := newSyncFixture()
			order := createTestFulfillmentOrder(t, fulfillment.StatusIssue)
			customerOrder := createTestCustomerOrder(order)
			f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
			f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
			f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
			f.customers.On("FindByID", mock.Anything, order.CustomerOrderID).Return(customerOrder, nil).Maybe()
			f.customers.On("SaveProjection", mock.Anything, customerOrder).Return(nil).Maybe()

			updated, err := f.sync.Transition(context.Background(), TransitionCommand{
				FulfillmentOrderID: order.ID,
				Status:             target,
			})

			require.NoError(t, err)
			assert.Equal(t, target, updated.Status)
		})
	}
}

func TestSynchronizer_Transition_LostRace(t *testing.T) {
	t.Run("legal from observed status is a conflicting write", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusPlaced)
		order.Version = 2
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(fulfillment.StatusPending, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := f.sync.Transition(context.Background(), TransitionCommand{
			FulfillmentOrderID: order.ID,
			Status:             fulfillment.StatusPlaced,
		})

		assert.Equal(t, shared.CodeConflictingWrite, shared.ErrorCode(err))
		var te *fulfillment.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, fulfillment.StatusPending, te.Observed)
		assert.Equal(t, fulfillment.StatusPlaced, te.From)
		assert.Equal(t, fulfillment.StatusPlaced, te.To)
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("still legal after the race is applied", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusPlaced)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(fulfillment.StatusPending, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

		updated, err := f.sync.Transition(context.Background(), TransitionCommand{
			FulfillmentOrderID: order.ID,
			Status:             fulfillment.StatusConfirmed,
		})

		require.NoError(t, err)
		assert.Equal(t, fulfillment.StatusConfirmed, updated.Status)
	})

	t.Run("validation errors are not reclassified", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(fulfillment.StatusPlaced, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

		_, err := f.sync.Transition(context.Background(), TransitionCommand{
			FulfillmentOrderID: order.ID,
			Status:             fulfillment.StatusIssue,
			IssueDescription:   "short",
		})

		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})
}

func TestSynchronizer_Transition_ExpectedVersionMismatch(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
	order.Version = 3
	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	stale := 2
	_, err := f.sync.Transition(context.Background(), TransitionCommand{
		FulfillmentOrderID: order.ID,
		Status:             fulfillment.StatusShipped,
		ExpectedVersion:    &stale,
	})

	assert.Equal(t, shared.CodeConflictingWrite, shared.ErrorCode(err))
	assert.Equal(t, fulfillment.StatusConfirmed, order.Status)
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSynchronizer_Transition_PropagatesWriteFailures(t *testing.T) {
	t.Run("version guard lost", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(fulfillment.NewConflictingWriteError(order.ID, 1, 2))

		_, err := f.sync.Transition(context.Background(), TransitionCommand{FulfillmentOrderID: order.ID, Status: fulfillment.StatusShipped})

		assert.Equal(t, shared.CodeConflictingWrite, shared.ErrorCode(err))
		f.customers.AssertNotCalled(t, "SaveProjection", mock.Anything, mock.Anything)
	})

	t.Run("projection write fails", func(t *testing.T) {
		f := newSyncFixture()
		order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
		customerOrder := createTestCustomerOrder(order)
		f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
		f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
		f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
		f.customers.On("FindByID", mock.Anything, order.CustomerOrderID).Return(customerOrder, nil)
		f.customers.On("SaveProjection", mock.Anything, customerOrder).Return(errors.New("connection reset"))

		updated, err := f.sync.Transition(context.Background(), TransitionCommand{FulfillmentOrderID: order.ID, Status: fulfillment.StatusShipped})

		require.Error(t, err)
		assert.Nil(t, updated)
	})
}

func TestSynchronizer_AttachTracking(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusShipped)
	shipment := fulfillment.NewShipment(order.CustomerOrderID)

	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	f.shipments.On("FindByCustomerOrderID", mock.Anything, order.CustomerOrderID).Return(shipment, nil)
	f.shipments.On("Save", mock.Anything, shipment).Return(nil)

	updated, err := f.sync.AttachTracking(context.Background(), AttachTrackingCommand{
		FulfillmentOrderID: order.ID,
		Tracking:           fulfillment.TrackingInfo{TrackingNumber: "1Z999", Carrier: "UPS"},
	})

	require.NoError(t, err)
	assert.Equal(t, "1Z999", updated.TrackingNumber)
	assert.Equal(t, "UPS", updated.Carrier)
	assert.Equal(t, fulfillment.StatusShipped, updated.Status)
	assert.Equal(t, "1Z999", shipment.TrackingNumber)
	assert.Equal(t, "UPS", shipment.Carrier)
	assert.Nil(t, shipment.ActualDeliveryAt)
	f.customers.AssertNotCalled(t, "SaveProjection", mock.Anything, mock.Anything)
}

func TestSynchronizer_AttachTracking_Invalid(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusConfirmed)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)

	_, err := f.sync.AttachTracking(context.Background(), AttachTrackingCommand{
		FulfillmentOrderID: order.ID,
		Tracking:           fulfillment.TrackingInfo{TrackingNumber: ""},
	})

	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	f.shipments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSynchronizer_RecordSupplierOrder(t *testing.T) {
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusPending)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	updated, err := f.sync.RecordSupplierOrder(context.Background(), order.ID, "AE-5550", nil)

	require.NoError(t, err)
	assert.Equal(t, "AE-5550", updated.SupplierOrderID)
	assert.Equal(t, fulfillment.StatusPending, updated.Status)
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key(key) {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestSynchronizer_SpanAttributes(t *testing.T) {
	sr := recordSpans(t)
	f := newSyncFixture()
	order := createTestFulfillmentOrder(t, fulfillment.StatusPending)
	f.orders.On("FindStatus", mock.Anything, order.ID).Return(order.Status, nil)
	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	_, err := f.sync.Transition(context.Background(), TransitionCommand{FulfillmentOrderID: order.ID, Status: fulfillment.StatusPlaced})
	require.NoError(t, err)
	_, err = f.sync.RecordSupplierOrder(context.Background(), order.ID, "AE-7781", nil)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "fulfillment.transition", spans[0].Name())
	assert.Equal(t, order.CustomerOrderID.String(), spanAttr(spans[0], "customer_order_id"))
	assert.Equal(t, "PENDING", spanAttr(spans[0], "from_status"))
	assert.Equal(t, "fulfillment.record_supplier_order", spans[1].Name())
	assert.Equal(t, "AE-7781", spanAttr(spans[1], "supplier_order_id"))
}
