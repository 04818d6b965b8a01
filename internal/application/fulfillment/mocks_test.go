package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

// MockFulfillmentOrderRepository is a mock implementation of FulfillmentOrderRepository
type MockFulfillmentOrderRepository struct {
	mock.Mock
}

func (m *MockFulfillmentOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.FulfillmentOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.FulfillmentOrder), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) FindStatus(ctx context.Context, id uuid.UUID) (fulfillment.Status, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(fulfillment.Status), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*fulfillment.FulfillmentOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.FulfillmentOrder), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) ExistsByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, customerOrderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.FulfillmentOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.FulfillmentOrder), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFulfillmentOrderRepository) Create(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockFulfillmentOrderRepository) SaveWithLock(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockCustomerOrderRepository is a mock implementation of CustomerOrderRepository
type MockCustomerOrderRepository struct {
	mock.Mock
}

func (m *MockCustomerOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.CustomerOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.CustomerOrder), args.Error(1)
}

func (m *MockCustomerOrderRepository) SaveProjection(ctx context.Context, order *fulfillment.CustomerOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockShipmentRepository is a mock implementation of ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByCustomerOrderID(ctx context.Context, customerOrderID uuid.UUID) (*fulfillment.Shipment, error) {
	args := m.Called(ctx, customerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, shipment *fulfillment.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendShippingNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, trackingNumber, carrier string) error {
	args := m.Called(ctx, order, trackingNumber, carrier)
	return args.Error(0)
}

func (m *MockNotifier) SendDeliveryNotice(ctx context.Context, order *fulfillment.FulfillmentOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockNotifier) SendIssueNotice(ctx context.Context, order *fulfillment.FulfillmentOrder, description string) error {
	args := m.Called(ctx, order, description)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
