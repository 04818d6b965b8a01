package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// FulfillmentService is the inbound surface of fulfillment synchronization.
// Mutations run through the Synchronizer; notices and domain events go out
// only after the transaction has committed.
type FulfillmentService struct {
	orderRepo       fulfillment.FulfillmentOrderRepository
	shipmentRepo    fulfillment.ShipmentRepository
	txScope         TransactionScope
	synchronizer    *Synchronizer
	dispatcher      *NotificationDispatcher
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// ServiceConfig holds the collaborators of a FulfillmentService
type ServiceConfig struct {
	OrderRepo                 fulfillment.FulfillmentOrderRepository
	ShipmentRepo              fulfillment.ShipmentRepository
	TxScope                   TransactionScope
	Notifier                  Notifier
	EventPublisher            shared.EventPublisher
	Metrics                   *telemetry.FulfillmentMetrics
	Logger                    *zap.Logger
	IssueDescriptionMinLength int
	DefaultPageSize           int
	MaxPageSize               int
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(cfg ServiceConfig) *FulfillmentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}

	synchronizer := NewSynchronizer(cfg.TxScope, cfg.IssueDescriptionMinLength)
	synchronizer.SetMetrics(cfg.Metrics)

	return &FulfillmentService{
		orderRepo:       cfg.OrderRepo,
		shipmentRepo:    cfg.ShipmentRepo,
		txScope:         cfg.TxScope,
		synchronizer:    synchronizer,
		dispatcher:      NewNotificationDispatcher(cfg.Notifier, logger, cfg.Metrics),
		eventPublisher:  cfg.EventPublisher,
		logger:          logger,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// Synchronizer exposes the underlying synchronizer
func (s *FulfillmentService) Synchronizer() *Synchronizer {
	return s.synchronizer
}

// CreateFromCustomerOrder creates the fulfillment order in PENDING for a confirmed customer order
func (s *FulfillmentService) CreateFromCustomerOrder(ctx context.Context, req CreateFulfillmentOrderRequest) (*FulfillmentOrderResponse, error) {
	specs := make([]fulfillment.ItemSpec, len(req.Items))
	for i, item := range req.Items {
		specs[i] = fulfillment.ItemSpec{
			ProductName:     item.ProductName,
			SupplierSKU:     item.SupplierSKU,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitCost,
			ProductSourceID: item.ProductSourceID,
		}
	}

	order, err := fulfillment.NewFulfillmentOrder(req.CustomerOrderID, req.Currency, req.ShippingCost, specs)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		customerOrder, err := repos.CustomerOrderRepo().FindByID(ctx, req.CustomerOrderID)
		if err != nil {
			return err
		}
		exists, err := repos.FulfillmentOrderRepo().ExistsByCustomerOrderID(ctx, req.CustomerOrderID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists,
				fmt.Sprintf("Customer order %s already has a fulfillment order", req.CustomerOrderID))
		}
		if err := repos.FulfillmentOrderRepo().Create(ctx, order); err != nil {
			return err
		}
		order.CustomerOrder = customerOrder
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	created, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	response := ToFulfillmentOrderResponse(created, nil)
	return &response, nil
}

// TransitionStatus moves the order to a new status and then, outside the
// transaction, sends the matching customer notice. A notice failure never
// turns a committed transition into an error.
func (s *FulfillmentService) TransitionStatus(ctx context.Context, id uuid.UUID, req TransitionStatusRequest) (*FulfillmentOrderResponse, error) {
	status, err := fulfillment.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	order, err := s.synchronizer.Transition(ctx, TransitionCommand{
		FulfillmentOrderID: id,
		Status:             status,
		IssueDescription:   req.IssueDescription,
		ExpectedVersion:    req.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)
	s.dispatcher.Dispatch(ctx, order, req.NotifyCustomer)

	response := ToFulfillmentOrderResponse(order, nil)
	return &response, nil
}

// AttachTracking records carrier details on the order and its shipment
func (s *FulfillmentService) AttachTracking(ctx context.Context, id uuid.UUID, req AttachTrackingRequest) (*TrackingResponse, error) {
	order, err := s.synchronizer.AttachTracking(ctx, AttachTrackingCommand{
		FulfillmentOrderID: id,
		Tracking: fulfillment.TrackingInfo{
			TrackingNumber: req.TrackingNumber,
			Carrier:        req.Carrier,
			TrackingURL:    req.TrackingURL,
		},
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, order)

	return &TrackingResponse{
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		TrackingURL:    order.TrackingURL,
	}, nil
}

// RecordSupplierOrder stores the supplier's order identifier
func (s *FulfillmentService) RecordSupplierOrder(ctx context.Context, id uuid.UUID, req RecordSupplierOrderRequest) (*FulfillmentOrderResponse, error) {
	order, err := s.synchronizer.RecordSupplierOrder(ctx, id, req.SupplierOrderID, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	response := ToFulfillmentOrderResponse(order, nil)
	return &response, nil
}

// GetDetails returns the order with its items, product sources, customer order and shipment
func (s *FulfillmentService) GetDetails(ctx context.Context, id uuid.UUID) (*FulfillmentOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	shipment, err := s.shipmentRepo.FindByCustomerOrderID(ctx, order.CustomerOrderID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	response := ToFulfillmentOrderResponse(order, shipment)
	return &response, nil
}

// GetValidation reports whether the order is eligible for fulfillment
func (s *FulfillmentService) GetValidation(ctx context.Context, id uuid.UUID) (*fulfillment.ValidationResult, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := fulfillment.Validate(order)
	return &result, nil
}

// GetHistory derives the order's lifecycle from its stage timestamps
func (s *FulfillmentService) GetHistory(ctx context.Context, id uuid.UUID) ([]fulfillment.HistoryEntry, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return fulfillment.BuildHistory(order), nil
}

// PrepareForSupplier projects the order into the payload used to place it with the supplier
func (s *FulfillmentService) PrepareForSupplier(ctx context.Context, id uuid.UUID) (*fulfillment.SupplierOrderPayload, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := fulfillment.PrepareSupplierPayload(order)
	return &payload, nil
}

// ListOrders lists fulfillment orders, newest first, optionally by status
func (s *FulfillmentService) ListOrders(ctx context.Context, filter FulfillmentOrderListFilter) (*FulfillmentOrderListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.defaultPageSize
	}
	if filter.PageSize > s.maxPageSize {
		filter.PageSize = s.maxPageSize
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		status, err := fulfillment.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		domainFilter.Filters[fulfillment.FilterKeyStatus] = status
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]FulfillmentOrderListItemResponse, len(orders))
	for i := range orders {
		items[i] = ToFulfillmentOrderListItemResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)

	return &FulfillmentOrderListResponse{
		Orders: page.Items,
		Pagination: Pagination{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}, nil
}

// publishEvents hands committed domain events to the bus. Publishing is
// best effort and never fails the request.
func (s *FulfillmentService) publishEvents(ctx context.Context, order *fulfillment.FulfillmentOrder) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish fulfillment events",
			zap.String("fulfillment_order_id", order.ID.String()),
			zap.Int("event_count", len(events)),
			zap.Error(err))
	}
}
