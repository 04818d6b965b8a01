package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// TransitionCommand asks for one status transition
type TransitionCommand struct {
	FulfillmentOrderID uuid.UUID
	Status             fulfillment.Status
	IssueDescription   string
	// ExpectedVersion, when set, must match the locked row's version
	ExpectedVersion *int
}

// AttachTrackingCommand records carrier details on the order and its shipment
type AttachTrackingCommand struct {
	FulfillmentOrderID uuid.UUID
	Tracking           fulfillment.TrackingInfo
	ExpectedVersion    *int
}

// Synchronizer applies transitions to a fulfillment order and keeps the
// owning customer order and its shipment consistent in the same transaction.
type Synchronizer struct {
	txScope        TransactionScope
	minIssueLength int
	now            func() time.Time
	metrics        *telemetry.FulfillmentMetrics
}

// NewSynchronizer creates a Synchronizer. minIssueLength <= 0 falls back to
// fulfillment.DefaultIssueDescriptionMinLength.
func NewSynchronizer(txScope TransactionScope, minIssueLength int) *Synchronizer {
	if minIssueLength <= 0 {
		minIssueLength = fulfillment.DefaultIssueDescriptionMinLength
	}
	return &Synchronizer{
		txScope:        txScope,
		minIssueLength: minIssueLength,
		now:            time.Now,
	}
}

// SetMetrics sets the fulfillment metrics recorder
func (s *Synchronizer) SetMetrics(metrics *telemetry.FulfillmentMetrics) {
	s.metrics = metrics
}

// SetClock overrides the time source
func (s *Synchronizer) SetClock(now func() time.Time) {
	s.now = now
}

// Transition moves a fulfillment order to cmd.Status. The row is locked and
// the transition table consulted inside the transaction, so of two racing
// requests the loser sees the winner's committed status. A loser whose move
// was legal from the status it read before the lock gets CONFLICTING_WRITE;
// a move that was never legal gets INVALID_TRANSITION.
func (s *Synchronizer) Transition(ctx context.Context, cmd TransitionCommand) (*fulfillment.FulfillmentOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "transition",
		telemetry.WithAttribute(telemetry.SpanAttrFulfillmentOrderID, cmd.FulfillmentOrderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrToStatus, cmd.Status.String()),
	)
	defer span.End()

	started := time.Now()
	var (
		updated *fulfillment.FulfillmentOrder
		from    fulfillment.Status
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Plain reads see the latest committed row under READ COMMITTED
		observed, err := repos.FulfillmentOrderRepo().FindStatus(ctx, cmd.FulfillmentOrderID)
		if err != nil {
			return err
		}
		order, err := repos.FulfillmentOrderRepo().FindByIDForUpdate(ctx, cmd.FulfillmentOrderID)
		if err != nil {
			return err
		}
		if err := checkExpectedVersion(order, cmd.ExpectedVersion); err != nil {
			return err
		}

		from = order.Status
		now := s.now()
		if err := order.TransitionTo(cmd.Status, cmd.IssueDescription, s.minIssueLength, now); err != nil {
			return lostRace(err, observed, order.Status)
		}
		if err := repos.FulfillmentOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}

		if projected, ok := fulfillment.ProjectCustomerStatus(cmd.Status); ok {
			customerOrder, err := repos.CustomerOrderRepo().FindByID(ctx, order.CustomerOrderID)
			if err != nil {
				return err
			}
			customerOrder.ApplyProjection(projected, now)
			if err := repos.CustomerOrderRepo().SaveProjection(ctx, customerOrder); err != nil {
				return err
			}
			order.CustomerOrder = customerOrder
		}

		if cmd.Status == fulfillment.StatusDelivered {
			shipment, err := loadOrCreateShipment(ctx, repos.ShipmentRepo(), order, now)
			if err != nil {
				return err
			}
			shipment.MarkDelivered(now)
			if err := repos.ShipmentRepo().Save(ctx, shipment); err != nil {
				return err
			}
		}

		updated = order
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordTransitionRejected(ctx, cmd.Status.String(), shared.ErrorCode(err))
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrFromStatus, from.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrCustomerOrderID, updated.CustomerOrderID.String())
	telemetry.SetOK(span)
	s.metrics.RecordTransition(ctx, from.String(), cmd.Status.String(), time.Since(started))
	return updated, nil
}

// AttachTracking writes carrier details to the fulfillment order and its
// shipment atomically. It does not consult the transition table.
func (s *Synchronizer) AttachTracking(ctx context.Context, cmd AttachTrackingCommand) (*fulfillment.FulfillmentOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "attach_tracking",
		telemetry.WithAttribute(telemetry.SpanAttrFulfillmentOrderID, cmd.FulfillmentOrderID.String()),
	)
	defer span.End()

	var updated *fulfillment.FulfillmentOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.FulfillmentOrderRepo().FindByIDForUpdate(ctx, cmd.FulfillmentOrderID)
		if err != nil {
			return err
		}
		if err := checkExpectedVersion(order, cmd.ExpectedVersion); err != nil {
			return err
		}

		now := s.now()
		if err := order.AttachTracking(cmd.Tracking, now); err != nil {
			return err
		}
		if err := repos.FulfillmentOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}

		shipment, err := loadOrCreateShipment(ctx, repos.ShipmentRepo(), order, now)
		if err != nil {
			return err
		}
		shipment.AttachTracking(order.Tracking(), now)
		if err := repos.ShipmentRepo().Save(ctx, shipment); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	s.metrics.RecordTrackingAttached(ctx)
	return updated, nil
}

// RecordSupplierOrder stores the supplier's order identifier under the row lock.
func (s *Synchronizer) RecordSupplierOrder(ctx context.Context, id uuid.UUID, supplierOrderID string, expectedVersion *int) (*fulfillment.FulfillmentOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "record_supplier_order",
		telemetry.WithAttribute(telemetry.SpanAttrFulfillmentOrderID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSupplierOrderID, supplierOrderID),
	)
	defer span.End()

	var updated *fulfillment.FulfillmentOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.FulfillmentOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkExpectedVersion(order, expectedVersion); err != nil {
			return err
		}
		if err := order.RecordSupplierOrder(supplierOrderID, s.now()); err != nil {
			return err
		}
		if err := repos.FulfillmentOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return updated, nil
}

func checkExpectedVersion(order *fulfillment.FulfillmentOrder, expected *int) error {
	if expected == nil || *expected == order.Version {
		return nil
	}
	return fulfillment.NewConflictingWriteError(order.ID, *expected, order.Version)
}

// lostRace turns a table rejection into CONFLICTING_WRITE when the status
// changed between the unlocked read and the row lock
func lostRace(err error, observed, current fulfillment.Status) error {
	var te *fulfillment.TransitionError
	if observed == current || !errors.As(err, &te) {
		return err
	}
	return fulfillment.NewRacedTransitionError(observed, current, te.To)
}

// loadOrCreateShipment returns the customer order's shipment, starting a new
// one from the fulfillment order's tracking when none exists yet.
func loadOrCreateShipment(ctx context.Context, repo fulfillment.ShipmentRepository, order *fulfillment.FulfillmentOrder, now time.Time) (*fulfillment.Shipment, error) {
	shipment, err := repo.FindByCustomerOrderID(ctx, order.CustomerOrderID)
	if err == nil {
		return shipment, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	shipment = fulfillment.NewShipment(order.CustomerOrderID)
	shipment.AttachTracking(order.Tracking(), now)
	return shipment, nil
}
