package fulfillment

import (
	"sort"
	"strings"
)

// Status represents the supplier-side lifecycle status of a fulfillment order
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
	StatusIssue     Status = "ISSUE"
)

// AllStatuses lists every status in pipeline order
var AllStatuses = []Status{
	StatusPending,
	StatusPlaced,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
	StatusRefunded,
	StatusIssue,
}

// CustomerOrderStatus is the customer-facing status written to the owning order
type CustomerOrderStatus string

const (
	CustomerOrderStatusShipped   CustomerOrderStatus = "SHIPPED"
	CustomerOrderStatusDelivered CustomerOrderStatus = "DELIVERED"
	CustomerOrderStatusCancelled CustomerOrderStatus = "CANCELLED"
)

type statusSet map[Status]struct{}

func setOf(statuses ...Status) statusSet {
	s := make(statusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// allowedTransitions is the only gate for transition legality.
// Terminal statuses map to an empty set.
var allowedTransitions = map[Status]statusSet{
	StatusPending:   setOf(StatusPlaced, StatusCancelled, StatusIssue),
	StatusPlaced:    setOf(StatusConfirmed, StatusCancelled, StatusIssue),
	StatusConfirmed: setOf(StatusShipped, StatusCancelled, StatusIssue),
	StatusShipped:   setOf(StatusDelivered, StatusIssue),
	StatusDelivered: setOf(),
	StatusCancelled: setOf(),
	StatusRefunded:  setOf(),
	StatusIssue:     setOf(StatusPending, StatusPlaced, StatusConfirmed, StatusShipped, StatusCancelled),
}

// customerProjection maps customer-visible statuses to the owning order's status.
// Statuses absent from the map leave the customer order untouched.
var customerProjection = map[Status]CustomerOrderStatus{
	StatusShipped:   CustomerOrderStatusShipped,
	StatusDelivered: CustomerOrderStatusDelivered,
	StatusCancelled: CustomerOrderStatusCancelled,
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether target is reachable from s in one move
func (s Status) CanTransitionTo(target Status) bool {
	_, ok := allowedTransitions[s][target]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(allowedTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s, in pipeline order
func AllowedTransitions(s Status) []Status {
	next := make([]Status, 0, len(allowedTransitions[s]))
	for st := range allowedTransitions[s] {
		next = append(next, st)
	}
	sort.Slice(next, func(i, j int) bool {
		return pipelineIndex(next[i]) < pipelineIndex(next[j])
	})
	return next
}

// ProjectCustomerStatus returns the customer-facing status for s, if s has one
func ProjectCustomerStatus(s Status) (CustomerOrderStatus, bool) {
	cs, ok := customerProjection[s]
	return cs, ok
}

// ParseStatus converts a raw string into a Status, ignoring case
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", NewValidationError("Unknown fulfillment status: " + raw)
	}
	return s, nil
}

func pipelineIndex(s Status) int {
	for i, st := range AllStatuses {
		if st == s {
			return i
		}
	}
	return len(AllStatuses)
}
