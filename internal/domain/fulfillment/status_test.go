package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsValid(t *testing.T) {
	for _, s := range AllStatuses {
		t.Run(string(s), func(t *testing.T) {
			assert.True(t, s.IsValid())
		})
	}
	assert.False(t, Status("SHIPPING").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		canTrans bool
	}{
		{StatusPending, StatusPlaced, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusIssue, true},
		{StatusPending, StatusConfirmed, false},
		{StatusPending, StatusShipped, false},
		{StatusPlaced, StatusPending, false},
		{StatusPlaced, StatusConfirmed, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusShipped, false},
		{StatusIssue, StatusPending, true},
		{StatusIssue, StatusPlaced, true},
		{StatusIssue, StatusConfirmed, true},
		{StatusIssue, StatusShipped, true},
		{StatusIssue, StatusCancelled, true},
		{StatusIssue, StatusDelivered, false},
		{StatusIssue, StatusRefunded, false},
		{StatusIssue, StatusIssue, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled, StatusRefunded} {
		assert.True(t, terminal.IsTerminal(), terminal)
		assert.Empty(t, AllowedTransitions(terminal))
		for _, target := range AllStatuses {
			assert.False(t, terminal.CanTransitionTo(target), "%s -> %s", terminal, target)
		}
	}
	assert.False(t, StatusIssue.IsTerminal())
	assert.False(t, Status("BOGUS").IsTerminal())
}

func TestStatus_IssueRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPlaced, StatusConfirmed, StatusShipped} {
		assert.True(t, s.CanTransitionTo(StatusIssue), "%s -> ISSUE", s)
		assert.True(t, StatusIssue.CanTransitionTo(s), "ISSUE -> %s", s)
	}
	assert.True(t, StatusIssue.CanTransitionTo(StatusCancelled))
}

func TestAllowedTransitions_PipelineOrder(t *testing.T) {
	assert.Equal(t, []Status{StatusPlaced, StatusCancelled, StatusIssue}, AllowedTransitions(StatusPending))
	assert.Equal(t,
		[]Status{StatusPending, StatusPlaced, StatusConfirmed, StatusShipped, StatusCancelled},
		AllowedTransitions(StatusIssue),
	)
}

func TestProjectCustomerStatus(t *testing.T) {
	tests := []struct {
		status   Status
		expected CustomerOrderStatus
		ok       bool
	}{
		{StatusShipped, CustomerOrderStatusShipped, true},
		{StatusDelivered, CustomerOrderStatusDelivered, true},
		{StatusCancelled, CustomerOrderStatusCancelled, true},
		{StatusPending, "", false},
		{StatusPlaced, "", false},
		{StatusConfirmed, "", false},
		{StatusRefunded, "", false},
		{StatusIssue, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			cs, ok := ProjectCustomerStatus(tt.status)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, cs)
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("SHIPPED")
	assert.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	s, err = ParseStatus(" issue ")
	assert.NoError(t, err)
	assert.Equal(t, StatusIssue, s)

	_, err = ParseStatus("LOST")
	assert.Error(t, err)
}
