package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("FulfillmentStatusChanged")
	assert.Equal(t, []string{"FulfillmentStatusChanged"}, handler.EventTypes())
	assert.Equal(t, 0, handler.HandledCount())

	evt := NewTestEvent("FulfillmentStatusChanged")
	require.NoError(t, handler.Handle(context.Background(), evt))
	assert.Equal(t, 1, handler.HandledCount())
	assert.Same(t, evt, handler.Handled()[0])
	assert.Equal(t, []string{"FulfillmentStatusChanged"}, handler.HandledTypes())

	handler.SetError(assert.AnError)
	assert.ErrorIs(t, handler.Handle(context.Background(), evt), assert.AnError)

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), evt))
}

func TestNewTestEventWithID(t *testing.T) {
	eventID := uuid.New()
	evt := NewTestEventWithID(eventID, "FulfillmentOrderCreated")

	assert.Equal(t, eventID, evt.EventID())
	assert.Equal(t, "FulfillmentOrderCreated", evt.EventType())
	assert.NotEqual(t, uuid.Nil, evt.AggregateID())
	assert.False(t, evt.OccurredAt().IsZero())
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(context.Background(), NewTestEvent("A"))
		_ = handler.Handle(context.Background(), NewTestEvent("B"))
	}()

	assert.True(t, WaitForEventCount(t, handler, 2, time.Second))
	assert.False(t, WaitForEventCount(t, handler, 3, 50*time.Millisecond))
}

func TestRequireEventually(t *testing.T) {
	var flag atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		flag.Store(true)
	}()

	RequireEventually(t, flag.Load, time.Second, 5*time.Millisecond)
}
