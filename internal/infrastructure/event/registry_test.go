package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_GetHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	status := newTestHandler("status")
	audit := newTestHandler("audit")
	registry.Register(status, "FulfillmentStatusChanged", "FulfillmentTrackingAttached")
	registry.Register(audit)

	assert.Equal(t, []any{status, audit}, toAny(registry.GetHandlers("FulfillmentStatusChanged")))
	assert.Equal(t, []any{status, audit}, toAny(registry.GetHandlers("FulfillmentTrackingAttached")))
	assert.Equal(t, []any{audit}, toAny(registry.GetHandlers("FulfillmentOrderCreated")))
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first := newTestHandler("first")
	second := newTestHandler("second")
	registry.Register(first, "FulfillmentStatusChanged")
	registry.Register(second, "FulfillmentStatusChanged")
	registry.Register(first)

	registry.Unregister(first)

	assert.Equal(t, []any{second}, toAny(registry.GetHandlers("FulfillmentStatusChanged")))

	registry.Unregister(second)
	assert.Empty(t, registry.GetHandlers("FulfillmentStatusChanged"))
	assert.Empty(t, registry.handlers)
}

func TestHandlerRegistry_GetAllHandlersIsDistinct(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler("handler")
	other := newTestHandler("other")
	registry.Register(handler, "A", "B")
	registry.Register(handler)
	registry.Register(other, "B")

	all := registry.GetAllHandlers()

	assert.Len(t, all, 2)
	assert.Contains(t, toAny(all), handler)
	assert.Contains(t, toAny(all), other)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
