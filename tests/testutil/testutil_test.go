package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("order-1"), NewTestUUID("order-1"))
	assert.NotEqual(t, NewTestUUID("order-1"), NewTestUUID("order-2"))
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, 50*time.Millisecond)

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.True(t, deadline.After(time.Now()))

	<-ctx.Done()
	assert.Error(t, ctx.Err())
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 10*time.Millisecond)
}
