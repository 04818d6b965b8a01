package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, Config{ServiceName: "storefront-test"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.ForceFlush(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewZapOTELCore_NoProvider(t *testing.T) {
	core := NewZapOTELCore(nil, "storefront", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	disabled, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	core = NewZapOTELCore(disabled, "storefront", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestBridgeLogger_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, BridgeLogger(base, nil, zapcore.InfoLevel))

	disabled, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, base, BridgeLogger(base, disabled, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	assert.False(t, filtered.Enabled(zapcore.DebugLevel))
	assert.False(t, filtered.Enabled(zapcore.InfoLevel))
	assert.True(t, filtered.Enabled(zapcore.WarnLevel))
	assert.True(t, filtered.Enabled(zapcore.ErrorLevel))

	logger := zap.New(filtered)
	logger.Info("transition committed")
	logger.Warn("event publish failed")
	logger.Error("notice failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "event publish failed", entries[0].Message)
	assert.Equal(t, "notice failed", entries[1].Message)
}

func TestLevelFilterCore_WithKeepsLevel(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	child := filtered.With([]zapcore.Field{zap.String("fulfillment_order_id", "fo-1")})
	childFilter, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, childFilter.minLevel)

	zap.New(child).Warn("conflicting write")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fo-1", entries[0].ContextMap()["fulfillment_order_id"])
}
