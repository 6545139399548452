package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestFromContextFallback returns the global logger when none is stored.
func TestFromContextFallback(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestToContextRoundtrip stores and retrieves a scoped logger.
func TestToContextRoundtrip(t *testing.T) {
	t.Parallel()

	scoped := zap.NewNop().Sugar()
	ctx := ToContext(context.Background(), scoped)

	require.Same(t, scoped, FromContext(ctx))

	// WithName derives a new logger rather than mutating the stored one.
	named := WithName(ctx, "component")
	require.NotSame(t, scoped, FromContext(named))
}
