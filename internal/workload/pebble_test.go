package workload

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnreachableSupervisor(t *testing.T) *PebbleSupervisor {
	t.Helper()

	supervisor, err := NewPebbleSupervisor(filepath.Join(t.TempDir(), "pebble.socket"), nil)
	require.NoError(t, err)

	return supervisor
}

func TestPebbleSupervisor_Unreachable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	supervisor := newUnreachableSupervisor(t)

	assert.False(t, supervisor.CanConnect(ctx))

	_, err := supervisor.Plan(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get pebble plan")
}

func TestPebbleSupervisor_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	supervisor := newUnreachableSupervisor(t)

	assert.False(t, supervisor.CanConnect(ctx))

	_, err := supervisor.Plan(ctx)
	require.ErrorIs(t, err, context.Canceled)

	err = supervisor.AddLayer(ctx, "spring-music", &Layer{}, true)
	require.ErrorIs(t, err, context.Canceled)

	_, err = supervisor.Service(ctx, "spring-music")
	require.ErrorIs(t, err, context.Canceled)

	require.ErrorIs(t, supervisor.Start(ctx, "spring-music"), context.Canceled)
	require.ErrorIs(t, supervisor.Stop(ctx, "spring-music"), context.Canceled)
}
