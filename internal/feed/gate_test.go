package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubQuota struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubQuota) CheckCanCall(_ context.Context, _ string) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

func TestRateLimitGate_Transitions(t *testing.T) {
	quota := &stubQuota{allowed: true}
	gate := NewRateLimitGate(quota)

	require.False(t, gate.Blocked())

	ok, err := gate.CheckCanCall(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, gate.Blocked())

	// Quota exhausted: transition to Blocked.
	quota.allowed = false
	ok, err = gate.CheckCanCall(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, gate.Blocked())

	// The reset policy belongs to the collaborator: when it allows again the
	// gate unblocks.
	quota.allowed = true
	ok, err = gate.CheckCanCall(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, gate.Blocked())
}

func TestRateLimitGate_BlockForcesState(t *testing.T) {
	gate := NewRateLimitGate(&stubQuota{allowed: true})

	gate.Block()
	require.True(t, gate.Blocked())
}

func TestRateLimitGate_QuotaErrorDoesNotTransition(t *testing.T) {
	quota := &stubQuota{err: errors.New("quota service down")}
	gate := NewRateLimitGate(quota)

	ok, err := gate.CheckCanCall(context.Background(), "user-1")
	require.Error(t, err)
	require.False(t, ok)
	require.False(t, gate.Blocked())
}
