package feed

import (
	"context"
	"log/slog"
	"sync"
)

// QuotaChecker is the slice of the provider client the gate consults.
type QuotaChecker interface {
	CheckCanCall(ctx context.Context, userID string) (bool, error)
}

// RateLimitGate tracks whether the current identity may call the provider
// now. Two states: Allowed and Blocked. The quota reset policy belongs to the
// collaborator, so Blocked is re-verified against it on every check rather
// than timed out locally.
type RateLimitGate struct {
	quota QuotaChecker

	mu      sync.Mutex
	blocked bool
}

// NewRateLimitGate creates a gate in the Allowed state.
func NewRateLimitGate(quota QuotaChecker) *RateLimitGate {
	return &RateLimitGate{quota: quota}
}

// CheckCanCall queries the quota collaborator and transitions the gate.
// A false result means the caller must serve cached data instead.
func (g *RateLimitGate) CheckCanCall(ctx context.Context, userID string) (bool, error) {
	allowed, err := g.quota.CheckCanCall(ctx, userID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	wasBlocked := g.blocked
	g.blocked = !allowed
	g.mu.Unlock()

	if !allowed && !wasBlocked {
		slog.Info("[RateLimitGate] Blocked", "user_id", userID)
	}
	if allowed && wasBlocked {
		slog.Info("[RateLimitGate] Quota reset, unblocked", "user_id", userID)
	}
	return allowed, nil
}

// Block forces the Blocked state. Used when a bypassing call (forced refresh)
// learns from the provider itself that the quota is spent.
func (g *RateLimitGate) Block() {
	g.mu.Lock()
	g.blocked = true
	g.mu.Unlock()
}

// Blocked reports the gate's current state without consulting the quota
// collaborator.
func (g *RateLimitGate) Blocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocked
}
