package account

import (
	"context"

	"focusflow/internal/types"
)

// PaidChecker answers the plan-based paid check.
// Implemented by plan.Evaluator.
type PaidChecker interface {
	IsPaidUser(user *types.UserProfile) bool
}

// LimitChecker answers the Free-tier daily session limit check.
// Implemented by quota.Counter.
type LimitChecker interface {
	HasReachedDailyFocusLimit(ctx context.Context, user *types.UserProfile) bool
}

// Guard composes the entitlement evaluator and the usage counter into the
// single decision the session-creation path needs.
type Guard struct {
	paid  PaidChecker
	limit LimitChecker
}

// NewGuard creates a Guard.
func NewGuard(paid PaidChecker, limit LimitChecker) *Guard {
	return &Guard{paid: paid, limit: limit}
}

// CanCreateFocusSession reports whether the user may start another focus
// session right now: paid users always may, Free users may until they hit
// the daily limit. A nil user resolves through the counter's nil handling
// and is allowed (anonymous timer use is not quota-tracked).
func (g *Guard) CanCreateFocusSession(ctx context.Context, user *types.UserProfile) bool {
	if g.paid.IsPaidUser(user) {
		return true
	}
	return !g.limit.HasReachedDailyFocusLimit(ctx, user)
}
