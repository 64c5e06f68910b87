// Package quota enforces the daily focus-session limit for Free-plan users.
//
// The limit is a soft guideline, not a hard admission-control barrier: two
// near-simultaneous session starts may both observe count < limit and both
// succeed, and a session-store outage does not block session creation under
// the default fail-open policy.
package quota

import (
	"context"
	"log/slog"
	"time"

	"focusflow/internal/plan"
	"focusflow/internal/types"
)

// SessionCounter is the persisted-store collaborator that counts focus
// sessions for a user within a half-open time range.
// Implemented by db.SessionRepository.
type SessionCounter interface {
	CountInRange(ctx context.Context, userID string, startInclusive, endExclusive time.Time) (int, error)
}

// StoreErrorRecorder receives telemetry about session-store failures and the
// policy that decided the outcome. Implemented by metrics.Collector.
type StoreErrorRecorder interface {
	RecordQuotaStoreError(policy string)
}

// Counter answers "has this user exhausted today's Free-tier session quota".
type Counter struct {
	sessions SessionCounter
	catalog  plan.Catalog
	policy   types.QuotaFailurePolicy
	now      func() time.Time
	logger   *slog.Logger
	metrics  StoreErrorRecorder
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithClock overrides the clock used to compute the current UTC day.
// Intended for tests.
func WithClock(now func() time.Time) CounterOption {
	return func(c *Counter) {
		c.now = now
	}
}

// WithStoreErrorRecorder attaches a telemetry recorder for store failures.
func WithStoreErrorRecorder(m StoreErrorRecorder) CounterOption {
	return func(c *Counter) {
		c.metrics = m
	}
}

// NewCounter creates a Counter with the given session store, catalog, and
// failure policy. An unrecognized policy falls back to fail-open, matching
// the default behavior.
func NewCounter(sessions SessionCounter, catalog plan.Catalog, policy types.QuotaFailurePolicy, logger *slog.Logger, opts ...CounterOption) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Counter{
		sessions: sessions,
		catalog:  catalog,
		policy:   policy,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasReachedDailyFocusLimit reports whether the user has started their full
// daily allowance of focus sessions.
//
// The check is plan-based only: paid users are never limited here, and an
// admin on the Free plan is still counted (admin exemption happens upstream
// via feature checks, not in the quota path). A nil user is never limited.
//
// The calendar day is computed in UTC, so quotas reset at UTC midnight
// regardless of the user's timezone. The boundary computation is isolated in
// dayBounds so the policy can be swapped without touching the rest of the
// counter.
//
// If the session store cannot be queried, the configured failure policy
// decides the answer; the error itself is logged, never propagated.
func (c *Counter) HasReachedDailyFocusLimit(ctx context.Context, user *types.UserProfile) bool {
	if user == nil || user.Plan != types.PlanFree {
		return false
	}

	limit := c.catalog.Entry(user.Plan).MaxFocusSessionsPerDay
	if limit <= 0 {
		// Unlimited; nothing to enforce.
		return false
	}

	start, end := dayBounds(c.now())
	count, err := c.sessions.CountInRange(ctx, user.ID, start, end)
	if err != nil {
		c.logger.ErrorContext(ctx, "daily session count query failed",
			"user_id", user.ID,
			"policy", string(c.policy),
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordQuotaStoreError(string(c.policy))
		}
		return c.policy == types.QuotaFailClosed
	}

	return count >= limit
}

// SessionsToday returns the number of sessions the user has started in the
// current UTC day. Used by the entitlement snapshot endpoint; unlike the
// limit check, store errors are returned to the caller.
func (c *Counter) SessionsToday(ctx context.Context, userID string) (int, error) {
	start, end := dayBounds(c.now())
	return c.sessions.CountInRange(ctx, userID, start, end)
}

// dayBounds returns the half-open UTC calendar-day window [start, end)
// containing t. The UTC-day policy is deliberate carried-over behavior;
// changing it to user-local days requires product confirmation and only a
// change to this function.
func dayBounds(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 1)
	return start, end
}
