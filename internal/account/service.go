// Package account implements plan and admin mutations on user profiles,
// plus the guard composition consumed by the dashboard.
//
// Every public mutation follows the same contract: it returns a Result with
// OK=false and a human-readable reason instead of an error. Authorization
// and validation failures are rejected before any persistence call;
// persistence failures are caught at the boundary, logged with the operation
// name, and surfaced as OK=false. Nothing in this package panics or lets an
// internal error escape its public surface.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"focusflow/internal/types"
)

// ProfileStore is the persistence collaborator for user profiles.
// Implemented by db.ProfileRepository.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*types.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*types.UserProfile, error)
	ApplyPatch(ctx context.Context, id string, patch types.ProfilePatch) error
	ListAdmins(ctx context.Context) ([]*types.UserProfile, error)
}

// Result is the outcome of a mutation: a success boolean plus a reason
// string the UI can show when OK is false. Reasons never contain internal
// error details.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result { return Result{OK: true} }
func refused(reason string) Result { return Result{OK: false, Reason: reason} }

// DefaultTrialDays is the trial length applied when the caller does not
// specify one.
const DefaultTrialDays = 14

// Service applies plan changes, trial starts, and admin grants/revokes.
type Service struct {
	profiles          ProfileStore
	primaryAdminEmail string
	validate          *validator.Validate
	now               func() time.Time
	logger            *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for trial deadlines. Intended for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. primaryAdminEmail identifies the account
// whose admin flag can never be revoked through this service; it comes from
// configuration, never from a compiled-in literal.
func NewService(profiles ProfileStore, primaryAdminEmail string, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		profiles:          profiles,
		primaryAdminEmail: primaryAdminEmail,
		validate:          validator.New(),
		now:               time.Now,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdatePlan persists a plan change for the user. There is no authorization
// check on this path: any authenticated user may change their own plan, and
// the actual payment gating happens in the checkout flow.
//
// When status is non-empty it is persisted alongside the plan (used when the
// billing provider reports a subscription change); otherwise only the plan
// changes.
func (s *Service) UpdatePlan(ctx context.Context, userID string, newPlan types.Plan, status types.SubscriptionStatus) Result {
	if !validPlan(newPlan) {
		return refused("unknown plan")
	}

	patch := types.ProfilePatch{Plan: &newPlan}
	if status != "" {
		patch.SubscriptionStatus = &status
	}
	if newPlan == types.PlanFree {
		// Downgrades drop any lingering trial deadline.
		patch.ClearTrialEndsAt = true
	}

	if err := s.profiles.ApplyPatch(ctx, userID, patch); err != nil {
		s.logger.ErrorContext(ctx, "plan update failed",
			"op", "UpdatePlan",
			"user_id", userID,
			"new_plan", string(newPlan),
			"error", err,
		)
		return refused("could not update plan")
	}
	return ok()
}

// GrantAdmin sets IsAdmin=true on the user identified by targetEmail.
// The caller must already be an admin. The target identifier is validated
// as an email before any persistence call. Granting to an existing admin is
// an idempotent success.
func (s *Service) GrantAdmin(ctx context.Context, caller *types.UserProfile, targetEmail string) Result {
	if caller == nil || !caller.IsAdmin {
		return refused("admin privileges required")
	}
	if err := s.validate.Var(targetEmail, "required,email"); err != nil {
		return refused("invalid email address")
	}

	target, err := s.profiles.GetByEmail(ctx, targetEmail)
	if err != nil {
		if isNotFound(err) {
			return refused("no user with that email")
		}
		s.logger.ErrorContext(ctx, "admin grant lookup failed",
			"op", "GrantAdmin",
			"caller_id", caller.ID,
			"error", err,
		)
		return refused("could not look up user")
	}

	if target.IsAdmin {
		return ok()
	}

	isAdmin := true
	if err := s.profiles.ApplyPatch(ctx, target.ID, types.ProfilePatch{IsAdmin: &isAdmin}); err != nil {
		s.logger.ErrorContext(ctx, "admin grant failed",
			"op", "GrantAdmin",
			"caller_id", caller.ID,
			"target_id", target.ID,
			"error", err,
		)
		return refused("could not grant admin")
	}

	s.logger.InfoContext(ctx, "admin granted",
		"caller_id", caller.ID,
		"target_id", target.ID,
	)
	return ok()
}

// RevokeAdmin clears IsAdmin on the target user. The caller must be an
// admin, and two targets are refused unconditionally, even for another
// admin caller:
//
//   - the primary admin (configured identity), and
//   - the caller themselves.
//
// Together these guarantee the system can never reach a state with zero
// admins through this path.
func (s *Service) RevokeAdmin(ctx context.Context, caller *types.UserProfile, targetID string) Result {
	if caller == nil || !caller.IsAdmin {
		return refused("admin privileges required")
	}
	if targetID == "" {
		return refused("target id required")
	}
	if targetID == caller.ID {
		return refused("cannot revoke your own admin access")
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		if isNotFound(err) {
			return refused("no such user")
		}
		s.logger.ErrorContext(ctx, "admin revoke lookup failed",
			"op", "RevokeAdmin",
			"caller_id", caller.ID,
			"target_id", targetID,
			"error", err,
		)
		return refused("could not look up user")
	}

	if target.Email == s.primaryAdminEmail {
		return refused("the primary admin cannot be demoted")
	}

	if !target.IsAdmin {
		return ok()
	}

	isAdmin := false
	if err := s.profiles.ApplyPatch(ctx, target.ID, types.ProfilePatch{IsAdmin: &isAdmin}); err != nil {
		s.logger.ErrorContext(ctx, "admin revoke failed",
			"op", "RevokeAdmin",
			"caller_id", caller.ID,
			"target_id", target.ID,
			"error", err,
		)
		return refused("could not revoke admin")
	}

	s.logger.InfoContext(ctx, "admin revoked",
		"caller_id", caller.ID,
		"target_id", target.ID,
	)
	return ok()
}

// StartTrial puts the user on a Pro trial ending durationDays from now.
// Self-service; no authorization check. A durationDays of 0 or less uses
// DefaultTrialDays.
func (s *Service) StartTrial(ctx context.Context, userID string, durationDays int) Result {
	if durationDays <= 0 {
		durationDays = DefaultTrialDays
	}

	pro := types.PlanPro
	trial := types.SubStatusTrial
	endsAt := s.now().Add(time.Duration(durationDays) * 24 * time.Hour)

	patch := types.ProfilePatch{
		Plan:               &pro,
		SubscriptionStatus: &trial,
		TrialEndsAt:        &endsAt,
	}
	if err := s.profiles.ApplyPatch(ctx, userID, patch); err != nil {
		s.logger.ErrorContext(ctx, "trial start failed",
			"op", "StartTrial",
			"user_id", userID,
			"error", err,
		)
		return refused("could not start trial")
	}
	return ok()
}

// IsTrialExpired reports whether the user's trial has lapsed. Non-trial
// users and trials without a recorded deadline are never expired.
func (s *Service) IsTrialExpired(user *types.UserProfile) bool {
	if user == nil || user.SubscriptionStatus != types.SubStatusTrial {
		return false
	}
	if user.TrialEndsAt == nil {
		return false
	}
	return user.TrialEndsAt.Before(s.now())
}

// ListAdmins returns every profile with the admin flag set. Used by the
// admin dashboard.
func (s *Service) ListAdmins(ctx context.Context) ([]*types.UserProfile, error) {
	return s.profiles.ListAdmins(ctx)
}

// validPlan reports whether p is a recognized plan tier.
func validPlan(p types.Plan) bool {
	for _, known := range types.AllPlans {
		if p == known {
			return true
		}
	}
	return false
}

// isNotFound reports whether err is a profile-not-found AppError, so the
// mutation can return a distinguishable "not found" reason instead of a
// generic persistence failure.
func isNotFound(err error) bool {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == types.ErrCodeNotFoundProfile
	}
	return false
}
