package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"focusflow/internal/core"
	"focusflow/internal/plan"
	"focusflow/internal/types"
)

// ProfileReader provides the read access handlers need to resolve the
// authenticated actor into a full profile. Implemented by
// db.ProfileRepository.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*types.UserProfile, error)
}

// EntitlementEvaluator answers feature and plan questions for a profile.
// Implemented by plan.Evaluator.
type EntitlementEvaluator interface {
	HasFeature(user *types.UserProfile, feature types.FeatureFlag) bool
	MeetsRequiredPlan(user *types.UserProfile, required types.Plan) bool
	IsPaidUser(user *types.UserProfile) bool
}

// UsageReader reports the user's session count for the current UTC day.
// Implemented by quota.Counter.
type UsageReader interface {
	SessionsToday(ctx context.Context, userID string) (int, error)
}

// SessionGuard is the composed session-creation decision.
// Implemented by account.Guard.
type SessionGuard interface {
	CanCreateFocusSession(ctx context.Context, user *types.UserProfile) bool
}

// TrialChecker reports whether a trial has lapsed. Implemented by
// account.Service.
type TrialChecker interface {
	IsTrialExpired(user *types.UserProfile) bool
}

// EntitlementsHandler serves the resolved entitlement view the dashboard
// renders from.
type EntitlementsHandler struct {
	profiles  ProfileReader
	evaluator EntitlementEvaluator
	usage     UsageReader
	guard     SessionGuard
	trials    TrialChecker
	catalog   plan.Catalog
	logger    *slog.Logger
}

// NewEntitlementsHandler creates an EntitlementsHandler.
func NewEntitlementsHandler(
	profiles ProfileReader,
	evaluator EntitlementEvaluator,
	usage UsageReader,
	guard SessionGuard,
	trials TrialChecker,
	catalog plan.Catalog,
	logger *slog.Logger,
) *EntitlementsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementsHandler{
		profiles:  profiles,
		evaluator: evaluator,
		usage:     usage,
		guard:     guard,
		trials:    trials,
		catalog:   catalog,
		logger:    logger,
	}
}

// RegisterRoutes mounts the entitlement endpoints.
func (h *EntitlementsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me/entitlements", h.GetSnapshot)
	r.Get("/me/entitlements/{feature}", h.CheckFeature)
}

// featureCheckResponse is the response for GET /v1/me/entitlements/{feature}.
type featureCheckResponse struct {
	Feature types.FeatureFlag `json:"feature"`
	Enabled bool              `json:"enabled"`
}

// GetSnapshot handles GET /v1/me/entitlements. The profile and today's
// session count are fetched concurrently; the snapshot is assembled from
// both plus the catalog entry for the user's plan.
func (h *EntitlementsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var (
		user          *types.UserProfile
		sessionsToday int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		user, err = h.profiles.GetByID(ctx, actor.ID)
		return err
	})
	g.Go(func() error {
		var err error
		sessionsToday, err = h.usage.SessionsToday(ctx, actor.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		core.Error(w, r, err)
		return
	}

	entry := h.catalog.Entry(user.Plan)

	// Admins see every feature enabled, so the snapshot's feature map is
	// resolved through the evaluator rather than copied from the catalog.
	features := make(map[types.FeatureFlag]bool, len(types.AllFeatureFlags))
	for _, f := range types.AllFeatureFlags {
		features[f] = h.evaluator.HasFeature(user, f)
	}

	snapshot := types.EntitlementSnapshot{
		Plan:                  user.Plan,
		IsAdmin:               user.IsAdmin,
		SubscriptionStatus:    user.SubscriptionStatus,
		TrialEndsAt:           user.TrialEndsAt,
		Features:              features,
		SessionsToday:         sessionsToday,
		DailySessionLimit:     entry.MaxFocusSessionsPerDay,
		CanCreateFocusSession: h.guard.CanCreateFocusSession(r.Context(), user),
	}

	if h.trials.IsTrialExpired(user) {
		h.logger.InfoContext(r.Context(), "expired trial observed on snapshot",
			"user_id", user.ID,
		)
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: snapshot})
}

// CheckFeature handles GET /v1/me/entitlements/{feature}. Unknown feature
// names are a 400, not a silent false, so client typos surface immediately.
func (h *EntitlementsHandler) CheckFeature(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	feature := types.FeatureFlag(chi.URLParam(r, "feature"))
	if !validFeature(feature) {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidFeature, "unknown feature flag", nil))
		return
	}

	user, err := h.profiles.GetByID(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: featureCheckResponse{
		Feature: feature,
		Enabled: h.evaluator.HasFeature(user, feature),
	}})
}

// validFeature reports whether f is a recognized feature flag.
func validFeature(f types.FeatureFlag) bool {
	for _, known := range types.AllFeatureFlags {
		if f == known {
			return true
		}
	}
	return false
}
