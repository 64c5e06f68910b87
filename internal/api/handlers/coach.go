package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/core"
	"focusflow/internal/types"
)

// coachHistoryLimit is how many recent sessions are summarized for the model.
const coachHistoryLimit = 20

// InsightGenerator produces an AI coaching note from session history.
// Implemented by coach.InsightService.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, user *types.UserProfile, recent []types.FocusSessionRecord) (*types.CoachInsight, error)
}

// SessionHistory reads recent sessions for the insight prompt. Implemented
// by db.SessionRepository.
type SessionHistory interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]types.FocusSessionRecord, error)
}

// CoachHandler serves AI coaching insights, gated on the AI Coach feature.
type CoachHandler struct {
	profiles  ProfileReader
	evaluator EntitlementEvaluator
	history   SessionHistory
	insights  InsightGenerator
	logger    *slog.Logger
}

// NewCoachHandler creates a CoachHandler.
func NewCoachHandler(
	profiles ProfileReader,
	evaluator EntitlementEvaluator,
	history SessionHistory,
	insights InsightGenerator,
	logger *slog.Logger,
) *CoachHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoachHandler{
		profiles:  profiles,
		evaluator: evaluator,
		history:   history,
		insights:  insights,
		logger:    logger,
	}
}

// RegisterRoutes mounts the coach endpoint.
func (h *CoachHandler) RegisterRoutes(r chi.Router) {
	r.Get("/coach/insight", h.GetInsight)
}

// GetInsight handles GET /v1/coach/insight. Users without the AI Coach
// feature get a 403 with code "permission_plan_required"; the dashboard
// turns that into an upgrade prompt.
func (h *CoachHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	user, err := h.profiles.GetByID(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if !h.evaluator.HasFeature(user, types.FeatureAICoach) {
		core.Error(w, r, types.NewAppError(
			types.ErrCodePermissionPlanRequired,
			"AI Coach requires the Pro plan",
			nil,
		))
		return
	}

	recent, err := h.history.ListRecent(r.Context(), user.ID, coachHistoryLimit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	insight, err := h.insights.GenerateInsight(r.Context(), user, recent)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: insight})
}
