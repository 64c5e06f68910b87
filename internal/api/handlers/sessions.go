package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/core"
	"focusflow/internal/types"
)

// SessionStore persists focus session records. Implemented by
// db.SessionRepository.
type SessionStore interface {
	Insert(ctx context.Context, rec *types.FocusSessionRecord) error
	ListRecent(ctx context.Context, userID string, limit int) ([]types.FocusSessionRecord, error)
}

// QuotaMetrics records limit denials. Implemented by metrics.Collector; nil
// disables recording.
type QuotaMetrics interface {
	RecordQuotaDenial(plan string)
}

// CreateSessionRequest is the request body for POST /v1/sessions.
type CreateSessionRequest struct {
	Kind            types.SessionKind `json:"kind" validate:"required,oneof=focus break"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,gte=1,lte=480"`
}

// SessionsHandler starts sessions behind the daily-limit guard and lists
// session history.
type SessionsHandler struct {
	profiles  ProfileReader
	sessions  SessionStore
	guard     SessionGuard
	metrics   QuotaMetrics
	validator *core.Validator
	logger    *slog.Logger
}

// NewSessionsHandler creates a SessionsHandler.
func NewSessionsHandler(
	profiles ProfileReader,
	sessions SessionStore,
	guard SessionGuard,
	metrics QuotaMetrics,
	v *core.Validator,
	logger *slog.Logger,
) *SessionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionsHandler{
		profiles:  profiles,
		sessions:  sessions,
		guard:     guard,
		metrics:   metrics,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes mounts the session endpoints.
func (h *SessionsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions", h.ListSessions)
}

// CreateSession handles POST /v1/sessions. The guard is consulted before
// any write: paid users always pass, Free users pass until they hit the
// daily limit, at which point the request is refused with a 403 carrying
// code "limit_daily_sessions_exceeded". Only focus sessions count against
// the quota; the store's range count excludes breaks.
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var req CreateSessionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, err := h.profiles.GetByID(r.Context(), actor.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if !h.guard.CanCreateFocusSession(r.Context(), user) {
		if h.metrics != nil {
			h.metrics.RecordQuotaDenial(string(user.Plan))
		}
		h.logger.InfoContext(r.Context(), "session creation blocked by daily limit",
			"user_id", user.ID,
			"plan", string(user.Plan),
		)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeLimitDailySessions,
			"Daily focus session limit reached. Upgrade to Pro for unlimited sessions.",
			nil,
		))
		return
	}

	rec := &types.FocusSessionRecord{
		UserID:          user.ID,
		Kind:            req.Kind,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.sessions.Insert(r.Context(), rec); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: rec})
}

// ListSessions handles GET /v1/sessions?limit=N, newest first.
func (h *SessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "limit must be an integer between 1 and 100", nil))
			return
		}
		limit = n
	}

	records, err := h.sessions.ListRecent(r.Context(), actor.ID, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}
