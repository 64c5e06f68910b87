package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/core"
	"focusflow/internal/types"
)

// calendarTokenHeader carries the user's Google OAuth access token. The
// identity provider holds the OAuth grant; this service never stores it.
const calendarTokenHeader = "X-Calendar-Token"

// EventLister fetches upcoming events for a user. Implemented by
// calendar.Client.
type EventLister interface {
	UpcomingEvents(ctx context.Context, userID, accessToken string) ([]types.CalendarEvent, error)
}

// CalendarHandler serves the calendar import, gated on the calendar
// integration feature.
type CalendarHandler struct {
	profiles  ProfileReader
	evaluator EntitlementEvaluator
	events    EventLister
	logger    *slog.Logger
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(
	profiles ProfileReader,
	evaluator EntitlementEvaluator,
	events EventLister,
	logger *slog.Logger,
) *CalendarHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarHandler{
		profiles:  profiles,
		evaluator: evaluator,
		events:    events,
		logger:    logger,
	}
}

// RegisterRoutes mounts the calendar endpoint.
func (h *CalendarHandler) RegisterRoutes(r chi.Router) {
	r.Get("/calendar/events", h.ListEvents)
}

// ListEvents handles GET /v1/calendar/events.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
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

	if !h.evaluator.HasFeature(user, types.FeatureCalendarIntegration) {
		core.Error(w, r, types.NewAppError(
			types.ErrCodePermissionPlanRequired,
			"Calendar integration requires the Pro plan",
			nil,
		))
		return
	}

	accessToken := r.Header.Get(calendarTokenHeader)
	if accessToken == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"X-Calendar-Token header is required",
			nil,
		))
		return
	}

	events, err := h.events.UpcomingEvents(r.Context(), user.ID, accessToken)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: events})
}
