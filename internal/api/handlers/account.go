package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/account"
	"focusflow/internal/core"
	"focusflow/internal/types"
)

// AccountService is the mutation surface the account handler drives.
// Implemented by account.Service.
type AccountService interface {
	UpdatePlan(ctx context.Context, userID string, newPlan types.Plan, status types.SubscriptionStatus) account.Result
	StartTrial(ctx context.Context, userID string, durationDays int) account.Result
	GrantAdmin(ctx context.Context, caller *types.UserProfile, targetEmail string) account.Result
	RevokeAdmin(ctx context.Context, caller *types.UserProfile, targetID string) account.Result
	ListAdmins(ctx context.Context) ([]*types.UserProfile, error)
}

// UpgradeService creates the checkout handoff for a paid plan upgrade.
// Implemented by billing.CheckoutService.
type UpgradeService interface {
	RequestPlanUpgrade(ctx context.Context, user *types.UserProfile, targetPlan types.Plan) (*types.CheckoutHandoff, error)
}

// UpdatePlanRequest is the request body for POST /v1/me/plan.
type UpdatePlanRequest struct {
	Plan types.Plan `json:"plan" validate:"required,oneof=free pro team"`
}

// StartTrialRequest is the request body for POST /v1/me/trial. A zero or
// omitted duration uses the default trial length.
type StartTrialRequest struct {
	DurationDays int `json:"duration_days" validate:"gte=0,lte=90"`
}

// UpgradeRequest is the request body for POST /v1/me/upgrade. Free is not a
// purchasable target.
type UpgradeRequest struct {
	Plan types.Plan `json:"plan" validate:"required,oneof=pro team"`
}

// GrantAdminRequest is the request body for POST /v1/admin/grants.
type GrantAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountHandler handles self-service plan mutations and the admin grant
// surface.
type AccountHandler struct {
	profiles  ProfileReader
	service   AccountService
	upgrades  UpgradeService
	validator *core.Validator
	logger    *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(
	profiles ProfileReader,
	service AccountService,
	upgrades UpgradeService,
	v *core.Validator,
	logger *slog.Logger,
) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		profiles:  profiles,
		service:   service,
		upgrades:  upgrades,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes mounts the account and admin endpoints.
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/me/plan", h.UpdatePlan)
	r.Post("/me/trial", h.StartTrial)
	r.Post("/me/upgrade", h.RequestUpgrade)

	r.Post("/admin/grants", h.GrantAdmin)
	r.Delete("/admin/grants/{userID}", h.RevokeAdmin)
	r.Get("/admin/users", h.ListAdmins)
}

// UpdatePlan handles POST /v1/me/plan. Self-service: any authenticated user
// may change their own plan record; payment gating happens in the checkout
// flow, not here.
func (h *AccountHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var req UpdatePlanRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result := h.service.UpdatePlan(r.Context(), actor.ID, req.Plan, "")
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// StartTrial handles POST /v1/me/trial.
func (h *AccountHandler) StartTrial(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var req StartTrialRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result := h.service.StartTrial(r.Context(), actor.ID, req.DurationDays)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// RequestUpgrade handles POST /v1/me/upgrade. It returns the checkout
// handoff URL; the plan itself only changes after the payment provider
// confirms the purchase.
func (h *AccountHandler) RequestUpgrade(w http.ResponseWriter, r *http.Request) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return
	}

	var req UpgradeRequest
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

	handoff, err := h.upgrades.RequestPlanUpgrade(r.Context(), user, req.Plan)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: handoff})
}

// GrantAdmin handles POST /v1/admin/grants. The service refuses non-admin
// callers; the handler only resolves the caller profile.
func (h *AccountHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := h.callerProfile(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req GrantAdminRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result := h.service.GrantAdmin(r.Context(), caller, req.Email)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// RevokeAdmin handles DELETE /v1/admin/grants/{userID}.
func (h *AccountHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := h.callerProfile(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	targetID := chi.URLParam(r, "userID")
	result := h.service.RevokeAdmin(r.Context(), caller, targetID)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// ListAdmins handles GET /v1/admin/users. Unlike the mutations, the service
// method has no caller check, so the handler enforces the admin requirement
// itself.
func (h *AccountHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	caller, err := h.callerProfile(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if !caller.IsAdmin {
		core.Error(w, r, types.NewAppError(types.ErrCodePermissionAdminRequired, "Admin privileges required", nil))
		return
	}

	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: admins})
}

// callerProfile resolves the authenticated actor into a full profile.
func (h *AccountHandler) callerProfile(r *http.Request) (*types.UserProfile, error) {
	actor, ok := types.GetActor(r.Context())
	if !ok {
		return nil, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil)
	}
	return h.profiles.GetByID(r.Context(), actor.ID)
}
