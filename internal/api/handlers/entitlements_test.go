package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"focusflow/internal/core"
	"focusflow/internal/plan"
	"focusflow/internal/types"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// mockProfileReader implements ProfileReader for testing.
type mockProfileReader struct {
	getByIDFn func(ctx context.Context, id string) (*types.UserProfile, error)
}

func (m *mockProfileReader) GetByID(ctx context.Context, id string) (*types.UserProfile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &types.UserProfile{
		ID:                 id,
		Email:              "user@example.com",
		Plan:               types.PlanFree,
		SubscriptionStatus: types.SubStatusActive,
	}, nil
}

// mockUsageReader implements UsageReader for testing.
type mockUsageReader struct {
	count int
	err   error
}

func (m *mockUsageReader) SessionsToday(ctx context.Context, userID string) (int, error) {
	return m.count, m.err
}

// mockGuard implements SessionGuard for testing.
type mockGuard struct {
	allow bool
}

func (m *mockGuard) CanCreateFocusSession(ctx context.Context, user *types.UserProfile) bool {
	return m.allow
}

// mockTrialChecker implements TrialChecker for testing.
type mockTrialChecker struct {
	expired bool
}

func (m *mockTrialChecker) IsTrialExpired(user *types.UserProfile) bool {
	return m.expired
}

// Compile-time interface assertions for mocks.
var (
	_ ProfileReader        = (*mockProfileReader)(nil)
	_ EntitlementEvaluator = (*plan.Evaluator)(nil)
	_ UsageReader          = (*mockUsageReader)(nil)
	_ SessionGuard         = (*mockGuard)(nil)
	_ TrialChecker         = (*mockTrialChecker)(nil)
)

// =============================================================================
// Test Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEvaluator() *plan.Evaluator {
	return plan.NewEvaluator(plan.NewStaticCatalog())
}

// contextWithActor creates a context with an authenticated user Actor.
func contextWithActor(userID string) context.Context {
	ctx := context.Background()
	ctx = types.WithRequestID(ctx, "req_test_123")
	return types.WithActor(ctx, types.Actor{
		ID:    userID,
		Type:  types.ActorTypeUser,
		Email: "user@example.com",
	})
}

// makeRequest creates an HTTP request with the given method, path, body, and context.
func makeRequest(method, path string, body interface{}, ctx context.Context) *http.Request {
	var reqBody *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	return req
}

// parseJSONResponse decodes the response body into the given target.
func parseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse response body: %v\nbody: %s", err, rr.Body.String())
	}
}

// errorCode extracts the error.code field from an error response.
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp core.APIErrorResponse
	parseJSONResponse(t, rr, &resp)
	return resp.Error.Code
}

func newTestEntitlementsHandler(
	profiles ProfileReader,
	usage UsageReader,
	guard SessionGuard,
	trials TrialChecker,
) *EntitlementsHandler {
	return NewEntitlementsHandler(
		profiles,
		testEvaluator(),
		usage,
		guard,
		trials,
		plan.NewStaticCatalog(),
		testLogger(),
	)
}

// =============================================================================
// GetSnapshot Tests
// =============================================================================

func TestGetSnapshot_FreeUser(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{},
		&mockUsageReader{count: 3},
		&mockGuard{allow: true},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("user-1"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data types.EntitlementSnapshot `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	if resp.Data.Plan != types.PlanFree {
		t.Errorf("expected plan free, got %s", resp.Data.Plan)
	}
	if resp.Data.SessionsToday != 3 {
		t.Errorf("expected 3 sessions today, got %d", resp.Data.SessionsToday)
	}
	if resp.Data.DailySessionLimit != plan.FreeDailySessionLimit {
		t.Errorf("expected limit %d, got %d", plan.FreeDailySessionLimit, resp.Data.DailySessionLimit)
	}
	if !resp.Data.CanCreateFocusSession {
		t.Error("expected can_create_focus_session=true")
	}
	if len(resp.Data.Features) != len(types.AllFeatureFlags) {
		t.Errorf("snapshot must cover every feature flag: got %d, want %d",
			len(resp.Data.Features), len(types.AllFeatureFlags))
	}
	if resp.Data.Features[types.FeatureAICoach] {
		t.Error("free plan must not have ai_coach")
	}
}

func TestGetSnapshot_ProUserUnlimited(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{getByIDFn: func(ctx context.Context, id string) (*types.UserProfile, error) {
			return &types.UserProfile{
				ID:                 id,
				Plan:               types.PlanPro,
				SubscriptionStatus: types.SubStatusActive,
			}, nil
		}},
		&mockUsageReader{count: 42},
		&mockGuard{allow: true},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("user-1"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	var resp struct {
		Data types.EntitlementSnapshot `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	if resp.Data.DailySessionLimit != 0 {
		t.Errorf("pro plan limit must be 0 (unlimited), got %d", resp.Data.DailySessionLimit)
	}
	if !resp.Data.Features[types.FeatureAICoach] {
		t.Error("pro plan must have ai_coach")
	}
	if resp.Data.Features[types.FeatureSSOIntegration] {
		t.Error("pro plan must not have sso_integration")
	}
}

func TestGetSnapshot_AdminSeesAllFeatures(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{getByIDFn: func(ctx context.Context, id string) (*types.UserProfile, error) {
			return &types.UserProfile{
				ID:                 id,
				Plan:               types.PlanFree,
				IsAdmin:            true,
				SubscriptionStatus: types.SubStatusActive,
			}, nil
		}},
		&mockUsageReader{},
		&mockGuard{allow: true},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("admin-1"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	var resp struct {
		Data types.EntitlementSnapshot `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	for _, f := range types.AllFeatureFlags {
		if !resp.Data.Features[f] {
			t.Errorf("admin snapshot must enable %s", f)
		}
	}
	if !resp.Data.IsAdmin {
		t.Error("expected is_admin=true")
	}
}

func TestGetSnapshot_NoActor(t *testing.T) {
	h := newTestEntitlementsHandler(&mockProfileReader{}, &mockUsageReader{}, &mockGuard{}, &mockTrialChecker{})

	req := makeRequest("GET", "/v1/me/entitlements", nil, nil)
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != string(types.ErrCodeAuthTokenMissing) {
		t.Errorf("expected code %s, got %s", types.ErrCodeAuthTokenMissing, code)
	}
}

func TestGetSnapshot_ProfileLookupFails(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{getByIDFn: func(ctx context.Context, id string) (*types.UserProfile, error) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
		}},
		&mockUsageReader{},
		&mockGuard{},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("ghost"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetSnapshot_UsageLookupFails(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{},
		&mockUsageReader{err: errors.New("store down")},
		&mockGuard{},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("user-1"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
}

func TestGetSnapshot_TrialFieldsPresent(t *testing.T) {
	endsAt := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	h := newTestEntitlementsHandler(
		&mockProfileReader{getByIDFn: func(ctx context.Context, id string) (*types.UserProfile, error) {
			return &types.UserProfile{
				ID:                 id,
				Plan:               types.PlanPro,
				SubscriptionStatus: types.SubStatusTrial,
				TrialEndsAt:        &endsAt,
			}, nil
		}},
		&mockUsageReader{},
		&mockGuard{allow: true},
		&mockTrialChecker{},
	)

	req := makeRequest("GET", "/v1/me/entitlements", nil, contextWithActor("user-1"))
	rr := httptest.NewRecorder()

	h.GetSnapshot(rr, req)

	var resp struct {
		Data types.EntitlementSnapshot `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	if resp.Data.SubscriptionStatus != types.SubStatusTrial {
		t.Errorf("expected trial status, got %s", resp.Data.SubscriptionStatus)
	}
	if resp.Data.TrialEndsAt == nil || !resp.Data.TrialEndsAt.Equal(endsAt) {
		t.Errorf("expected trial_ends_at %v, got %v", endsAt, resp.Data.TrialEndsAt)
	}
}

// =============================================================================
// CheckFeature Tests
// =============================================================================

func TestCheckFeature_Enabled(t *testing.T) {
	h := newTestEntitlementsHandler(
		&mockProfileReader{getByIDFn: func(ctx context.Context, id string) (*types.UserProfile, error) {
			return &types.UserProfile{ID: id, Plan: types.PlanPro}, nil
		}},
		&mockUsageReader{},
		&mockGuard{},
		&mockTrialChecker{},
	)

	rr := checkFeature(t, h, "ai_coach")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data featureCheckResponse `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	if !resp.Data.Enabled {
		t.Error("expected ai_coach enabled for pro user")
	}
	if resp.Data.Feature != types.FeatureAICoach {
		t.Errorf("expected feature ai_coach, got %s", resp.Data.Feature)
	}
}

func TestCheckFeature_Disabled(t *testing.T) {
	h := newTestEntitlementsHandler(&mockProfileReader{}, &mockUsageReader{}, &mockGuard{}, &mockTrialChecker{})

	rr := checkFeature(t, h, "ai_coach")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Data featureCheckResponse `json:"data"`
	}
	parseJSONResponse(t, rr, &resp)

	if resp.Data.Enabled {
		t.Error("free user must not have ai_coach")
	}
}

func TestCheckFeature_UnknownFeature(t *testing.T) {
	h := newTestEntitlementsHandler(&mockProfileReader{}, &mockUsageReader{}, &mockGuard{}, &mockTrialChecker{})

	rr := checkFeature(t, h, "time_travel")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown feature, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != string(types.ErrCodeValidationInvalidFeature) {
		t.Errorf("expected code %s, got %s", types.ErrCodeValidationInvalidFeature, code)
	}
}

// checkFeature routes a feature-check request through a chi router so the
// URL parameter is populated.
func checkFeature(t *testing.T, h *EntitlementsHandler, feature string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := makeRequest("GET", "/me/entitlements/"+feature, nil, contextWithActor("user-1"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
