package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"focusflow/internal/config"
	"focusflow/internal/types"
)

// mockAuthenticator satisfies Authenticator. If Err is set it is returned;
// otherwise Actor is.
type mockAuthenticator struct {
	Actor *types.Actor
	Err   error

	lastToken string
}

func (m *mockAuthenticator) VerifyToken(token string) (*types.Actor, error) {
	m.lastToken = token
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Actor, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(&config.Config{}, logger)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

// --- AuthMiddleware Tests ---

func TestAuthMiddleware_ValidToken_InjectsActor(t *testing.T) {
	srv := newTestServer(t)
	auth := &mockAuthenticator{Actor: &types.Actor{
		ID:    "user-123",
		Type:  types.ActorTypeUser,
		Email: "user@example.com",
	}}
	srv.Authenticator = auth

	var capturedActor types.Actor
	var actorFound bool
	handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedActor, actorFound = types.GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/entitlements", nil)
	req.Header.Set("Authorization", "Bearer tok_abc123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !actorFound {
		t.Fatal("expected actor in context")
	}
	if capturedActor.ID != "user-123" {
		t.Errorf("actor ID: got %q, want user-123", capturedActor.ID)
	}
	if capturedActor.Email != "user@example.com" {
		t.Errorf("actor Email: got %q, want user@example.com", capturedActor.Email)
	}
	if auth.lastToken != "tok_abc123" {
		t.Errorf("verifier received token %q, want tok_abc123", auth.lastToken)
	}
}

func TestAuthMiddleware_MissingAuthHeader_Returns401(t *testing.T) {
	srv := newTestServer(t)
	srv.Authenticator = &mockAuthenticator{Actor: &types.Actor{ID: "should_not_reach"}}

	nextCalled := false
	handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/entitlements", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if nextCalled {
		t.Error("next handler should NOT be called when Authorization header is missing")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != string(types.ErrCodeAuthTokenMissing) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeAuthTokenMissing, resp.Error.Code)
	}
}

func TestAuthMiddleware_ExpiredToken_Returns401WithExpiredCode(t *testing.T) {
	srv := newTestServer(t)
	srv.Authenticator = &mockAuthenticator{
		Err: types.NewAppError(types.ErrCodeAuthTokenExpired, "access token has expired", nil),
	}

	handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/entitlements", nil)
	req.Header.Set("Authorization", "Bearer tok_expired")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != string(types.ErrCodeAuthTokenExpired) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeAuthTokenExpired, resp.Error.Code)
	}
}

func TestAuthMiddleware_VerifierError_Returns401(t *testing.T) {
	srv := newTestServer(t)
	srv.Authenticator = &mockAuthenticator{Err: errors.New("verifier exploded")}

	handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/entitlements", nil)
	req.Header.Set("Authorization", "Bearer tok_bad")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != string(types.ErrCodeAuthTokenInvalid) {
		t.Errorf("expected error code %q, got %q", types.ErrCodeAuthTokenInvalid, resp.Error.Code)
	}
}

func TestAuthMiddleware_PublicPathsBypassAuth(t *testing.T) {
	srv := newTestServer(t)
	srv.Authenticator = &mockAuthenticator{Err: errors.New("should not be consulted")}

	for _, path := range []string{"/health", "/metrics", "/v1/plans"} {
		t.Run(path, func(t *testing.T) {
			nextCalled := false
			handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if !nextCalled {
				t.Errorf("public path %s should bypass authentication", path)
			}
		})
	}
}

func TestAuthMiddleware_NilAuthenticator_PassesThrough(t *testing.T) {
	srv := newTestServer(t)

	nextCalled := false
	handler := srv.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/entitlements", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !nextCalled {
		t.Error("nil authenticator should pass requests through")
	}
}

// --- extractBearerToken Tests ---

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer tok_123", "tok_123"},
		{"lowercase scheme", "bearer tok_123", "tok_123"},
		{"mixed case scheme", "BeArEr tok_123", "tok_123"},
		{"trailing whitespace trimmed", "Bearer tok_123  ", "tok_123"},
		{"empty token", "Bearer ", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"no scheme", "tok_123", ""},
		{"empty header", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractBearerToken(tc.header); got != tc.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}
