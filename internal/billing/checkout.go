// Package billing implements the checkout handoff for self-service plan
// upgrades. The service never processes payment itself: it creates a hosted
// Stripe Checkout session and hands the URL back to the dashboard. Plan
// changes resulting from a completed checkout arrive later through the
// billing provider and are persisted via the account service.
package billing

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"

	"focusflow/internal/config"
	"focusflow/internal/external"
	"focusflow/internal/types"
)

// stripeAPIBase is the default Stripe API base URL.
// Overridable in tests via CheckoutConfig.BaseURL.
const stripeAPIBase = "https://api.stripe.com"

// CheckoutConfig holds the configuration for creating a CheckoutService.
type CheckoutConfig struct {
	Billing    config.BillingConfig
	SuccessURL string
	CancelURL  string
	BaseURL    string // Override for testing; defaults to stripeAPIBase
	Logger     *slog.Logger
	Metrics    CheckoutRecorder
}

// CheckoutRecorder receives telemetry about checkout session attempts.
// Implemented by metrics.Collector.
type CheckoutRecorder interface {
	RecordCheckoutSession(targetPlan, outcome string)
}

// CheckoutService creates Stripe Checkout sessions for plan upgrades via
// direct REST calls through the BaseClient, so every request inherits the
// platform's circuit breaker, retries, and error mapping.
type CheckoutService struct {
	base       *external.BaseClient
	secretKey  string
	baseURL    string
	prices     map[types.Plan]string
	successURL string
	cancelURL  string
	logger     *slog.Logger
	metrics    CheckoutRecorder
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(httpClient *http.Client, cfg CheckoutConfig) *CheckoutService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = stripeAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := external.NewBaseClient(httpClient, "stripe", external.DefaultRetryPolicy(), "FocusFlow/1.0")

	return &CheckoutService{
		base:      base,
		secretKey: cfg.Billing.StripeSecretKey.Unmask(),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		prices: map[types.Plan]string{
			types.PlanPro:  cfg.Billing.PriceProMonthly,
			types.PlanTeam: cfg.Billing.PriceTeamMonthly,
		},
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// stripeCheckoutSession is the subset of the Checkout Session response this
// service reads.
type stripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// RequestPlanUpgrade creates a Checkout session that upgrades the user to
// targetPlan and returns the handoff token/URL the dashboard redirects to.
// Only paid tiers have a price; requesting an upgrade to Free is a
// validation error.
func (s *CheckoutService) RequestPlanUpgrade(ctx context.Context, user *types.UserProfile, targetPlan types.Plan) (*types.CheckoutHandoff, error) {
	priceID, ok := s.prices[targetPlan]
	if !ok || priceID == "" {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidPlan, "no purchasable price for plan", nil)
	}

	params := url.Values{}
	params.Set("mode", "subscription")
	params.Set("client_reference_id", user.ID)
	params.Set("customer_email", user.Email)
	params.Set("success_url", s.successURL)
	params.Set("cancel_url", s.cancelURL)
	params.Set("metadata[user_id]", user.ID)
	params.Set("metadata[plan]", string(targetPlan))
	params.Set("line_items[0][price]", priceID)
	params.Set("line_items[0][quantity]", "1")

	resp, err := s.doPost(ctx, "/v1/checkout/sessions", params)
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session request failed",
			"op", "RequestPlanUpgrade",
			"user_id", user.ID,
			"target_plan", string(targetPlan),
			"error", err,
		)
		s.record(targetPlan, "error")
		return nil, types.NewAppError(types.ErrCodeUpstreamStripe, "checkout provider unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.ErrorContext(ctx, "checkout session rejected",
			"op", "RequestPlanUpgrade",
			"user_id", user.ID,
			"status", resp.StatusCode,
		)
		s.record(targetPlan, "rejected")
		return nil, types.NewAppError(types.ErrCodeUpstreamStripe, "checkout provider rejected the request", nil)
	}

	var session stripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to decode checkout session response", err)
	}

	s.record(targetPlan, "created")
	return &types.CheckoutHandoff{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		TargetPlan:  targetPlan,
	}, nil
}

// record emits checkout telemetry when a recorder is configured.
func (s *CheckoutService) record(targetPlan types.Plan, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCheckoutSession(string(targetPlan), outcome)
	}
}

// doPost performs an authenticated POST request to the Stripe API with a
// form-encoded body.
func (s *CheckoutService) doPost(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Stripe-Version", stripe.APIVersion)

	return s.base.Do(req)
}
