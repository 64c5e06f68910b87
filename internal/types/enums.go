package types

// Plan identifies the subscription tier for a user.
// Tiers are ordered by entitlement level: Free < Pro < Team.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanTeam Plan = "team"
)

// AllPlans lists every plan tier in ascending entitlement order.
// Used by the catalog totality check and the pricing endpoint.
var AllPlans = []Plan{PlanFree, PlanPro, PlanTeam}

// FeatureFlag is a named capability gated by plan.
type FeatureFlag string

const (
	FeatureAICoach             FeatureFlag = "ai_coach"
	FeatureAdvancedStats       FeatureFlag = "advanced_stats"
	FeatureCalendarIntegration FeatureFlag = "calendar_integration"
	FeatureDistractionBlocking FeatureFlag = "distraction_blocking"
	FeatureTeamCollaboration   FeatureFlag = "team_collaboration"
	FeatureSharedStats         FeatureFlag = "shared_stats"
	FeatureAdminDashboard      FeatureFlag = "admin_dashboard"
	FeatureSSOIntegration      FeatureFlag = "sso_integration"
)

// AllFeatureFlags is the complete set of feature flags. Adding a new flag
// here forces the catalog totality test to account for it.
var AllFeatureFlags = []FeatureFlag{
	FeatureAICoach,
	FeatureAdvancedStats,
	FeatureCalendarIntegration,
	FeatureDistractionBlocking,
	FeatureTeamCollaboration,
	FeatureSharedStats,
	FeatureAdminDashboard,
	FeatureSSOIntegration,
}

// SupportTier identifies the support level attached to a plan.
type SupportTier string

const (
	SupportEmail     SupportTier = "email"
	SupportPriority  SupportTier = "priority"
	SupportDedicated SupportTier = "dedicated"
)

// SubscriptionStatus represents the state of a user's subscription.
// Transitions other than Active -> Trial are driven by the billing
// provider and merely persisted here.
type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusPastDue   SubscriptionStatus = "past_due"
	SubStatusTrial     SubscriptionStatus = "trial"
)

// SessionKind distinguishes focus phases from break phases in the timer.
type SessionKind string

const (
	SessionFocus SessionKind = "focus"
	SessionBreak SessionKind = "break"
)

// QuotaFailurePolicy controls how the usage counter behaves when the
// session store cannot be queried.
//
// FailOpen treats the limit as not reached: quota is a soft guideline and
// session creation must not be blocked by a quota subsystem outage.
// FailClosed treats the limit as reached.
type QuotaFailurePolicy string

const (
	QuotaFailOpen   QuotaFailurePolicy = "fail_open"
	QuotaFailClosed QuotaFailurePolicy = "fail_closed"
)
