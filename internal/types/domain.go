package types

import "time"

// UserProfile is the mutable per-user record that entitlement decisions are
// made against. Profiles are created at registration with Plan=Free,
// IsAdmin=false, SubscriptionStatus=Active and are never hard-deleted by
// this service.
type UserProfile struct {
	ID                 string             `json:"id" db:"id"`
	Email              string             `json:"email" db:"email"`
	Plan               Plan               `json:"plan" db:"plan"`
	IsAdmin            bool               `json:"is_admin" db:"is_admin"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// ProfilePatch describes a partial update to a UserProfile. Nil fields are
// left untouched. ClearTrialEndsAt nulls the trial deadline; it wins over
// TrialEndsAt when both are set.
type ProfilePatch struct {
	Plan               *Plan
	IsAdmin            *bool
	SubscriptionStatus *SubscriptionStatus
	TrialEndsAt        *time.Time
	ClearTrialEndsAt   bool
}

// IsZero reports whether the patch contains no changes.
func (p ProfilePatch) IsZero() bool {
	return p.Plan == nil && p.IsAdmin == nil && p.SubscriptionStatus == nil &&
		p.TrialEndsAt == nil && !p.ClearTrialEndsAt
}

// FocusSessionRecord is one started focus or break session. The timer
// feature owns writes; the quota subsystem only counts rows per UTC day.
type FocusSessionRecord struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	Kind            SessionKind `json:"kind" db:"kind"`
	DurationMinutes int         `json:"duration_minutes" db:"duration_minutes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// PlanCatalogEntry is the immutable, compiled-in configuration for one plan.
// MaxFocusSessionsPerDay of 0 means unlimited; enforcement code must treat
// 0 as no limit.
type PlanCatalogEntry struct {
	Plan                   Plan                 `json:"plan"`
	DisplayName            string               `json:"display_name"`
	PriceCentsMonthly      int64                `json:"price_cents_monthly"`
	Blurb                  string               `json:"blurb"`
	MaxFocusSessionsPerDay int                  `json:"max_focus_sessions_per_day"`
	Features               map[FeatureFlag]bool `json:"features"`
	Support                SupportTier          `json:"support"`
}

// HasFeature reports whether the entry's feature set includes the flag.
func (e PlanCatalogEntry) HasFeature(f FeatureFlag) bool {
	return e.Features[f]
}

// EntitlementSnapshot is the resolved entitlement view returned to the
// dashboard guard: everything the UI needs to decide what to render.
type EntitlementSnapshot struct {
	Plan                  Plan                 `json:"plan"`
	IsAdmin               bool                 `json:"is_admin"`
	SubscriptionStatus    SubscriptionStatus   `json:"subscription_status"`
	TrialEndsAt           *time.Time           `json:"trial_ends_at,omitempty"`
	Features              map[FeatureFlag]bool `json:"features"`
	SessionsToday         int                  `json:"sessions_today"`
	DailySessionLimit     int                  `json:"daily_session_limit"` // 0 = unlimited
	CanCreateFocusSession bool                 `json:"can_create_focus_session"`
}

// CheckoutHandoff is the opaque routing hint returned by RequestPlanUpgrade.
// The actual checkout happens on the payment provider's hosted page.
type CheckoutHandoff struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	TargetPlan  Plan   `json:"target_plan"`
}

// CoachInsight is a short AI-generated productivity observation derived
// from the user's recent session history.
type CoachInsight struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// CalendarEvent is a normalized upcoming event imported from the user's
// external calendar, used to suggest focus blocks around meetings.
type CalendarEvent struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
}
