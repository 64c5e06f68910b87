package plan

import "focusflow/internal/types"

// planRanks orders the tiers by entitlement level for "required plan"
// comparisons. Unknown plans rank below Free so malformed data fails closed.
var planRanks = map[types.Plan]int{
	types.PlanFree: 0,
	types.PlanPro:  1,
	types.PlanTeam: 2,
}

// Evaluator answers entitlement questions for a user: feature access, plan
// ordering, and paid status. All methods are pure lookups against the
// catalog; none of them error or panic, and a nil user is treated as an
// anonymous visitor with no entitlements.
type Evaluator struct {
	catalog Catalog
}

// NewEvaluator creates an Evaluator backed by the given catalog.
func NewEvaluator(catalog Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// HasFeature reports whether the user may use the given feature.
// Admins have every feature regardless of plan. Anonymous (nil) users have
// none.
func (e *Evaluator) HasFeature(user *types.UserProfile, feature types.FeatureFlag) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return e.catalog.Entry(user.Plan).HasFeature(feature)
}

// Rank returns the ordinal entitlement position of the plan:
// Free(0) < Pro(1) < Team(2). Unknown plans return -1.
func (e *Evaluator) Rank(p types.Plan) int {
	if r, ok := planRanks[p]; ok {
		return r
	}
	return -1
}

// MeetsRequiredPlan reports whether the user's plan is at or above the
// required tier. Admins satisfy any requirement.
func (e *Evaluator) MeetsRequiredPlan(user *types.UserProfile, required types.Plan) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	return e.Rank(user.Plan) >= e.Rank(required)
}

// IsPaidUser reports whether the user is on a paying tier.
// Admin status does not make a user "paid"; this check is plan-based only.
func (e *Evaluator) IsPaidUser(user *types.UserProfile) bool {
	if user == nil {
		return false
	}
	return user.Plan == types.PlanPro || user.Plan == types.PlanTeam
}
