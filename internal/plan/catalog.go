// Package plan provides the plan catalog and entitlement evaluation logic
// for the FocusFlow subscription tiers.
package plan

import "focusflow/internal/types"

// Catalog is the authoritative mapping from plan tier to its entitlements.
// This is the single source of truth for what each plan allows.
type Catalog interface {
	// Entry returns the catalog entry for the given plan. For unknown plans,
	// returns the most restrictive (Free) entry to fail safely.
	Entry(p types.Plan) types.PlanCatalogEntry

	// Entries returns the catalog entries for all plans in ascending
	// entitlement order, for the pricing endpoint.
	Entries() []types.PlanCatalogEntry
}

// staticCatalog is a compile-time plan catalog backed by an in-memory map.
// It implements Catalog and is the standard implementation for production use.
type staticCatalog struct {
	entries map[types.Plan]types.PlanCatalogEntry
}

// FreeDailySessionLimit is the number of focus sessions a Free-plan user may
// start per UTC day. Paid plans are unlimited (0).
const FreeDailySessionLimit = 5

// catalogDefaults defines the hardcoded plan entitlements:
//
//	| Plan | Sessions/Day  | Features                                  | Support   |
//	|------|---------------|-------------------------------------------|-----------|
//	| Free | 5             | (none)                                    | Email     |
//	| Pro  | 0 (unlimited) | AICoach, AdvancedStats, Calendar, Blocking| Priority  |
//	| Team | 0 (unlimited) | Pro features + Collab, SharedStats,       | Dedicated |
//	|      |               | AdminDashboard, SSO                       |           |
//
// A session limit of 0 represents "unlimited" -- enforcement code must treat
// 0 as no limit.
var catalogDefaults = map[types.Plan]types.PlanCatalogEntry{
	types.PlanFree: {
		Plan:                   types.PlanFree,
		DisplayName:            "Free",
		PriceCentsMonthly:      0,
		Blurb:                  "Get started with focused work",
		MaxFocusSessionsPerDay: FreeDailySessionLimit,
		Features:               map[types.FeatureFlag]bool{},
		Support:                types.SupportEmail,
	},
	types.PlanPro: {
		Plan:                   types.PlanPro,
		DisplayName:            "Pro",
		PriceCentsMonthly:      900,
		Blurb:                  "Unlimited sessions and the AI coach",
		MaxFocusSessionsPerDay: 0, // Unlimited
		Features: map[types.FeatureFlag]bool{
			types.FeatureAICoach:             true,
			types.FeatureAdvancedStats:       true,
			types.FeatureCalendarIntegration: true,
			types.FeatureDistractionBlocking: true,
		},
		Support: types.SupportPriority,
	},
	types.PlanTeam: {
		Plan:                   types.PlanTeam,
		DisplayName:            "Team",
		PriceCentsMonthly:      1900,
		Blurb:                  "Shared focus for the whole team",
		MaxFocusSessionsPerDay: 0, // Unlimited
		Features: map[types.FeatureFlag]bool{
			types.FeatureAICoach:             true,
			types.FeatureAdvancedStats:       true,
			types.FeatureCalendarIntegration: true,
			types.FeatureDistractionBlocking: true,
			types.FeatureTeamCollaboration:   true,
			types.FeatureSharedStats:         true,
			types.FeatureAdminDashboard:      true,
			types.FeatureSSOIntegration:      true,
		},
		Support: types.SupportDedicated,
	},
}

// NewStaticCatalog returns a Catalog backed by the compiled-in plan
// entitlements. This is the standard production implementation; no database
// or external service is required.
func NewStaticCatalog() Catalog {
	// Copy the defaults into a new map so callers cannot mutate the
	// package-level variable through an interface cast.
	m := make(map[types.Plan]types.PlanCatalogEntry, len(catalogDefaults))
	for p, e := range catalogDefaults {
		features := make(map[types.FeatureFlag]bool, len(e.Features))
		for f, on := range e.Features {
			features[f] = on
		}
		e.Features = features
		m[p] = e
	}
	return &staticCatalog{entries: m}
}

// Entry returns the catalog entry for the given plan.
// If the plan is unknown, it returns the Free entry as a safe default.
// The returned entry carries its own feature map, so mutating it cannot
// corrupt the catalog.
func (c *staticCatalog) Entry(p types.Plan) types.PlanCatalogEntry {
	e, ok := c.entries[p]
	if !ok {
		e = c.entries[types.PlanFree]
	}
	return copyEntry(e)
}

// Entries returns the catalog entries for all plans in ascending entitlement
// order.
func (c *staticCatalog) Entries() []types.PlanCatalogEntry {
	out := make([]types.PlanCatalogEntry, 0, len(types.AllPlans))
	for _, p := range types.AllPlans {
		out = append(out, copyEntry(c.entries[p]))
	}
	return out
}

func copyEntry(e types.PlanCatalogEntry) types.PlanCatalogEntry {
	features := make(map[types.FeatureFlag]bool, len(e.Features))
	for f, on := range e.Features {
		features[f] = on
	}
	e.Features = features
	return e
}
