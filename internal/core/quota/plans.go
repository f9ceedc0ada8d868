package quota

import "github.com/markdave123-py/Admitly/internal/models"

// Unlimited marks a feature with no quota for the plan.
const Unlimited = -1

// UnlimitedRemaining is the sentinel reported when no limit applies
// (admin bypass or an unlimited plan feature).
const UnlimitedRemaining = 9999

// GuestWeeklyLimit caps each feature at one use per guest window.
const GuestWeeklyLimit = 1

// planLimits is the single reconciled quota table, keyed by plan then
// feature. Values are uses per UTC day.
var planLimits = map[models.Plan]map[models.Feature]int{
	models.PlanFree: {
		models.FeatureChat:        15,
		models.FeatureEssay:       10,
		models.FeatureRecommender: 5,
	},
	models.PlanPlus: {
		models.FeatureChat:        30,
		models.FeatureEssay:       30,
		models.FeatureRecommender: 5,
	},
	models.PlanPro: {
		models.FeatureChat:        Unlimited,
		models.FeatureEssay:       360,
		models.FeatureRecommender: 5,
	},
}

// LimitFor returns the daily limit for a plan+feature pair. Unknown plans
// fall back to free; unknown features get zero quota.
func LimitFor(plan models.Plan, feature models.Feature) int {
	limits, ok := planLimits[plan]
	if !ok {
		limits = planLimits[models.PlanFree]
	}
	limit, ok := limits[feature]
	if !ok {
		return 0
	}
	return limit
}
