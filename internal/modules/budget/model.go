// README: Budget rate definitions per destination tier.
package budget

import "time"

type Tier string

const (
	TierBudget   Tier = "budget"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Rate is the per-day price basis for a destination.
type Rate struct {
	Destination string
	Tier        Tier
	DailyAmount int64 // cents per adult per day
	Currency    string
}

// EstimateRequest describes a trip to price.
type EstimateRequest struct {
	Destination string
	Nights      int
	Adults      int
	Children    int
	Month       time.Month // 0 means unknown, no season surcharge
	Style       string     // "shoestring", "comfort" (default), "luxury"
}

// EstimateResult is a deterministic estimate with a line-item breakdown.
type EstimateResult struct {
	TotalAmount int64
	Currency    string
	Breakdown   map[string]int64
}
