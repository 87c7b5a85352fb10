// README: Budget service computes deterministic trip cost estimates.
package budget

import (
	"context"
	"errors"
	"strings"
	"time"

	"wayfarer/internal/types"
)

// Daily and flight bases are cents per adult; children pay half.
const (
	baseDailyBudget   = 9000
	baseDailyStandard = 15000
	baseDailyPremium  = 22000

	flightBaseBudget   = 45000
	flightBaseStandard = 65000
	flightBasePremium  = 90000

	seasonSurchargePct = 25

	// DefaultNights is assumed when the trip length is unknown.
	DefaultNights = 5
)

// ErrBadRequest is returned for requests missing a destination.
var ErrBadRequest = errors.New("destination required")

// stylePct maps travel style to a percentage applied to the whole estimate.
var stylePct = map[string]int64{
	"shoestring": 70,
	"comfort":    100,
	"luxury":     180,
}

var premiumDestinations = []string{
	"tokyo", "new york", "london", "zurich", "singapore", "dubai", "sydney",
}

var budgetDestinations = []string{
	"bangkok", "hanoi", "bali", "mexico city", "prague", "lisbon",
}

type Service struct {
	store *Store
}

// NewService creates a budget Service. A nil store is fine: estimates then
// rely on the built-in tier rates only.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Estimate prices a trip from integer cent rates. The same request always
// produces the same result; no live pricing data is consulted beyond the
// optional budget_rates override.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (EstimateResult, error) {
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return EstimateResult{}, ErrBadRequest
	}

	nights := req.Nights
	if nights <= 0 {
		nights = DefaultNights
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}
	children := req.Children
	if children < 0 {
		children = 0
	}

	rate := s.rateFor(ctx, dest)

	daily := rate.DailyAmount
	flight := flightBase(rate.Tier)

	lodging := daily*int64(nights)*int64(adults) + (daily/2)*int64(nights)*int64(children)
	flights := flight*int64(adults) + (flight/2)*int64(children)
	subtotal := lodging + flights

	var surcharge int64
	if isHighSeason(req.Month) {
		surcharge = subtotal * seasonSurchargePct / 100
	}

	pct, ok := stylePct[strings.ToLower(strings.TrimSpace(req.Style))]
	if !ok {
		pct = stylePct["comfort"]
	}
	total := (subtotal + surcharge) * pct / 100

	breakdown := map[string]int64{
		"lodging": lodging,
		"flights": flights,
	}
	if surcharge > 0 {
		breakdown["season_surcharge"] = surcharge
	}
	if adjust := total - (subtotal + surcharge); adjust != 0 {
		breakdown["style_adjustment"] = adjust
	}

	return EstimateResult{
		TotalAmount: total,
		Currency:    rate.Currency,
		Breakdown:   breakdown,
	}, nil
}

// QuickEstimate prices a default-length trip for the given party. The session
// manager calls this when a trip plan is first created.
func (s *Service) QuickEstimate(ctx context.Context, destination string, travelers int) (types.Money, error) {
	res, err := s.Estimate(ctx, EstimateRequest{Destination: destination, Adults: travelers})
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: res.TotalAmount, Currency: res.Currency}, nil
}

// rateFor prefers a seeded budget_rates row and falls back to tier defaults.
func (s *Service) rateFor(ctx context.Context, destination string) Rate {
	if s.store != nil {
		if r, err := s.store.GetRate(ctx, destination); err == nil {
			return r
		}
	}
	tier := tierOf(destination)
	return Rate{
		Destination: strings.ToLower(destination),
		Tier:        tier,
		DailyAmount: tierDaily(tier),
		Currency:    "USD",
	}
}

func tierOf(destination string) Tier {
	d := strings.ToLower(strings.TrimSpace(destination))
	for _, p := range premiumDestinations {
		if d == p {
			return TierPremium
		}
	}
	for _, b := range budgetDestinations {
		if d == b {
			return TierBudget
		}
	}
	return TierStandard
}

func tierDaily(t Tier) int64 {
	switch t {
	case TierPremium:
		return baseDailyPremium
	case TierBudget:
		return baseDailyBudget
	default:
		return baseDailyStandard
	}
}

func flightBase(t Tier) int64 {
	switch t {
	case TierPremium:
		return flightBasePremium
	case TierBudget:
		return flightBaseBudget
	default:
		return flightBaseStandard
	}
}

func isHighSeason(m time.Month) bool {
	switch m {
	case time.June, time.July, time.August, time.December:
		return true
	}
	return false
}
