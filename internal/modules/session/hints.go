// README: Hint derivation: next-step suggestions attached to chat responses.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"wayfarer/internal/intent"
	"wayfarer/internal/maps"
)

const (
	hintCacheKey = "hints:places:%s"
	hintCacheTTL = 24 * time.Hour
	maxHints     = 3
)

// DestinationSearcher looks up notable places for a destination.
type DestinationSearcher interface {
	SearchDestination(ctx context.Context, destination, interest string, limit int) ([]maps.Place, error)
}

// HintBuilder derives follow-up suggestions from session state. Place lookups
// are cached in redis per destination so hint building stays cheap.
type HintBuilder struct {
	places DestinationSearcher
	cache  *redis.Client
}

// NewHintBuilder accepts nil for either dependency; hints simply get sparser.
func NewHintBuilder(places DestinationSearcher, cache *redis.Client) *HintBuilder {
	return &HintBuilder{places: places, cache: cache}
}

// Build derives up to maxHints suggestions for the session's current state.
// Best-effort everywhere: any failure just means fewer hints.
func (h *HintBuilder) Build(ctx context.Context, sess *TravelSession, det intent.Result) []Hint {
	tc := sess.Data.Context
	var hints []Hint

	if tc.Destination == "" {
		hints = append(hints, Hint{
			Text:   "Tell me where you'd like to go",
			Type:   "collect",
			Action: "provide_destination",
		})
	} else {
		if tc.Dates == "" {
			hints = append(hints, Hint{
				Text:   "When are you travelling?",
				Type:   "collect",
				Action: "provide_dates",
			})
		}
		if name := h.topPlace(ctx, tc.Destination); name != "" {
			hints = append(hints, Hint{
				Text:   fmt.Sprintf("Ask about %s in %s", name, tc.Destination),
				Type:   "search",
				Action: "search_places",
			})
		}
	}

	if sess.Plan != nil {
		hints = append(hints, Hint{
			Text:   "Review your trip plan",
			Type:   "plan",
			Action: "view_plan",
		})
	} else if !det.WantsTripPlan && tc.Destination != "" {
		hints = append(hints, Hint{
			Text:   fmt.Sprintf("Say \"plan a trip to %s\" to start a plan", tc.Destination),
			Type:   "plan",
			Action: "start_plan",
		})
	}

	if len(hints) > maxHints {
		hints = hints[:maxHints]
	}
	return hints
}

// topPlace returns a notable place name for the destination, consulting the
// redis cache before hitting the places API.
func (h *HintBuilder) topPlace(ctx context.Context, destination string) string {
	if h.places == nil {
		return ""
	}
	key := fmt.Sprintf(hintCacheKey, strings.ToLower(destination))

	if h.cache != nil {
		if val, err := h.cache.Get(ctx, key).Result(); err == nil {
			var names []string
			if json.Unmarshal([]byte(val), &names) == nil && len(names) > 0 {
				return names[0]
			}
		}
	}

	places, err := h.places.SearchDestination(ctx, destination, "", maxHints)
	if err != nil || len(places) == 0 {
		return ""
	}
	names := make([]string, len(places))
	for i, p := range places {
		names[i] = p.Name
	}
	if h.cache != nil {
		if buf, err := json.Marshal(names); err == nil {
			_ = h.cache.Set(ctx, key, buf, hintCacheTTL).Err()
		}
	}
	return names[0]
}
