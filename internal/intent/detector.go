// README: Heuristic trip-planning intent detection. No ML, no network calls.
package intent

import (
	"strconv"
	"strings"
)

// Confidence tiers. An explicit planning phrase is a certain hit; a destination
// next to a travel verb is a strong hint; leftover travel context alone is a
// weak "maybe" that never flips the verdict on its own.
const (
	confidencePhrase  = 1.0
	confidenceVerb    = 0.7
	confidenceContext = 0.3
)

// PlanConfidenceThreshold is the minimum confidence at which the chat flow
// creates or refreshes a structured trip plan.
const PlanConfidenceThreshold = 0.7

// Result is the detector's verdict for a single chat message.
type Result struct {
	WantsTripPlan bool     `json:"wants_trip_plan"`
	Confidence    float64  `json:"confidence"`
	Reason        string   `json:"reason"`
	TripInfo      TripInfo `json:"trip_info"`
}

// TripInfo holds the travel entities recognised so far: values extracted from
// the current message merged over what the conversation already knew. A fresh
// mention wins per field; absent fields keep their prior value.
type TripInfo struct {
	Destination string `json:"destination,omitempty"`
	Dates       string `json:"dates,omitempty"`
	PartySize   int    `json:"party_size,omitempty"`
}

// Detect classifies one chat message. known carries entities accumulated from
// earlier turns so a bare follow-up ("next week works") still scores as travel
// context. Detect never fails; unusable input yields a zero-confidence Result.
func Detect(message string, known TripInfo) Result {
	normalized := strings.ToLower(strings.TrimSpace(message))

	fresh := extractTripInfo(message, normalized)
	merged := mergeTripInfo(known, fresh)

	if normalized == "" {
		return Result{Reason: "empty message", TripInfo: merged}
	}

	if phrase := matchFirst(normalized, planPhrases); phrase != "" {
		return Result{
			WantsTripPlan: true,
			Confidence:    confidencePhrase,
			Reason:        `matched planning phrase "` + phrase + `"`,
			TripInfo:      merged,
		}
	}

	if fresh.Destination != "" {
		if verb := matchFirst(normalized, travelVerbs); verb != "" {
			return Result{
				WantsTripPlan: true,
				Confidence:    confidenceVerb,
				Reason:        `destination "` + fresh.Destination + `" with travel verb "` + verb + `"`,
				TripInfo:      merged,
			}
		}
	}

	if merged.Destination != "" || merged.Dates != "" {
		return Result{
			Confidence: confidenceContext,
			Reason:     "travel context present without a planning request",
			TripInfo:   merged,
		}
	}

	return Result{Reason: "no planning signal", TripInfo: merged}
}

// matchFirst returns the first candidate contained in the normalized message.
func matchFirst(normalized string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(normalized, c) {
			return c
		}
	}
	return ""
}

func mergeTripInfo(known, fresh TripInfo) TripInfo {
	merged := known
	if fresh.Destination != "" {
		merged.Destination = fresh.Destination
	}
	if fresh.Dates != "" {
		merged.Dates = fresh.Dates
	}
	if fresh.PartySize > 0 {
		merged.PartySize = fresh.PartySize
	}
	return merged
}

func extractTripInfo(message, normalized string) TripInfo {
	var info TripInfo
	for _, dest := range knownDestinations {
		if strings.Contains(normalized, strings.ToLower(dest)) {
			info.Destination = dest
			break
		}
	}
	if info.Destination == "" {
		info.Destination = captureAfterTo(message)
	}
	info.Dates = matchFirst(normalized, datePhrases)
	info.PartySize = extractPartySize(strings.Fields(normalized))
	return info
}

// captureAfterTo picks up destinations the curated list misses: capitalised
// words following "to" in the original message ("fly to Zagreb" -> "Zagreb").
func captureAfterTo(message string) string {
	fields := strings.Fields(message)
	for i := 0; i < len(fields)-1; i++ {
		if !strings.EqualFold(fields[i], "to") {
			continue
		}
		var parts []string
		for j := i + 1; j < len(fields); j++ {
			word := strings.TrimRight(fields[j], ".,!?;:")
			if word == "" || !isCapitalized(word) {
				break
			}
			parts = append(parts, word)
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

func isCapitalized(word string) bool {
	return word[0] >= 'A' && word[0] <= 'Z'
}

// extractPartySize looks for a small number adjacent to a people word, so
// "for 4 people" and "5 of us" count while "for 3 days" does not.
func extractPartySize(fields []string) int {
	for i, f := range fields {
		token := strings.Trim(f, ".,!?;:")
		n, ok := wordNumbers[token]
		if !ok {
			parsed, err := strconv.Atoi(token)
			if err != nil {
				continue
			}
			n = parsed
		}
		if n < 1 || n > 20 {
			continue
		}
		if i+1 < len(fields) {
			next := strings.Trim(fields[i+1], ".,!?;:")
			for _, w := range peopleWords {
				if next == w {
					return n
				}
			}
			// "4 of us"
			if next == "of" && i+2 < len(fields) && strings.Trim(fields[i+2], ".,!?;:") == "us" {
				return n
			}
		}
		// "party of 4"
		if i >= 2 && strings.Trim(fields[i-1], ".,!?;:") == "of" && strings.Trim(fields[i-2], ".,!?;:") == "party" {
			return n
		}
	}
	return 0
}
