// README: Intent detector tests (phrase tiers + entity extraction).
package intent

import "testing"

func TestDetectTiers(t *testing.T) {
	cases := []struct {
		name           string
		message        string
		known          TripInfo
		wantTrip       bool
		wantConfidence float64
	}{
		// explicit planning phrases
		{"plain request", "Plan a trip to Paris", TripInfo{}, true, 1.0},
		{"phrase mid-sentence", "could you help me plan something fun", TripInfo{}, true, 1.0},
		{"itinerary wording", "let's build an itinerary for Rome", TripInfo{}, true, 1.0},
		// destination + travel verb, no planning phrase
		{"visit verb", "I want to visit Kyoto", TripInfo{}, true, 0.7},
		{"book verb with unlisted city", "book a flight to Zagreb", TripInfo{}, true, 0.7},
		// travel context without a planning request stays negative
		{"weather question", "What's the weather like in Tokyo?", TripInfo{}, false, 0.3},
		{"date follow-up with known destination", "next week works for me", TripInfo{Destination: "Paris"}, false, 0.3},
		// nothing travel-related
		{"small talk", "hello there, how are you doing", TripInfo{}, false, 0},
		{"empty", "", TripInfo{}, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.message, tc.known)
			if got.WantsTripPlan != tc.wantTrip {
				t.Fatalf("WantsTripPlan = %v, want %v (reason: %s)", got.WantsTripPlan, tc.wantTrip, got.Reason)
			}
			if got.Confidence != tc.wantConfidence {
				t.Fatalf("Confidence = %v, want %v (reason: %s)", got.Confidence, tc.wantConfidence, got.Reason)
			}
			if got.Reason == "" {
				t.Fatal("expected a non-empty reason")
			}
		})
	}
}

func TestDetectExtractsEntities(t *testing.T) {
	got := Detect("Plan a trip to Paris in june for 4 people", TripInfo{})
	if got.TripInfo.Destination != "Paris" {
		t.Fatalf("destination = %q, want Paris", got.TripInfo.Destination)
	}
	if got.TripInfo.Dates != "in june" {
		t.Fatalf("dates = %q, want \"in june\"", got.TripInfo.Dates)
	}
	if got.TripInfo.PartySize != 4 {
		t.Fatalf("party size = %d, want 4", got.TripInfo.PartySize)
	}
}

func TestDetectMergesKnownContext(t *testing.T) {
	known := TripInfo{Destination: "Paris", PartySize: 2}

	// A fresh mention wins per field.
	got := Detect("actually let's make it Rome", known)
	if got.TripInfo.Destination != "Rome" {
		t.Fatalf("destination = %q, want Rome", got.TripInfo.Destination)
	}
	if got.TripInfo.PartySize != 2 {
		t.Fatalf("party size = %d, want 2 carried over", got.TripInfo.PartySize)
	}

	// Fields absent from the message keep their prior values.
	got = Detect("sounds good to me", known)
	if got.TripInfo.Destination != "Paris" || got.TripInfo.PartySize != 2 {
		t.Fatalf("known context lost: %+v", got.TripInfo)
	}
}

func TestCaptureAfterTo(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"fly to Zagreb next week", "Zagreb"},
		{"let's go to Addis Ababa!", "Addis Ababa"},
		{"I want to relax", ""}, // lowercase after "to"
		{"to", ""},
	}
	for _, tc := range cases {
		if got := captureAfterTo(tc.message); got != tc.want {
			t.Errorf("captureAfterTo(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestExtractPartySize(t *testing.T) {
	cases := []struct {
		message string
		want    int
	}{
		{"a trip for 4 people", 4},
		{"there will be 5 of us", 5},
		{"travelling with two friends", 2},
		{"our party of 6", 6},
		{"staying for 3 days", 0},     // duration, not people
		{"one of the best cities", 0}, // not a party size
		{"just me", 0},
	}
	for _, tc := range cases {
		got := Detect(tc.message, TripInfo{}).TripInfo.PartySize
		if got != tc.want {
			t.Errorf("party size for %q = %d, want %d", tc.message, got, tc.want)
		}
	}
}
