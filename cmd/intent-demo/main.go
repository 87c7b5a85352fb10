// README: Intent detector demo; classifies sample messages offline, then optionally asks Gemini.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"wayfarer/internal/ai"
	"wayfarer/internal/intent"
)

var samples = []string{
	"Plan a trip to Paris",
	"I want to visit Tokyo in April with my wife",
	"What's the weather like in Tokyo?",
	"next week works for us",
	"Can you help me organize a vacation to Lisbon for 4 people?",
	"thanks, that's all",
}

func main() {
	known := intent.TripInfo{}
	for _, msg := range samples {
		res := intent.Detect(msg, known)
		known = res.TripInfo

		fmt.Printf("User: %s\n", msg)
		fmt.Printf("  wants_trip_plan=%v confidence=%.1f reason=%s\n", res.WantsTripPlan, res.Confidence, res.Reason)
		if res.TripInfo.Destination != "" {
			fmt.Printf("  destination=%s", res.TripInfo.Destination)
			if res.TripInfo.Dates != "" {
				fmt.Printf(" dates=%s", res.TripInfo.Dates)
			}
			if res.TripInfo.PartySize > 0 {
				fmt.Printf(" party_size=%d", res.TripInfo.PartySize)
			}
			fmt.Println()
		}
		fmt.Println()
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Println("GEMINI_API_KEY not set; skipping live orchestrator call")
		return
	}

	ctx := context.Background()
	orch, err := ai.NewGeminiOrchestrator(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	defer orch.Close()

	conversationContext := map[string]string{
		"current_time": time.Now().Format(time.RFC3339),
		"trip_context": "destination=Paris",
	}

	userMessage := "What should we see there in three days?"
	fmt.Printf("User: %s\n", userMessage)

	resp, err := orch.GenerateResponse(ctx, userMessage, conversationContext)
	if err != nil {
		log.Fatalf("Error generating response: %v", err)
	}

	fmt.Printf("AI Reply: %s\n", resp.Reply)
	for k, v := range resp.Entities {
		fmt.Printf("Entity %s: %s\n", k, v)
	}
	if resp.SearchQuery != nil {
		fmt.Printf("Search: %s\n", *resp.SearchQuery)
	}
	if resp.FollowUp != nil {
		fmt.Printf("Follow-up: %s\n", *resp.FollowUp)
	}
}
