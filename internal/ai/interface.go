package ai

import (
	"context"
)

// Orchestrator generates the assistant side of a travel-planning conversation.
// The interface allows swapping providers (Gemini, OpenAI, etc.) and keeps the
// chat flow testable without network access. Implementations are optional at
// runtime: with no orchestrator configured the chat flow serves template replies.
type Orchestrator interface {
	// GenerateResponse produces the assistant reply for one chat turn.
	// conversationContext carries dynamic details such as "current_time",
	// "destination", "dates", "party_size", and "recent_turns".
	GenerateResponse(ctx context.Context, userMessage string, conversationContext map[string]string) (*Response, error)
}
