package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiOrchestrator implements Orchestrator using Google's Gemini models.
type GeminiOrchestrator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiOrchestrator initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiOrchestrator(ctx context.Context, apiKey string) (*GeminiOrchestrator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"

	// Warm enough for conversation, cool enough to keep the schema stable.
	model.SetTemperature(0.5)

	return &GeminiOrchestrator{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (o *GeminiOrchestrator) Close() {
	o.client.Close()
}

// GenerateResponse produces the assistant reply for one chat turn.
func (o *GeminiOrchestrator) GenerateResponse(ctx context.Context, userMessage string, conversationContext map[string]string) (*Response, error) {
	systemPrompt := buildSystemPrompt(conversationContext)

	// Appending context directly to the prompt is more flexible than
	// SystemInstruction for per-request context injection.
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", systemPrompt, userMessage)

	resp, err := o.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// Strip markdown fences in case JSON mode leaks them anyway.
	cleanJSON := cleanJSONString(responseText.String())

	var result Response
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	if strings.TrimSpace(result.Reply) == "" {
		return nil, fmt.Errorf("empty reply from Gemini")
	}

	return &result, nil
}

// buildSystemPrompt constructs the instructions for the AI.
func buildSystemPrompt(ctxMap map[string]string) string {
	currentTime := ctxMap["current_time"]
	tripContext := ctxMap["trip_context"]
	recentTurns := ctxMap["recent_turns"]

	if currentTime == "" {
		currentTime = "UNKNOWN_TIME"
	}
	if tripContext == "" {
		tripContext = "NONE"
	}
	if recentTurns == "" {
		recentTurns = "NONE"
	}

	return fmt.Sprintf(`Role: You are "Wayfarer", a friendly travel-planning assistant inside a trip-planning app.
Context:
- Current System Time: %s
- Known Trip Context: %s
- Recent Conversation: %s

RULES:

1. CONTEXT PRESERVATION (CRITICAL):
   - The "Known Trip Context" fields (destination, dates, party size, interests) were
     collected over earlier turns. NEVER contradict or discard them.
   - If the user changes a detail ("actually Rome, not Paris"), adopt the new value and
     report it in "entities".

2. ENTITY EXTRACTION:
   - Populate "entities" with any travel details found in the user's message:
     "destination", "dates", "party_size", "interests".
   - Use the user's own wording for dates ("next week", "in june"); do not invent
     calendar dates.
   - Omit "entities" keys you did not actually observe.

3. PLACE SEARCH:
   - If the user asks what to see, do, or eat somewhere, set "search_query" to a short
     Places-style query (e.g. "art museums in Paris", "street food in Bangkok").
   - Leave "search_query" null on every other turn.

4. MOVING THE PLAN FORWARD:
   - When destination or dates are still unknown, set "follow_up" to ONE short question
     asking for the most important missing detail.
   - Ask at most one question per turn. Leave "follow_up" null once the basics are known.

5. REPLY STYLE:
   - "reply" is shown to the user verbatim: conversational English, 1-3 sentences,
     no markdown, no lists, no internal state words or ALL-CAPS tokens.

6. Output JSON Schema:
{
  "reply": "string (user facing response)",
  "entities": {"destination": "string", "dates": "string", "party_size": "string", "interests": "string"},
  "search_query": "string or null",
  "follow_up": "string or null"
}
`, currentTime, tripContext, recentTurns)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
