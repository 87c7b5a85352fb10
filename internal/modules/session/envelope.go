// README: Wire envelopes for the chat and session read APIs.
package session

import (
	"time"

	"wayfarer/internal/intent"
)

// Hint nudges the client toward a useful next step.
type Hint struct {
	Text   string `json:"text"`
	Type   string `json:"type"`
	Action string `json:"action"`
}

// IntentPayload is the wire form of the detector verdict.
type IntentPayload struct {
	WantsTripPlan bool    `json:"wants_trip_plan"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// ChatResponse is the envelope returned for every chat turn.
type ChatResponse struct {
	SessionID       string            `json:"session_id"`
	SessionStatus   string            `json:"session_status"`
	Message         string            `json:"message"`
	Intent          IntentPayload     `json:"intent"`
	Entities        map[string]string `json:"entities,omitempty"`
	Context         TripContext       `json:"context"`
	SearchResults   map[string]any    `json:"search_results,omitempty"`
	SearchTriggered bool              `json:"search_triggered"`
	Hints           []Hint            `json:"hints"`
}

// BuildChatResponse shapes a ChatResult for the wire. It never fails; missing
// pieces degrade to empty fields, and hints is always a JSON array.
func BuildChatResponse(res *ChatResult) ChatResponse {
	if res == nil {
		return ChatResponse{Hints: []Hint{}}
	}
	out := ChatResponse{
		Message:         res.Reply.Content,
		Intent:          intentPayload(res.Intent),
		Entities:        res.Entities,
		SearchResults:   res.SearchResults,
		SearchTriggered: res.SearchTriggered,
		Hints:           res.Hints,
	}
	if res.Session != nil {
		out.SessionID = res.Session.ID.String()
		out.SessionStatus = string(res.Session.Status)
		out.Context = res.Session.Data.Context
	}
	if out.Hints == nil {
		out.Hints = []Hint{}
	}
	return out
}

func intentPayload(r intent.Result) IntentPayload {
	return IntentPayload{
		WantsTripPlan: r.WantsTripPlan,
		Confidence:    r.Confidence,
		Reason:        r.Reason,
	}
}

// SessionView is the wire form of a full session fetch.
type SessionView struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id,omitempty"`
	Status    string      `json:"status"`
	History   []Turn      `json:"conversation_history"`
	Context   TripContext `json:"trip_context"`
	Plan      *TripPlan   `json:"trip_plan,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func BuildSessionView(s *TravelSession) SessionView {
	view := SessionView{
		ID:        s.ID.String(),
		UserID:    s.UserID,
		Status:    string(s.Status),
		History:   s.Data.History,
		Context:   s.Data.Context,
		Plan:      s.Plan,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if view.History == nil {
		view.History = []Turn{}
	}
	return view
}
