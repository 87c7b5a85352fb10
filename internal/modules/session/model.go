// README: Travel session aggregate: conversation history, trip context, and plan.
package session

import (
	"fmt"
	"strings"
	"time"

	"wayfarer/internal/intent"
	"wayfarer/internal/types"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPlanning  Status = "planning"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// TravelSession is the aggregate persisted per conversation. Sessions are
// never hard-deleted; stale ones are marked abandoned by the sweeper.
type TravelSession struct {
	ID        types.ID
	UserID    string // empty for anonymous sessions
	Status    Status
	Data      SessionData
	Plan      *TripPlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionData is the JSONB document holding the conversation state.
type SessionData struct {
	History []Turn      `json:"conversation_history"`
	Context TripContext `json:"trip_context"`
}

// Turn is one message in the conversation, user or assistant side.
type Turn struct {
	ID        types.ID  `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// TripContext accumulates what the conversation knows about the trip.
// Merges are last-message-wins per field; a merge never clears a field.
type TripContext struct {
	Destination string            `json:"destination,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Dates       string            `json:"dates,omitempty"`
	PartySize   int               `json:"party_size,omitempty"`
	Interests   []string          `json:"interests,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Merge folds in over c: non-empty incoming fields win, everything else stays.
func (c TripContext) Merge(in TripContext) TripContext {
	out := c
	if in.Destination != "" {
		out.Destination = in.Destination
	}
	if in.Origin != "" {
		out.Origin = in.Origin
	}
	if in.Dates != "" {
		out.Dates = in.Dates
	}
	if in.PartySize > 0 {
		out.PartySize = in.PartySize
	}
	if len(in.Interests) > 0 {
		merged := append([]string(nil), c.Interests...)
		for _, interest := range in.Interests {
			if !containsString(merged, interest) {
				merged = append(merged, interest)
			}
		}
		out.Interests = merged
	}
	if len(in.Extra) > 0 {
		merged := make(map[string]string, len(c.Extra)+len(in.Extra))
		for k, v := range c.Extra {
			merged[k] = v
		}
		for k, v := range in.Extra {
			if v != "" {
				merged[k] = v
			}
		}
		out.Extra = merged
	}
	return out
}

func (c TripContext) IsZero() bool {
	return c.Destination == "" && c.Origin == "" && c.Dates == "" &&
		c.PartySize == 0 && len(c.Interests) == 0 && len(c.Extra) == 0
}

// Summary renders the context as a compact line for AI prompt injection.
func (c TripContext) Summary() string {
	var parts []string
	if c.Destination != "" {
		parts = append(parts, "destination="+c.Destination)
	}
	if c.Origin != "" {
		parts = append(parts, "origin="+c.Origin)
	}
	if c.Dates != "" {
		parts = append(parts, "dates="+c.Dates)
	}
	if c.PartySize > 0 {
		parts = append(parts, fmt.Sprintf("party_size=%d", c.PartySize))
	}
	if len(c.Interests) > 0 {
		parts = append(parts, "interests="+strings.Join(c.Interests, ","))
	}
	return strings.Join(parts, " ")
}

// TripInfo converts the context into the detector's entity shape.
func (c TripContext) TripInfo() intent.TripInfo {
	return intent.TripInfo{
		Destination: c.Destination,
		Dates:       c.Dates,
		PartySize:   c.PartySize,
	}
}

// TripPlan is the structured plan created once planning intent is confirmed.
// It is created at most once per session and refreshed in place afterwards.
type TripPlan struct {
	Destination     string       `json:"destination"`
	Dates           string       `json:"dates,omitempty"`
	Travelers       int          `json:"travelers,omitempty"`
	Interests       []string     `json:"interests,omitempty"`
	EstimatedBudget *types.Money `json:"estimated_budget,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Refresh merges newer context into the plan. Existing values survive unless
// the context carries a replacement; CreatedAt never changes.
func (p *TripPlan) Refresh(c TripContext, now time.Time) {
	if c.Destination != "" {
		p.Destination = c.Destination
	}
	if c.Dates != "" {
		p.Dates = c.Dates
	}
	if c.PartySize > 0 {
		p.Travelers = c.PartySize
	}
	for _, interest := range c.Interests {
		if !containsString(p.Interests, interest) {
			p.Interests = append(p.Interests, interest)
		}
	}
	p.UpdatedAt = now
}

// AllowedTransitions represents the session lifecycle as code. Completed is
// terminal; abandoned sessions revive when the user returns.
var AllowedTransitions = map[Status][]Status{
	StatusActive:    {StatusPlanning, StatusCompleted, StatusAbandoned},
	StatusPlanning:  {StatusCompleted, StatusAbandoned},
	StatusAbandoned: {StatusActive, StatusPlanning},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
