package ai

// Response captures the structured output from the AI model.
type Response struct {
	// Reply is the user-facing assistant message.
	Reply string `json:"reply"`

	// Entities holds travel details the model extracted from the user's
	// message, keyed "destination", "dates", "party_size", "interests".
	Entities map[string]string `json:"entities,omitempty"`

	// SearchQuery is a place-search suggestion (e.g. "art museums in Paris")
	// the caller may run against the places backend. Nullable because most
	// turns need no search.
	SearchQuery *string `json:"search_query,omitempty"`

	// FollowUp is one short question that moves the planning forward.
	// Nullable when the model has everything it needs.
	FollowUp *string `json:"follow_up,omitempty"`
}
