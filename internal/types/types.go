package types

// SuggestionRequest is the body of POST /api/suggest-messages.
type SuggestionRequest struct {
	ReceivedMessage  string `json:"received_message"`
	RelationshipType string `json:"relationship_type"`
	DesiredOutcome   string `json:"desired_outcome"`
}

// Suggestion is one candidate reply produced by the backend.
type Suggestion struct {
	Tone      string `json:"tone"`
	Text      string `json:"text"`
	Reasoning string `json:"reasoning"`
}

type SuggestionResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// ErrorResponse is returned with any non-2xx status. Detail is shown to the
// user verbatim.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
