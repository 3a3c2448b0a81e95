package model

import "encoding/json"

// Envelope is the JSON object the model is instructed to answer with when it
// is done calling tools.
type Envelope struct {
	Reply            string           `json:"reply"`
	Questions        []string         `json:"questions,omitempty"`
	ItineraryRequest map[string]any   `json:"itineraryRequest,omitempty"`
	ReadyForPlan     bool             `json:"readyForPlan,omitempty"`
	Regenerate       bool             `json:"regenerate,omitempty"`
	Itinerary        json.RawMessage  `json:"itinerary,omitempty"`
	Meta             map[string]any   `json:"meta,omitempty"`
	Actions          []map[string]any `json:"actions,omitempty"`
}

// WantsRegeneration reports whether the model explicitly asked for a full
// itinerary regeneration this turn.
func (e *Envelope) WantsRegeneration() bool {
	return e.ReadyForPlan || e.Regenerate
}
