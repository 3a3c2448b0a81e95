package model

// TurnContext is the per-turn, request-scoped working state the tools mutate.
// It is constructed fresh from the caller-supplied snapshot at the start of a
// turn, threaded by pointer through the tool handlers, and discarded after the
// turn. It must never be shared across concurrent requests.
type TurnContext struct {
	Itinerary *Itinerary
	Request   ItineraryRequest
	Routes    []Route

	// Monotonic per-turn mutation counters. ItineraryVersion advances exactly
	// once per successful itinerary edit or accepted model-proposed itinerary;
	// RoutesVersion once per successfully planned route. Failed tool calls
	// leave both untouched.
	ItineraryVersion int
	RoutesVersion    int
}

// NewTurnContext builds the working state from the caller's snapshot.
func NewTurnContext(itin *Itinerary, req ItineraryRequest) *TurnContext {
	return &TurnContext{
		Itinerary: itin,
		Request:   req,
	}
}

// SetItinerary replaces the canonical itinerary and advances the version.
// This is the only itinerary-mutation path; the id, once assigned, survives
// every subsequent replacement in the same turn.
func (tc *TurnContext) SetItinerary(itin *Itinerary) {
	if itin != nil && itin.ID == "" && tc.Itinerary != nil {
		itin.ID = tc.Itinerary.ID
	}
	tc.Itinerary = itin
	tc.ItineraryVersion++
}

// AddRoute appends a planned route and advances the routes version.
func (tc *TurnContext) AddRoute(route Route) {
	tc.Routes = append(tc.Routes, route)
	tc.RoutesVersion++
}
