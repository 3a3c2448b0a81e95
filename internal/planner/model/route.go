package model

import "time"

// Point is a named place, resolved or not. Nil Coordinates means every
// resolution step failed; callers decide whether that is an error.
type Point struct {
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates"`
}

// RouteLeg is one segment of a planned route. Provider-supplied legs carry an
// instruction; inferred legs carry the endpoint names.
type RouteLeg struct {
	From            string  `json:"from,omitempty"`
	To              string  `json:"to,omitempty"`
	Instruction     string  `json:"instruction,omitempty"`
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
}

// Route is a planned point-to-point route. The shape is uniform regardless of
// whether the routing provider answered or the great-circle fallback was used.
type Route struct {
	Origin          Point      `json:"origin"`
	Destination     Point      `json:"destination"`
	Waypoints       []Point    `json:"waypoints"`
	Preference      string     `json:"preference"`
	DistanceKm      float64    `json:"distanceKm"`
	DurationMinutes int        `json:"durationMinutes"`
	Legs            []RouteLeg `json:"legs"`
	Provider        string     `json:"provider"`
	GeneratedAt     time.Time  `json:"generatedAt"`
}
