package geo

import (
	"context"
	"math"
	"strings"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// Resolver locates a named place by trying, in order: explicit coordinates
// from the caller, an exact name match inside the current itinerary, then the
// geocoder. A place nothing can locate still resolves, just without
// coordinates, so the route planner can decide whether that is fatal.
type Resolver struct {
	geocoder Geocoder
}

func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve returns nil (no error) when there is neither a usable name nor
// explicit coordinates.
func (r *Resolver) Resolve(ctx context.Context, name string, explicit *model.Coordinates, itin *model.Itinerary) (*model.Point, error) {
	if finiteCoords(explicit) {
		pointName := strings.TrimSpace(name)
		if pointName == "" {
			pointName = "地点"
		}
		return &model.Point{
			Name:        pointName,
			Coordinates: &model.Coordinates{Lat: explicit.Lat, Lng: explicit.Lng},
		}, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil, nil
	}

	if point := matchItinerary(normalized, name, itin); point != nil {
		return point, nil
	}

	if r.geocoder != nil {
		point, err := r.geocoder.Geocode(ctx, name)
		if err != nil {
			return nil, err
		}
		if point != nil {
			return point, nil
		}
	}

	return &model.Point{Name: strings.TrimSpace(name)}, nil
}

// matchItinerary scans all highlights, then all hotels, for an exact
// case-insensitive trimmed name match.
func matchItinerary(normalized, name string, itin *model.Itinerary) *model.Point {
	if itin == nil {
		return nil
	}

	for _, plan := range itin.DailyPlans {
		for _, h := range plan.Highlights {
			if strings.ToLower(strings.TrimSpace(h.Name)) == normalized && h.Name != "" {
				return &model.Point{Name: pointName(h.Name, name), Coordinates: h.Coordinates}
			}
		}
	}
	for _, hotel := range itin.RecommendedHotels {
		if strings.ToLower(strings.TrimSpace(hotel.Name)) == normalized && hotel.Name != "" {
			return &model.Point{Name: pointName(hotel.Name, name), Coordinates: hotel.Coordinates}
		}
	}
	return nil
}

func pointName(matched, requested string) string {
	if strings.TrimSpace(matched) != "" {
		return strings.TrimSpace(matched)
	}
	return strings.TrimSpace(requested)
}

func finiteCoords(c *model.Coordinates) bool {
	if c == nil {
		return false
	}
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}
