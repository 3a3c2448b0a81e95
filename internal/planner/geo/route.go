package geo

import (
	"context"
	"math"
	"time"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

const (
	ProviderAmap     = "amap"
	ProviderEstimate = "estimate"
)

// Planner builds routes between resolved points. The provider is asked first;
// when it fails or has nothing to offer, the planner falls back to a
// great-circle estimate so route planning degrades instead of erroring.
type Planner struct {
	provider RouteProvider
	now      func() time.Time
}

func NewPlanner(provider RouteProvider) *Planner {
	return &Planner{provider: provider, now: time.Now}
}

// PlanRoute requires coordinates on both endpoints. Waypoints without
// coordinates were already filtered by the caller.
func (p *Planner) PlanRoute(ctx context.Context, origin, destination model.Point, waypoints []model.Point, preference string) (model.Route, error) {
	if origin.Coordinates == nil || destination.Coordinates == nil {
		return model.Route{}, errx.UnresolvedPoint("起点或终点缺少经纬度，请提供更精确的地址。")
	}

	route := model.Route{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Preference:  preference,
		Provider:    ProviderEstimate,
		GeneratedAt: p.now().UTC(),
	}
	if route.Preference == "" {
		route.Preference = "driving"
	}

	route.DistanceKm, route.DurationMinutes, route.Legs = estimate(origin, destination, waypoints, preference)

	if p.provider != nil {
		result, err := p.provider.Directions(ctx, DirectionsQuery{
			Origin:      origin,
			Destination: destination,
			Waypoints:   waypoints,
			Mode:        preference,
		})
		switch {
		case err != nil:
			logx.Warn().Err(err).Str("preference", route.Preference).Msg("route provider failed, using estimate")
		case result != nil:
			route.Provider = ProviderAmap
			route.DistanceKm = result.DistanceKm
			route.DurationMinutes = result.DurationMinutes
			if len(result.Legs) > 0 {
				route.Legs = result.Legs
			}
		}
	}

	return route, nil
}

// estimate computes a haversine leg per consecutive point pair and derives a
// duration from a per-mode average speed.
func estimate(origin, destination model.Point, waypoints []model.Point, preference string) (float64, int, []model.RouteLeg) {
	points := make([]model.Point, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)

	var total float64
	legs := make([]model.RouteLeg, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		var dist float64
		if prev.Coordinates != nil && cur.Coordinates != nil {
			dist = haversineKm(*prev.Coordinates, *cur.Coordinates)
			total += dist
		}
		legs = append(legs, model.RouteLeg{
			From:       prev.Name,
			To:         cur.Name,
			DistanceKm: round2(dist),
		})
	}

	return round2(total), roundMinutes(total / averageSpeedKmH(preference) * 3600), legs
}

func averageSpeedKmH(preference string) float64 {
	switch preference {
	case "walking":
		return 5
	case "cycling":
		return 15
	default:
		return 35
	}
}

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(a, b model.Coordinates) float64 {
	const earthRadiusKm = 6371

	toRadians := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundMinutes converts seconds to whole minutes.
func roundMinutes(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds / 60))
}
