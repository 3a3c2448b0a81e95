package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

type fakeRouteProvider struct {
	result *DirectionsResult
	err    error
	got    DirectionsQuery
}

func (f *fakeRouteProvider) Directions(_ context.Context, q DirectionsQuery) (*DirectionsResult, error) {
	f.got = q
	return f.result, f.err
}

var (
	shanghaiBund = model.Point{Name: "外滩", Coordinates: &model.Coordinates{Lat: 31.2363, Lng: 121.4903}}
	hongqiao     = model.Point{Name: "虹桥", Coordinates: &model.Coordinates{Lat: 31.1979, Lng: 121.3263}}
)

func TestPlanRouteUsesProviderResult(t *testing.T) {
	provider := &fakeRouteProvider{result: &DirectionsResult{
		DistanceKm:      18.2,
		DurationMinutes: 42,
		Legs:            []model.RouteLeg{{Instruction: "沿延安高架行驶", DistanceKm: 18.2}},
	}}
	p := NewPlanner(provider)

	route, err := p.PlanRoute(context.Background(), shanghaiBund, hongqiao, nil, "driving")

	require.NoError(t, err)
	assert.Equal(t, ProviderAmap, route.Provider)
	assert.Equal(t, 18.2, route.DistanceKm)
	assert.Equal(t, 42, route.DurationMinutes)
	require.Len(t, route.Legs, 1)
	assert.Equal(t, "driving", provider.got.Mode)
	assert.False(t, route.GeneratedAt.IsZero())
}

func TestPlanRouteFallsBackToEstimateOnProviderError(t *testing.T) {
	provider := &fakeRouteProvider{err: errx.Providerf("quota exceeded")}
	p := NewPlanner(provider)

	route, err := p.PlanRoute(context.Background(), shanghaiBund, hongqiao, nil, "walking")

	require.NoError(t, err)
	assert.Equal(t, ProviderEstimate, route.Provider)
	assert.Greater(t, route.DistanceKm, 10.0)
	assert.Less(t, route.DistanceKm, 25.0)
	// walking speed 5 km/h: duration must be distance/5 hours in minutes
	assert.InDelta(t, route.DistanceKm/5*60, float64(route.DurationMinutes), 1)
	require.Len(t, route.Legs, 1)
	assert.Equal(t, "外滩", route.Legs[0].From)
	assert.Equal(t, "虹桥", route.Legs[0].To)
}

func TestPlanRouteEstimateLegsPerWaypointPair(t *testing.T) {
	p := NewPlanner(&fakeRouteProvider{err: errx.Providerf("down")})
	mid := model.Point{Name: "静安寺", Coordinates: &model.Coordinates{Lat: 31.2236, Lng: 121.4454}}

	route, err := p.PlanRoute(context.Background(), shanghaiBund, hongqiao, []model.Point{mid}, "")

	require.NoError(t, err)
	assert.Equal(t, "driving", route.Preference)
	require.Len(t, route.Legs, 2)
	assert.Equal(t, "外滩", route.Legs[0].From)
	assert.Equal(t, "静安寺", route.Legs[0].To)
	assert.Equal(t, "静安寺", route.Legs[1].From)
	assert.Equal(t, "虹桥", route.Legs[1].To)
	assert.InDelta(t, route.Legs[0].DistanceKm+route.Legs[1].DistanceKm, route.DistanceKm, 0.05)
}

func TestPlanRouteRequiresEndpointCoordinates(t *testing.T) {
	p := NewPlanner(&fakeRouteProvider{})

	_, err := p.PlanRoute(context.Background(), model.Point{Name: "没坐标"}, hongqiao, nil, "driving")

	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindUnresolvedPoint))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Beijing to Shanghai is just over a thousand kilometers.
	beijing := model.Coordinates{Lat: 39.9042, Lng: 116.4074}
	shanghai := model.Coordinates{Lat: 31.2304, Lng: 121.4737}

	d := haversineKm(beijing, shanghai)

	assert.InDelta(t, 1067, d, 15)
}
