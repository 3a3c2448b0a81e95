package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

type fakeGeocoder struct {
	points map[string]*model.Point
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(_ context.Context, name string) (*model.Point, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.points[name], nil
}

func testItinerary() *model.Itinerary {
	return &model.Itinerary{
		DailyPlans: []model.DayPlan{
			{Day: 1, Highlights: []model.Highlight{
				{Name: "浅草寺", Coordinates: &model.Coordinates{Lat: 35.7148, Lng: 139.7967}},
				{Name: "无坐标景点"},
			}},
		},
		RecommendedHotels: []model.Hotel{
			{Name: "新宿酒店", Coordinates: &model.Coordinates{Lat: 35.6896, Lng: 139.7006}},
		},
	}
}

func TestResolveExplicitCoordinatesWin(t *testing.T) {
	geocoder := &fakeGeocoder{}
	r := NewResolver(geocoder)

	point, err := r.Resolve(context.Background(), "浅草寺", &model.Coordinates{Lat: 1, Lng: 2}, testItinerary())

	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, "浅草寺", point.Name)
	assert.Equal(t, &model.Coordinates{Lat: 1, Lng: 2}, point.Coordinates)
	assert.Zero(t, geocoder.calls)
}

func TestResolveMatchesItineraryBeforeGeocoding(t *testing.T) {
	geocoder := &fakeGeocoder{}
	r := NewResolver(geocoder)

	point, err := r.Resolve(context.Background(), "  浅草寺 ", nil, testItinerary())
	require.NoError(t, err)
	require.NotNil(t, point)
	require.NotNil(t, point.Coordinates)
	assert.InDelta(t, 35.7148, point.Coordinates.Lat, 1e-9)
	assert.Zero(t, geocoder.calls)

	hotel, err := r.Resolve(context.Background(), "新宿酒店", nil, testItinerary())
	require.NoError(t, err)
	require.NotNil(t, hotel)
	require.NotNil(t, hotel.Coordinates)
	assert.InDelta(t, 139.7006, hotel.Coordinates.Lng, 1e-9)
}

func TestResolveFallsBackToGeocoder(t *testing.T) {
	geocoder := &fakeGeocoder{points: map[string]*model.Point{
		"秋叶原": {Name: "秋叶原", Coordinates: &model.Coordinates{Lat: 35.6984, Lng: 139.7731}},
	}}
	r := NewResolver(geocoder)

	point, err := r.Resolve(context.Background(), "秋叶原", nil, testItinerary())

	require.NoError(t, err)
	require.NotNil(t, point)
	require.NotNil(t, point.Coordinates)
	assert.Equal(t, 1, geocoder.calls)
}

func TestResolveUnknownNameKeepsNameWithoutCoordinates(t *testing.T) {
	r := NewResolver(&fakeGeocoder{})

	point, err := r.Resolve(context.Background(), "某个不知名的地方", nil, nil)

	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, "某个不知名的地方", point.Name)
	assert.Nil(t, point.Coordinates)
}

func TestResolveEmptyNameIsNil(t *testing.T) {
	r := NewResolver(&fakeGeocoder{})

	point, err := r.Resolve(context.Background(), "   ", nil, testItinerary())

	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestResolveGeocoderErrorPropagates(t *testing.T) {
	r := NewResolver(&fakeGeocoder{err: errors.New("boom")})

	_, err := r.Resolve(context.Background(), "秋叶原", nil, nil)

	require.Error(t, err)
}
