package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

func amapTestClient(t *testing.T, handler http.HandlerFunc) *AmapClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAmapClient(model.AmapConfig{
		Key:            "test-key",
		BaseURL:        server.URL,
		TimeoutSeconds: 2,
	})
}

func TestGeocodeParsesFirstLocation(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/geocode/geo", r.URL.Path)
		assert.Equal(t, "外滩", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"status":"1","geocodes":[{"location":"121.490317,31.236305"},{"location":"0,0"}]}`))
	})

	point, err := client.Geocode(context.Background(), "外滩")

	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, "外滩", point.Name)
	require.NotNil(t, point.Coordinates)
	assert.InDelta(t, 31.236305, point.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 121.490317, point.Coordinates.Lng, 1e-9)
}

func TestGeocodeMissReturnsNil(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","info":"INVALID_ADDRESS","geocodes":[]}`))
	})

	point, err := client.Geocode(context.Background(), "不存在的地方")

	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestGeocodeHTTPErrorIsProviderError(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Geocode(context.Background(), "外滩")

	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindProvider))
}

func TestGeocodeWithoutKeySkips(t *testing.T) {
	client := NewAmapClient(model.AmapConfig{BaseURL: "http://127.0.0.1:1"})

	point, err := client.Geocode(context.Background(), "外滩")

	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestDirectionsDrivingParsesPathsAndSteps(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/direction/driving", r.URL.Path)
		assert.Equal(t, "121.49,31.24", r.URL.Query().Get("origin"))
		w.Write([]byte(`{"status":"1","route":{"paths":[{
			"distance":"12500","duration":"1800",
			"steps":[
				{"instruction":"向南行驶","distance":"4500","duration":"600"},
				{"instruction":"进入高架","distance":"8000","duration":"1200"}
			]}]}}`))
	})

	result, err := client.Directions(context.Background(), DirectionsQuery{
		Origin:      model.Point{Name: "外滩", Coordinates: &model.Coordinates{Lat: 31.24, Lng: 121.49}},
		Destination: model.Point{Name: "虹桥", Coordinates: &model.Coordinates{Lat: 31.19, Lng: 121.32}},
		Mode:        "drive-fast",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 12.5, result.DistanceKm)
	assert.Equal(t, 30, result.DurationMinutes)
	require.Len(t, result.Legs, 2)
	assert.Equal(t, "向南行驶", result.Legs[0].Instruction)
	assert.Equal(t, 4.5, result.Legs[0].DistanceKm)
	assert.Equal(t, 10, result.Legs[0].DurationMinutes)
}

func TestDirectionsModeMappingAndVia(t *testing.T) {
	var gotPath string
	var gotVia string
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVia = r.URL.Query().Get("via")
		w.Write([]byte(`{"status":"1","route":{"paths":[{"distance":"1000","duration":"300","steps":[]}]}}`))
	})

	_, err := client.Directions(context.Background(), DirectionsQuery{
		Origin:      model.Point{Coordinates: &model.Coordinates{Lat: 1, Lng: 2}},
		Destination: model.Point{Coordinates: &model.Coordinates{Lat: 3, Lng: 4}},
		Waypoints: []model.Point{
			{Coordinates: &model.Coordinates{Lat: 5, Lng: 6}},
			{Name: "无坐标途经点"},
		},
		Mode: "biking",
	})

	require.NoError(t, err)
	assert.Equal(t, "/v5/direction/bicycling", gotPath)
	assert.Equal(t, "6,5", gotVia)
}

func TestDirectionsTransitParsesSegments(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/direction/transit/integrated", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("strategy"))
		w.Write([]byte(`{"status":"1","route":{"transits":[{
			"distance":"9000","duration":"2400",
			"segments":[
				{"bus":{"buslines":[{"instruction":"乘坐地铁2号线","distance":"7000","duration":"1500"}]}},
				{"walking":{"distance":"2000","duration":"900"}}
			]}]}}`))
	})

	result, err := client.Directions(context.Background(), DirectionsQuery{
		Origin:      model.Point{Coordinates: &model.Coordinates{Lat: 31.24, Lng: 121.49}},
		Destination: model.Point{Coordinates: &model.Coordinates{Lat: 31.19, Lng: 121.32}},
		Mode:        "public_transit",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 9.0, result.DistanceKm)
	assert.Equal(t, 40, result.DurationMinutes)
	require.Len(t, result.Legs, 2)
	assert.Equal(t, "乘坐地铁2号线", result.Legs[0].Instruction)
	assert.Equal(t, "前往下一段路程", result.Legs[1].Instruction)
	assert.Equal(t, 2.0, result.Legs[1].DistanceKm)
}

func TestDirectionsProviderStatusError(t *testing.T) {
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","info":"DAILY_QUERY_OVER_LIMIT"}`))
	})

	_, err := client.Directions(context.Background(), DirectionsQuery{
		Origin:      model.Point{Coordinates: &model.Coordinates{Lat: 1, Lng: 2}},
		Destination: model.Point{Coordinates: &model.Coordinates{Lat: 3, Lng: 4}},
	})

	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindProvider))
	assert.Contains(t, err.Error(), "DAILY_QUERY_OVER_LIMIT")
}

func TestCachedGeocoderHitsOnce(t *testing.T) {
	calls := 0
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"1","geocodes":[{"location":"139.745,35.658"}]}`))
	})
	cached := NewCachedGeocoder(client, time.Minute)

	first, err := cached.Geocode(context.Background(), "东京塔")
	require.NoError(t, err)
	second, err := cached.Geocode(context.Background(), "  东京塔 ")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Coordinates, second.Coordinates)
}

func TestCachedGeocoderDoesNotCacheMisses(t *testing.T) {
	calls := 0
	client := amapTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"0","geocodes":[]}`))
	})
	cached := NewCachedGeocoder(client, time.Minute)

	for i := 0; i < 2; i++ {
		point, err := cached.Geocode(context.Background(), "未知")
		require.NoError(t, err)
		assert.Nil(t, point)
	}
	assert.Equal(t, 2, calls)
}
