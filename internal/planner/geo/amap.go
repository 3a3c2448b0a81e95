package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// Geocoder turns a free-form place name into coordinates. A nil point with a
// nil error is a miss, not a failure.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*model.Point, error)
}

// DirectionsQuery asks a provider for a routed path between two resolved points.
type DirectionsQuery struct {
	Origin      model.Point
	Destination model.Point
	Waypoints   []model.Point
	Mode        string
}

// DirectionsResult is a provider-computed route. A nil result with a nil error
// means the provider had no path to offer.
type DirectionsResult struct {
	DistanceKm      float64
	DurationMinutes int
	Legs            []model.RouteLeg
}

// RouteProvider computes directions between resolved points.
type RouteProvider interface {
	Directions(ctx context.Context, q DirectionsQuery) (*DirectionsResult, error)
}

// AmapClient speaks the AMap REST API: v3 geocoding and v5 directions.
type AmapClient struct {
	key     string
	baseURL string
	http    *http.Client
}

// NewAmapClient builds a client from config. The key may be empty; calls then
// fail with a provider error, which the route planner degrades to an estimate.
func NewAmapClient(cfg model.AmapConfig) *AmapClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &AmapClient{
		key:     cfg.Key,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// directionModes maps caller travel preferences onto AMap v5 endpoints.
// Unknown preferences drive.
var directionModes = map[string]string{
	"walking":        "walking",
	"cycling":        "bicycling",
	"bicycle":        "bicycling",
	"biking":         "bicycling",
	"public_transit": "transit/integrated",
	"transit":        "transit/integrated",
}

const transitMode = "transit/integrated"

func endpointMode(preference string) string {
	if m, ok := directionModes[strings.ToLower(preference)]; ok {
		return m
	}
	return "driving"
}

type geocodeResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Geocodes []struct {
		Location string `json:"location"`
	} `json:"geocodes"`
}

// Geocode resolves a place name through /v3/geocode/geo. The first geocode's
// "lng,lat" location wins.
func (c *AmapClient) Geocode(ctx context.Context, name string) (*model.Point, error) {
	if c.key == "" || strings.TrimSpace(name) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("address", name)
	params.Set("key", c.key)

	var resp geocodeResponse
	if err := c.get(ctx, "/v3/geocode/geo", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "1" || len(resp.Geocodes) == 0 {
		return nil, nil
	}

	lng, lat, ok := splitLocation(resp.Geocodes[0].Location)
	if !ok {
		return nil, nil
	}
	return &model.Point{
		Name:        name,
		Coordinates: &model.Coordinates{Lat: lat, Lng: lng},
	}, nil
}

type directionsResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
	Route  struct {
		Paths    []amapPath    `json:"paths"`
		Transits []amapTransit `json:"transits"`
	} `json:"route"`
}

type amapPath struct {
	Distance string     `json:"distance"`
	Duration string     `json:"duration"`
	Steps    []amapStep `json:"steps"`
}

type amapStep struct {
	Instruction string `json:"instruction"`
	Distance    string `json:"distance"`
	Duration    string `json:"duration"`
}

type amapTransit struct {
	Distance string `json:"distance"`
	Duration string `json:"duration"`
	Segments []struct {
		Bus struct {
			Buslines []amapStep `json:"buslines"`
		} `json:"bus"`
		Walking *amapStep `json:"walking"`
	} `json:"segments"`
}

// Directions routes through /v5/direction/{mode}. Transit answers carry
// transits/segments; every other mode carries paths/steps.
func (c *AmapClient) Directions(ctx context.Context, q DirectionsQuery) (*DirectionsResult, error) {
	if c.key == "" {
		return nil, errx.Providerf("amap api key is not configured")
	}
	origin := q.Origin.Coordinates
	destination := q.Destination.Coordinates
	if origin == nil || destination == nil {
		return nil, errx.UnresolvedPoint("起点或终点缺少经纬度，请提供更精确的地址。")
	}

	mode := endpointMode(q.Mode)

	params := url.Values{}
	params.Set("key", c.key)
	params.Set("origin", fmt.Sprintf("%g,%g", origin.Lng, origin.Lat))
	params.Set("destination", fmt.Sprintf("%g,%g", destination.Lng, destination.Lat))
	if via := viaParam(q.Waypoints); via != "" {
		params.Set("via", via)
	}
	if mode == transitMode {
		params.Set("strategy", "0")
	}

	var resp directionsResponse
	if err := c.get(ctx, "/v5/direction/"+mode, params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "1" {
		info := resp.Info
		if info == "" {
			info = "路线规划失败"
		}
		return nil, errx.Providerf("amap directions: %s", info)
	}

	if mode == transitMode {
		return parseTransitRoute(resp), nil
	}
	return parseGeneralRoute(resp), nil
}

func (c *AmapClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errx.Providerf("amap request: %v", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errx.Providerf("amap call %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errx.Providerf("amap call %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errx.Providerf("amap decode %s: %v", path, err)
	}
	return nil
}

func parseGeneralRoute(resp directionsResponse) *DirectionsResult {
	if len(resp.Route.Paths) == 0 {
		return nil
	}
	best := resp.Route.Paths[0]

	legs := make([]model.RouteLeg, 0, len(best.Steps))
	for _, step := range best.Steps {
		legs = append(legs, model.RouteLeg{
			Instruction:     step.Instruction,
			DistanceKm:      round2(parseNumber(step.Distance) / 1000),
			DurationMinutes: roundMinutes(parseNumber(step.Duration)),
		})
	}

	return &DirectionsResult{
		DistanceKm:      round2(parseNumber(best.Distance) / 1000),
		DurationMinutes: roundMinutes(parseNumber(best.Duration)),
		Legs:            legs,
	}
}

func parseTransitRoute(resp directionsResponse) *DirectionsResult {
	if len(resp.Route.Transits) == 0 {
		return nil
	}
	best := resp.Route.Transits[0]

	legs := make([]model.RouteLeg, 0, len(best.Segments))
	for _, segment := range best.Segments {
		var transport *amapStep
		if len(segment.Bus.Buslines) > 0 {
			transport = &segment.Bus.Buslines[0]
		} else {
			transport = segment.Walking
		}

		leg := model.RouteLeg{Instruction: "前往下一段路程"}
		if transport != nil {
			if transport.Instruction != "" {
				leg.Instruction = transport.Instruction
			}
			leg.DistanceKm = round2(parseNumber(transport.Distance) / 1000)
			leg.DurationMinutes = roundMinutes(parseNumber(transport.Duration))
		}
		legs = append(legs, leg)
	}

	return &DirectionsResult{
		DistanceKm:      round2(parseNumber(best.Distance) / 1000),
		DurationMinutes: roundMinutes(parseNumber(best.Duration)),
		Legs:            legs,
	}
}

func viaParam(waypoints []model.Point) string {
	parts := make([]string, 0, len(waypoints))
	for _, p := range waypoints {
		if p.Coordinates == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%g,%g", p.Coordinates.Lng, p.Coordinates.Lat))
	}
	return strings.Join(parts, ";")
}

func splitLocation(location string) (lng, lat float64, ok bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLng != nil || errLat != nil {
		return 0, 0, false
	}
	return lng, lat, true
}

func parseNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}
