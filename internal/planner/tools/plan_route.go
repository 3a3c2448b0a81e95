package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/geo"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

type RouteWaypoint struct {
	Name string   `json:"name,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

type PlanRouteArgs struct {
	Origin                 string             `json:"origin"`
	Destination            string             `json:"destination"`
	OriginCoordinates      *model.Coordinates `json:"originCoordinates,omitempty"`
	DestinationCoordinates *model.Coordinates `json:"destinationCoordinates,omitempty"`
	Waypoints              []RouteWaypoint    `json:"waypoints,omitempty"`
	Preference             string             `json:"preference,omitempty"`
}

type PlanRouteResult struct {
	OK    bool        `json:"ok"`
	Route model.Route `json:"route"`
}

// PlanRouteHandler resolves the named places against the working itinerary,
// plans a route between them and appends it to the turn's route list.
type PlanRouteHandler struct {
	resolver *geo.Resolver
	planner  *geo.Planner
}

func NewPlanRouteHandler(resolver *geo.Resolver, planner *geo.Planner) *PlanRouteHandler {
	return &PlanRouteHandler{resolver: resolver, planner: planner}
}

func (h *PlanRouteHandler) Kind() Kind {
	return KindPlanRoute
}

func (h *PlanRouteHandler) Info() *schema.ToolInfo {
	coordinateParams := map[string]*schema.ParameterInfo{
		"lat": {Type: "number", Desc: "纬度"},
		"lng": {Type: "number", Desc: "经度"},
	}
	return &schema.ToolInfo{
		Name: string(KindPlanRoute),
		Desc: "规划两地之间的出行路线。地点名称优先与当前行程中的景点、酒店匹配，匹配不到时自动地理编码；也可以直接提供经纬度。",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"origin": {
				Type:     "string",
				Desc:     "起点名称，例如 \"外滩\" 或行程中的景点名",
				Required: true,
			},
			"destination": {
				Type:     "string",
				Desc:     "终点名称",
				Required: true,
			},
			"originCoordinates": {
				Type:      "object",
				Desc:      "起点经纬度，提供后跳过名称解析",
				SubParams: coordinateParams,
			},
			"destinationCoordinates": {
				Type:      "object",
				Desc:      "终点经纬度，提供后跳过名称解析",
				SubParams: coordinateParams,
			},
			"waypoints": {
				Type: "array",
				Desc: "途经点列表，按顺序经过",
				ElemInfo: &schema.ParameterInfo{
					Type: "object",
					SubParams: map[string]*schema.ParameterInfo{
						"name": {Type: "string", Desc: "途经点名称"},
						"lat":  {Type: "number", Desc: "纬度"},
						"lng":  {Type: "number", Desc: "经度"},
					},
				},
			},
			"preference": {
				Type: "string",
				Desc: "出行方式：driving、walking、cycling、transit，默认 driving",
			},
		}),
	}
}

func (h *PlanRouteHandler) Execute(ctx context.Context, args json.RawMessage, tc *model.TurnContext) (any, error) {
	var in PlanRouteArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, errx.ToolArgument("缺少路线规划参数。")
	}
	if strings.TrimSpace(in.Origin) == "" || strings.TrimSpace(in.Destination) == "" {
		return nil, errx.ToolArgument("origin 与 destination 为必填字段。")
	}

	origin, err := h.resolver.Resolve(ctx, in.Origin, in.OriginCoordinates, tc.Itinerary)
	if err != nil {
		return nil, err
	}
	destination, err := h.resolver.Resolve(ctx, in.Destination, in.DestinationCoordinates, tc.Itinerary)
	if err != nil {
		return nil, err
	}
	if origin == nil || destination == nil {
		return nil, errx.UnresolvedPoint("无法识别起点或终点，请提供更精确的地点名称或经纬度。")
	}

	waypoints := make([]model.Point, 0, len(in.Waypoints))
	for _, wp := range in.Waypoints {
		var explicit *model.Coordinates
		if wp.Lat != nil && wp.Lng != nil {
			explicit = &model.Coordinates{Lat: *wp.Lat, Lng: *wp.Lng}
		}
		point, err := h.resolver.Resolve(ctx, wp.Name, explicit, tc.Itinerary)
		if err != nil {
			return nil, err
		}
		if point != nil {
			waypoints = append(waypoints, *point)
		}
	}

	route, err := h.planner.PlanRoute(ctx, *origin, *destination, waypoints, in.Preference)
	if err != nil {
		return nil, err
	}

	tc.AddRoute(route)

	logx.Debug().
		Str("preference", route.Preference).
		Float64("distance_km", route.DistanceKm).
		Int("duration_minutes", route.DurationMinutes).
		Int("routes_version", tc.RoutesVersion).
		Msg("route planned by tool")

	return &PlanRouteResult{OK: true, Route: route}, nil
}
