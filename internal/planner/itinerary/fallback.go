package itinerary

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

const (
	fallbackDestination = "东京"
	fallbackDays        = 5
	fallbackTravelers   = 2
	fallbackBudget      = 10000
)

// samplePlaces seeds the placeholder days with plausible sights so the client
// has something renderable before the model has produced a real plan.
var samplePlaces = []model.Highlight{
	{
		Name:        "城市地标",
		Description: "标志性景点打卡",
		Category:    "观光",
		Coordinates: &model.Coordinates{Lat: 35.6586, Lng: 139.7454},
	},
	{
		Name:        "本地美食街",
		Description: "品尝地道小吃",
		Category:    "美食",
		Coordinates: &model.Coordinates{Lat: 35.6654, Lng: 139.7707},
	},
	{
		Name:        "文化博物馆",
		Description: "了解当地历史与文化",
		Category:    "文化",
		Coordinates: &model.Coordinates{Lat: 35.7188, Lng: 139.7765},
	},
}

// Fallback builds a deterministic placeholder itinerary from whatever the
// request already knows. It carries no id; ids are assigned at persistence
// time.
func Fallback(req model.ItineraryRequest) *model.Itinerary {
	destination := req.Destination
	if destination == "" {
		destination = fallbackDestination
	}

	days := req.Days
	if days < 1 {
		days = fallbackDays
	}

	travelers := req.Companions
	if travelers < 1 {
		travelers = fallbackTravelers
	}

	budget := req.Budget
	if budget <= 0 {
		budget = fallbackBudget
	}

	plans := make([]model.DayPlan, 0, days)
	for day := 1; day <= days; day++ {
		theme := "综合体验"
		if len(req.Preferences) > 0 {
			theme = req.Preferences[(day-1)%len(req.Preferences)]
		}
		plans = append(plans, model.DayPlan{
			Day:         day,
			Theme:       theme,
			Description: fmt.Sprintf("第 %d 天围绕%s安排", day, theme),
			Highlights: lo.Map(samplePlaces, func(p model.Highlight, _ int) model.Highlight {
				return p
			}),
		})
	}

	return &model.Itinerary{
		Destination: destination,
		Meta: &model.Meta{
			Destination: destination,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Travelers:   travelers,
			Budget:      budget,
			Notes:       req.Notes,
		},
		SummaryExtras: []model.SummaryExtra{
			{
				Label: "摘要",
				Value: fmt.Sprintf("%s %d 天行程，预算 ¥%.0f，适合 %d 人出行。", destination, days, budget, travelers),
			},
		},
		DailyPlans: plans,
		RecommendedHotels: []model.Hotel{
			{
				Name:          destination + "中心酒店",
				Location:      "市中心，交通便捷",
				PricePerNight: 1200,
				Highlights:    []string{"近地铁", "含早餐"},
			},
		},
		TransportationTips: []string{
			"建议购买当地交通卡，地铁覆盖主要景点",
			"景点之间优先步行或公共交通，高峰期避开打车",
		},
	}
}
