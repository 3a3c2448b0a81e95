package itinerary

import (
	"fmt"
	"strings"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// Apply folds a tool-issued updates object into the current canonical
// itinerary and re-normalizes the result. With overwrite set, updates replace
// top-level sections wholesale; otherwise each known section merges with its
// own rule:
//
//   - meta merges shallowly, update keys winning
//   - dailyPlans merge keyed by day number; an updated day's highlights
//     replace the existing list wholesale
//   - recommendedHotels merge keyed by lowercased trimmed name
//   - transportationTips and summaryExtras replace wholesale
//   - unknown keys are copied verbatim
//
// An existing id always survives; updates cannot reassign it.
func Apply(current *model.Itinerary, updates map[string]any, overwrite bool, req model.ItineraryRequest) *model.Itinerary {
	base := toMap(current)
	if base == nil {
		base = map[string]any{}
	}
	priorID, _ := base["id"].(string)

	if overwrite {
		for k, v := range updates {
			base[k] = v
		}
	} else {
		applyUpdates(base, updates)
	}

	if priorID != "" {
		base["id"] = priorID
	}

	return Normalize(base, req)
}

func applyUpdates(base map[string]any, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "destination":
			if s := stringValue(value); s != "" {
				base["destination"] = s
			}
		case "meta":
			base["meta"] = mergeMeta(base["meta"], value)
		case "dailyPlans":
			base["dailyPlans"] = mergeDailyPlans(base["dailyPlans"], value)
		case "recommendedHotels":
			base["recommendedHotels"] = mergeHotels(base["recommendedHotels"], value)
		case "transportationTips":
			base["transportationTips"] = value
		default:
			base[key] = value
		}
	}
}

func mergeMeta(existing any, update any) any {
	upd, ok := update.(map[string]any)
	if !ok {
		return existing
	}
	merged := map[string]any{}
	if cur, ok := existing.(map[string]any); ok {
		for k, v := range cur {
			merged[k] = v
		}
	}
	for k, v := range upd {
		if v == nil {
			continue
		}
		merged[k] = v
	}
	return merged
}

// mergeDailyPlans merges plan objects by day number. Updated days shallow-merge
// onto existing ones (so an updated highlights array wins wholesale), new days
// are appended past the current maximum when they carry no number.
func mergeDailyPlans(existing any, update any) any {
	upd, ok := update.([]any)
	if !ok {
		return existing
	}

	type keyedPlan struct {
		day  int
		plan map[string]any
	}
	var plans []keyedPlan
	byDay := map[int]int{}
	maxDay := 0

	add := func(day int, plan map[string]any) {
		if idx, ok := byDay[day]; ok {
			for k, v := range plan {
				plans[idx].plan[k] = v
			}
			return
		}
		byDay[day] = len(plans)
		plans = append(plans, keyedPlan{day: day, plan: plan})
		if day > maxDay {
			maxDay = day
		}
	}

	if cur, ok := existing.([]any); ok {
		for i, item := range cur {
			plan, ok := item.(map[string]any)
			if !ok {
				continue
			}
			day := planDay(plan, i+1)
			add(day, clonePlan(plan))
		}
	}

	for _, item := range upd {
		plan, ok := item.(map[string]any)
		if !ok {
			continue
		}
		day := planDay(plan, maxDay+1)
		add(day, clonePlan(plan))
	}

	out := make([]any, 0, len(plans))
	for _, p := range plans {
		p.plan["day"] = p.day
		out = append(out, p.plan)
	}
	return out
}

func planDay(plan map[string]any, fallback int) int {
	if n, ok := numberValue(plan["day"]); ok && int(n) > 0 {
		return int(n)
	}
	return fallback
}

func clonePlan(plan map[string]any) map[string]any {
	out := make(map[string]any, len(plan))
	for k, v := range plan {
		out[k] = v
	}
	return out
}

// mergeHotels merges hotel objects by lowercased trimmed name; nameless
// entries get positional keys so they never collide with real hotels.
func mergeHotels(existing any, update any) any {
	upd, ok := update.([]any)
	if !ok {
		return existing
	}

	var hotels []map[string]any
	byName := map[string]int{}

	add := func(key string, hotel map[string]any) {
		if idx, ok := byName[key]; ok {
			for k, v := range hotel {
				hotels[idx][k] = v
			}
			return
		}
		byName[key] = len(hotels)
		hotels = append(hotels, hotel)
	}

	if cur, ok := existing.([]any); ok {
		for i, item := range cur {
			hotel, ok := item.(map[string]any)
			if !ok {
				continue
			}
			add(hotelKey(hotel, fmt.Sprintf("hotel-%d", i)), clonePlan(hotel))
		}
	}
	for i, item := range upd {
		hotel, ok := item.(map[string]any)
		if !ok {
			continue
		}
		add(hotelKey(hotel, fmt.Sprintf("update-%d", i)), clonePlan(hotel))
	}

	out := make([]any, 0, len(hotels))
	for _, h := range hotels {
		out = append(out, h)
	}
	return out
}

func hotelKey(hotel map[string]any, fallback string) string {
	name := strings.ToLower(stringValue(hotel["name"]))
	if name == "" {
		return fallback
	}
	return name
}
