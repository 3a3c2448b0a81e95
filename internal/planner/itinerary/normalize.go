package itinerary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// Normalize converts anything purporting to be an itinerary into the canonical
// shape. It is the single tolerance boundary: arbitrary key aliases, summary
// expressed as a string/array/object, missing day numbers and nameless
// highlights are all handled here, and nothing loosely-shaped leaks past it.
// Nil or garbled input falls back to a placeholder built from the request, so
// callers always receive a usable itinerary.
//
// Normalize is idempotent: feeding a canonical itinerary back in returns an
// equal document.
func Normalize(raw any, req model.ItineraryRequest) *model.Itinerary {
	m := toMap(raw)
	if m == nil {
		return Fallback(req)
	}

	out := &model.Itinerary{
		ID:   stringValue(m["id"]),
		Meta: normalizeMeta(metaSource(m)),
	}

	out.SummaryExtras = existingExtras(m["summaryExtras"])
	out.SummaryExtras = append(out.SummaryExtras, extractSummaryExtras(m["summary"], out.Meta)...)

	out.Destination = firstNonEmpty(
		stringValue(m["destination"]),
		metaDestination(out.Meta),
		req.Destination,
		"行程概要",
	)

	if plans, ok := m["dailyPlans"].([]any); ok {
		out.DailyPlans = normalizeDayPlans(plans)
	} else {
		out.DailyPlans = Fallback(req).DailyPlans
	}

	if hotels, ok := m["recommendedHotels"].([]any); ok {
		out.RecommendedHotels = lo.Map(hotels, func(h any, _ int) model.Hotel {
			return normalizeHotel(h)
		})
	} else {
		out.RecommendedHotels = []model.Hotel{}
	}

	out.TransportationTips = normalizeTips(m["transportationTips"])

	out.Extra = extraKeys(m)
	return out
}

// metaSource picks where trip facts live: an explicit meta object, the legacy
// summaryMetadata key, or an object-shaped summary.
func metaSource(m map[string]any) any {
	if v, ok := m["meta"].(map[string]any); ok {
		return v
	}
	if v, ok := m["summaryMetadata"].(map[string]any); ok {
		return v
	}
	if v, ok := m["summary"].(map[string]any); ok {
		return v
	}
	return nil
}

func normalizeMeta(src any) *model.Meta {
	m, ok := src.(map[string]any)
	if !ok {
		return nil
	}

	return &model.Meta{
		Destination: firstString(m, "destination", "city", "location"),
		StartDate:   firstString(m, "startDate", "start_date"),
		EndDate:     firstString(m, "endDate", "end_date"),
		Travelers:   int(firstNumber(m, "travelers", "people", "companions")),
		Budget:      firstNumber(m, "budget", "budgetCNY", "totalBudget"),
		Notes:       notesValue(m),
	}
}

func notesValue(m map[string]any) string {
	for _, key := range []string{"notes", "highlights"} {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case []any:
			joined := joinStrings(v, "；")
			if joined != "" {
				return joined
			}
		}
	}
	return ""
}

// summaryLabels maps well-known summary keys to display labels.
var summaryLabels = map[string]string{
	"preferences":    "偏好",
	"transportation": "交通方式",
	"notes":          "额外说明",
	"focus":          "重点",
	"theme":          "主题",
	"highlights":     "亮点",
	"goals":          "出行目标",
}

// existingExtras keeps already-extracted extras so re-normalizing a canonical
// document loses nothing.
func existingExtras(v any) []model.SummaryExtra {
	extras := []model.SummaryExtra{}
	arr, ok := v.([]any)
	if !ok {
		return extras
	}
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label := stringValue(m["label"])
		value := stringValue(m["value"])
		if label == "" && value == "" {
			continue
		}
		extras = append(extras, model.SummaryExtra{Label: label, Value: value})
	}
	return extras
}

// extractSummaryExtras converts a string/array/object summary into ordered
// labeled facts, skipping object keys whose content already made it into meta.
func extractSummaryExtras(summary any, meta *model.Meta) []model.SummaryExtra {
	switch s := summary.(type) {
	case string:
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []model.SummaryExtra{{Label: "摘要", Value: s}}
	case []any:
		joined := joinStrings(s, "；")
		if joined == "" {
			return nil
		}
		return []model.SummaryExtra{{Label: "摘要", Value: joined}}
	case map[string]any:
		keys := lo.Keys(s)
		sort.Strings(keys)

		var extras []model.SummaryExtra
		for _, key := range keys {
			value := s[key]
			if value == nil || value == "" {
				continue
			}
			if coveredByMeta(key, meta) {
				continue
			}
			label, ok := summaryLabels[key]
			if !ok {
				label = key
			}
			extras = append(extras, model.SummaryExtra{Label: label, Value: summaryText(key, value)})
		}
		return extras
	default:
		return nil
	}
}

// coveredByMeta reports whether the summary key duplicates a populated meta field.
func coveredByMeta(key string, meta *model.Meta) bool {
	if meta == nil {
		return false
	}
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "destination"):
		return meta.Destination != ""
	case strings.Contains(k, "start"):
		return meta.StartDate != ""
	case strings.Contains(k, "end"):
		return meta.EndDate != ""
	case strings.Contains(k, "traveler"), strings.Contains(k, "companion"), strings.Contains(k, "people"):
		return meta.Travelers != 0
	case strings.Contains(k, "budget"):
		return meta.Budget != 0
	case k == "notes":
		return meta.Notes != ""
	default:
		return false
	}
}

func summaryText(key string, value any) string {
	switch v := value.(type) {
	case []any:
		return joinStrings(v, "、")
	case map[string]any:
		if key == "transportationTips" {
			return joinPairs(v, "；")
		}
		b, _ := json.Marshal(v)
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func normalizeDayPlans(plans []any) []model.DayPlan {
	out := lo.Map(plans, func(p any, index int) model.DayPlan {
		return normalizeDayPlan(p, index)
	})

	// Day numbers are unique after normalization: zero or repeated days are
	// pushed past the current maximum, then the list is sorted ascending.
	seen := map[int]bool{}
	maxDay := 0
	for _, p := range out {
		if p.Day > maxDay {
			maxDay = p.Day
		}
	}
	for i := range out {
		if out[i].Day < 1 || seen[out[i].Day] {
			maxDay++
			out[i].Day = maxDay
		}
		seen[out[i].Day] = true
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func normalizeDayPlan(v any, index int) model.DayPlan {
	m, ok := v.(map[string]any)
	if !ok {
		return model.DayPlan{
			Day:        index + 1,
			Theme:      "行程安排",
			Highlights: []model.Highlight{},
		}
	}

	day := int(firstNumber(m, "day", "index"))
	if day == 0 {
		day = index + 1
	}

	highlights := []model.Highlight{}
	if arr, ok := m["highlights"].([]any); ok {
		highlights = lo.Map(arr, func(h any, i int) model.Highlight {
			return normalizeHighlight(h, i)
		})
	}

	return model.DayPlan{
		Day:         day,
		Theme:       firstNonEmpty(firstString(m, "theme", "title", "notes"), "行程安排"),
		Description: firstString(m, "description", "summary"),
		Highlights:  highlights,
	}
}

func normalizeHighlight(v any, index int) model.Highlight {
	m, ok := v.(map[string]any)
	if !ok {
		return model.Highlight{Name: fmt.Sprintf("活动 %d", index+1)}
	}

	return model.Highlight{
		Name:        firstNonEmpty(firstString(m, "name", "title", "地点"), fmt.Sprintf("活动 %d", index+1)),
		Description: firstString(m, "description", "detail", "描述"),
		Category:    firstString(m, "category", "type", "类别"),
		Coordinates: coordinatesValue(m),
	}
}

// coordinatesValue accepts the coordinate spellings model output has been seen
// to use: a {lat,lng} object, sibling lat/lng keys, a [lng,lat] 经纬度 array,
// or a {lat,lng}-shaped location object.
func coordinatesValue(m map[string]any) *model.Coordinates {
	if c := coordsFromObject(m["coordinates"]); c != nil {
		return c
	}
	if lat, lok := numberValue(m["lat"]); lok {
		if lng, gok := numberValue(m["lng"]); gok {
			return &model.Coordinates{Lat: lat, Lng: lng}
		}
	}
	if arr, ok := m["经纬度"].([]any); ok && len(arr) == 2 {
		lng, lok := numberValue(arr[0])
		lat, gok := numberValue(arr[1])
		if lok && gok {
			return &model.Coordinates{Lat: lat, Lng: lng}
		}
	}
	return coordsFromObject(m["location"])
}

func coordsFromObject(v any) *model.Coordinates {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	lat, lok := numberValue(m["lat"])
	lng, gok := numberValue(m["lng"])
	if !lok || !gok {
		return nil
	}
	return &model.Coordinates{Lat: lat, Lng: lng}
}

func normalizeHotel(v any) model.Hotel {
	m, ok := v.(map[string]any)
	if !ok {
		return model.Hotel{Name: "推荐酒店"}
	}

	var highlights []string
	for _, key := range []string{"highlights", "features", "pros"} {
		if arr, ok := m[key].([]any); ok {
			highlights = lo.Map(arr, func(h any, _ int) string { return textValue(h) })
			break
		}
	}

	return model.Hotel{
		Name:          firstNonEmpty(firstString(m, "name", "title"), "推荐酒店"),
		Location:      firstString(m, "location", "address"),
		PricePerNight: firstNumber(m, "pricePerNight", "price", "priceRange"),
		Highlights:    highlights,
		Coordinates:   coordsFromObject(m["coordinates"]),
	}
}

func normalizeTips(v any) []string {
	switch tips := v.(type) {
	case []any:
		return lo.FilterMap(tips, func(t any, _ int) (string, bool) {
			s := textValue(t)
			return s, s != ""
		})
	case map[string]any:
		return strings.Split(joinPairs(tips, "\n"), "\n")
	default:
		return []string{}
	}
}

// extraKeys keeps unrecognized top-level keys so merge passthrough and
// re-normalization never drop information. The consumed summary spellings are
// excluded; their content lives in meta/summaryExtras now.
func extraKeys(m map[string]any) map[string]any {
	extra := map[string]any{}
	for k, v := range m {
		switch k {
		case "id", "destination", "meta", "summary", "summaryMetadata",
			"summaryExtras", "dailyPlans", "recommendedHotels", "transportationTips":
			continue
		}
		if v == nil {
			continue
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// ---- loose-value helpers ----

// toMap clones any value into a generic JSON object, or nil when the value is
// not object-shaped.
func toMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		b, err := json.Marshal(m)
		if err != nil {
			return nil
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil
		}
		return out
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// textValue renders a value for display: strings pass through, everything else
// is JSON-stringified.
func textValue(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if n, ok := numberValue(m[k]); ok {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinStrings(items []any, sep string) string {
	parts := lo.FilterMap(items, func(v any, _ int) (string, bool) {
		s := textValue(v)
		return s, s != ""
	})
	return strings.Join(parts, sep)
}

func joinPairs(m map[string]any, sep string) string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s：%s", k, textValue(m[k])))
	}
	return strings.Join(parts, sep)
}

func metaDestination(meta *model.Meta) string {
	if meta == nil {
		return ""
	}
	return meta.Destination
}
