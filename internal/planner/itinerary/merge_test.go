package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

func baseItinerary(t *testing.T) *model.Itinerary {
	t.Helper()
	raw := map[string]any{
		"id":          "itin-42",
		"destination": "京都",
		"meta":        map[string]any{"destination": "京都", "travelers": 2.0, "budget": 9000.0},
		"dailyPlans": []any{
			map[string]any{"day": 1.0, "theme": "古迹", "highlights": []any{
				map[string]any{"name": "伏见稻荷"},
			}},
			map[string]any{"day": 2.0, "theme": "美食"},
		},
		"recommendedHotels": []any{
			map[string]any{"name": "鸭川旅馆", "pricePerNight": 700.0},
		},
		"transportationTips": []any{"买巴士一日券"},
	}
	return Normalize(raw, model.ItineraryRequest{})
}

func TestApplyMergesDayByNumber(t *testing.T) {
	cur := baseItinerary(t)

	out := Apply(cur, map[string]any{
		"dailyPlans": []any{
			map[string]any{"day": 2.0, "description": "晚上加一场怀石料理"},
			map[string]any{"theme": "新增一天"},
		},
	}, false, model.ItineraryRequest{})

	require.Len(t, out.DailyPlans, 3)
	assert.Equal(t, "美食", out.DailyPlans[1].Theme)
	assert.Equal(t, "晚上加一场怀石料理", out.DailyPlans[1].Description)
	assert.Equal(t, 3, out.DailyPlans[2].Day)
	assert.Equal(t, "新增一天", out.DailyPlans[2].Theme)
}

func TestApplyReplacesHighlightsWholesale(t *testing.T) {
	cur := baseItinerary(t)

	out := Apply(cur, map[string]any{
		"dailyPlans": []any{
			map[string]any{"day": 1.0, "highlights": []any{
				map[string]any{"name": "金阁寺"},
			}},
		},
	}, false, model.ItineraryRequest{})

	require.Len(t, out.DailyPlans[0].Highlights, 1)
	assert.Equal(t, "金阁寺", out.DailyPlans[0].Highlights[0].Name)
}

func TestApplyMergesHotelsByName(t *testing.T) {
	cur := baseItinerary(t)

	out := Apply(cur, map[string]any{
		"recommendedHotels": []any{
			map[string]any{"name": " 鸭川旅馆 ", "pricePerNight": 850.0},
			map[string]any{"name": "站前商务酒店", "location": "京都站旁"},
		},
	}, false, model.ItineraryRequest{})

	require.Len(t, out.RecommendedHotels, 2)
	assert.Equal(t, 850.0, out.RecommendedHotels[0].PricePerNight)
	assert.Equal(t, "站前商务酒店", out.RecommendedHotels[1].Name)
}

func TestApplyReplacesTipsAndMergesMeta(t *testing.T) {
	cur := baseItinerary(t)

	out := Apply(cur, map[string]any{
		"transportationTips": []any{"地铁+巴士联票更划算"},
		"meta":               map[string]any{"budget": 11000.0},
	}, false, model.ItineraryRequest{})

	assert.Equal(t, []string{"地铁+巴士联票更划算"}, out.TransportationTips)
	require.NotNil(t, out.Meta)
	assert.Equal(t, 11000.0, out.Meta.Budget)
	assert.Equal(t, 2, out.Meta.Travelers)
}

func TestApplyUnknownKeysVerbatim(t *testing.T) {
	cur := baseItinerary(t)

	out := Apply(cur, map[string]any{
		"packingList": []any{"雨伞", "舒适的鞋"},
	}, false, model.ItineraryRequest{})

	require.NotNil(t, out.Extra)
	assert.Equal(t, []any{"雨伞", "舒适的鞋"}, out.Extra["packingList"])
}

func TestApplyKeepsIDAcrossMergeAndOverwrite(t *testing.T) {
	cur := baseItinerary(t)

	merged := Apply(cur, map[string]any{"id": "other", "destination": "奈良"}, false, model.ItineraryRequest{})
	assert.Equal(t, "itin-42", merged.ID)
	assert.Equal(t, "奈良", merged.Destination)

	replaced := Apply(cur, map[string]any{
		"destination": "奈良",
		"dailyPlans":  []any{map[string]any{"day": 1.0, "theme": "小鹿公园"}},
	}, true, model.ItineraryRequest{})
	assert.Equal(t, "itin-42", replaced.ID)
	require.Len(t, replaced.DailyPlans, 1)
	assert.Equal(t, "小鹿公园", replaced.DailyPlans[0].Theme)
}

func TestApplyOnNilItineraryNormalizesUpdates(t *testing.T) {
	out := Apply(nil, map[string]any{
		"destination": "首尔",
		"dailyPlans":  []any{map[string]any{"theme": "市区"}},
	}, false, model.ItineraryRequest{Destination: "首尔"})

	require.NotNil(t, out)
	assert.Equal(t, "首尔", out.Destination)
	require.Len(t, out.DailyPlans, 1)
	assert.Equal(t, 1, out.DailyPlans[0].Day)
}
