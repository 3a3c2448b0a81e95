package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

func TestRenderPlannerSystem(t *testing.T) {
	req := model.ItineraryRequest{Destination: "京都", Days: 4, Preferences: []string{"古迹"}}
	itin := &model.Itinerary{
		Destination:       "京都",
		DailyPlans:        []model.DayPlan{{Day: 1}, {Day: 2}},
		RecommendedHotels: []model.Hotel{{Name: "鸭川旅馆"}},
	}

	out, err := RenderPlannerSystem(context.Background(), model.PromptConfig{AssistantName: "小游"}, req, itin)

	require.NoError(t, err)
	assert.Contains(t, out, "小游")
	assert.Contains(t, out, "update_itinerary")
	assert.Contains(t, out, "plan_route")
	assert.Contains(t, out, `"destination":"京都"`)
	assert.Contains(t, out, "共 2 天")
}

func TestRenderPlannerSystemEmptyContext(t *testing.T) {
	out, err := RenderPlannerSystem(context.Background(), model.PromptConfig{}, model.ItineraryRequest{}, nil)

	require.NoError(t, err)
	assert.Contains(t, out, "旅程助手")
	assert.Contains(t, out, "已收集的需求：暂无")
	assert.Contains(t, out, "当前行程：暂无")
}

func TestRenderGeneratorPrompt(t *testing.T) {
	req := model.ItineraryRequest{
		Destination: "大阪",
		StartDate:   "2026-10-01",
		Budget:      8000,
		Companions:  2,
		Preferences: []string{"美食", "夜景"},
		Notes:       "带老人出行",
	}

	out, err := RenderGeneratorPrompt(context.Background(), req)

	require.NoError(t, err)
	assert.Contains(t, out, "目的地：大阪")
	assert.Contains(t, out, "开始日期：2026-10-01")
	assert.Contains(t, out, "结束日期：待定")
	assert.Contains(t, out, "预算（人民币）：8000")
	assert.Contains(t, out, "美食、夜景")
	assert.Contains(t, out, "补充说明：带老人出行")
}

func TestRenderGeneratorPromptDefaults(t *testing.T) {
	out, err := RenderGeneratorPrompt(context.Background(), model.ItineraryRequest{Destination: "东京"})

	require.NoError(t, err)
	assert.Contains(t, out, "预算（人民币）：未提供")
	assert.Contains(t, out, "偏好：综合体验")
}
