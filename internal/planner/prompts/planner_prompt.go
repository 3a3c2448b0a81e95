package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

//go:embed template/planner_prompt.txt
var plannerSystemPrompt string

// RenderPlannerSystem renders the conversational system prompt with the
// request and itinerary the turn already knows about.
func RenderPlannerSystem(ctx context.Context, cfg model.PromptConfig, req model.ItineraryRequest, itin *model.Itinerary) (string, error) {
	assistantName := cfg.AssistantName
	if assistantName == "" {
		assistantName = "旅程助手"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(plannerSystemPrompt),
	)
	vars := map[string]any{
		"AssistantName":    assistantName,
		"UpdateTool":       "update_itinerary",
		"RouteTool":        "plan_route",
		"KnownRequest":     knownRequestText(req),
		"ItinerarySummary": itinerarySummaryText(itin),
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("planner prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("planner prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func knownRequestText(req model.ItineraryRequest) string {
	if req.IsEmpty() {
		return "暂无"
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "暂无"
	}
	return string(b)
}

func itinerarySummaryText(itin *model.Itinerary) string {
	if itin == nil {
		return "暂无"
	}
	return fmt.Sprintf("%s，共 %d 天，%d 家推荐酒店", itin.Destination, len(itin.DailyPlans), len(itin.RecommendedHotels))
}
