package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

//go:embed template/generator_prompt.txt
var generatorUserPrompt string

// GeneratorSystemPrompt instructs the tool-less model that renders a full
// itinerary in one shot.
const GeneratorSystemPrompt = "你是一个旅行策划专家，需要基于用户需求输出 JSON 格式的行程规划。请严格按照用户要求返回 summary、dailyPlans、recommendedHotels、transportationTips 等字段。"

// RenderGeneratorPrompt renders the one-shot generation request from the
// collected trip facts.
func RenderGeneratorPrompt(ctx context.Context, req model.ItineraryRequest) (string, error) {
	preferences := strings.Join(req.Preferences, "、")
	if preferences == "" {
		preferences = "综合体验"
	}

	noteText := ""
	if strings.TrimSpace(req.Notes) != "" {
		noteText = "补充说明：" + req.Notes
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(generatorUserPrompt),
	)
	vars := map[string]any{
		"Destination": orText(req.Destination, "待定"),
		"StartDate":   orText(req.StartDate, "待定"),
		"EndDate":     orText(req.EndDate, "待定"),
		"Budget":      numberOrText(req.Budget, "未提供"),
		"Companions":  numberOrText(float64(req.Companions), "未提供"),
		"Preferences": preferences,
		"NoteText":    noteText,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("generator prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("generator prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func orText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func numberOrText(value float64, fallback string) string {
	if value <= 0 {
		return fallback
	}
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.2f", value), "00"), ".")
}
