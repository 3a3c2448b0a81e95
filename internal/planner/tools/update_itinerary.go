package tools

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/itinerary"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

type UpdateItineraryArgs struct {
	Updates   map[string]any `json:"updates"`
	Overwrite bool           `json:"overwrite,omitempty"`
	Note      string         `json:"note,omitempty"`
}

type UpdateItineraryResult struct {
	OK        bool             `json:"ok"`
	Note      string           `json:"note,omitempty"`
	Itinerary *model.Itinerary `json:"itinerary"`
}

// UpdateItineraryHandler edits the working itinerary with the keyed merge
// rules, or replaces sections wholesale when overwrite is set.
type UpdateItineraryHandler struct{}

func NewUpdateItineraryHandler() *UpdateItineraryHandler {
	return &UpdateItineraryHandler{}
}

func (h *UpdateItineraryHandler) Kind() Kind {
	return KindUpdateItinerary
}

func (h *UpdateItineraryHandler) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: string(KindUpdateItinerary),
		Desc: "对当前行程做结构化修改：按天合并 dailyPlans（同一天的 highlights 整体替换）、按名称合并 recommendedHotels、整体替换 transportationTips。传 overwrite=true 时顶层字段整体覆盖。修改成功后返回规范化的完整行程。",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"updates": {
				Type:     "object",
				Desc:     "要应用的行程片段，结构与行程文档一致，例如 {\"dailyPlans\":[{\"day\":2,\"theme\":\"美食\"}]}",
				Required: true,
			},
			"overwrite": {
				Type: "boolean",
				Desc: "true 表示 updates 中出现的顶层字段整体替换现有内容，而不是合并",
			},
			"note": {
				Type: "string",
				Desc: "本次修改的简短说明，原样回传",
			},
		}),
	}
}

func (h *UpdateItineraryHandler) Execute(_ context.Context, args json.RawMessage, tc *model.TurnContext) (any, error) {
	var in UpdateItineraryArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, errx.ToolArgument("缺少行程更新参数。")
	}
	if len(in.Updates) == 0 {
		return nil, errx.ToolArgument("updates 字段不能为空。")
	}

	next := itinerary.Apply(tc.Itinerary, in.Updates, in.Overwrite, tc.Request)
	tc.SetItinerary(next)

	logx.Debug().
		Bool("overwrite", in.Overwrite).
		Int("itinerary_version", tc.ItineraryVersion).
		Msg("itinerary updated by tool")

	return &UpdateItineraryResult{OK: true, Note: in.Note, Itinerary: next}, nil
}
