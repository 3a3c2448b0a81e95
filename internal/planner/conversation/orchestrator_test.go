package conversation

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/geo"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/tools"
)

// scriptedModel replays canned responses and records every request it saw.
type scriptedModel struct {
	outputs []*schema.Message
	err     error
	inputs  [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	idx := len(m.inputs) - 1
	if idx >= len(m.outputs) {
		idx = len(m.outputs) - 1
	}
	return m.outputs[idx], nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(context.Context, string) (*model.Point, error) { return nil, nil }

type stubProvider struct{}

func (stubProvider) Directions(context.Context, geo.DirectionsQuery) (*geo.DirectionsResult, error) {
	return nil, errx.Providerf("offline")
}

func newOrchestrator(planner ChatModel, generator ChatModel, maxRounds int) *Orchestrator {
	executor := tools.NewExecutor(
		tools.NewUpdateItineraryHandler(),
		tools.NewPlanRouteHandler(geo.NewResolver(stubGeocoder{}), geo.NewPlanner(stubProvider{})),
	)
	var gen *Generator
	if generator != nil {
		gen = NewGenerator(generator, "gemini-2.5-flash")
	}
	return NewOrchestrator(planner, "gemini-2.5-flash", executor, gen,
		model.PromptConfig{AssistantName: "旅程助手"},
		model.ConversationConfig{MaxToolRounds: maxRounds, HistoryMaxTurns: 20})
}

func userTurn(content string) TurnInput {
	return TurnInput{Messages: []ChatMessage{{Role: "user", Content: content}}}
}

func TestConverseEnvelopeMergesRequest(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"reply":"了解了","questions":["预算多少？"],"itineraryRequest":{"destination":"大阪","travelers":"3","preferences":"美食，夜景"}}`, nil),
	}}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), TurnInput{
		Messages: []ChatMessage{{Role: "user", Content: "想去大阪玩"}},
		Request:  model.ItineraryRequest{Budget: 8000},
	})

	require.NoError(t, err)
	assert.Equal(t, "了解了", result.Reply)
	assert.Equal(t, []string{"预算多少？"}, result.Questions)
	assert.Equal(t, "大阪", result.Request.Destination)
	assert.Equal(t, 3, result.Request.Companions)
	assert.Equal(t, []string{"美食", "夜景"}, result.Request.Preferences)
	// prior facts survive the merge
	assert.Equal(t, 8000.0, result.Request.Budget)
	assert.Zero(t, result.ItineraryVersion)
	assert.Nil(t, result.Itinerary)
}

func TestConverseToolRoundThenReply(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{
					Name:      "update_itinerary",
					Arguments: `{"updates":{"destination":"上海","dailyPlans":[{"day":1,"theme":"外滩"}]}}`,
				},
			}},
		},
		schema.AssistantMessage(`{"reply":"第一天安排好了"}`, nil),
	}}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), userTurn("帮我安排第一天"))

	require.NoError(t, err)
	assert.Equal(t, "第一天安排好了", result.Reply)
	assert.Equal(t, 1, result.ItineraryVersion)
	require.NotNil(t, result.Itinerary)
	assert.Equal(t, "上海", result.Itinerary.Destination)

	// second model call must carry the assistant tool call and its result
	require.Len(t, planner.inputs, 2)
	second := planner.inputs[1]
	toolMsg := second[len(second)-1]
	assert.Equal(t, schema.Tool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, `"ok":true`)
}

func TestConverseEmbeddedToolCallFallback(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"tool_calls":[{"name":"update_itinerary","arguments":{"updates":{"destination":"南京"}}}]}`, nil),
		schema.AssistantMessage(`{"reply":"已更新"}`, nil),
	}}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), userTurn("目的地改成南京"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.ItineraryVersion)
	assert.Equal(t, "南京", result.Itinerary.Destination)
}

func TestConverseToolErrorFedBack(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{Name: "update_itinerary", Arguments: `{"note":"忘了带 updates"}`},
			}},
		},
		schema.AssistantMessage(`{"reply":"我再确认一下要改什么"}`, nil),
	}}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), userTurn("改一下行程"))

	require.NoError(t, err)
	assert.Zero(t, result.ItineraryVersion)

	second := planner.inputs[1]
	toolMsg := second[len(second)-1]
	assert.Equal(t, schema.Tool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "error")
	assert.Contains(t, toolMsg.Content, "updates")
}

func TestConverseExhaustionCap(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{Name: "update_itinerary", Arguments: `{"updates":{"destination":"苏州"}}`},
			}},
		},
	}}

	result, err := newOrchestrator(planner, nil, 2).Converse(context.Background(), userTurn("一直改"))

	require.NoError(t, err)
	assert.True(t, result.Exhausted)
	assert.Equal(t, exhaustedReply, result.Reply)
	// the cap allows two executed rounds before the third answer is cut off
	assert.Equal(t, 2, result.ItineraryVersion)
	require.NotNil(t, result.Itinerary)
	assert.Equal(t, "苏州", result.Itinerary.Destination)
	assert.Len(t, planner.inputs, 3)
}

func TestConverseAcceptsEnvelopeItinerary(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"reply":"草案在这","itinerary":{"destination":"杭州","dailyPlans":[{"day":1,"theme":"西湖"}]}}`, nil),
	}}

	prior := &model.Itinerary{ID: "keep-me", Destination: "上海"}
	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), TurnInput{
		Messages:  []ChatMessage{{Role: "user", Content: "直接给个杭州的草案"}},
		Itinerary: prior,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.ItineraryVersion)
	require.NotNil(t, result.Itinerary)
	assert.Equal(t, "杭州", result.Itinerary.Destination)
	assert.Equal(t, "keep-me", result.Itinerary.ID)
}

func TestConverseReadyForPlanRegenerates(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"reply":"信息齐了，开始生成","readyForPlan":true,"itineraryRequest":{"destination":"成都","days":3}}`, nil),
	}}
	generator := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage("```json\n{\"destination\":\"成都\",\"dailyPlans\":[{\"day\":1,\"theme\":\"熊猫基地\"}]}\n```", nil),
	}}

	result, err := newOrchestrator(planner, generator, 4).Converse(context.Background(), userTurn("就这些条件"))

	require.NoError(t, err)
	assert.True(t, result.ReadyForPlan)
	assert.Equal(t, 1, result.ItineraryVersion)
	require.NotNil(t, result.Itinerary)
	assert.Equal(t, "成都", result.Itinerary.Destination)
	assert.Equal(t, "熊猫基地", result.Itinerary.DailyPlans[0].Theme)
	assert.Len(t, generator.inputs, 1)
}

func TestConverseToolEditSuppressesRegeneration(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{Name: "update_itinerary", Arguments: `{"updates":{"destination":"成都"}}`},
			}},
		},
		schema.AssistantMessage(`{"reply":"调好了","readyForPlan":true,"itineraryRequest":{"destination":"成都"}}`, nil),
	}}
	generator := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"destination":"不该出现"}`, nil),
	}}

	result, err := newOrchestrator(planner, generator, 4).Converse(context.Background(), userTurn("调整后就生成"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.ItineraryVersion)
	assert.Equal(t, "成都", result.Itinerary.Destination)
	assert.Empty(t, generator.inputs)
}

func TestConverseRegenerationFailureDegrades(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage(`{"reply":"开始生成","readyForPlan":true,"itineraryRequest":{"destination":"西安"}}`, nil),
	}}
	generator := &scriptedModel{err: errors.New("rate limited")}

	result, err := newOrchestrator(planner, generator, 4).Converse(context.Background(), userTurn("生成吧"))

	require.NoError(t, err)
	assert.Equal(t, "开始生成", result.Reply)
	assert.True(t, result.ReadyForPlan)
	assert.Nil(t, result.Itinerary)
	assert.Zero(t, result.ItineraryVersion)
}

func TestConverseUnparseableReplyPassesThrough(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		schema.AssistantMessage("就是一句普通的话，没有 JSON。", nil),
	}}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), userTurn("随便聊聊"))

	require.NoError(t, err)
	assert.Equal(t, "就是一句普通的话，没有 JSON。", result.Reply)
	assert.Zero(t, result.ItineraryVersion)
}

func TestConversePlannerFailureIsFatal(t *testing.T) {
	planner := &scriptedModel{err: errors.New("quota exhausted")}

	_, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), userTurn("你好"))

	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindProvider))
}

func TestConverseRouteToolAppendsRoute(t *testing.T) {
	planner := &scriptedModel{outputs: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				Function: schema.FunctionCall{
					Name:      "plan_route",
					Arguments: `{"origin":"外滩","destination":"豫园","preference":"walking"}`,
				},
			}},
		},
		schema.AssistantMessage(`{"reply":"路线规划好了"}`, nil),
	}}

	itin := &model.Itinerary{
		DailyPlans: []model.DayPlan{{Day: 1, Highlights: []model.Highlight{
			{Name: "外滩", Coordinates: &model.Coordinates{Lat: 31.2363, Lng: 121.4903}},
			{Name: "豫园", Coordinates: &model.Coordinates{Lat: 31.2272, Lng: 121.4921}},
		}}},
	}

	result, err := newOrchestrator(planner, nil, 4).Converse(context.Background(), TurnInput{
		Messages:  []ChatMessage{{Role: "user", Content: "从外滩到豫园怎么走"}},
		Itinerary: itin,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.RoutesVersion)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "walking", result.Routes[0].Preference)
	assert.Zero(t, result.ItineraryVersion)
}
