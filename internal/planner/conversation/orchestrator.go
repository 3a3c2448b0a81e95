package conversation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/itinerary"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/parsers"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/prompts"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/tools"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

const (
	defaultReply   = "好的，我会继续帮你完善行程！"
	exhaustedReply = "这一轮我已经做了多次行程调整和查询，先暂停一下。请再补充或确认一下你的需求，我们继续。"
)

// ChatMessage is one caller-supplied history entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnInput is the caller's snapshot for one conversational turn.
type TurnInput struct {
	Messages  []ChatMessage
	Itinerary *model.Itinerary
	Request   model.ItineraryRequest
}

// TurnResult is everything one turn produced. Version counters tell the
// persistence gatekeeper whether anything actually changed.
type TurnResult struct {
	Reply        string
	Questions    []string
	Request      model.ItineraryRequest
	Itinerary    *model.Itinerary
	Routes       []model.Route
	ReadyForPlan bool
	Exhausted    bool
	Meta         map[string]any

	ItineraryVersion int
	RoutesVersion    int
}

// Orchestrator drives the bounded model-and-tool loop for a turn.
type Orchestrator struct {
	planner          ChatModel
	plannerModelName string
	executor         *tools.Executor
	generator        *Generator
	promptCfg        model.PromptConfig
	convCfg          model.ConversationConfig
}

func NewOrchestrator(planner ChatModel, plannerModelName string, executor *tools.Executor, generator *Generator, promptCfg model.PromptConfig, convCfg model.ConversationConfig) *Orchestrator {
	return &Orchestrator{
		planner:          planner,
		plannerModelName: plannerModelName,
		executor:         executor,
		generator:        generator,
		promptCfg:        promptCfg,
		convCfg:          convCfg,
	}
}

// Converse runs one turn. The loop alternates model calls and sequential tool
// execution until the model answers without tool calls or the round cap is
// hit. Planner-model failures are fatal; everything downstream of a tool call
// is recovered and fed back to the model.
func (o *Orchestrator) Converse(ctx context.Context, in TurnInput) (*TurnResult, error) {
	tc := model.NewTurnContext(in.Itinerary, in.Request)

	systemPrompt, err := prompts.RenderPlannerSystem(ctx, o.promptCfg, tc.Request, tc.Itinerary)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}
	messages = append(messages, historyMessages(in.Messages, o.convCfg.HistoryMaxTurns)...)

	maxRounds := o.convCfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 4
	}

	var envelope *model.Envelope
	exhausted := false

	for round := 0; ; round++ {
		out, err := o.planner.Generate(ctx, messages)
		if err != nil {
			return nil, errx.Providerf("planner model call: %v", err)
		}
		logModelUsage("planner", o.plannerModelName, out)

		calls := parsers.ExtractToolCalls(out)
		if len(calls) == 0 {
			envelope = o.parseEnvelope(out.Content)
			break
		}

		if round >= maxRounds {
			logx.Warn().Int("rounds", round).Msg("tool round cap reached, ending turn")
			exhausted = true
			envelope = &model.Envelope{Reply: exhaustedReply}
			break
		}

		out.ToolCalls = calls
		messages = append(messages, out)
		for _, call := range calls {
			messages = append(messages, o.runTool(ctx, call, tc))
		}
	}

	o.applyEnvelope(ctx, envelope, tc)

	return &TurnResult{
		Reply:            envelope.Reply,
		Questions:        envelope.Questions,
		Request:          tc.Request,
		Itinerary:        tc.Itinerary,
		Routes:           tc.Routes,
		ReadyForPlan:     envelope.ReadyForPlan,
		Exhausted:        exhausted,
		Meta:             envelope.Meta,
		ItineraryVersion: tc.ItineraryVersion,
		RoutesVersion:    tc.RoutesVersion,
	}, nil
}

// runTool executes one call and shapes the outcome into a tool message. Tool
// errors become {"error": ...} results so the model can correct itself.
func (o *Orchestrator) runTool(ctx context.Context, call schema.ToolCall, tc *model.TurnContext) *schema.Message {
	name := call.Function.Name
	result, err := o.executor.Execute(ctx, name, call.Function.Arguments, tc)
	if err != nil {
		logx.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return schema.ToolMessage(toolErrorPayload(err), call.ID, schema.WithToolName(name))
	}

	payload, err := json.Marshal(result)
	if err != nil {
		logx.Error().Err(err).Str("tool", name).Msg("tool result not serializable")
		return schema.ToolMessage(toolErrorPayload(err), call.ID, schema.WithToolName(name))
	}
	return schema.ToolMessage(string(payload), call.ID, schema.WithToolName(name))
}

// parseEnvelope never fails the turn: unparseable content degrades to a plain
// conversational reply.
func (o *Orchestrator) parseEnvelope(content string) *model.Envelope {
	envelope, err := parsers.ParseEnvelope(content)
	if err == nil {
		if strings.TrimSpace(envelope.Reply) == "" {
			envelope.Reply = defaultReply
		}
		return envelope
	}

	logx.Warn().Err(err).Msg("assistant reply is not an envelope, passing content through")
	reply := strings.TrimSpace(content)
	if reply == "" {
		reply = defaultReply
	}
	return &model.Envelope{Reply: reply}
}

// applyEnvelope folds the model's final answer into the turn context: merge
// the request facts, accept a proposed itinerary, or regenerate one when the
// model says the facts are complete and no tool already edited the itinerary
// this turn.
func (o *Orchestrator) applyEnvelope(ctx context.Context, envelope *model.Envelope, tc *model.TurnContext) {
	toolEdited := tc.ItineraryVersion > 0

	if len(envelope.ItineraryRequest) > 0 {
		tc.Request = tc.Request.Merge(model.SanitizeRequest(envelope.ItineraryRequest))
	}

	if len(envelope.Itinerary) > 0 {
		var raw any
		if err := json.Unmarshal(envelope.Itinerary, &raw); err != nil {
			logx.Warn().Err(err).Msg("envelope itinerary unreadable, ignoring")
		} else {
			tc.SetItinerary(itinerary.Normalize(raw, tc.Request))
		}
		return
	}

	if envelope.WantsRegeneration() && !toolEdited && !tc.Request.IsEmpty() {
		generated, err := o.generator.Generate(ctx, tc.Request)
		if err != nil {
			logx.Warn().Err(err).Msg("itinerary regeneration failed, keeping conversational reply")
			return
		}
		tc.SetItinerary(generated)
	}
}

// historyMessages converts and truncates the caller history. Only user and
// assistant entries are forwarded.
func historyMessages(history []ChatMessage, maxTurns int) []*schema.Message {
	if maxTurns > 0 && len(history) > maxTurns*2 {
		history = history[len(history)-maxTurns*2:]
	}

	msgs := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "user":
			msgs = append(msgs, schema.UserMessage(m.Content))
		case "assistant":
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	return msgs
}

func toolErrorPayload(err error) string {
	b, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return `{"error":"tool execution failed"}`
	}
	return string(b)
}
