package conversation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

// ChatModel is the slice of the eino model surface the orchestrator needs.
// Keeping it narrow lets tests drive the loop with a scripted fake.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ChatModelConfig holds what chat model creation needs.
type ChatModelConfig struct {
	APIKey    string
	BaseURL   string
	Planner   *model.PlannerModelConfig
	Generator *model.GeneratorModelConfig
}

// ChatModels holds the tool-bound planner model and the tool-less generator
// model, both backed by one Gemini client.
type ChatModels struct {
	Planner            ChatModel
	Generator          ChatModel
	PlannerModelName   string
	GeneratorModelName string
}

// NewChatModels creates both models and binds the tool schemas to the planner.
func NewChatModels(ctx context.Context, config ChatModelConfig, toolInfos []*schema.ToolInfo) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	plannerModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Planner.Model,
		Temperature: &config.Planner.Temperature,
		MaxTokens:   &config.Planner.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating planner model")
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}
	if err := plannerModel.BindTools(toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}

	generatorModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Generator.Model,
		Temperature: &config.Generator.Temperature,
		MaxTokens:   &config.Generator.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generator model")
		return nil, fmt.Errorf("error creating generator model: %w", err)
	}

	return &ChatModels{
		Planner:            plannerModel,
		Generator:          generatorModel,
		PlannerModelName:   config.Planner.Model,
		GeneratorModelName: config.Generator.Model,
	}, nil
}

// logModelUsage logs token usage and cost for one model call.
func logModelUsage(stage, modelName string, out *schema.Message) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inCost, outCost, total := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Info().
		Str("stage", stage).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inCost).
		Float64("output_cost_usd", outCost).
		Float64("total_cost_usd", total).
		Msg("model call usage")
}
