package conversation

import (
	"context"

	"github.com/cloudwego/eino/schema"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/itinerary"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/parsers"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/prompts"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

// Generator renders a full itinerary in one tool-less model call.
type Generator struct {
	model     ChatModel
	modelName string
}

func NewGenerator(m ChatModel, modelName string) *Generator {
	return &Generator{model: m, modelName: modelName}
}

// Generate produces a normalized itinerary for the collected request. Without
// a configured model it returns the placeholder; a failed provider call is an
// error the caller decides how to degrade; output that parses as nothing
// usable also degrades to the placeholder.
func (g *Generator) Generate(ctx context.Context, req model.ItineraryRequest) (*model.Itinerary, error) {
	if g == nil || g.model == nil {
		return itinerary.Fallback(req), nil
	}

	userPrompt, err := prompts.RenderGeneratorPrompt(ctx, req)
	if err != nil {
		logx.Warn().Err(err).Msg("generator prompt render failed, using placeholder itinerary")
		return itinerary.Fallback(req), nil
	}

	out, err := g.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.GeneratorSystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, errx.Providerf("generate itinerary: %v", err)
	}
	logModelUsage("generator", g.modelName, out)

	obj, err := parsers.ExtractJSONObject(out.Content)
	if err != nil {
		logx.Warn().Err(err).Msg("generator output unparseable, using placeholder itinerary")
		return itinerary.Fallback(req), nil
	}

	return itinerary.Normalize(obj, req), nil
}
