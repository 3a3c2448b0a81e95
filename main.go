package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Tripmate-core-poc-v1/server/internal/core"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/conversation"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/geo"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/store"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/tools"
	"github.com/Tripmate-core-poc-v1/server/internal/server"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
	pkgmongo "github.com/Tripmate-core-poc-v1/server/pkg/mongo"
	pkgredis "github.com/Tripmate-core-poc-v1/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the planner service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config
	Mongo pkgmongo.Config
	Store model.StoreConfig

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Planner configs
	Planner      model.PlannerModelConfig
	Generator    model.GeneratorModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
	Amap         model.AmapConfig
	Server       model.ServerConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	env := core.FromEnv()
	logx.Init(logx.LoggerOpts{Environment: env})

	repo, cleanup := newRepository(envCfg)
	defer cleanup()

	geocodeTTL, err := time.ParseDuration(envCfg.Amap.GeocodeCacheTTL)
	if err != nil {
		log.Fatalf("Invalid AMAP_GEOCODE_CACHE_TTL '%s': %v", envCfg.Amap.GeocodeCacheTTL, err)
	}

	amap := geo.NewAmapClient(envCfg.Amap)
	resolver := geo.NewResolver(geo.NewCachedGeocoder(amap, geocodeTTL))

	var provider geo.RouteProvider
	if envCfg.Amap.Key != "" {
		provider = amap
	} else {
		logx.Warn().Msg("AMAP_API_KEY not set, routes will use great-circle estimates")
	}
	routePlanner := geo.NewPlanner(provider)

	executor := tools.NewExecutor(
		tools.NewUpdateItineraryHandler(),
		tools.NewPlanRouteHandler(resolver, routePlanner),
	)

	models, err := conversation.NewChatModels(ctx, conversation.ChatModelConfig{
		APIKey:    envCfg.APIKey,
		BaseURL:   envCfg.BaseURL,
		Planner:   &envCfg.Planner,
		Generator: &envCfg.Generator,
	}, executor.ToolInfos())
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	orchestrator := conversation.NewOrchestrator(
		models.Planner, models.PlannerModelName,
		executor,
		conversation.NewGenerator(models.Generator, models.GeneratorModelName),
		envCfg.Prompt, envCfg.Conversation,
	)

	srv := server.New(env, envCfg.Server, server.Deps{
		Orchestrator: orchestrator,
		Gatekeeper:   store.NewGatekeeper(repo),
		Repo:         repo,
	})

	logx.Info().
		Str("addr", envCfg.Server.Addr).
		Str("store", envCfg.Store.Driver).
		Str("environment", env.String()).
		Msg("starting planner server")
	if err := srv.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// newRepository selects the persistence driver from STORE_DRIVER. The cleanup
// closes whatever client the driver opened.
func newRepository(cfg AppConfig) (store.Repository, func()) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryRepository(), func() {}

	case "mongo":
		client, err := cfg.Mongo.New()
		if err != nil {
			log.Fatalf("Failed to initialise Mongo client: %v", err)
		}
		return store.NewMongoRepository(client.Database(cfg.Mongo.Database)), func() {
			_ = client.Disconnect(context.Background())
		}

	default:
		rdb, err := cfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		ttl, err := time.ParseDuration(cfg.Store.TTL)
		if err != nil {
			log.Fatalf("Invalid STORE_TTL '%s': %v", cfg.Store.TTL, err)
		}
		return store.NewRedisRepository(rdb, ttl), func() { _ = rdb.Close() }
	}
}
