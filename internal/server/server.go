// Package server is the thin HTTP surface over the planner core. Handlers
// validate and translate; every behavior lives below them.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Tripmate-core-poc-v1/server/internal/core"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/conversation"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/store"
)

// Deps are the wired core collaborators the handlers call into.
type Deps struct {
	Orchestrator *conversation.Orchestrator
	Gatekeeper   *store.Gatekeeper
	Repo         store.Repository
}

type Server struct {
	engine *gin.Engine
	addr   string
}

func New(env core.Environment, cfg model.ServerConfig, deps Deps) *Server {
	if env == core.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	h := &handlers{deps: deps}

	api := engine.Group("/api")
	{
		api.GET("/health", h.health)
		api.POST("/chat/converse", h.converse)

		itineraries := api.Group("/itineraries")
		{
			itineraries.GET("", h.listItineraries)
			itineraries.POST("", h.createItinerary)
			itineraries.GET("/:id", h.getItinerary)
			itineraries.DELETE("/:id", h.deleteItinerary)
			itineraries.POST("/:id/budget", h.calculateBudget)
		}
	}

	return &Server{engine: engine, addr: cfg.Addr}
}

func (s *Server) Run() error {
	return s.engine.Run(s.addr)
}

// Engine exposes the router for httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
