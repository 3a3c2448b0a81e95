package model

// ================ Config ================

// PlannerModelConfig configures the tool-calling conversational model.
type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0.6"`
}

// GeneratorModelConfig configures the tool-less full-itinerary model.
type GeneratorModelConfig struct {
	Model       string  `envconfig:"GENERATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATOR_MAX_TOKENS" default:"8192"`
	Temperature float32 `envconfig:"GENERATOR_TEMPERATURE" default:"0.6"`
}

// ConversationConfig bounds the per-turn loop.
type ConversationConfig struct {
	// MaxToolRounds caps Requesting/ToolDispatch round-trips in one turn.
	// Exceeding it produces the exhaustion fallback reply, not an error.
	MaxToolRounds   int `envconfig:"CONVERSATION_TOOL_MAX_ROUNDS" default:"4"`
	HistoryMaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"20"`
}

// PromptConfig customizes the assistant persona in the system prompt.
type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"旅程助手"`
}

// AmapConfig configures the geocoding/routing provider.
type AmapConfig struct {
	Key             string `envconfig:"AMAP_API_KEY"`
	BaseURL         string `envconfig:"AMAP_BASE_URL" default:"https://restapi.amap.com"`
	TimeoutSeconds  int    `envconfig:"AMAP_TIMEOUT_SECONDS" default:"8"`
	GeocodeCacheTTL string `envconfig:"AMAP_GEOCODE_CACHE_TTL" default:"15m"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"redis"`
	// TTL applies to redis records only; "0" keeps them forever.
	TTL string `envconfig:"STORE_TTL" default:"0"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr         string   `envconfig:"SERVER_ADDR" default:":8787"`
	AllowOrigins []string `envconfig:"SERVER_ALLOW_ORIGINS" default:"*"`
}
