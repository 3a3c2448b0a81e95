package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/budget"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/conversation"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/itinerary"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/store"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userContext is the caller-side snapshot accompanying a chat turn.
type userContext struct {
	UserID      string          `json:"userId"`
	ItineraryID string          `json:"itineraryId"`
	Request     map[string]any  `json:"request"`
	Itinerary   json.RawMessage `json:"itinerary"`
}

type converseBody struct {
	Messages    []conversation.ChatMessage `json:"messages"`
	UserContext *userContext               `json:"userContext"`
}

func (h *handlers) converse(c *gin.Context) {
	var body converseBody
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages is required and must be a non-empty array."})
		return
	}

	input := conversation.TurnInput{Messages: body.Messages}
	ownerID := ""

	if uc := body.UserContext; uc != nil {
		ownerID = uc.UserID
		input.Request = model.SanitizeRequest(uc.Request)

		if uc.ItineraryID != "" {
			if rec, err := h.deps.Repo.Find(c.Request.Context(), uc.ItineraryID); err == nil {
				input.Itinerary = rec.Itinerary
				input.Request = rec.Request.Merge(input.Request)
			} else if !store.IsNotFound(err) {
				logx.Warn().Err(err).Str("id", uc.ItineraryID).Msg("could not load itinerary for chat turn")
			}
		}
		if input.Itinerary == nil && len(uc.Itinerary) > 0 {
			var raw any
			if err := json.Unmarshal(uc.Itinerary, &raw); err == nil {
				input.Itinerary = itinerary.Normalize(raw, input.Request)
			}
		}
	}

	result, err := h.deps.Orchestrator.Converse(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome := h.deps.Gatekeeper.Persist(c.Request.Context(), ownerID, result)

	response := gin.H{
		"reply":            result.Reply,
		"questions":        result.Questions,
		"itineraryRequest": result.Request,
		"readyForPlan":     result.ReadyForPlan,
		"itinerary":        result.Itinerary,
		"routes":           result.Routes,
		"budget":           outcome.Budget,
		"meta":             result.Meta,
	}
	if outcome.Record != nil {
		response["itineraryId"] = outcome.Record.ID
		response["itinerary"] = outcome.Record.Itinerary
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlers) listItineraries(c *gin.Context) {
	records, err := h.deps.Repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itineraries": records})
}

type createItineraryBody struct {
	Request   map[string]any  `json:"request"`
	Itinerary json.RawMessage `json:"itinerary"`
	OwnerID   string          `json:"userId"`
}

func (h *handlers) createItinerary(c *gin.Context) {
	var body createItineraryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object."})
		return
	}

	req := model.SanitizeRequest(body.Request)

	var raw any
	if len(body.Itinerary) > 0 {
		if err := json.Unmarshal(body.Itinerary, &raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "itinerary must be a JSON object."})
			return
		}
	}
	itin := itinerary.Normalize(raw, req)
	if itin.ID == "" {
		itin.ID = uuid.NewString()
	}

	est := budget.Calculate(itin, budgetOverridesFromRequest(req))
	now := time.Now().UTC()
	rec := &store.Record{
		ID:        itin.ID,
		OwnerID:   body.OwnerID,
		Request:   req,
		Itinerary: itin,
		Budget:    &est,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.deps.Repo.Create(c.Request.Context(), rec); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"itinerary": rec})
}

func (h *handlers) getItinerary(c *gin.Context) {
	rec, err := h.deps.Repo.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"itinerary": rec})
}

func (h *handlers) deleteItinerary(c *gin.Context) {
	if err := h.deps.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type budgetBody struct {
	Overrides *budgetOverrides `json:"overrides"`
	budgetOverrides
}

type budgetOverrides struct {
	BaseBudget    *float64 `json:"baseBudget"`
	Days          *int     `json:"days"`
	Companions    *int     `json:"companions"`
	Transport     *float64 `json:"transport"`
	Accommodation *float64 `json:"accommodation"`
	Food          *float64 `json:"food"`
	Entertainment *float64 `json:"entertainment"`
	Buffer        *float64 `json:"buffer"`
	Notes         []string `json:"notes"`
}

func (h *handlers) calculateBudget(c *gin.Context) {
	rec, err := h.deps.Repo.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// an empty or malformed body means "no overrides"
	var body budgetBody
	_ = c.ShouldBindJSON(&body)

	ov := body.budgetOverrides
	if body.Overrides != nil {
		ov = *body.Overrides
	}

	est := budget.Calculate(rec.Itinerary, budget.Overrides{
		BaseBudget:    ov.BaseBudget,
		Days:          ov.Days,
		Companions:    ov.Companions,
		Transport:     ov.Transport,
		Accommodation: ov.Accommodation,
		Food:          ov.Food,
		Entertainment: ov.Entertainment,
		Buffer:        ov.Buffer,
		Notes:         ov.Notes,
	})

	rec.Budget = &est
	rec.UpdatedAt = time.Now().UTC()
	if err := h.deps.Repo.Update(c.Request.Context(), rec); err != nil {
		logx.Warn().Err(err).Str("id", rec.ID).Msg("failed to persist recalculated budget")
	}

	c.JSON(http.StatusOK, gin.H{"budget": est})
}

func budgetOverridesFromRequest(req model.ItineraryRequest) budget.Overrides {
	var ov budget.Overrides
	if req.Budget > 0 {
		base := req.Budget
		ov.BaseBudget = &base
	}
	return ov
}

// respondError maps errx failures onto their HTTP status; anything untyped is
// a 500 with the generic message.
func respondError(c *gin.Context, err error) {
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}
	logx.Error().Err(err).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": errx.SystemErrorMessage})
}
