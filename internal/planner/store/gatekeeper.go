package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/budget"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/conversation"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

// Action says what the gatekeeper decided to do with a turn.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Outcome is what the caller shows the user after persistence ran. The record
// is the stored state when a write happened (or lost a race), otherwise the
// in-memory turn state.
type Outcome struct {
	Action    Action
	Record    *Record
	Budget    *budget.Estimate
	Persisted bool
}

// Gatekeeper turns the version counters of a finished turn into storage
// decisions. Persistence failures never fail the turn: they are logged and
// the in-memory state is returned.
type Gatekeeper struct {
	repo Repository
	now  func() time.Time
}

func NewGatekeeper(repo Repository) *Gatekeeper {
	return &Gatekeeper{repo: repo, now: time.Now}
}

// Persist applies the decision table: itinerary untouched → no write; edited
// with a known record id → optimistic update; edited without one → create
// with a fresh id. The advisory budget is recomputed before any write.
func (g *Gatekeeper) Persist(ctx context.Context, ownerID string, turn *conversation.TurnResult) *Outcome {
	outcome := &Outcome{Action: ActionNone}

	if turn.Itinerary != nil {
		outcome.Budget = g.computeBudget(turn)
	}

	if turn.ItineraryVersion == 0 || turn.Itinerary == nil {
		return outcome
	}

	rec := &Record{
		ID:        turn.Itinerary.ID,
		OwnerID:   ownerID,
		Request:   turn.Request,
		Itinerary: turn.Itinerary,
		Budget:    outcome.Budget,
		UpdatedAt: g.now().UTC(),
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
		turn.Itinerary.ID = rec.ID
	}
	outcome.Record = rec

	stored, err := g.repo.Find(ctx, rec.ID)
	switch {
	case err == nil:
		outcome.Action = ActionUpdate
		rec.CreatedAt = stored.CreatedAt
		rec.Revision = stored.Revision
		g.update(ctx, rec, outcome)
	case IsNotFound(err):
		outcome.Action = ActionCreate
		rec.CreatedAt = rec.UpdatedAt
		g.create(ctx, rec, outcome)
	default:
		logx.Warn().Err(err).Str("id", rec.ID).Msg("itinerary store unavailable, keeping in-memory state")
	}

	return outcome
}

func (g *Gatekeeper) create(ctx context.Context, rec *Record, outcome *Outcome) {
	if err := g.repo.Create(ctx, rec); err != nil {
		logx.Warn().Err(err).Str("id", rec.ID).Msg("failed to persist new itinerary, keeping in-memory state")
		return
	}
	outcome.Persisted = true
}

// update retries nothing: on a revision conflict the stored record wins and
// is returned, with the drift logged.
func (g *Gatekeeper) update(ctx context.Context, rec *Record, outcome *Outcome) {
	err := g.repo.Update(ctx, rec)
	if err == nil {
		outcome.Persisted = true
		return
	}

	if errors.Is(err, ErrRevisionConflict) {
		stored, findErr := g.repo.Find(ctx, rec.ID)
		if findErr == nil {
			logx.Warn().
				Str("id", rec.ID).
				Int64("our_revision", rec.Revision).
				Int64("stored_revision", stored.Revision).
				Msg("itinerary changed concurrently, stored record wins")
			outcome.Record = stored
			outcome.Budget = stored.Budget
			return
		}
		err = findErr
	}
	logx.Warn().Err(err).Str("id", rec.ID).Msg("failed to persist itinerary update, keeping in-memory state")
}

func (g *Gatekeeper) computeBudget(turn *conversation.TurnResult) *budget.Estimate {
	var ov budget.Overrides
	if turn.Request.Budget > 0 {
		base := turn.Request.Budget
		ov.BaseBudget = &base
	}
	est := budget.Calculate(turn.Itinerary, ov)
	return &est
}
