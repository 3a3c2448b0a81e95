// Package store persists itinerary records and decides, after each turn,
// whether anything is worth writing.
package store

import (
	"context"
	"errors"
	"net/http"
	"time"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/budget"
	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

var (
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("itinerary record not found")
	// ErrRevisionConflict marks an optimistic-concurrency failure: someone
	// else wrote the record since it was read.
	ErrRevisionConflict = errors.New("itinerary revision conflict")
)

// Record is the persisted unit: the canonical itinerary plus the request that
// produced it and its advisory budget.
type Record struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"ownerId,omitempty"`
	Request   model.ItineraryRequest `json:"request"`
	Itinerary *model.Itinerary       `json:"itinerary"`
	Budget    *budget.Estimate       `json:"budget,omitempty"`
	Revision  int64                  `json:"revision"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Repository stores records. Update carries an optimistic precondition: the
// record's Revision must still match the stored one, and is advanced by one
// on success. A mismatch is ErrRevisionConflict.
type Repository interface {
	Find(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
}

// IsNotFound reports whether err is a missing-record failure from any driver.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var appErr *errx.AppError
	return errors.As(err, &appErr) && appErr.Kind == errx.KindPersistence && appErr.Status == http.StatusNotFound
}

func notFoundErr() error {
	return errx.NewKind(errx.KindPersistence, ErrNotFound, http.StatusNotFound, errx.NotFoundMessage)
}

func conflictErr() error {
	return errx.NewKind(errx.KindPersistence, ErrRevisionConflict, http.StatusConflict, "record changed concurrently")
}
