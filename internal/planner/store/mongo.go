package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
	logx "github.com/Tripmate-core-poc-v1/server/pkg/logger"
)

const mongoCollection = "itineraries"

// mongoDoc wraps the record as opaque JSON so the canonical marshaling rules
// (extra-key folding) survive the trip through bson. Revision is hoisted for
// the optimistic update filter.
type mongoDoc struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id,omitempty"`
	Payload   string    `bson:"payload"`
	Revision  int64     `bson:"revision"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoRepository stores records in one collection with a revision-filtered
// update as the optimistic precondition.
type MongoRepository struct {
	coll      *mongo.Collection
	opTimeout time.Duration
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		coll:      db.Collection(mongoCollection),
		opTimeout: 5 * time.Second,
	}
}

func (m *MongoRepository) Find(ctx context.Context, id string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	var doc mongoDoc
	if err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err != mongo.ErrNoDocuments {
			logx.Error().Err(err).Str("id", id).Msg("failed to load itinerary record from mongo")
		}
		return nil, errx.WrapMongo(err)
	}
	return decodeRecord([]byte(doc.Payload))
}

func (m *MongoRepository) List(ctx context.Context) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	cursor, err := m.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		logx.Error().Err(err).Msg("failed to list itinerary records from mongo")
		return nil, errx.WrapMongo(err)
	}
	defer cursor.Close(ctx)

	var out []*Record
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errx.WrapMongo(err)
		}
		rec, err := decodeRecord([]byte(doc.Payload))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return out, nil
}

func (m *MongoRepository) Create(ctx context.Context, rec *Record) error {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	doc, err := encodeDoc(rec)
	if err != nil {
		return err
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		logx.Error().Err(err).Str("id", rec.ID).Msg("failed to create itinerary record in mongo")
		return errx.WrapMongo(err)
	}
	return nil
}

func (m *MongoRepository) Update(ctx context.Context, rec *Record) error {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	expected := rec.Revision
	rec.Revision++
	doc, err := encodeDoc(rec)
	if err != nil {
		rec.Revision--
		return err
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": rec.ID, "revision": expected},
		bson.M{"$set": bson.M{
			"payload":    doc.Payload,
			"revision":   doc.Revision,
			"updated_at": doc.UpdatedAt,
		}},
	)
	if err != nil {
		rec.Revision--
		logx.Error().Err(err).Str("id", rec.ID).Msg("failed to update itinerary record in mongo")
		return errx.WrapMongo(err)
	}
	if res.MatchedCount == 0 {
		rec.Revision--
		// distinguish a concurrent writer from a missing record
		n, countErr := m.coll.CountDocuments(ctx, bson.M{"_id": rec.ID})
		if countErr == nil && n == 0 {
			return notFoundErr()
		}
		return conflictErr()
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logx.Error().Err(err).Str("id", id).Msg("failed to delete itinerary record from mongo")
		return errx.WrapMongo(err)
	}
	if res.DeletedCount == 0 {
		return notFoundErr()
	}
	return nil
}

func encodeDoc(rec *Record) (*mongoDoc, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal itinerary record: %w", err)
	}
	return &mongoDoc{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Payload:   string(payload),
		Revision:  rec.Revision,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

var _ Repository = (*MongoRepository)(nil)
