package errx

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

// WrapMongo maps MongoDB errors to AppError with appropriate status codes.
func WrapMongo(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return NewKind(KindPersistence, err, http.StatusNotFound, NotFoundMessage)
	}

	return NewKind(KindPersistence, err, http.StatusBadGateway, MongoErrorMessage)
}
