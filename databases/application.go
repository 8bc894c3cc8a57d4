package databases

// go generate: mockery --name ApplicationDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parkpass/parking-pass-api/models"
)

const applicationName = "applications"

// ErrNotPending is returned by TransitionStatus when the application exists
// but already left the pending state. The losing side of two concurrent
// reviews observes this error.
var ErrNotPending = errors.New("application is not pending")

// ApplicationDatabase contains the methods to use with the application
// collection. Listings are returned in submission order. TransitionStatus is
// the atomic read-modify-write required for reviews: the status check and the
// update happen in a single store operation.
type ApplicationDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	FindAll(ctx context.Context) ([]models.Application, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Application, error)
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Application, error)
	InsertOne(ctx context.Context, app models.Application) error
	TransitionStatus(ctx context.Context, id primitive.ObjectID, decision, comment, reviewedBy string, reviewedAt time.Time) (*models.Application, error)
}

type applicationDatabase struct {
	db DatabaseHelper
}

// NewApplicationDatabase initializes a new instance of application database with the provided db connection
func NewApplicationDatabase(db DatabaseHelper) ApplicationDatabase {
	return &applicationDatabase{
		db: db,
	}
}

// submissionOrder sorts by submission time with _id as tie-breaker so the
// listing order is stable and matches insertion order.
func submissionOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{
		{Key: "application.submittedAt", Value: 1},
		{Key: "_id", Value: 1},
	})
}

func (a *applicationDatabase) find(ctx context.Context, filter interface{}) ([]models.Application, error) {
	cursor, err := a.db.Collection(applicationName).Find(ctx, filter, submissionOrder())
	if err != nil {
		return nil, err
	}
	var apps []models.Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (a *applicationDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	app := &models.Application{}
	err := a.db.Collection(applicationName).FindOne(ctx, bson.M{"_id": id}).Decode(app)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (a *applicationDatabase) FindAll(ctx context.Context) ([]models.Application, error) {
	return a.find(ctx, bson.D{})
}

func (a *applicationDatabase) FindByUserID(ctx context.Context, userID string) ([]models.Application, error) {
	return a.find(ctx, bson.M{"application.userID": userID})
}

func (a *applicationDatabase) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Application, error) {
	return a.find(ctx, bson.M{
		"application.status":      models.StatusPending,
		"application.submittedAt": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
	})
}

func (a *applicationDatabase) InsertOne(ctx context.Context, app models.Application) error {
	_, err := a.db.Collection(applicationName).InsertOne(ctx, app)
	return err
}

func (a *applicationDatabase) TransitionStatus(ctx context.Context, id primitive.ObjectID, decision, comment, reviewedBy string, reviewedAt time.Time) (*models.Application, error) {
	filter := bson.M{
		"_id":                id,
		"application.status": models.StatusPending,
	}
	update := bson.M{"$set": bson.M{
		"application.status":       decision,
		"application.adminComment": comment,
		"application.reviewedAt":   primitive.NewDateTimeFromTime(reviewedAt),
		"application.reviewedBy":   reviewedBy,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	app := &models.Application{}
	err := a.db.Collection(applicationName).FindOneAndUpdate(ctx, filter, update, opts).Decode(app)
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The compare-and-set missed: either the application does not exist or
	// it is no longer pending.
	if _, err := a.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrNotPending
}
