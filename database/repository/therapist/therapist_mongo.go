package therapistRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manmitra/models"
)

// MongoTherapistRepo implements TherapistRepository using MongoDB.
type MongoTherapistRepo struct {
	coll *mongo.Collection
}

func NewMongoTherapistRepo(db *mongo.Database) *MongoTherapistRepo {
	return &MongoTherapistRepo{coll: db.Collection("therapists")}
}

func newContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (r *MongoTherapistRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "rating", Value: -1}}, Options: options.Index().SetName("status_rating_idx")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create therapist indexes: %w", err)
	}
	return nil
}

func (r *MongoTherapistRepo) GetByID(ctx context.Context, id string) (*models.Therapist, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoTherapistRepo) GetByEmail(ctx context.Context, email string) (*models.Therapist, error) {
	t, err := r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *MongoTherapistRepo) findOne(ctx context.Context, filter bson.M) (*models.Therapist, error) {
	ctx, cancel := newContext(ctx)
	defer cancel()

	var t models.Therapist
	if err := r.coll.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch therapist: %w", err)
	}
	return &t, nil
}

func (r *MongoTherapistRepo) Create(ctx context.Context, t *models.Therapist) error {
	ctx, cancel := newContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create therapist: %w", err)
	}
	return nil
}

func (r *MongoTherapistRepo) ListByStatus(ctx context.Context, status models.TherapistStatus) ([]models.Therapist, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "name", Value: 1}}).
		SetProjection(bson.M{"passwordHash": 0})
	cursor, err := r.coll.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	defer cursor.Close(ctx)

	therapists := []models.Therapist{}
	if err := cursor.All(ctx, &therapists); err != nil {
		return nil, fmt.Errorf("failed to decode therapists: %w", err)
	}
	return therapists, nil
}

func (r *MongoTherapistRepo) UpdateSchedule(ctx context.Context, id string, dailyTimes []string, availability []models.DateAvailability) (*models.Therapist, error) {
	return r.update(ctx, id, bson.M{
		"dailyTimes":   dailyTimes,
		"availability": availability,
		"updatedAt":    time.Now().UTC(),
	})
}

func (r *MongoTherapistRepo) UpdateStatus(ctx context.Context, id string, status models.TherapistStatus) (*models.Therapist, error) {
	return r.update(ctx, id, bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	})
}

func (r *MongoTherapistRepo) update(ctx context.Context, id string, set bson.M) (*models.Therapist, error) {
	ctx, cancel := newContext(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Therapist
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update therapist with id %s: %w", id, err)
	}
	return &t, nil
}
