package studentRepo

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

// MongoStudentRepo implements StudentRepository using MongoDB.
type MongoStudentRepo struct {
	coll *mongo.Collection
}

func NewMongoStudentRepo(db *mongo.Database) *MongoStudentRepo {
	return &MongoStudentRepo{coll: db.Collection("students")}
}

func (r *MongoStudentRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create student indexes: %w", err)
	}
	return nil
}

func (r *MongoStudentRepo) GetByID(ctx context.Context, id string) (*models.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Student
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch student with id %s: %w", id, err)
	}
	return &s, nil
}

func (r *MongoStudentRepo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s models.Student
	if err := r.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch student with email %s: %w", email, err)
	}
	return &s, nil
}

// Create inserts a new student document.
func (r *MongoStudentRepo) Create(ctx context.Context, student *models.Student) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, student); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}
