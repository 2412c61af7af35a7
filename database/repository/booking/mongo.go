package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"manmitra/models"
)

const (
	collectionName = "bookings"
	opTimeout      = 5 * time.Second
)

// MongoLedger implements Ledger on a MongoDB collection.
type MongoLedger struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoLedger constructs a ledger over db.bookings.
func NewMongoLedger(db *mongo.Database, logger *zap.Logger) *MongoLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoLedger{
		coll:   db.Collection(collectionName),
		logger: logger,
	}
}

var holdingStatuses = bson.A{models.StatusPending, models.StatusConfirmed}

// activeFilter matches pending/confirmed bookings whose hold (if any) is alive.
func activeFilter(now time.Time) bson.M {
	return bson.M{
		"status": bson.M{"$in": holdingStatuses},
		"$or": bson.A{
			bson.M{"expiresAt": bson.M{"$exists": false}},
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": now}},
		},
	}
}

func (r *MongoLedger) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &b, nil
}

// ListByStudent returns the student's bookings, latest session date first.
func (r *MongoLedger) ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for student %s: %w", studentID, err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoLedger) FindActiveConflict(ctx context.Context, therapistID string, date time.Time, timeLabel, excludeID string, now time.Time) (*models.Booking, error) {
	filter := activeFilter(now)
	filter["therapistId"] = therapistID
	filter["date"] = date
	filter["time"] = timeLabel
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	return r.findOne(ctx, filter)
}

func (r *MongoLedger) FindActiveRelationship(ctx context.Context, studentID, therapistID, excludeID string, now time.Time) (*models.Booking, error) {
	filter := activeFilter(now)
	filter["studentId"] = studentID
	filter["therapistId"] = therapistID
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}
	return r.findOne(ctx, filter)
}

func (r *MongoLedger) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, filter).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying active bookings: %w", err)
	}
	return &b, nil
}

// InsertPendingHold relies on the partial unique indexes for atomicity: two
// concurrent inserts on the same slot or relationship cannot both succeed.
func (r *MongoLedger) InsertPendingHold(ctx context.Context, b *models.Booking, now time.Time) error {
	date := b.Date
	released, err := r.releaseExpired(ctx, bson.M{"$or": bson.A{
		bson.M{"therapistId": b.TherapistID, "date": date, "time": b.Time},
		bson.M{"studentId": b.StudentID, "therapistId": b.TherapistID},
	}}, now)
	if err != nil {
		return err
	}
	if released > 0 {
		r.logger.Debug("released lapsed holds before insert",
			zap.Int64("released", released),
			zap.String("therapistId", b.TherapistID))
	}

	b.Active = b.Status.HoldsSlot()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyDuplicate(err)
		}
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// classifyDuplicate maps a duplicate key error to the violated invariant.
func classifyDuplicate(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, relationshipIndexName):
		return ErrRelationshipTaken
	case strings.Contains(msg, slotIndexName):
		return ErrSlotTaken
	case strings.Contains(msg, idIndexName):
		return fmt.Errorf("duplicate booking id: %w", err)
	}
	return ErrSlotTaken
}

func (r *MongoLedger) TransitionState(ctx context.Context, id string, expected, next models.BookingStatus, now time.Time) (*models.Booking, error) {
	filter := bson.M{"id": id, "status": expected}
	if next == models.StatusConfirmed {
		filter["$or"] = bson.A{
			bson.M{"expiresAt": bson.M{"$exists": false}},
			bson.M{"expiresAt": bson.M{"$gt": now}},
		}
	}
	update := bson.M{
		"$set": bson.M{
			"status":    next,
			"active":    next.HoldsSlot(),
			"updatedAt": now,
		},
		"$unset": bson.M{"expiresAt": ""},
	}
	return r.updateOne(ctx, id, filter, update)
}

func (r *MongoLedger) ExpireHold(ctx context.Context, id string, now time.Time) (*models.Booking, error) {
	filter := bson.M{
		"id":        id,
		"status":    models.StatusPending,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":    models.StatusCancelled,
		"active":    false,
		"updatedAt": now,
	}}
	return r.updateOne(ctx, id, filter, update)
}

func (r *MongoLedger) updateOne(ctx context.Context, id string, filter, update bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStaleState
	}
	if err != nil {
		return nil, fmt.Errorf("error updating booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoLedger) ReleaseExpiredHolds(ctx context.Context, scope HoldScope, now time.Time) (int64, error) {
	filter := bson.M{}
	if scope.StudentID != "" {
		filter["studentId"] = scope.StudentID
	}
	if scope.TherapistID != "" {
		filter["therapistId"] = scope.TherapistID
	}
	if scope.Date != nil {
		filter["date"] = *scope.Date
	}
	if scope.Time != "" {
		filter["time"] = scope.Time
	}
	return r.releaseExpired(ctx, filter, now)
}

func (r *MongoLedger) releaseExpired(ctx context.Context, filter bson.M, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter["status"] = models.StatusPending
	filter["active"] = true
	filter["expiresAt"] = bson.M{"$lte": now}
	update := bson.M{"$set": bson.M{
		"status":    models.StatusCancelled,
		"active":    false,
		"updatedAt": now,
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired holds: %w", err)
	}
	return res.ModifiedCount, nil
}
