// FILE: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	idIndexName           = "unique_id"
	slotIndexName         = "uniq_active_slot"
	relationshipIndexName = "uniq_active_relationship"
)

// EnsureIndexes creates the booking indexes. The two partial unique indexes
// enforce slot and relationship exclusivity for active bookings only, so
// cancelled and completed history never blocks a new hold.
func (r *MongoLedger) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	activeOnly := bson.M{"active": true}
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(idIndexName),
		},
		{
			Keys: bson.D{{Key: "therapistId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(slotIndexName).
				SetPartialFilterExpression(activeOnly),
		},
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "therapistId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(relationshipIndexName).
				SetPartialFilterExpression(activeOnly),
		},
		// listing for GET /me
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "date", Value: -1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("student_date_idx"),
		},
		// sweep of lapsed holds
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("status_expiry_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
