package bookingRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (repo *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	guestIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	providerIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: -1}},
	}
	// Partial index feeding the recovery sweep: only bookings on the clock.
	deadlineIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "confirmation_deadline", Value: 1}},
		Options: options.Index().SetPartialFilterExpression(bson.M{
			"status": "Pending",
		}),
	}

	_, err := repo.bookingColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		idIdx, guestIdx, providerIdx, deadlineIdx,
	})
	return err
}
