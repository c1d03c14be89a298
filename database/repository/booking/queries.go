package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"santai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindAwaitingResponse returns Pending bookings that still carry a
// confirmation deadline, regardless of whether it has elapsed. The recovery
// sweep decides per booking whether to re-schedule or fall back immediately.
func (repo *MongoBookingRepo) FindAwaitingResponse(ctx context.Context) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":                   models.BookingPending,
		"provider_response_status": models.ResponseAwaiting,
		"confirmation_deadline":    bson.M{"$gt": time.Time{}},
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings awaiting response: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings awaiting response: %w", err)
	}
	return bookings, nil
}

// FindByGuest returns a guest's bookings, newest first.
func (repo *MongoBookingRepo) FindByGuest(ctx context.Context, guestID string, limit int64) ([]models.Booking, error) {
	return repo.findSorted(ctx, bson.M{"guest_id": guestID}, limit)
}

// FindByProvider returns a provider's bookings, newest first.
func (repo *MongoBookingRepo) FindByProvider(ctx context.Context, providerID string, limit int64) ([]models.Booking, error) {
	return repo.findSorted(ctx, bson.M{"provider_id": providerID}, limit)
}

func (repo *MongoBookingRepo) findSorted(ctx context.Context, filter bson.M, limit int64) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
