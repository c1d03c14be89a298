package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"santai/database"
	"santai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	repo := &MongoBookingRepo{
		bookingColl: database.DB().Collection("bookings"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("warning: failed to ensure booking indexes: %v\n", err)
	}
	return repo
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := repo.bookingColl.InsertOne(ctxWithTimeout, booking)
	if err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"id": bookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("booking %s not found", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

// UpdateVersioned replaces the booking document guarded by its version field.
func (repo *MongoBookingRepo) UpdateVersioned(ctx context.Context, booking *models.Booking, expectedVersion int64) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	booking.Version = expectedVersion + 1
	filter := bson.M{"id": booking.ID, "version": expectedVersion}
	res, err := repo.bookingColl.ReplaceOne(ctxWithTimeout, filter, booking)
	if err != nil {
		booking.Version = expectedVersion
		return fmt.Errorf("error updating booking %s: %w", booking.ID, err)
	}
	if res.MatchedCount == 0 {
		booking.Version = expectedVersion
		return models.NewConflictError("booking %s was modified concurrently (expected version %d)", booking.ID, expectedVersion)
	}
	return nil
}
