package commissionRepo

import (
	"context"
	"fmt"
	"time"

	"santai/database"
	"santai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCommissionRepo implements CommissionRepository using MongoDB.
type MongoCommissionRepo struct {
	commissionColl *mongo.Collection
}

// NewMongoCommissionRepo constructs a new instance of MongoCommissionRepo.
func NewMongoCommissionRepo() CommissionRepository {
	repo := &MongoCommissionRepo{
		commissionColl: database.DB().Collection("commission_records"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("warning: failed to ensure commission indexes: %v\n", err)
	}
	return repo
}

func (repo *MongoCommissionRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	// Exactly one record per completed booking.
	bookingIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	providerIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}},
	}
	deadlineIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "payment_deadline", Value: 1}, {Key: "status", Value: 1}},
	}

	_, err := repo.commissionColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		idIdx, bookingIdx, providerIdx, deadlineIdx,
	})
	return err
}

// Create inserts a new commission record.
func (repo *MongoCommissionRepo) Create(ctx context.Context, record *models.CommissionRecord) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := repo.commissionColl.InsertOne(ctxWithTimeout, record)
	if mongo.IsDuplicateKeyError(err) {
		return models.NewInvalidStateError("commission record already exists for booking %s", record.BookingID)
	}
	if err != nil {
		return fmt.Errorf("error creating commission record: %w", err)
	}
	return nil
}

// GetByID retrieves a commission record by its ID.
func (repo *MongoCommissionRepo) GetByID(ctx context.Context, recordID string) (*models.CommissionRecord, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record models.CommissionRecord
	err := repo.commissionColl.FindOne(ctxWithTimeout, bson.M{"id": recordID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("commission record %s not found", recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching commission record %s: %w", recordID, err)
	}
	return &record, nil
}

// GetByBookingID retrieves the record opened for a booking.
func (repo *MongoCommissionRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.CommissionRecord, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record models.CommissionRecord
	err := repo.commissionColl.FindOne(ctxWithTimeout, bson.M{"booking_id": bookingID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("no commission record for booking %s", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching commission record for booking %s: %w", bookingID, err)
	}
	return &record, nil
}

// UpdateVersioned replaces the record guarded by its version field.
func (repo *MongoCommissionRepo) UpdateVersioned(ctx context.Context, record *models.CommissionRecord, expectedVersion int64) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record.Version = expectedVersion + 1
	filter := bson.M{"id": record.ID, "version": expectedVersion}
	res, err := repo.commissionColl.ReplaceOne(ctxWithTimeout, filter, record)
	if err != nil {
		record.Version = expectedVersion
		return fmt.Errorf("error updating commission record %s: %w", record.ID, err)
	}
	if res.MatchedCount == 0 {
		record.Version = expectedVersion
		return models.NewConflictError("commission record %s was modified concurrently (expected version %d)", record.ID, expectedVersion)
	}
	return nil
}

// FindOutstandingByProvider returns all non-Verified, non-Cancelled records.
func (repo *MongoCommissionRepo) FindOutstandingByProvider(ctx context.Context, providerID string) ([]models.CommissionRecord, error) {
	filter := bson.M{
		"provider_id": providerID,
		"status": bson.M{"$nin": bson.A{
			models.CommissionVerified, models.CommissionCancelled,
		}},
	}
	return repo.find(ctx, filter, nil)
}

// FindPendingPastDeadline returns Pending records overdue at the given instant.
func (repo *MongoCommissionRepo) FindPendingPastDeadline(ctx context.Context, now time.Time) ([]models.CommissionRecord, error) {
	filter := bson.M{
		"status":           models.CommissionPending,
		"payment_deadline": bson.M{"$lt": now},
	}
	return repo.find(ctx, filter, nil)
}

// FindByProvider returns a provider's records, newest first.
func (repo *MongoCommissionRepo) FindByProvider(ctx context.Context, providerID string, limit int64) ([]models.CommissionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return repo.find(ctx, bson.M{"provider_id": providerID}, opts)
}

func (repo *MongoCommissionRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.CommissionRecord, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = repo.commissionColl.Find(ctxWithTimeout, filter, opts)
	} else {
		cursor, err = repo.commissionColl.Find(ctxWithTimeout, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying commission records: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var records []models.CommissionRecord
	if err := cursor.All(ctxWithTimeout, &records); err != nil {
		return nil, fmt.Errorf("error decoding commission records: %w", err)
	}
	return records, nil
}
