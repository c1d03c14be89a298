package providerRepo

import (
	"context"
	"fmt"
	"time"

	"santai/database"
	"santai/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	providerColl *mongo.Collection
}

// NewMongoProviderRepo constructs a new instance of MongoProviderRepo.
func NewMongoProviderRepo() ProviderRepository {
	return &MongoProviderRepo{
		providerColl: database.DB().Collection("providers"),
	}
}

// GetByID retrieves a provider document by ID.
func (repo *MongoProviderRepo) GetByID(ctx context.Context, providerID string) (*models.Provider, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var provider models.Provider
	err := repo.providerColl.FindOne(ctxWithTimeout, bson.M{"id": providerID}).Decode(&provider)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("provider %s not found", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching provider %s: %w", providerID, err)
	}
	return &provider, nil
}

// SetBusyUntil sets or clears the provider's timed busy window.
func (repo *MongoProviderRepo) SetBusyUntil(ctx context.Context, providerID string, until time.Time) error {
	update := bson.M{
		"$set": bson.M{"busy_until": until, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	return repo.update(ctx, providerID, update)
}

// SetManualStatus sets the operator toggle.
func (repo *MongoProviderRepo) SetManualStatus(ctx context.Context, providerID string, status models.ProviderStatus) error {
	if status != models.ProviderAvailable && status != models.ProviderOffline {
		return models.NewValidationError("manual status must be Available or Offline, got %q", status)
	}
	update := bson.M{
		"$set": bson.M{"manual_status": status, "updated_at": time.Now()},
		"$inc": bson.M{"version": 1},
	}
	return repo.update(ctx, providerID, update)
}

func (repo *MongoProviderRepo) update(ctx context.Context, providerID string, update bson.M) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := repo.providerColl.UpdateOne(ctxWithTimeout, bson.M{"id": providerID}, update)
	if err != nil {
		return fmt.Errorf("error updating provider %s: %w", providerID, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("provider %s not found", providerID)
	}
	return nil
}
