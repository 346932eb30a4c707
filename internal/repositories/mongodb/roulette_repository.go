package mongodb

import (
	"context"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RouletteRepository implements the repositories.RouletteRepository interface
type RouletteRepository struct {
	collection *mongo.Collection
}

// NewRouletteRepository creates a new RouletteRepository
func NewRouletteRepository(db *mongo.Database) repositories.RouletteRepository {
	return &RouletteRepository{
		collection: db.Collection("roulettes"),
	}
}

// FindByID finds a roulette configuration by ID
func (r *RouletteRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Roulette, error) {
	var roulette models.Roulette
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&roulette)
	if err != nil {
		return nil, err
	}
	return &roulette, nil
}

// FindDefaultByCategory finds the active default configuration for a category
func (r *RouletteRepository) FindDefaultByCategory(ctx context.Context, category models.PrizeCategory) (*models.Roulette, error) {
	var roulette models.Roulette
	filter := bson.M{"category": category, "isDefault": true, "active": true}
	err := r.collection.FindOne(ctx, filter).Decode(&roulette)
	if err != nil {
		return nil, err
	}
	return &roulette, nil
}

// FindByCategory finds all configurations for a category
func (r *RouletteRepository) FindByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Roulette, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"category": category}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roulettes []*models.Roulette
	if err := cursor.All(ctx, &roulettes); err != nil {
		return nil, err
	}
	return roulettes, nil
}

// Save upserts a roulette configuration. When the configuration is marked
// default, the default flag is cleared on every sibling of the same
// category first. Single writer assumed; this is not a uniqueness lock.
func (r *RouletteRepository) Save(ctx context.Context, roulette *models.Roulette) error {
	now := time.Now()
	if roulette.IsDefault {
		filter := bson.M{"category": roulette.Category, "isDefault": true}
		if !roulette.ID.IsZero() {
			filter["_id"] = bson.M{"$ne": roulette.ID}
		}
		_, err := r.collection.UpdateMany(ctx, filter, bson.M{
			"$set": bson.M{"isDefault": false, "updatedAt": now},
		})
		if err != nil {
			return err
		}
	}

	roulette.UpdatedAt = now
	if roulette.ID.IsZero() {
		roulette.ID = primitive.NewObjectID()
		roulette.CreatedAt = now
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": roulette.ID}, roulette, opts)
	return err
}
