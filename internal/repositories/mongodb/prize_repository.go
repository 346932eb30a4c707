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

// PrizeRepository implements the repositories.PrizeRepository interface
type PrizeRepository struct {
	collection *mongo.Collection
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *mongo.Database) repositories.PrizeRepository {
	return &PrizeRepository{
		collection: db.Collection("prizes"),
	}
}

// Create creates a new prize
func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	prize.CreatedAt = time.Now()
	prize.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, prize)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		prize.ID = oid
	}
	return nil
}

// FindByID finds a prize by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	var prize models.Prize
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

// FindActiveByCategory finds active prizes in a category
func (r *PrizeRepository) FindActiveByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Prize, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"category": category, "active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prizes []*models.Prize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	return prizes, nil
}

// Update updates a prize
func (r *PrizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	prize.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": prize.ID}, prize)
	return err
}

// IncrementAwarded bumps awardedCount, guarded against the stock ceiling.
// The filter only matches while the ceiling (when set) is not reached, so
// a concurrent over-grant loses the race at the storage level.
func (r *PrizeRepository) IncrementAwarded(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"stock": bson.M{"$exists": false}},
			bson.M{"stock": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$awardedCount", "$stock"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"awardedCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementRedeemed bumps redeemedCount
func (r *PrizeRepository) IncrementRedeemed(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"redeemedCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
