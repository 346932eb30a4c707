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

// PrizeWinningRepository implements the repositories.PrizeWinningRepository interface
type PrizeWinningRepository struct {
	collection *mongo.Collection
}

// NewPrizeWinningRepository creates a new PrizeWinningRepository
func NewPrizeWinningRepository(db *mongo.Database) repositories.PrizeWinningRepository {
	return &PrizeWinningRepository{
		collection: db.Collection("prize_winnings"),
	}
}

// Create creates a new winning record
func (r *PrizeWinningRepository) Create(ctx context.Context, winning *models.PrizeWinning) error {
	winning.CreatedAt = time.Now()
	winning.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, winning)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		winning.ID = oid
	}
	return nil
}

// FindByID finds a winning by ID
func (r *PrizeWinningRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeWinning, error) {
	var winning models.PrizeWinning
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&winning)
	if err != nil {
		return nil, err
	}
	return &winning, nil
}

// Update replaces a winning record
func (r *PrizeWinningRepository) Update(ctx context.Context, winning *models.PrizeWinning) error {
	winning.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": winning.ID}, winning)
	return err
}

// FindByClientID finds winnings for a client with pagination
func (r *PrizeWinningRepository) FindByClientID(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.PrizeWinning, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"wonAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{"clientId": clientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winnings []*models.PrizeWinning
	if err := cursor.All(ctx, &winnings); err != nil {
		return nil, err
	}
	return winnings, nil
}

// CountByPrizeSince counts winnings of a prize created at or after a cutoff
func (r *PrizeWinningRepository) CountByPrizeSince(ctx context.Context, prizeID primitive.ObjectID, since time.Time) (int64, error) {
	filter := bson.M{"prizeId": prizeID, "wonAt": bson.M{"$gte": since}}
	return r.collection.CountDocuments(ctx, filter)
}

// CountByRouletteSince counts winnings drawn on a roulette at or after a cutoff
func (r *PrizeWinningRepository) CountByRouletteSince(ctx context.Context, rouletteID primitive.ObjectID, since time.Time) (int64, error) {
	filter := bson.M{"rouletteId": rouletteID, "wonAt": bson.M{"$gte": since}}
	return r.collection.CountDocuments(ctx, filter)
}

// CountByClientAndPrize counts a client's lifetime winnings of one prize
func (r *PrizeWinningRepository) CountByClientAndPrize(ctx context.Context, clientID, prizeID primitive.ObjectID) (int64, error) {
	filter := bson.M{"clientId": clientID, "prizeId": prizeID}
	return r.collection.CountDocuments(ctx, filter)
}

// FindLastByClientAndRoulette finds a client's most recent draw on a roulette
func (r *PrizeWinningRepository) FindLastByClientAndRoulette(ctx context.Context, clientID, rouletteID primitive.ObjectID) (*models.PrizeWinning, error) {
	opts := options.FindOne().SetSort(bson.M{"wonAt": -1})
	filter := bson.M{"clientId": clientID, "rouletteId": rouletteID}

	var winning models.PrizeWinning
	err := r.collection.FindOne(ctx, filter, opts).Decode(&winning)
	if err != nil {
		return nil, err
	}
	return &winning, nil
}

// FindByRedemptionCode finds a winning by its redemption code
func (r *PrizeWinningRepository) FindByRedemptionCode(ctx context.Context, code string) (*models.PrizeWinning, error) {
	var winning models.PrizeWinning
	err := r.collection.FindOne(ctx, bson.M{"redemptionCode": code}).Decode(&winning)
	if err != nil {
		return nil, err
	}
	return &winning, nil
}

// ExistsActiveCode reports whether any non-cancelled winning holds the code
func (r *PrizeWinningRepository) ExistsActiveCode(ctx context.Context, code string) (bool, error) {
	filter := bson.M{
		"redemptionCode": code,
		"status":         bson.M{"$ne": models.WinningStatusCancelled},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindExpiredPending finds pending winnings whose expiration has passed
func (r *PrizeWinningRepository) FindExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]*models.PrizeWinning, error) {
	filter := bson.M{
		"status":    models.WinningStatusPending,
		"expiresAt": bson.M{"$gt": time.Time{}, "$lte": asOf},
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.M{"expiresAt": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var winnings []*models.PrizeWinning
	if err := cursor.All(ctx, &winnings); err != nil {
		return nil, err
	}
	return winnings, nil
}
