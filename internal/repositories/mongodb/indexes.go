package mongodb

import (
	"context"

	"github.com/fitspin/rewards-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the engine relies on. The unique
// constraints back up the application-level checks: gate codes are unique
// outright, redemption codes are unique among non-cancelled winnings.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("qrcodes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"code": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("prize_winnings").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.M{"redemptionCode": 1},
			// Partial filter expressions only take $exists:true, equality
			// and $in, so the non-cancelled statuses are enumerated.
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"redemptionCode": bson.M{"$exists": true},
				"status": bson.M{"$in": bson.A{
					models.WinningStatusPending,
					models.WinningStatusApplied,
					models.WinningStatusRedeemed,
					models.WinningStatusExpired,
				}},
			}),
		},
		{Keys: bson.D{{Key: "prizeId", Value: 1}, {Key: "wonAt", Value: -1}}},
		{Keys: bson.D{{Key: "rouletteId", Value: 1}, {Key: "wonAt", Value: -1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "prizeId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
	})
	return err
}
