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

// QRCodeRepository implements the repositories.QRCodeRepository interface
type QRCodeRepository struct {
	collection *mongo.Collection
}

// NewQRCodeRepository creates a new QRCodeRepository
func NewQRCodeRepository(db *mongo.Database) repositories.QRCodeRepository {
	return &QRCodeRepository{
		collection: db.Collection("qrcodes"),
	}
}

// Create creates a new scan gate
func (r *QRCodeRepository) Create(ctx context.Context, qr *models.QRCode) error {
	qr.CreatedAt = time.Now()
	qr.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, qr)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		qr.ID = oid
	}
	return nil
}

// FindByCode finds a gate by its code string
func (r *QRCodeRepository) FindByCode(ctx context.Context, code string) (*models.QRCode, error) {
	var qr models.QRCode
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&qr)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// Update replaces a gate
func (r *QRCodeRepository) Update(ctx context.Context, qr *models.QRCode) error {
	qr.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": qr.ID}, qr)
	return err
}

// ConsumeUse atomically increments currentUses and totalScans while the
// use cap is not reached, and returns the post-increment document. A gate
// at its cap does not match the filter and yields mongo.ErrNoDocuments.
func (r *QRCodeRepository) ConsumeUse(ctx context.Context, id primitive.ObjectID) (*models.QRCode, error) {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$currentUses", "$maxUses"}},
	}
	update := bson.M{
		"$inc": bson.M{"currentUses": 1, "totalScans": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var qr models.QRCode
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&qr)
	if err != nil {
		return nil, err
	}

	if qr.CurrentUses >= qr.MaxUses && !qr.Used {
		_, err = r.collection.UpdateOne(ctx, bson.M{"_id": qr.ID}, bson.M{
			"$set": bson.M{"used": true, "updatedAt": time.Now()},
		})
		if err != nil {
			return nil, err
		}
		qr.Used = true
	}
	return &qr, nil
}

// IncrementTotalScans counts a scan attempt that did not consume a use
func (r *QRCodeRepository) IncrementTotalScans(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"totalScans": 1},
	})
	return err
}
