package mongodb

import (
	"context"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ClientRepository implements read-only access to the client directory
// collection owned by the membership system.
type ClientRepository struct {
	collection *mongo.Collection
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *mongo.Database) repositories.ClientRepository {
	return &ClientRepository{
		collection: db.Collection("clients"),
	}
}

// FindByID finds a client by ID
func (r *ClientRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error) {
	var client models.Client
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
	if err != nil {
		return nil, err
	}
	return &client, nil
}
