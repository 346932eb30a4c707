package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Mock collaborators stand in for the membership, points and order
// systems when the engine runs without them (local development, tests).

// MockMembershipExtender logs extensions instead of calling the
// membership system
type MockMembershipExtender struct{}

// ExtendMembership logs the extension and succeeds
func (m *MockMembershipExtender) ExtendMembership(ctx context.Context, clientID primitive.ObjectID, days int) error {
	slog.Info("MOCK membership extension", "clientId", clientID, "days", days)
	return nil
}

// MockPointsLedger logs credits instead of calling the points system
type MockPointsLedger struct{}

// CreditPoints logs the credit and succeeds
func (m *MockPointsLedger) CreditPoints(ctx context.Context, clientID primitive.ObjectID, points int, reason string) error {
	slog.Info("MOCK points credit", "clientId", clientID, "points", points, "reason", reason)
	return nil
}

// MockOrderPlacer logs orders instead of calling the order system
type MockOrderPlacer struct{}

// CreateZeroCostOrder logs the order and succeeds
func (m *MockOrderPlacer) CreateZeroCostOrder(ctx context.Context, clientID primitive.ObjectID, productRef string, quantity int) error {
	slog.Info("MOCK zero-cost order", "clientId", clientID, "productRef", productRef, "quantity", quantity)
	return nil
}

var (
	_ MembershipExtender = (*MockMembershipExtender)(nil)
	_ PointsLedger       = (*MockPointsLedger)(nil)
	_ OrderPlacer        = (*MockOrderPlacer)(nil)
)
