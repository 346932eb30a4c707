package services

import (
	"context"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"github.com/fitspin/rewards-engine/pkg/notifier"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure NotificationServiceImpl implements Notifier
var _ Notifier = (*NotificationServiceImpl)(nil)

// NotificationServiceImpl dispatches client notifications through a
// delivery gateway and keeps an audit record of every attempt
type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	gateway          notifier.Gateway
}

// NewNotificationService creates a new NotificationServiceImpl
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	gateway notifier.Gateway,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		gateway:          gateway,
	}
}

// Notify dispatches fire-and-forget: delivery and audit failures are
// logged, never propagated into the draw path.
func (s *NotificationServiceImpl) Notify(ctx context.Context, clientID primitive.ObjectID, category, priority, message string) {
	status := "SENT"
	messageID, err := s.gateway.Send(clientID.Hex(), category, priority, message)
	if err != nil {
		status = "FAILED"
		slog.Error("Failed to dispatch notification", "error", err, "clientId", clientID, "category", category)
	}

	record := &models.Notification{
		ClientID:  clientID,
		Category:  category,
		Priority:  priority,
		Message:   message,
		Status:    status,
		MessageID: messageID,
		SentAt:    time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, record); err != nil {
		slog.Error("Failed to record notification", "error", err, "clientId", clientID, "category", category)
	}
}
