package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is the audit record of a dispatched client notification
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Category  string             `bson:"category" json:"category"` // PRIZE_WON, PRIZE_APPLIED, PRIZE_REDEEMED, etc.
	Priority  string             `bson:"priority" json:"priority"` // LOW, NORMAL, HIGH
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"` // SENT, FAILED
	MessageID string             `bson:"messageId,omitempty" json:"messageId,omitempty"`
	SentAt    time.Time          `bson:"sentAt" json:"sentAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
