package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WinningStatus represents the lifecycle state of a won prize
type WinningStatus string

const (
	WinningStatusPending   WinningStatus = "PENDING"
	WinningStatusApplied   WinningStatus = "APPLIED"
	WinningStatusRedeemed  WinningStatus = "REDEEMED"
	WinningStatusCancelled WinningStatus = "CANCELLED"
	WinningStatusExpired   WinningStatus = "EXPIRED"
)

// Terminal reports whether no further transition may leave this status.
// Only PENDING has outgoing transitions.
func (s WinningStatus) Terminal() bool {
	return s != WinningStatusPending && s != ""
}

// StatusChange is one entry of the append-only transition trail.
type StatusChange struct {
	From   WinningStatus `bson:"from,omitempty" json:"from,omitempty"`
	To     WinningStatus `bson:"to" json:"to"`
	Reason string        `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time     `bson:"at" json:"at"`
}

// PrizeWinning is the audit record created once per successful draw.
// Records are never deleted; only the status, its timestamps and the
// history trail mutate after creation.
type PrizeWinning struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	PrizeID    primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	RouletteID primitive.ObjectID `bson:"rouletteId,omitempty" json:"rouletteId,omitempty"`
	QRCodeID   primitive.ObjectID `bson:"qrCodeId,omitempty" json:"qrCodeId,omitempty"`

	// Snapshot of the prize at win time, kept for audit even if the
	// catalog entry is edited later.
	PrizeName  string    `bson:"prizeName" json:"prizeName"`
	PrizeType  PrizeType `bson:"prizeType" json:"prizeType"`
	PrizeValue float64   `bson:"prizeValue" json:"prizeValue"`

	Status      WinningStatus `bson:"status" json:"status"`
	WonAt       time.Time     `bson:"wonAt" json:"wonAt"`
	AppliedAt   time.Time     `bson:"appliedAt,omitempty" json:"appliedAt,omitempty"`
	RedeemedAt  time.Time     `bson:"redeemedAt,omitempty" json:"redeemedAt,omitempty"`
	CancelledAt time.Time     `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	ExpiredAt   time.Time     `bson:"expiredAt,omitempty" json:"expiredAt,omitempty"`

	RedemptionCode string    `bson:"redemptionCode,omitempty" json:"redemptionCode,omitempty"`
	ExpiresAt      time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`

	// Verified gates Apply for prizes flagged requiresVerification.
	Verified   bool      `bson:"verified" json:"verified"`
	VerifiedAt time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	VerifiedBy string    `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`

	StatusHistory []StatusChange `bson:"statusHistory" json:"statusHistory"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
