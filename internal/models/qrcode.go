package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QRCodeType distinguishes gates that feed the roulette from gates that
// award one fixed prize.
type QRCodeType string

const (
	QRCodeTypeRoulette   QRCodeType = "ROULETTE"
	QRCodeTypeFixedPrize QRCodeType = "FIXED_PRIZE"
)

// GeoFence restricts a gate to scans within RadiusM meters of a point.
type GeoFence struct {
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	RadiusM float64 `bson:"radiusM" json:"radiusM"`
}

// QRCode is a limited-use scannable trigger that authorizes a draw.
type QRCode struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code string             `bson:"code" json:"code"` // unique
	Type QRCodeType         `bson:"type" json:"type"`

	// FIXED_PRIZE gates reference the prize directly and bypass the wheel
	PrizeID primitive.ObjectID `bson:"prizeId,omitempty" json:"prizeId,omitempty"`
	// ROULETTE gates hand off to the default wheel for this category
	RouletteCategory PrizeCategory `bson:"rouletteCategory,omitempty" json:"rouletteCategory,omitempty"`

	Active     bool      `bson:"active" json:"active"`
	ValidFrom  time.Time `bson:"validFrom" json:"validFrom"`
	ValidUntil time.Time `bson:"validUntil" json:"validUntil"`

	// CurrentUses never exceeds MaxUses; the gate is marked Used once
	// the cap is reached. TotalScans also counts rejected attempts.
	MaxUses     int  `bson:"maxUses" json:"maxUses"`
	CurrentUses int  `bson:"currentUses" json:"currentUses"`
	TotalScans  int  `bson:"totalScans" json:"totalScans"`
	Used        bool `bson:"used" json:"used"`

	// Allowed time-of-day window, "HH:MM" strings, empty = unrestricted.
	// The window may cross midnight (e.g. 22:00 - 06:00).
	AllowedFrom  string `bson:"allowedFrom,omitempty" json:"allowedFrom,omitempty"`
	AllowedUntil string `bson:"allowedUntil,omitempty" json:"allowedUntil,omitempty"`

	Fence *GeoFence `bson:"fence,omitempty" json:"fence,omitempty"`

	// When set, only this client may consume the gate
	OwnerClientID primitive.ObjectID `bson:"ownerClientId,omitempty" json:"ownerClientId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RemainingUses returns how many consumptions are left on the gate.
func (q *QRCode) RemainingUses() int {
	remaining := q.MaxUses - q.CurrentUses
	if remaining < 0 {
		return 0
	}
	return remaining
}
