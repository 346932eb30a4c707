package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeType identifies what winning a prize actually grants
type PrizeType string

const (
	PrizeTypeMembershipDays  PrizeType = "MEMBERSHIP_EXTENSION_DAYS"
	PrizeTypePercentDiscount PrizeType = "PERCENTAGE_DISCOUNT"
	PrizeTypeFixedDiscount   PrizeType = "FIXED_DISCOUNT"
	PrizeTypeFreeProduct     PrizeType = "FREE_PRODUCT"
	PrizeTypePoints          PrizeType = "POINTS"
	PrizeTypeCash            PrizeType = "CASH"
	PrizeTypeService         PrizeType = "SERVICE"
	PrizeTypeOther           PrizeType = "OTHER"
)

// PrizeCategory groups prizes into the tiers used by roulette configurations
type PrizeCategory string

const (
	CategoryBasic     PrizeCategory = "BASIC"
	CategoryPremium   PrizeCategory = "PREMIUM"
	CategoryExclusive PrizeCategory = "EXCLUSIVE"
	CategorySpecial   PrizeCategory = "SPECIAL"
)

// Prize is a catalog entry describing a reward, its value and the rules
// governing who may win it and how often.
type Prize struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        PrizeType          `bson:"type" json:"type"`
	Value       float64            `bson:"value" json:"value"`
	ValueUnit   string             `bson:"valueUnit,omitempty" json:"valueUnit,omitempty"` // e.g. "days", "%", "points"
	Category    PrizeCategory      `bson:"category" json:"category"`
	Active      bool               `bson:"active" json:"active"`
	ValidFrom   time.Time          `bson:"validFrom" json:"validFrom"`
	ValidUntil  time.Time          `bson:"validUntil" json:"validUntil"`

	// Stock == 0 means no ceiling. AwardedCount must never pass Stock when set.
	Stock         int `bson:"stock,omitempty" json:"stock,omitempty"`
	AwardedCount  int `bson:"awardedCount" json:"awardedCount"`
	RedeemedCount int `bson:"redeemedCount" json:"redeemedCount"`

	// Eligibility constraints, zero value = unconstrained
	MinAge                  int      `bson:"minAge,omitempty" json:"minAge,omitempty"`
	MinTenureMonths         int      `bson:"minTenureMonths,omitempty" json:"minTenureMonths,omitempty"`
	ExcludedMembershipTypes []string `bson:"excludedMembershipTypes,omitempty" json:"excludedMembershipTypes,omitempty"`

	// Usage caps, zero value = uncapped
	MaxPerClient int `bson:"maxPerClient,omitempty" json:"maxPerClient,omitempty"`
	MaxPerDay    int `bson:"maxPerDay,omitempty" json:"maxPerDay,omitempty"`
	MaxPerWeek   int `bson:"maxPerWeek,omitempty" json:"maxPerWeek,omitempty"`

	BaseWeight           float64 `bson:"baseWeight,omitempty" json:"baseWeight,omitempty"`
	RequiresVerification bool    `bson:"requiresVerification" json:"requiresVerification"`

	// Fulfillment details for FREE_PRODUCT prizes
	ProductRef      string `bson:"productRef,omitempty" json:"productRef,omitempty"`
	ProductQuantity int    `bson:"productQuantity,omitempty" json:"productQuantity,omitempty"`

	// How many days a pending winning of this prize stays collectable.
	// Zero falls back to the engine-wide default.
	WinningValidityDays int `bson:"winningValidityDays,omitempty" json:"winningValidityDays,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StockExhausted reports whether the prize has a stock ceiling and has hit it.
func (p *Prize) StockExhausted() bool {
	return p.Stock > 0 && p.AwardedCount >= p.Stock
}
