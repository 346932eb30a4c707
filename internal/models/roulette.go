package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sector is one weighted slice of a roulette wheel, mapping to a single prize.
// Order is the tie-break index and fixes the walk order during selection.
type Sector struct {
	PrizeID primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	Weight  float64            `bson:"weight" json:"weight"`
	Order   int                `bson:"order" json:"order"`
}

// Roulette is a configured probability distribution over prizes.
// Sector weights must sum to 100 within a 0.01 tolerance; that is enforced
// at save time, selection trusts the stored configuration.
type Roulette struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Category PrizeCategory      `bson:"category" json:"category"`
	Theme    string             `bson:"theme,omitempty" json:"theme,omitempty"` // visual only, never read by selection
	Sectors  []Sector           `bson:"sectors" json:"sectors"`

	// At most one active default per category; the write path deactivates
	// the previous default rather than relying on a uniqueness lock.
	IsDefault bool `bson:"isDefault" json:"isDefault"`
	Active    bool `bson:"active" json:"active"`

	// Roulette-level caps and per-client cooldown, zero value = unrestricted
	MaxPerDay       int `bson:"maxPerDay,omitempty" json:"maxPerDay,omitempty"`
	MaxPerWeek      int `bson:"maxPerWeek,omitempty" json:"maxPerWeek,omitempty"`
	CooldownMinutes int `bson:"cooldownMinutes,omitempty" json:"cooldownMinutes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TotalWeight sums the configured sector weights.
func (r *Roulette) TotalWeight() float64 {
	total := 0.0
	for _, s := range r.Sectors {
		total += s.Weight
	}
	return total
}
