package repositories

import (
	"context"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeRepository defines the interface for prize catalog data operations.
// The catalog is mutated by staff tooling; the engine reads entries and
// increments the award/redeem counters.
type PrizeRepository interface {
	Create(ctx context.Context, prize *models.Prize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)
	FindActiveByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Prize, error)
	Update(ctx context.Context, prize *models.Prize) error
	// IncrementAwarded bumps awardedCount only while the stock ceiling
	// (when set) is not reached. Returns ErrNoDocuments-style miss when
	// the guard fails.
	IncrementAwarded(ctx context.Context, id primitive.ObjectID) error
	IncrementRedeemed(ctx context.Context, id primitive.ObjectID) error
}

// RouletteRepository defines the interface for roulette configuration operations
type RouletteRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Roulette, error)
	FindDefaultByCategory(ctx context.Context, category models.PrizeCategory) (*models.Roulette, error)
	FindByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Roulette, error)
	// Save upserts the configuration. When roulette.IsDefault is set the
	// implementation clears the default flag on every sibling of the same
	// category first, preserving the single-default invariant.
	Save(ctx context.Context, roulette *models.Roulette) error
}

// PrizeWinningRepository defines the interface for won-prize records.
// Winnings are append-only: Create inserts, Update mutates status fields
// and pushes history entries, nothing ever deletes.
type PrizeWinningRepository interface {
	Create(ctx context.Context, winning *models.PrizeWinning) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeWinning, error)
	Update(ctx context.Context, winning *models.PrizeWinning) error
	FindByClientID(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.PrizeWinning, error)
	CountByPrizeSince(ctx context.Context, prizeID primitive.ObjectID, since time.Time) (int64, error)
	CountByRouletteSince(ctx context.Context, rouletteID primitive.ObjectID, since time.Time) (int64, error)
	CountByClientAndPrize(ctx context.Context, clientID, prizeID primitive.ObjectID) (int64, error)
	FindLastByClientAndRoulette(ctx context.Context, clientID, rouletteID primitive.ObjectID) (*models.PrizeWinning, error)
	FindByRedemptionCode(ctx context.Context, code string) (*models.PrizeWinning, error)
	// ExistsActiveCode reports whether the code is held by any
	// non-cancelled winning.
	ExistsActiveCode(ctx context.Context, code string) (bool, error)
	FindExpiredPending(ctx context.Context, asOf time.Time, limit int) ([]*models.PrizeWinning, error)
}

// QRCodeRepository defines the interface for scan gate data operations
type QRCodeRepository interface {
	Create(ctx context.Context, qr *models.QRCode) error
	FindByCode(ctx context.Context, code string) (*models.QRCode, error)
	Update(ctx context.Context, qr *models.QRCode) error
	// ConsumeUse atomically increments currentUses and totalScans while
	// currentUses < maxUses, returning the post-increment document.
	ConsumeUse(ctx context.Context, id primitive.ObjectID) (*models.QRCode, error)
	IncrementTotalScans(ctx context.Context, id primitive.ObjectID) error
}

// ClientRepository defines read-only access to the client directory
type ClientRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Client, error)
}

// NotificationRepository defines the interface for the notification audit log
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByClientID(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.Notification, error)
}
