package services

import (
	"context"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeService evaluates catalog availability, usage limits and client
// eligibility. All checks are pure reads plus counts; rule failures come
// back as CheckResult data, never as errors.
type PrizeService interface {
	// GetPrize retrieves a prize by ID
	GetPrize(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)

	// IsAvailable fails closed if the prize is inactive, outside its
	// validity window or stock-exhausted
	IsAvailable(prize *models.Prize, now time.Time) CheckResult

	// CheckLimits enforces the prize's daily and weekly caps against the
	// current winning counts (week starts Sunday)
	CheckLimits(ctx context.Context, prize *models.Prize, now time.Time) (CheckResult, error)

	// CheckClientEligibility evaluates, in order: minimum age, minimum
	// tenure, excluded membership type, per-client lifetime cap. It
	// short-circuits on the first failing rule.
	CheckClientEligibility(ctx context.Context, client *models.Client, prize *models.Prize, now time.Time) (CheckResult, error)

	// CheckRouletteLimits enforces roulette-level daily/weekly caps and
	// the per-client cooldown
	CheckRouletteLimits(ctx context.Context, roulette *models.Roulette, clientID primitive.ObjectID, now time.Time) (CheckResult, error)
}

// RouletteService validates selector configurations and performs draws
type RouletteService interface {
	// ValidateConfig checks sector weights and prize references
	ValidateConfig(ctx context.Context, roulette *models.Roulette) error

	// SaveConfig validates and persists a configuration, deactivating the
	// previous default of the category when this one is marked default
	SaveConfig(ctx context.Context, roulette *models.Roulette) error

	// GetByID retrieves a configuration by ID
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Roulette, error)

	// GetDefaultByCategory retrieves the active default configuration
	GetDefaultByCategory(ctx context.Context, category models.PrizeCategory) (*models.Roulette, error)

	// ListByCategory retrieves all configurations of a category
	ListByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Roulette, error)

	// Spin runs a full guarded draw on the given configuration
	Spin(ctx context.Context, rouletteID, clientID primitive.ObjectID) (*models.PrizeWinning, error)

	// SpinDefault runs a draw on the category's default configuration,
	// recording the originating gate when one triggered it
	SpinDefault(ctx context.Context, category models.PrizeCategory, clientID, gateID primitive.ObjectID) (*models.PrizeWinning, error)
}

// WinningSource records what triggered an award
type WinningSource struct {
	RouletteID primitive.ObjectID
	QRCodeID   primitive.ObjectID
}

// PrizeWinningService owns the won-prize lifecycle from creation to a
// terminal state
type PrizeWinningService interface {
	// Award runs the per-prize guard chain (availability, limits, client
	// eligibility), creates the pending winning with its prize snapshot,
	// then applies it immediately or issues a redemption code
	Award(ctx context.Context, clientID, prizeID primitive.ObjectID, source WinningSource) (*models.PrizeWinning, error)

	// Apply performs the prize's side effect and transitions to APPLIED
	Apply(ctx context.Context, winningID primitive.ObjectID) (*models.PrizeWinning, error)

	// Verify records manual verification, unblocking Apply for prizes
	// that require it
	Verify(ctx context.Context, winningID primitive.ObjectID, verifiedBy string) error

	// Redeem transitions PENDING -> REDEEMED given a valid code
	Redeem(ctx context.Context, code string) (*models.PrizeWinning, error)

	// Cancel transitions PENDING -> CANCELLED; terminal states conflict
	Cancel(ctx context.Context, winningID primitive.ObjectID, reason string) error

	// ExpirePending sweeps pending winnings past their expiration,
	// skipping individual failures. Returns how many records expired.
	ExpirePending(ctx context.Context, batchSize int) (int, error)

	// GetByID retrieves a winning by ID
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeWinning, error)

	// ListByClient retrieves a client's winnings with pagination
	ListByClient(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.PrizeWinning, error)
}

// ScanOutcome is what a successful gate consumption hands back
type ScanOutcome struct {
	GateID           primitive.ObjectID   `json:"gateId"`
	RemainingUses    int                  `json:"remainingUses"`
	RouletteCategory models.PrizeCategory `json:"rouletteCategory,omitempty"`
	FixedPrizeID     primitive.ObjectID   `json:"fixedPrizeId,omitempty"`
	Winning          *models.PrizeWinning `json:"winning,omitempty"`
}

// QRCodeService validates and consumes scan gates
type QRCodeService interface {
	// CreateGate mints a new gate with a unique code
	CreateGate(ctx context.Context, qr *models.QRCode) (*models.QRCode, error)

	// GetByCode retrieves a gate by its code string
	GetByCode(ctx context.Context, code string) (*models.QRCode, error)

	// Consume validates and consumes one use of the gate
	Consume(ctx context.Context, code string, clientID primitive.ObjectID, now time.Time, location *models.GeoFence) (*ScanOutcome, error)

	// Scan consumes the gate and runs the draw it authorizes: the default
	// roulette of the gate's category, or the gate's fixed prize
	Scan(ctx context.Context, code string, clientID primitive.ObjectID, location *models.GeoFence) (*ScanOutcome, error)
}

// --- External collaborators ---

// MembershipExtender extends a client's active membership end date
type MembershipExtender interface {
	ExtendMembership(ctx context.Context, clientID primitive.ObjectID, days int) error
}

// PointsLedger credits a client's points balance
type PointsLedger interface {
	CreditPoints(ctx context.Context, clientID primitive.ObjectID, points int, reason string) error
}

// OrderPlacer issues a zero-cost fulfillment order for a free product
type OrderPlacer interface {
	CreateZeroCostOrder(ctx context.Context, clientID primitive.ObjectID, productRef string, quantity int) error
}

// Notifier dispatches a fire-and-forget client notification. Failures are
// the notifier's problem; the draw path never fails on dispatch.
type Notifier interface {
	Notify(ctx context.Context, clientID primitive.ObjectID, category, priority, message string)
}
