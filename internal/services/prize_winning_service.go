package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Redemption codes use a restricted alphabet without the visually
// ambiguous 0/O and 1/I pairs.
const (
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 8
	maxCodeAttempts = 10
)

// Compile-time check to ensure PrizeWinningServiceImpl implements PrizeWinningService
var _ PrizeWinningService = (*PrizeWinningServiceImpl)(nil)

// PrizeWinningServiceImpl owns the won-prize lifecycle state machine and
// the redemption code issuer
type PrizeWinningServiceImpl struct {
	prizes      PrizeService
	prizeRepo   repositories.PrizeRepository
	winningRepo repositories.PrizeWinningRepository
	clientRepo  repositories.ClientRepository
	membership  MembershipExtender
	points      PointsLedger
	orders      OrderPlacer
	notifier    Notifier
	rng         randSource
	locks       *keyedMutex

	// fallback collectable lifetime for prizes without their own
	defaultValidityDays int
}

// NewPrizeWinningService creates a new PrizeWinningServiceImpl. A nil rng
// gets a time-seeded source.
func NewPrizeWinningService(
	prizes PrizeService,
	prizeRepo repositories.PrizeRepository,
	winningRepo repositories.PrizeWinningRepository,
	clientRepo repositories.ClientRepository,
	membership MembershipExtender,
	points PointsLedger,
	orders OrderPlacer,
	notifier Notifier,
	rng randSource,
	defaultValidityDays int,
) *PrizeWinningServiceImpl {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PrizeWinningServiceImpl{
		prizes:              prizes,
		prizeRepo:           prizeRepo,
		winningRepo:         winningRepo,
		clientRepo:          clientRepo,
		membership:          membership,
		points:              points,
		orders:              orders,
		notifier:            notifier,
		rng:                 rng,
		locks:               newKeyedMutex(),
		defaultValidityDays: defaultValidityDays,
	}
}

// Award runs the per-prize guard chain under a per-prize lock, reserves
// stock, creates the pending winning and finalizes it: immediate apply
// for self-fulfilling prize types, a redemption code otherwise.
func (s *PrizeWinningServiceImpl) Award(ctx context.Context, clientID, prizeID primitive.ObjectID, source WinningSource) (*models.PrizeWinning, error) {
	unlock := s.locks.Lock("prize:" + prizeID.Hex())
	defer unlock()

	now := time.Now()

	prize, err := s.prizes.GetPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("client %s: %w", clientID.Hex(), ErrNotFound)
		}
		slog.Error("Failed to find client", "error", err, "clientId", clientID)
		return nil, fmt.Errorf("failed to retrieve client: %w", err)
	}

	if res := s.prizes.IsAvailable(prize, now); !res.Allowed {
		return nil, &IneligibleError{Reason: res.Reason}
	}

	res, err := s.prizes.CheckLimits(ctx, prize, now)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &LimitExceededError{Reason: res.Reason}
	}

	res, err = s.prizes.CheckClientEligibility(ctx, client, prize, now)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &IneligibleError{Reason: res.Reason}
	}

	// Reserve stock before inserting the record; the conditional update
	// loses the race instead of over-granting.
	if err := s.prizeRepo.IncrementAwarded(ctx, prize.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &IneligibleError{Reason: "prize stock is exhausted"}
		}
		slog.Error("Failed to increment awarded count", "error", err, "prizeId", prize.ID)
		return nil, fmt.Errorf("failed to reserve prize stock: %w", err)
	}

	winning := &models.PrizeWinning{
		ClientID:   clientID,
		PrizeID:    prize.ID,
		RouletteID: source.RouletteID,
		QRCodeID:   source.QRCodeID,
		PrizeName:  prize.Name,
		PrizeType:  prize.Type,
		PrizeValue: prize.Value,
		Status:     models.WinningStatusPending,
		WonAt:      now,
		StatusHistory: []models.StatusChange{
			{To: models.WinningStatusPending, Reason: "prize won", At: now},
		},
	}
	if days := prize.WinningValidityDays; days > 0 {
		winning.ExpiresAt = now.AddDate(0, 0, days)
	} else if s.defaultValidityDays > 0 {
		winning.ExpiresAt = now.AddDate(0, 0, s.defaultValidityDays)
	}

	if err := s.winningRepo.Create(ctx, winning); err != nil {
		slog.Error("Failed to create winning record", "error", err, "clientId", clientID, "prizeId", prize.ID)
		return nil, fmt.Errorf("failed to create winning record: %w", err)
	}
	slog.Info("Prize won", "winningId", winning.ID, "clientId", clientID, "prize", prize.Name, "type", prize.Type)

	if selfFulfilling(prize.Type) && !prize.RequiresVerification {
		if err := s.apply(ctx, winning, prize); err != nil {
			return winning, err
		}
		return winning, nil
	}

	code, err := s.generateRedemptionCode(ctx)
	if err != nil {
		return winning, err
	}
	winning.RedemptionCode = code
	if err := s.winningRepo.Update(ctx, winning); err != nil {
		slog.Error("Failed to store redemption code", "error", err, "winningId", winning.ID)
		return winning, fmt.Errorf("failed to store redemption code: %w", err)
	}

	s.notifier.Notify(ctx, clientID, "PRIZE_WON", "NORMAL",
		fmt.Sprintf("You won %s. Collect it with code %s.", prize.Name, code))
	return winning, nil
}

// Apply performs the prize's side effect and transitions PENDING -> APPLIED
func (s *PrizeWinningServiceImpl) Apply(ctx context.Context, winningID primitive.ObjectID) (*models.PrizeWinning, error) {
	winning, err := s.GetByID(ctx, winningID)
	if err != nil {
		return nil, err
	}

	prize, err := s.prizes.GetPrize(ctx, winning.PrizeID)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, winning, prize); err != nil {
		return winning, err
	}
	return winning, nil
}

func (s *PrizeWinningServiceImpl) apply(ctx context.Context, winning *models.PrizeWinning, prize *models.Prize) error {
	if winning.Status != models.WinningStatusPending {
		return &StateConflictError{
			Reason: fmt.Sprintf("cannot apply winning in status %s", winning.Status),
		}
	}
	if prize.RequiresVerification && !winning.Verified {
		return &StateConflictError{Reason: "prize requires verification before apply"}
	}

	switch winning.PrizeType {
	case models.PrizeTypeMembershipDays:
		if err := s.membership.ExtendMembership(ctx, winning.ClientID, int(winning.PrizeValue)); err != nil {
			slog.Error("Failed to extend membership", "error", err, "winningId", winning.ID)
			return fmt.Errorf("failed to extend membership: %w", err)
		}
	case models.PrizeTypePoints:
		if err := s.points.CreditPoints(ctx, winning.ClientID, int(winning.PrizeValue), "prize: "+winning.PrizeName); err != nil {
			slog.Error("Failed to credit points", "error", err, "winningId", winning.ID)
			return fmt.Errorf("failed to credit points: %w", err)
		}
	case models.PrizeTypeFreeProduct:
		quantity := prize.ProductQuantity
		if quantity <= 0 {
			quantity = 1
		}
		if err := s.orders.CreateZeroCostOrder(ctx, winning.ClientID, prize.ProductRef, quantity); err != nil {
			slog.Error("Failed to create zero-cost order", "error", err, "winningId", winning.ID)
			return fmt.Errorf("failed to create zero-cost order: %w", err)
		}
	case models.PrizeTypePercentDiscount, models.PrizeTypeFixedDiscount:
		// Discount value is consumed later at point of sale.
	}

	if err := s.transition(ctx, winning, models.WinningStatusApplied, "prize applied"); err != nil {
		return err
	}
	if err := s.prizeRepo.IncrementRedeemed(ctx, winning.PrizeID); err != nil {
		slog.Error("Failed to increment redeemed count", "error", err, "prizeId", winning.PrizeID)
	}

	s.notifier.Notify(ctx, winning.ClientID, "PRIZE_APPLIED", "NORMAL",
		fmt.Sprintf("Your prize %s has been applied.", winning.PrizeName))
	slog.Info("Winning applied", "winningId", winning.ID, "type", winning.PrizeType)
	return nil
}

// Verify records manual verification on a pending winning
func (s *PrizeWinningServiceImpl) Verify(ctx context.Context, winningID primitive.ObjectID, verifiedBy string) error {
	winning, err := s.GetByID(ctx, winningID)
	if err != nil {
		return err
	}
	if winning.Status != models.WinningStatusPending {
		return &StateConflictError{
			Reason: fmt.Sprintf("cannot verify winning in status %s", winning.Status),
		}
	}

	winning.Verified = true
	winning.VerifiedAt = time.Now()
	winning.VerifiedBy = verifiedBy
	if err := s.winningRepo.Update(ctx, winning); err != nil {
		slog.Error("Failed to record verification", "error", err, "winningId", winningID)
		return fmt.Errorf("failed to record verification: %w", err)
	}
	slog.Info("Winning verified", "winningId", winningID, "verifiedBy", verifiedBy)
	return nil
}

// Redeem transitions PENDING -> REDEEMED given a valid, unexpired code
func (s *PrizeWinningServiceImpl) Redeem(ctx context.Context, code string) (*models.PrizeWinning, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	winning, err := s.winningRepo.FindByRedemptionCode(ctx, code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("redemption code: %w", ErrNotFound)
		}
		slog.Error("Failed to find winning by code", "error", err)
		return nil, fmt.Errorf("failed to look up redemption code: %w", err)
	}

	if winning.Status != models.WinningStatusPending {
		return nil, &StateConflictError{
			Reason: fmt.Sprintf("cannot redeem winning in status %s", winning.Status),
		}
	}
	if !winning.ExpiresAt.IsZero() && time.Now().After(winning.ExpiresAt) {
		return nil, fmt.Errorf("redemption code %s: %w", code, ErrExpired)
	}

	prize, err := s.prizes.GetPrize(ctx, winning.PrizeID)
	if err != nil {
		return nil, err
	}
	if prize.RequiresVerification && !winning.Verified {
		return nil, &StateConflictError{Reason: "prize requires verification before redemption"}
	}

	if err := s.transition(ctx, winning, models.WinningStatusRedeemed, "redeemed with code"); err != nil {
		return nil, err
	}
	if err := s.prizeRepo.IncrementRedeemed(ctx, winning.PrizeID); err != nil {
		slog.Error("Failed to increment redeemed count", "error", err, "prizeId", winning.PrizeID)
	}

	s.notifier.Notify(ctx, winning.ClientID, "PRIZE_REDEEMED", "NORMAL",
		fmt.Sprintf("Your prize %s has been redeemed.", winning.PrizeName))
	slog.Info("Winning redeemed", "winningId", winning.ID)
	return winning, nil
}

// Cancel transitions PENDING -> CANCELLED. Applied and redeemed winnings
// conflict: their side effects are not designed to be reversed.
func (s *PrizeWinningServiceImpl) Cancel(ctx context.Context, winningID primitive.ObjectID, reason string) error {
	winning, err := s.GetByID(ctx, winningID)
	if err != nil {
		return err
	}
	if winning.Status != models.WinningStatusPending {
		return &StateConflictError{
			Reason: fmt.Sprintf("cannot cancel winning in status %s", winning.Status),
		}
	}
	if err := s.transition(ctx, winning, models.WinningStatusCancelled, reason); err != nil {
		return err
	}
	slog.Info("Winning cancelled", "winningId", winningID, "reason", reason)
	return nil
}

// ExpirePending sweeps pending winnings whose expiration has passed.
// Individual failures are logged and skipped so one bad record does not
// block the rest of the batch.
func (s *PrizeWinningServiceImpl) ExpirePending(ctx context.Context, batchSize int) (int, error) {
	winnings, err := s.winningRepo.FindExpiredPending(ctx, time.Now(), batchSize)
	if err != nil {
		slog.Error("Failed to fetch expired pending winnings", "error", err)
		return 0, fmt.Errorf("failed to fetch expired pending winnings: %w", err)
	}

	expired := 0
	for _, winning := range winnings {
		if err := s.transition(ctx, winning, models.WinningStatusExpired, "expiration passed"); err != nil {
			slog.Error("Failed to expire winning, skipping", "error", err, "winningId", winning.ID)
			continue
		}
		expired++
	}
	if expired > 0 {
		slog.Info("Expired pending winnings", "count", expired)
	}
	return expired, nil
}

// GetByID retrieves a winning by ID
func (s *PrizeWinningServiceImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeWinning, error) {
	winning, err := s.winningRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("winning %s: %w", id.Hex(), ErrNotFound)
		}
		slog.Error("Failed to find winning", "error", err, "winningId", id)
		return nil, fmt.Errorf("failed to retrieve winning: %w", err)
	}
	return winning, nil
}

// ListByClient retrieves a client's winnings with pagination
func (s *PrizeWinningServiceImpl) ListByClient(ctx context.Context, clientID primitive.ObjectID, page, limit int) ([]*models.PrizeWinning, error) {
	winnings, err := s.winningRepo.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		slog.Error("Failed to list winnings", "error", err, "clientId", clientID)
		return nil, fmt.Errorf("failed to list winnings: %w", err)
	}
	return winnings, nil
}

// transition moves the winning to a new status, stamps it and appends to
// the history trail. Terminal states never transition again.
func (s *PrizeWinningServiceImpl) transition(ctx context.Context, winning *models.PrizeWinning, to models.WinningStatus, reason string) error {
	from := winning.Status
	if from.Terminal() {
		return &StateConflictError{
			Reason: fmt.Sprintf("winning in terminal status %s", from),
		}
	}

	now := time.Now()
	winning.Status = to
	switch to {
	case models.WinningStatusApplied:
		winning.AppliedAt = now
	case models.WinningStatusRedeemed:
		winning.RedeemedAt = now
	case models.WinningStatusCancelled:
		winning.CancelledAt = now
	case models.WinningStatusExpired:
		winning.ExpiredAt = now
	}
	winning.StatusHistory = append(winning.StatusHistory, models.StatusChange{
		From:   from,
		To:     to,
		Reason: reason,
		At:     now,
	})

	if err := s.winningRepo.Update(ctx, winning); err != nil {
		slog.Error("Failed to persist transition", "error", err, "winningId", winning.ID, "to", to)
		return fmt.Errorf("failed to persist transition to %s: %w", to, err)
	}
	return nil
}

// generateRedemptionCode draws codes until one is free of collisions with
// non-cancelled winnings, bounded at maxCodeAttempts. The alphabet space
// (32^8) dwarfs expected record volume, so collisions are rare but not
// impossible.
func (s *PrizeWinningServiceImpl) generateRedemptionCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)

		exists, err := s.winningRepo.ExistsActiveCode(ctx, code)
		if err != nil {
			slog.Error("Failed to check code uniqueness", "error", err)
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
		slog.Warn("Redemption code collision, retrying", "attempt", attempt)
	}
	return "", ErrCodeGenerationExhausted
}

// selfFulfilling reports whether the prize type applies automatically on
// win. Cash, service and other prizes are collected manually.
func selfFulfilling(t models.PrizeType) bool {
	switch t {
	case models.PrizeTypeMembershipDays,
		models.PrizeTypePoints,
		models.PrizeTypeFreeProduct,
		models.PrizeTypePercentDiscount,
		models.PrizeTypeFixedDiscount:
		return true
	default:
		return false
	}
}
