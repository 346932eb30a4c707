package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PrizeServiceImpl implements PrizeService
var _ PrizeService = (*PrizeServiceImpl)(nil)

// PrizeServiceImpl evaluates availability, limits and eligibility against
// the catalog and the winning records
type PrizeServiceImpl struct {
	prizeRepo   repositories.PrizeRepository
	winningRepo repositories.PrizeWinningRepository
}

// NewPrizeService creates a new PrizeServiceImpl
func NewPrizeService(
	prizeRepo repositories.PrizeRepository,
	winningRepo repositories.PrizeWinningRepository,
) *PrizeServiceImpl {
	return &PrizeServiceImpl{
		prizeRepo:   prizeRepo,
		winningRepo: winningRepo,
	}
}

// GetPrize retrieves a prize by ID
func (s *PrizeServiceImpl) GetPrize(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	prize, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("prize %s: %w", id.Hex(), ErrNotFound)
		}
		slog.Error("Failed to find prize", "error", err, "prizeId", id)
		return nil, fmt.Errorf("failed to retrieve prize: %w", err)
	}
	return prize, nil
}

// IsAvailable fails closed if the prize is inactive, outside its validity
// window or stock-exhausted
func (s *PrizeServiceImpl) IsAvailable(prize *models.Prize, now time.Time) CheckResult {
	if !prize.Active {
		return Deny("prize is not active")
	}
	if !prize.ValidFrom.IsZero() && now.Before(prize.ValidFrom) {
		return Deny("prize is not yet valid")
	}
	if !prize.ValidUntil.IsZero() && now.After(prize.ValidUntil) {
		return Deny("prize validity window has ended")
	}
	if prize.StockExhausted() {
		return Deny("prize stock is exhausted")
	}
	return Allow()
}

// CheckLimits enforces the prize's daily and weekly caps against the
// winning counts since the start of the current day and week
func (s *PrizeServiceImpl) CheckLimits(ctx context.Context, prize *models.Prize, now time.Time) (CheckResult, error) {
	if prize.MaxPerDay > 0 {
		count, err := s.winningRepo.CountByPrizeSince(ctx, prize.ID, startOfDay(now))
		if err != nil {
			slog.Error("Failed to count daily winnings", "error", err, "prizeId", prize.ID)
			return CheckResult{}, fmt.Errorf("failed to count daily winnings: %w", err)
		}
		if count >= int64(prize.MaxPerDay) {
			return Deny(fmt.Sprintf("daily limit of %d reached for prize %q", prize.MaxPerDay, prize.Name)), nil
		}
	}

	if prize.MaxPerWeek > 0 {
		count, err := s.winningRepo.CountByPrizeSince(ctx, prize.ID, startOfWeek(now))
		if err != nil {
			slog.Error("Failed to count weekly winnings", "error", err, "prizeId", prize.ID)
			return CheckResult{}, fmt.Errorf("failed to count weekly winnings: %w", err)
		}
		if count >= int64(prize.MaxPerWeek) {
			return Deny(fmt.Sprintf("weekly limit of %d reached for prize %q", prize.MaxPerWeek, prize.Name)), nil
		}
	}

	return Allow(), nil
}

// CheckClientEligibility evaluates the prize's client rules in order and
// short-circuits on the first failure
func (s *PrizeServiceImpl) CheckClientEligibility(ctx context.Context, client *models.Client, prize *models.Prize, now time.Time) (CheckResult, error) {
	if prize.MinAge > 0 && client.AgeAt(now) < prize.MinAge {
		return Deny(fmt.Sprintf("minimum age is %d", prize.MinAge)), nil
	}

	if prize.MinTenureMonths > 0 && client.TenureMonthsAt(now) < prize.MinTenureMonths {
		return Deny(fmt.Sprintf("minimum membership tenure is %d months", prize.MinTenureMonths)), nil
	}

	for _, excluded := range prize.ExcludedMembershipTypes {
		if client.MembershipType == excluded {
			return Deny(fmt.Sprintf("membership type %q is not eligible", client.MembershipType)), nil
		}
	}

	if prize.MaxPerClient > 0 {
		count, err := s.winningRepo.CountByClientAndPrize(ctx, client.ID, prize.ID)
		if err != nil {
			slog.Error("Failed to count client winnings", "error", err, "clientId", client.ID, "prizeId", prize.ID)
			return CheckResult{}, fmt.Errorf("failed to count client winnings: %w", err)
		}
		if count >= int64(prize.MaxPerClient) {
			return Deny(fmt.Sprintf("per-client limit of %d reached", prize.MaxPerClient)), nil
		}
	}

	return Allow(), nil
}

// CheckRouletteLimits enforces the roulette's daily/weekly caps and the
// per-client cooldown since the client's last draw on the same wheel
func (s *PrizeServiceImpl) CheckRouletteLimits(ctx context.Context, roulette *models.Roulette, clientID primitive.ObjectID, now time.Time) (CheckResult, error) {
	if roulette.MaxPerDay > 0 {
		count, err := s.winningRepo.CountByRouletteSince(ctx, roulette.ID, startOfDay(now))
		if err != nil {
			slog.Error("Failed to count daily roulette draws", "error", err, "rouletteId", roulette.ID)
			return CheckResult{}, fmt.Errorf("failed to count daily roulette draws: %w", err)
		}
		if count >= int64(roulette.MaxPerDay) {
			return Deny(fmt.Sprintf("daily draw limit of %d reached", roulette.MaxPerDay)), nil
		}
	}

	if roulette.MaxPerWeek > 0 {
		count, err := s.winningRepo.CountByRouletteSince(ctx, roulette.ID, startOfWeek(now))
		if err != nil {
			slog.Error("Failed to count weekly roulette draws", "error", err, "rouletteId", roulette.ID)
			return CheckResult{}, fmt.Errorf("failed to count weekly roulette draws: %w", err)
		}
		if count >= int64(roulette.MaxPerWeek) {
			return Deny(fmt.Sprintf("weekly draw limit of %d reached", roulette.MaxPerWeek)), nil
		}
	}

	if roulette.CooldownMinutes > 0 {
		last, err := s.winningRepo.FindLastByClientAndRoulette(ctx, clientID, roulette.ID)
		if err != nil && err != mongo.ErrNoDocuments {
			slog.Error("Failed to find last draw", "error", err, "clientId", clientID, "rouletteId", roulette.ID)
			return CheckResult{}, fmt.Errorf("failed to find last draw: %w", err)
		}
		if err == nil {
			cooldown := time.Duration(roulette.CooldownMinutes) * time.Minute
			if elapsed := now.Sub(last.WonAt); elapsed < cooldown {
				return Deny(fmt.Sprintf("cooldown active, retry in %s", (cooldown - elapsed).Round(time.Second))), nil
			}
		}
	}

	return Allow(), nil
}

// startOfDay truncates to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek truncates to the most recent Sunday midnight.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
