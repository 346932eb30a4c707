package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// weightSum is the required total of sector weights, within weightTolerance.
const (
	weightSum       = 100.0
	weightTolerance = 0.01
)

// Compile-time check to ensure RouletteServiceImpl implements RouletteService
var _ RouletteService = (*RouletteServiceImpl)(nil)

// RouletteServiceImpl validates selector configurations and runs draws
type RouletteServiceImpl struct {
	rouletteRepo repositories.RouletteRepository
	prizeRepo    repositories.PrizeRepository
	prizes       PrizeService
	winnings     PrizeWinningService
	rng          randSource
	locks        *keyedMutex
}

// NewRouletteService creates a new RouletteServiceImpl. A nil rng gets a
// time-seeded source.
func NewRouletteService(
	rouletteRepo repositories.RouletteRepository,
	prizeRepo repositories.PrizeRepository,
	prizes PrizeService,
	winnings PrizeWinningService,
	rng randSource,
) *RouletteServiceImpl {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RouletteServiceImpl{
		rouletteRepo: rouletteRepo,
		prizeRepo:    prizeRepo,
		prizes:       prizes,
		winnings:     winnings,
		rng:          rng,
		locks:        newKeyedMutex(),
	}
}

// ValidateConfig checks that every sector weight is non-negative, the
// weights sum to 100 within tolerance, and every prize reference resolves.
func (s *RouletteServiceImpl) ValidateConfig(ctx context.Context, roulette *models.Roulette) error {
	if len(roulette.Sectors) == 0 {
		return fmt.Errorf("%w: configuration has no sectors", ErrValidation)
	}

	for i, sector := range roulette.Sectors {
		if sector.Weight < 0 {
			return fmt.Errorf("%w: sector %d has negative weight %.4f", ErrValidation, i, sector.Weight)
		}
		if sector.PrizeID.IsZero() {
			return fmt.Errorf("%w: sector %d has no prize reference", ErrValidation, i)
		}
		if _, err := s.prizeRepo.FindByID(ctx, sector.PrizeID); err != nil {
			if err == mongo.ErrNoDocuments {
				return fmt.Errorf("%w: sector %d references unknown prize %s", ErrValidation, i, sector.PrizeID.Hex())
			}
			return fmt.Errorf("failed to resolve sector %d prize: %w", i, err)
		}
	}

	if total := roulette.TotalWeight(); math.Abs(total-weightSum) > weightTolerance {
		return fmt.Errorf("%w: sector weights sum to %.4f, expected %.0f", ErrValidation, total, weightSum)
	}
	return nil
}

// SaveConfig validates and persists a configuration. Marking it default
// deactivates the previous default of the same category on the write path.
func (s *RouletteServiceImpl) SaveConfig(ctx context.Context, roulette *models.Roulette) error {
	if err := s.ValidateConfig(ctx, roulette); err != nil {
		return err
	}
	if err := s.rouletteRepo.Save(ctx, roulette); err != nil {
		slog.Error("Failed to save roulette configuration", "error", err, "category", roulette.Category)
		return fmt.Errorf("failed to save roulette configuration: %w", err)
	}
	slog.Info("Roulette configuration saved", "rouletteId", roulette.ID, "category", roulette.Category, "default", roulette.IsDefault)
	return nil
}

// GetByID retrieves a configuration by ID
func (s *RouletteServiceImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Roulette, error) {
	roulette, err := s.rouletteRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("roulette %s: %w", id.Hex(), ErrNotFound)
		}
		slog.Error("Failed to find roulette", "error", err, "rouletteId", id)
		return nil, fmt.Errorf("failed to retrieve roulette: %w", err)
	}
	return roulette, nil
}

// GetDefaultByCategory retrieves the active default configuration
func (s *RouletteServiceImpl) GetDefaultByCategory(ctx context.Context, category models.PrizeCategory) (*models.Roulette, error) {
	roulette, err := s.rouletteRepo.FindDefaultByCategory(ctx, category)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no default roulette for category %s: %w", category, ErrNotFound)
		}
		slog.Error("Failed to find default roulette", "error", err, "category", category)
		return nil, fmt.Errorf("failed to retrieve default roulette: %w", err)
	}
	return roulette, nil
}

// ListByCategory retrieves all configurations of a category
func (s *RouletteServiceImpl) ListByCategory(ctx context.Context, category models.PrizeCategory) ([]*models.Roulette, error) {
	roulettes, err := s.rouletteRepo.FindByCategory(ctx, category)
	if err != nil {
		slog.Error("Failed to list roulettes", "error", err, "category", category)
		return nil, fmt.Errorf("failed to list roulettes: %w", err)
	}
	return roulettes, nil
}

// Spin runs a full guarded draw on the given configuration
func (s *RouletteServiceImpl) Spin(ctx context.Context, rouletteID, clientID primitive.ObjectID) (*models.PrizeWinning, error) {
	roulette, err := s.GetByID(ctx, rouletteID)
	if err != nil {
		return nil, err
	}
	return s.spin(ctx, roulette, clientID, primitive.NilObjectID)
}

// SpinDefault runs a draw on the category's default configuration
func (s *RouletteServiceImpl) SpinDefault(ctx context.Context, category models.PrizeCategory, clientID, gateID primitive.ObjectID) (*models.PrizeWinning, error) {
	roulette, err := s.GetDefaultByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.spin(ctx, roulette, clientID, gateID)
}

// spin serializes the roulette-level guard per configuration, then picks
// a sector and delegates the per-prize guard and lifecycle creation.
// The guard runs before the selector so a request that cannot be honored
// never consumes a draw.
func (s *RouletteServiceImpl) spin(ctx context.Context, roulette *models.Roulette, clientID, gateID primitive.ObjectID) (*models.PrizeWinning, error) {
	unlock := s.locks.Lock("roulette:" + roulette.ID.Hex())
	defer unlock()

	if !roulette.Active {
		return nil, &IneligibleError{Reason: "roulette is not active"}
	}

	res, err := s.prizes.CheckRouletteLimits(ctx, roulette, clientID, time.Now())
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &LimitExceededError{Reason: res.Reason}
	}

	roll := s.rng.Float64() * weightSum
	sector := pickSector(roulette.Sectors, roll)
	slog.Info("Roulette spin", "rouletteId", roulette.ID, "clientId", clientID, "roll", roll, "prizeId", sector.PrizeID)

	winning, err := s.winnings.Award(ctx, clientID, sector.PrizeID, WinningSource{
		RouletteID: roulette.ID,
		QRCodeID:   gateID,
	})
	if err != nil {
		return nil, err
	}
	return winning, nil
}

// pickSector is inverse-CDF sampling over the stored sector order: the
// first sector whose cumulative weight reaches the roll wins. If
// floating-point accumulation leaves no sector selected, the last one is
// chosen deterministically.
func pickSector(sectors []models.Sector, roll float64) *models.Sector {
	cumulative := 0.0
	for i := range sectors {
		cumulative += sectors[i].Weight
		if cumulative >= roll {
			return &sectors[i]
		}
	}
	return &sectors[len(sectors)-1]
}
