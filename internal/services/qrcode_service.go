package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/repositories"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure QRCodeServiceImpl implements QRCodeService
var _ QRCodeService = (*QRCodeServiceImpl)(nil)

// QRCodeServiceImpl validates and consumes scan gates
type QRCodeServiceImpl struct {
	qrRepo    repositories.QRCodeRepository
	roulettes RouletteService
	winnings  PrizeWinningService
}

// NewQRCodeService creates a new QRCodeServiceImpl
func NewQRCodeService(
	qrRepo repositories.QRCodeRepository,
	roulettes RouletteService,
	winnings PrizeWinningService,
) *QRCodeServiceImpl {
	return &QRCodeServiceImpl{
		qrRepo:    qrRepo,
		roulettes: roulettes,
		winnings:  winnings,
	}
}

// CreateGate mints a new gate with a unique code
func (s *QRCodeServiceImpl) CreateGate(ctx context.Context, qr *models.QRCode) (*models.QRCode, error) {
	if qr.MaxUses <= 0 {
		return nil, fmt.Errorf("%w: maxUses must be positive", ErrValidation)
	}
	if qr.Type == models.QRCodeTypeFixedPrize && qr.PrizeID.IsZero() {
		return nil, fmt.Errorf("%w: fixed-prize gate needs a prize reference", ErrValidation)
	}
	if qr.Type == models.QRCodeTypeRoulette && qr.RouletteCategory == "" {
		return nil, fmt.Errorf("%w: roulette gate needs a category", ErrValidation)
	}
	if (qr.AllowedFrom == "") != (qr.AllowedUntil == "") {
		return nil, fmt.Errorf("%w: allowed-hours window needs both bounds", ErrValidation)
	}
	if qr.AllowedFrom != "" {
		if _, err := parseClock(qr.AllowedFrom); err != nil {
			return nil, fmt.Errorf("%w: bad allowedFrom: %v", ErrValidation, err)
		}
		if _, err := parseClock(qr.AllowedUntil); err != nil {
			return nil, fmt.Errorf("%w: bad allowedUntil: %v", ErrValidation, err)
		}
	}

	if qr.Code == "" {
		qr.Code = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	}
	if err := s.qrRepo.Create(ctx, qr); err != nil {
		slog.Error("Failed to create scan gate", "error", err, "code", qr.Code)
		return nil, fmt.Errorf("failed to create scan gate: %w", err)
	}
	slog.Info("Scan gate created", "gateId", qr.ID, "code", qr.Code, "type", qr.Type, "maxUses", qr.MaxUses)
	return qr, nil
}

// GetByCode retrieves a gate by its code string
func (s *QRCodeServiceImpl) GetByCode(ctx context.Context, code string) (*models.QRCode, error) {
	qr, err := s.qrRepo.FindByCode(ctx, code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("scan gate %q: %w", code, ErrNotFound)
		}
		slog.Error("Failed to find scan gate", "error", err, "code", code)
		return nil, fmt.Errorf("failed to retrieve scan gate: %w", err)
	}
	return qr, nil
}

// Consume validates and consumes one use of the gate. Rejected attempts
// still count toward totalScans.
func (s *QRCodeServiceImpl) Consume(ctx context.Context, code string, clientID primitive.ObjectID, now time.Time, location *models.GeoFence) (*ScanOutcome, error) {
	qr, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if denied := s.validateGate(qr, clientID, now, location); denied != nil {
		if err := s.qrRepo.IncrementTotalScans(ctx, qr.ID); err != nil {
			slog.Error("Failed to count rejected scan", "error", err, "gateId", qr.ID)
		}
		return nil, denied
	}

	consumed, err := s.qrRepo.ConsumeUse(ctx, qr.ID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Lost the race to the last use.
			return nil, &LimitExceededError{Reason: "scan gate is fully used"}
		}
		slog.Error("Failed to consume scan gate use", "error", err, "gateId", qr.ID)
		return nil, fmt.Errorf("failed to consume scan gate use: %w", err)
	}

	slog.Info("Scan gate consumed", "gateId", consumed.ID, "clientId", clientID,
		"remainingUses", consumed.RemainingUses(), "used", consumed.Used)
	return &ScanOutcome{
		GateID:           consumed.ID,
		RemainingUses:    consumed.RemainingUses(),
		RouletteCategory: consumed.RouletteCategory,
		FixedPrizeID:     consumed.PrizeID,
	}, nil
}

// Scan consumes the gate and runs the draw it authorizes: a fixed-prize
// gate bypasses the wheel entirely, a roulette gate spins the category's
// default configuration.
func (s *QRCodeServiceImpl) Scan(ctx context.Context, code string, clientID primitive.ObjectID, location *models.GeoFence) (*ScanOutcome, error) {
	outcome, err := s.Consume(ctx, code, clientID, time.Now(), location)
	if err != nil {
		return nil, err
	}

	if !outcome.FixedPrizeID.IsZero() {
		winning, err := s.winnings.Award(ctx, clientID, outcome.FixedPrizeID, WinningSource{QRCodeID: outcome.GateID})
		if err != nil {
			return outcome, err
		}
		outcome.Winning = winning
		return outcome, nil
	}

	winning, err := s.roulettes.SpinDefault(ctx, outcome.RouletteCategory, clientID, outcome.GateID)
	if err != nil {
		return outcome, err
	}
	outcome.Winning = winning
	return outcome, nil
}

// validateGate runs every pre-consumption check and returns the denial,
// or nil when the gate may be consumed.
func (s *QRCodeServiceImpl) validateGate(qr *models.QRCode, clientID primitive.ObjectID, now time.Time, location *models.GeoFence) error {
	if !qr.Active {
		return &IneligibleError{Reason: "scan gate is not active"}
	}
	if qr.Used || qr.CurrentUses >= qr.MaxUses {
		return &LimitExceededError{Reason: "scan gate is fully used"}
	}
	if !qr.ValidFrom.IsZero() && now.Before(qr.ValidFrom) {
		return &IneligibleError{Reason: "scan gate is not yet valid"}
	}
	if !qr.ValidUntil.IsZero() && now.After(qr.ValidUntil) {
		return fmt.Errorf("scan gate validity window: %w", ErrExpired)
	}
	if !qr.OwnerClientID.IsZero() && qr.OwnerClientID != clientID {
		return &IneligibleError{Reason: "scan gate belongs to another client"}
	}
	if qr.AllowedFrom != "" && qr.AllowedUntil != "" {
		ok, err := withinClockWindow(now, qr.AllowedFrom, qr.AllowedUntil)
		if err != nil {
			return fmt.Errorf("%w: bad allowed-hours window: %v", ErrValidation, err)
		}
		if !ok {
			return &IneligibleError{Reason: fmt.Sprintf("scans allowed between %s and %s", qr.AllowedFrom, qr.AllowedUntil)}
		}
	}
	if qr.Fence != nil {
		if location == nil {
			return &IneligibleError{Reason: "scan location required"}
		}
		if distanceMeters(qr.Fence.Lat, qr.Fence.Lng, location.Lat, location.Lng) > qr.Fence.RadiusM {
			return &IneligibleError{Reason: "scan location outside allowed area"}
		}
	}
	return nil
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// withinClockWindow reports whether now's time of day falls inside the
// [from, until] window, which may cross midnight (e.g. 22:00 - 06:00).
func withinClockWindow(now time.Time, from, until string) (bool, error) {
	fromMin, err := parseClock(from)
	if err != nil {
		return false, err
	}
	untilMin, err := parseClock(until)
	if err != nil {
		return false, err
	}

	nowMin := now.Hour()*60 + now.Minute()
	if fromMin <= untilMin {
		return nowMin >= fromMin && nowMin <= untilMin, nil
	}
	// Window crosses midnight.
	return nowMin >= fromMin || nowMin <= untilMin, nil
}

// distanceMeters is the haversine distance between two coordinates.
func distanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusM = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
