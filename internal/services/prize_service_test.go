package services

import (
	"context"
	"testing"
	"time"

	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailable(t *testing.T) {
	f := newEngineFixture(&stubRand{})
	now := time.Now()

	tests := []struct {
		name    string
		mutate  func(*models.Prize)
		allowed bool
	}{
		{
			name:    "active prize inside window",
			mutate:  nil,
			allowed: true,
		},
		{
			name:    "inactive prize",
			mutate:  func(p *models.Prize) { p.Active = false },
			allowed: false,
		},
		{
			name:    "not yet valid",
			mutate:  func(p *models.Prize) { p.ValidFrom = now.Add(24 * time.Hour) },
			allowed: false,
		},
		{
			name:    "validity window ended",
			mutate:  func(p *models.Prize) { p.ValidUntil = now.Add(-time.Hour) },
			allowed: false,
		},
		{
			name: "stock exhausted",
			mutate: func(p *models.Prize) {
				p.Stock = 5
				p.AwardedCount = 5
			},
			allowed: false,
		},
		{
			name: "unlimited stock ignores awarded count",
			mutate: func(p *models.Prize) {
				p.Stock = 0
				p.AwardedCount = 9999
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prize := f.addPrize(tt.mutate)
			res := f.prizes.IsAvailable(prize, now)
			assert.Equal(t, tt.allowed, res.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestCheckLimits(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("daily cap counts only today", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		prize := f.addPrize(func(p *models.Prize) { p.MaxPerDay = 2 })
		client := f.addClient()

		// Yesterday's winning must not count toward today's cap.
		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: client.ID, PrizeID: prize.ID, WonAt: now.AddDate(0, 0, -1),
		}))
		res, err := f.prizes.CheckLimits(ctx, prize, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		for i := 0; i < 2; i++ {
			require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
				ClientID: client.ID, PrizeID: prize.ID, WonAt: now,
			}))
		}
		res, err = f.prizes.CheckLimits(ctx, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "daily limit")
	})

	t.Run("weekly cap counts since sunday", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		prize := f.addPrize(func(p *models.Prize) { p.MaxPerWeek = 1 })
		client := f.addClient()

		// Eight days ago is always in a previous week.
		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: client.ID, PrizeID: prize.ID, WonAt: now.AddDate(0, 0, -8),
		}))
		res, err := f.prizes.CheckLimits(ctx, prize, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: client.ID, PrizeID: prize.ID, WonAt: now,
		}))
		res, err = f.prizes.CheckLimits(ctx, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "weekly limit")
	})

	t.Run("uncapped prize always passes", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		prize := f.addPrize(nil)
		res, err := f.prizes.CheckLimits(ctx, prize, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

func TestCheckClientEligibility(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newEngineFixture(&stubRand{})

	adult := f.addClient() // born 1990, registered two years ago, STANDARD
	minor := f.clientRepo.add(&models.Client{
		BirthDate:        now.AddDate(-16, 0, 0),
		RegistrationDate: now.AddDate(-1, 0, 0),
		MembershipType:   "STANDARD",
	})
	newcomer := f.clientRepo.add(&models.Client{
		BirthDate:        now.AddDate(-30, 0, 0),
		RegistrationDate: now.AddDate(0, -1, 0),
		MembershipType:   "TRIAL",
	})

	t.Run("minimum age", func(t *testing.T) {
		prize := f.addPrize(func(p *models.Prize) { p.MinAge = 18 })
		res, err := f.prizes.CheckClientEligibility(ctx, minor, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "minimum age")

		res, err = f.prizes.CheckClientEligibility(ctx, adult, prize, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("minimum tenure", func(t *testing.T) {
		prize := f.addPrize(func(p *models.Prize) { p.MinTenureMonths = 6 })
		res, err := f.prizes.CheckClientEligibility(ctx, newcomer, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "tenure")
	})

	t.Run("excluded membership type", func(t *testing.T) {
		prize := f.addPrize(func(p *models.Prize) {
			p.ExcludedMembershipTypes = []string{"TRIAL", "CORPORATE"}
		})
		res, err := f.prizes.CheckClientEligibility(ctx, newcomer, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "TRIAL")
	})

	t.Run("per client cap", func(t *testing.T) {
		prize := f.addPrize(func(p *models.Prize) { p.MaxPerClient = 1 })
		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: adult.ID, PrizeID: prize.ID, WonAt: now.AddDate(0, -6, 0),
		}))
		res, err := f.prizes.CheckClientEligibility(ctx, adult, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "per-client limit")
	})

	t.Run("rules short-circuit in order", func(t *testing.T) {
		// The minor also fails the tenure rule, but age is checked first.
		prize := f.addPrize(func(p *models.Prize) {
			p.MinAge = 18
			p.MinTenureMonths = 24
		})
		res, err := f.prizes.CheckClientEligibility(ctx, minor, prize, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "minimum age")
	})
}

func TestCheckRouletteLimits(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("cooldown blocks until elapsed", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		client := f.addClient()
		roulette := &models.Roulette{Category: models.CategoryBasic, Active: true, CooldownMinutes: 60}
		require.NoError(t, f.rouletteRepo.Save(ctx, roulette))

		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: client.ID, RouletteID: roulette.ID, WonAt: now.Add(-10 * time.Minute),
		}))
		res, err := f.prizes.CheckRouletteLimits(ctx, roulette, client.ID, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "cooldown")

		res, err = f.prizes.CheckRouletteLimits(ctx, roulette, client.ID, now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("cooldown isolated per client", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		spinner := f.addClient()
		other := f.addClient()
		roulette := &models.Roulette{Category: models.CategoryBasic, Active: true, CooldownMinutes: 60}
		require.NoError(t, f.rouletteRepo.Save(ctx, roulette))

		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: spinner.ID, RouletteID: roulette.ID, WonAt: now.Add(-time.Minute),
		}))
		res, err := f.prizes.CheckRouletteLimits(ctx, roulette, other.ID, now)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("daily draw cap", func(t *testing.T) {
		f := newEngineFixture(&stubRand{})
		client := f.addClient()
		roulette := &models.Roulette{Category: models.CategoryBasic, Active: true, MaxPerDay: 1}
		require.NoError(t, f.rouletteRepo.Save(ctx, roulette))

		require.NoError(t, f.winningRepo.Create(ctx, &models.PrizeWinning{
			ClientID: client.ID, RouletteID: roulette.ID, WonAt: now,
		}))
		res, err := f.prizes.CheckRouletteLimits(ctx, roulette, client.ID, now)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Contains(t, res.Reason, "daily draw limit")
	})
}

func TestStartOfWeek(t *testing.T) {
	// August 2026: the 23rd and 30th are Sundays.
	wednesday := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	sunday := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, sunday, startOfWeek(wednesday))
	assert.Equal(t, sunday, startOfWeek(sunday.Add(5*time.Hour)))
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		startOfWeek(time.Date(2026, 8, 30, 0, 0, 1, 0, time.UTC)))
}
