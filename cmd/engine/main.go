package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitspin/rewards-engine/internal/config"
	"github.com/fitspin/rewards-engine/internal/models"
	"github.com/fitspin/rewards-engine/internal/services"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	mongorepo "github.com/fitspin/rewards-engine/internal/repositories/mongodb"
	"github.com/fitspin/rewards-engine/pkg/mongodb"
	"github.com/fitspin/rewards-engine/pkg/notifier"
)

// engine bundles the full service graph. The transport layer consumes
// the same bundle; this binary drives the background concerns.
type engine struct {
	prizes    services.PrizeService
	roulettes services.RouletteService
	winnings  services.PrizeWinningService
	gates     services.QRCodeService
}

func main() {
	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	connectTimeout := time.Duration(cfg.MongoDB.ConnectTimeoutSeconds) * time.Second
	mongoClient, err := mongodb.NewClient(context.Background(), cfg.MongoDB.URI, connectTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Repositories
	prizeRepo := mongorepo.NewPrizeRepository(db)
	rouletteRepo := mongorepo.NewRouletteRepository(db)
	winningRepo := mongorepo.NewPrizeWinningRepository(db)
	qrRepo := mongorepo.NewQRCodeRepository(db)
	clientRepo := mongorepo.NewClientRepository(db)
	notificationRepo := mongorepo.NewNotificationRepository(db)

	// Notification gateway
	var gateway notifier.Gateway
	if cfg.Notifier.Mock {
		gateway = notifier.NewMockGateway("PUSH")
	} else {
		gateway = notifier.NewPushGateway(cfg)
	}
	notificationService := services.NewNotificationService(notificationRepo, gateway)

	// Services
	prizeService := services.NewPrizeService(prizeRepo, winningRepo)
	winningService := services.NewPrizeWinningService(
		prizeService,
		prizeRepo,
		winningRepo,
		clientRepo,
		&services.MockMembershipExtender{},
		&services.MockPointsLedger{},
		&services.MockOrderPlacer{},
		notificationService,
		nil,
		cfg.Engine.DefaultWinningValidityDays,
	)
	rouletteService := services.NewRouletteService(rouletteRepo, prizeRepo, prizeService, winningService, nil)

	eng := &engine{
		prizes:    prizeService,
		roulettes: rouletteService,
		winnings:  winningService,
		gates:     services.NewQRCodeService(qrRepo, rouletteService, winningService),
	}

	slog.Info("Reward engine worker started",
		"database", cfg.MongoDB.Database,
		"sweepIntervalSeconds", cfg.Engine.SweepIntervalSeconds)

	// Warn early about categories a roulette gate would fail on.
	for _, category := range []models.PrizeCategory{
		models.CategoryBasic, models.CategoryPremium, models.CategoryExclusive, models.CategorySpecial,
	} {
		if _, err := eng.roulettes.GetDefaultByCategory(context.Background(), category); err != nil {
			slog.Warn("No default roulette configured", "category", category)
		}
	}

	eng.runSweep(cfg)
}

// runSweep expires overdue pending winnings until shutdown
func (e *engine) runSweep(cfg *config.Config) {
	sweepInterval := time.Duration(cfg.Engine.SweepIntervalSeconds) * time.Second
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			count, err := e.winnings.ExpirePending(context.Background(), cfg.Engine.SweepBatchSize)
			if err != nil {
				slog.Error("Expiration sweep failed", "error", err)
				continue
			}
			if count > 0 {
				slog.Info("Expiration sweep completed", "expired", count)
			}
		case <-quit:
			slog.Info("Shutting down reward engine")
			return
		}
	}
}
