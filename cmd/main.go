package main

import (
	"context"
	"time"

	"github.com/marketbay/bidengine/internal/auction/application"
	"github.com/marketbay/bidengine/internal/auction/domain"
	auctionhttp "github.com/marketbay/bidengine/internal/auction/infra/http"
	auctionpg "github.com/marketbay/bidengine/internal/auction/infra/repository/postgres"
	"github.com/marketbay/bidengine/internal/auction/infra/settlement"
	auctionws "github.com/marketbay/bidengine/internal/auction/infra/websocket"
	"github.com/marketbay/bidengine/internal/events"
	productpg "github.com/marketbay/bidengine/internal/product/infra/repository/postgres"
	"github.com/marketbay/bidengine/internal/shared/clock"
	"github.com/marketbay/bidengine/internal/shared/config"
	"github.com/marketbay/bidengine/internal/shared/db"
	"github.com/marketbay/bidengine/internal/shared/db/migrations"
	"github.com/marketbay/bidengine/internal/shared/httpserver"
	"github.com/marketbay/bidengine/internal/shared/logger"
	"github.com/marketbay/bidengine/internal/shared/websocket"
	userpg "github.com/marketbay/bidengine/internal/user/infra/repository/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting bidding engine...")

	cfg := config.Load()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	// websocket hub for the live fan-out layer
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// event publisher: always the hub, plus redis pub/sub when configured
	sinks := []domain.EventPublisher{events.NewHubPublisher(hub)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		sinks = append(sinks, events.NewRedisPublisher(rdb))
		log.Info("Redis event publisher enabled", zap.String("addr", cfg.RedisAddr))
	}
	publisher := events.NewFanout(sinks...)

	// settlement bridge: webhook when configured, log-only otherwise
	var bridge domain.SettlementBridge = settlement.NewLogBridge()
	if cfg.SettlementURL != "" {
		bridge = settlement.NewWebhookBridge(cfg.SettlementURL)
		log.Info("Settlement webhook bridge enabled", zap.String("baseURL", cfg.SettlementURL))
	}

	store := auctionpg.NewStore(pool, cfg.LockTimeout)
	userRepo := userpg.NewUserRepository(pool)
	productRepo := productpg.NewProductRepository(pool)
	clk := clock.System()

	placeBidUC := application.NewPlaceBidUseCase(store, userRepo, clk, publisher)
	minBidUC := application.NewGetMinBidUseCase(store)
	listBidsUC := application.NewListBidsUseCase(store)
	closeUC := application.NewCloseExpiredUseCase(store, clk, publisher, bridge)
	manageUC := application.NewManageAuctionUseCase(store, productRepo, clk, bridge)
	service := application.NewAuctionService(placeBidUC, minBidUC, listBidsUC, closeUC, manageUC)

	// background sweep, the same path POST /auctions/close-ended triggers
	go runSweep(ctx, service, cfg.SweepInterval)

	server := httpserver.NewServer()
	auctionhttp.NewHandler(service).Register(server.App())

	wsHandler := auctionws.NewAuctionWSHandler(service, hub)
	wsHandler.Register(ctx, server.App())
	go wsHandler.ListenForMessages(ctx)

	if err := server.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}

// runSweep invokes the closing sweep on a fixed interval until ctx is
// cancelled. Overlapping with manual invocations is safe, each auction is
// settled under its own row lock.
func runSweep(ctx context.Context, service application.AuctionService, interval time.Duration) {
	log := logger.GetLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := service.CloseExpired(ctx)
			if err != nil {
				log.Error("Closing sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				log.Info("Closing sweep processed auctions", zap.Int("count", count))
			}
		}
	}
}
