package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/clock"
	"auction-engine/internal/config"
	cronrunner "auction-engine/internal/cron"
	"auction-engine/internal/directory"
	model "auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	clk := clock.NewSystem()
	store := repository.NewMemoryStore()
	users := directory.NewMemoryDirectory()
	sink := notifier.NewLogNotifier()

	prepopulate(store, users, clk)

	auctionSvc := auction.NewAuctionService(store, users, sink, clk,
		auction.WithMaxProxyRounds(cfg.MaxProxyRounds))

	runner := cronrunner.New(context.Background())
	if _, err := runner.Add(cfg.CloseSchedule, auctionSvc.Tick); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to schedule auction closer: %v\n", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	router := server.SetupRouter(auctionSvc, cfg.BidRetryAttempts)

	addr := fmt.Sprintf(":%s", cfg.Port)
	fmt.Printf("Starting auction server on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// prepopulate seeds the in-memory store with sample users and auctions
func prepopulate(store *repository.MemoryStore, users *directory.MemoryDirectory, clk clock.Clock) {
	sampleUsers := []model.User{
		{UserID: "seller1", Username: "seller_one"},
		{UserID: "user1", Username: "alice"},
		{UserID: "user2", Username: "bob"},
	}
	for _, u := range sampleUsers {
		users.AddUser(u)
	}

	now := clk.Now()
	auctions := []model.Auction{
		{
			AuctionID:    "auction1",
			ItemID:       "item1",
			SellerID:     "seller1",
			Title:        "Vintage camera",
			Description:  "Working 35mm rangefinder",
			InitialPrice: decimal.NewFromInt(100),
			MinIncrement: decimal.NewFromInt(5),
			ReservePrice: decimal.NewFromInt(150),
			StartTime:    now,
			EndTime:      now.Add(24 * time.Hour),
			IsActive:     true,
			CreatedAt:    now,
		},
		{
			AuctionID:    "auction2",
			ItemID:       "item2",
			SellerID:     "seller1",
			Title:        "Mechanical keyboard",
			Description:  "Tenkeyless, brown switches",
			InitialPrice: decimal.NewFromInt(40),
			MinIncrement: decimal.NewFromInt(2),
			ReservePrice: decimal.NewFromInt(60),
			StartTime:    now,
			EndTime:      now.Add(48 * time.Hour),
			IsActive:     true,
			CreatedAt:    now,
		},
	}
	for _, a := range auctions {
		if err := store.CreateAuction(a); err != nil {
			utils.Warn("failed to seed auction", map[string]any{"auction_id": a.AuctionID, "error": err.Error()})
		}
	}
}
