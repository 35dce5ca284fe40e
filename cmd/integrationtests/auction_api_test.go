package integrationtests

import (
	"context"
	"net/http"
	"testing"
	"time"

	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateAuctionHandler Tests
func TestCreateAuctionAPI(t *testing.T) {
	endTime := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name       string
		request    any
		wantStatus int
	}{
		{
			name: "Valid_Auction",
			request: helpers.CreateAuctionRequest{
				SellerID:     "seller1",
				Title:        "Vintage camera",
				InitialPrice: "100",
				MinIncrement: "10",
				ReservePrice: "150",
				EndTime:      time.Now().UTC().Add(24 * time.Hour),
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Invalid_JSON",
			request:    []byte("{seller_id: 'missing quotes'}"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "End_Time_In_Past",
			request: map[string]any{
				"seller_id":     "seller1",
				"title":         "Expired listing",
				"initial_price": "100",
				"min_increment": "10",
				"reserve_price": "150",
				"end_time":      time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Reserve_Below_Initial",
			request: map[string]any{
				"seller_id":     "seller1",
				"title":         "Bad terms",
				"initial_price": "100",
				"min_increment": "10",
				"reserve_price": "50",
				"end_time":      endTime,
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv()
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions", tt.request)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				created := data(t, resp)
				require.NotEmpty(t, created["auction_id"])
				require.Equal(t, "seller1", created["seller_id"])
				require.Equal(t, true, created["is_active"])
				// the seller's reserve must never leak to clients
				require.NotContains(t, created, "reserve_price")
			}
		})
	}
}

// PlaceBidHandler Tests
func TestPlaceBidAPI(t *testing.T) {
	tests := []struct {
		name       string
		request    helpers.PlaceBidRequest
		wantStatus int
	}{
		{
			name:       "Valid_Bid",
			request:    helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "user1", Amount: "110"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Below_Min_Increment",
			request:    helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "user1", Amount: "105"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Seller_Bids_On_Own_Auction",
			request:    helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "seller1", Amount: "110"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Auction_Not_Found",
			request:    helpers.PlaceBidRequest{AuctionID: "nonexistent", BidderID: "user1", Amount: "110"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Auto_Limit_Below_Amount",
			request:    helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "user1", Amount: "110", AutoBidLimit: "105"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestEnv()
			env.SeedAuction(t, "a1", 150, time.Now().UTC().Add(time.Hour))

			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids", tt.request)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				bid := data(t, resp)
				require.Equal(t, "a1", bid["auction_id"])
				require.Equal(t, "user1", bid["bidder_id"])
				require.Equal(t, "110", bid["amount"])
				require.NotEmpty(t, bid["bid_id"])

				_, err := time.Parse(time.RFC3339, bid["created_at"].(string))
				require.NoError(t, err)
			}
		})
	}
}

// Competing auto-bid commitments resolved through the public API
func TestProxyBiddingAPI(t *testing.T) {
	env := SetupTestEnv()
	env.SeedAuction(t, "a1", 150, time.Now().UTC().Add(time.Hour))

	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids",
		helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "user1", Amount: "110", AutoBidLimit: "200"})
	require.Equal(t, http.StatusCreated, w.Code)

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids",
		helpers.PlaceBidRequest{AuctionID: "a1", BidderID: "user2", Amount: "120", AutoBidLimit: "150"})
	require.Equal(t, http.StatusCreated, w.Code)

	// user1's proxy wins at one increment over user2's full limit
	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	winning := data(t, resp)
	require.Equal(t, "user1", winning["bidder_id"])
	require.Equal(t, "160", winning["amount"])
	require.Equal(t, true, winning["is_auto_bid"])

	// history is newest first: the synthetic bid leads
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bids := dataList(t, resp)
	require.Len(t, bids, 3)
	first := bids[0].(map[string]any)
	require.Equal(t, "160", first["amount"])
	require.Equal(t, true, first["is_auto_bid"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := data(t, resp)
	require.Equal(t, "open", view["status"])
	require.Equal(t, "160", view["current_price"])
	require.Equal(t, "170", view["next_valid_bid_amount"])
	require.Equal(t, true, view["is_reserve_met"])
	require.Equal(t, "user1", view["leader_id"])
	require.Equal(t, "alice", view["leader_username"])

	// user2 was outbid by the resolution
	require.NotEmpty(t, env.sink.SentTo("user2", model.KindOutbid))
}

// Auction view for an auction nobody has bid on yet
func TestAuctionViewAPI_NoBids(t *testing.T) {
	env := SetupTestEnv()
	env.SeedAuction(t, "a1", 150, time.Now().UTC().Add(time.Hour))

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/a1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	view := data(t, resp)
	require.Equal(t, "open", view["status"])
	require.Equal(t, "100", view["current_price"])
	require.Equal(t, "110", view["next_valid_bid_amount"])
	require.Equal(t, false, view["is_reserve_met"])
	require.Equal(t, float64(0), view["num_bids"])
	require.NotContains(t, view["auction"], "reserve_price")

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/nonexistent", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// Closing sweep driven end to end: ended auctions finalize, views flip to closed
func TestCloserAPI(t *testing.T) {
	env := SetupTestEnv()
	now := time.Now().UTC()
	env.SeedAuction(t, "sold", 150, now.Add(-time.Hour))
	env.SeedAuction(t, "unsold", 500, now.Add(-time.Hour))

	seed := func(auctionID, bidderID string, amount int64, at time.Time) {
		require.NoError(t, env.store.AppendBid(model.Bid{
			BidID:     "seed-" + auctionID + "-" + bidderID,
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    decimal.NewFromInt(amount),
			CreatedAt: at,
		}))
	}
	seed("sold", "user1", 160, now.Add(-30*time.Minute))
	seed("unsold", "user2", 160, now.Add(-30*time.Minute))

	env.svc.Tick(context.Background())

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/sold", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := data(t, resp)
	require.Equal(t, "closed", view["status"])
	require.Equal(t, true, view["is_ended"])
	require.Equal(t, "user1", view["auction"].(map[string]any)["winner_id"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/unsold", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = data(t, resp)
	require.Equal(t, "closed", view["status"])
	require.NotContains(t, view["auction"].(map[string]any), "winner_id")

	require.Len(t, env.sink.SentTo("user1", model.KindAuctionWon), 1)
	require.Len(t, env.sink.SentTo("seller1", model.KindAuctionEndedNoSale), 1)
}

// GetAuctionsByBidderHandler Tests
func TestGetAuctionsByBidderAPI(t *testing.T) {
	env := SetupTestEnv()
	future := time.Now().UTC().Add(time.Hour)
	env.SeedAuction(t, "a1", 150, future)
	env.SeedAuction(t, "a2", 150, future)

	for _, req := range []helpers.PlaceBidRequest{
		{AuctionID: "a1", BidderID: "user1", Amount: "110"},
		{AuctionID: "a2", BidderID: "user1", Amount: "110"},
	} {
		_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/bids", req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	tests := []struct {
		name               string
		userID             string
		expectedAuctionIDs []string
	}{
		{name: "User_With_Bids", userID: "user1", expectedAuctionIDs: []string{"a1", "a2"}},
		{name: "User_Without_Bids", userID: "user2", expectedAuctionIDs: []string{}},
		{name: "Nonexistent_User", userID: "nonexistent", expectedAuctionIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, "/users/"+tt.userID+"/auctions", nil)
			require.Equal(t, http.StatusOK, w.Code)

			auctions := dataList(t, resp)
			require.Len(t, auctions, len(tt.expectedAuctionIDs))

			got := map[string]bool{}
			for _, a := range auctions {
				got[a.(map[string]any)["auction_id"].(string)] = true
			}
			for _, id := range tt.expectedAuctionIDs {
				require.True(t, got[id])
			}
		})
	}
}
