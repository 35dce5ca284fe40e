package helpers

import "time"

// Request/Response DTOs. Money amounts travel as decimal strings.
type CreateAuctionRequest struct {
	SellerID     string    `json:"seller_id" binding:"required"`
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	InitialPrice string    `json:"initial_price" binding:"required"`
	MinIncrement string    `json:"min_increment" binding:"required"`
	ReservePrice string    `json:"reserve_price" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
}

type PlaceBidRequest struct {
	AuctionID    string `json:"auction_id" binding:"required"`
	BidderID     string `json:"bidder_id" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	AutoBidLimit string `json:"auto_bid_limit"`
}

type BidResponse struct {
	BidID        string `json:"bid_id"`
	AuctionID    string `json:"auction_id"`
	BidderID     string `json:"bidder_id"`
	Amount       string `json:"amount"`
	AutoBidLimit string `json:"auto_bid_limit,omitempty"`
	IsAutoBid    bool   `json:"is_auto_bid"`
	CreatedAt    string `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID    string `json:"auction_id"`
	ItemID       string `json:"item_id"`
	SellerID     string `json:"seller_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	InitialPrice string `json:"initial_price"`
	MinIncrement string `json:"min_increment"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	IsActive     bool   `json:"is_active"`
	WinnerID     string `json:"winner_id,omitempty"`
}

// AuctionViewResponse is the derived-state snapshot served to bidders.
// The reserve price never appears here, only whether it has been met.
type AuctionViewResponse struct {
	Auction            AuctionResponse `json:"auction"`
	Status             string          `json:"status"`
	CurrentPrice       string          `json:"current_price"`
	NextValidBidAmount string          `json:"next_valid_bid_amount"`
	IsReserveMet       bool            `json:"is_reserve_met"`
	IsEnded            bool            `json:"is_ended"`
	NumBids            int             `json:"num_bids"`
	LeaderID           string          `json:"leader_id,omitempty"`
	LeaderUsername     string          `json:"leader_username,omitempty"`
}
