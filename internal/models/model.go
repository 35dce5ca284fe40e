package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a participant in the marketplace
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	// StatusOpen means the auction is active and its end time is in the future
	StatusOpen AuctionStatus = "open"
	// StatusPendingClose means the end time has passed but the closer has not run yet
	StatusPendingClose AuctionStatus = "pending_close"
	// StatusClosed means the auction was finalized; no transition back
	StatusClosed AuctionStatus = "closed"
)

// Auction represents a listing with immutable price terms.
// ReservePrice is the seller's hidden minimum and must never be serialized.
type Auction struct {
	AuctionID    string          `json:"auction_id"`
	ItemID       string          `json:"item_id"`
	SellerID     string          `json:"seller_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	InitialPrice decimal.Decimal `json:"initial_price"`
	MinIncrement decimal.Decimal `json:"min_increment"`
	ReservePrice decimal.Decimal `json:"-"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	IsActive     bool            `json:"is_active"`
	WinnerID     string          `json:"winner_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Status derives the lifecycle state at the given instant without mutating anything.
func (a Auction) Status(now time.Time) AuctionStatus {
	if !a.IsActive {
		return StatusClosed
	}
	if !now.Before(a.EndTime) {
		return StatusPendingClose
	}
	return StatusOpen
}

// IsEnded reports whether the end time has passed. Pure time check; the
// transition to closed is performed by the closer, never by a read.
func (a Auction) IsEnded(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// Bid represents a user's bid on an auction. AutoBidLimit carries the
// bidder's proxy ceiling when set; IsAutoBid marks bids the resolver placed.
type Bid struct {
	BidID        string              `json:"bid_id"`
	AuctionID    string              `json:"auction_id"`
	BidderID     string              `json:"bidder_id"`
	Amount       decimal.Decimal     `json:"amount"`
	AutoBidLimit decimal.NullDecimal `json:"auto_bid_limit,omitempty"`
	IsAutoBid    bool                `json:"is_auto_bid"`
	CreatedAt    time.Time           `json:"created_at"`
}

// AutoBidder is a bidder's effective proxy commitment on one auction:
// the maximum auto-bid limit across all their bids, with the creation
// time of the earliest bid carrying that limit as the tie-break.
type AutoBidder struct {
	BidderID string
	Limit    decimal.Decimal
	Since    time.Time
}

// NotificationKind identifies a notification sent through the sink
type NotificationKind string

const (
	KindBidPlaced           NotificationKind = "bid_placed"
	KindOutbid              NotificationKind = "outbid"
	KindAutoBidPlaced       NotificationKind = "auto_bid_placed"
	KindAutoBidLimitReached NotificationKind = "auto_bid_limit_reached"
	KindAuctionWon          NotificationKind = "auction_won"
	KindAuctionEndedNoSale  NotificationKind = "auction_ended_no_sale"
)
