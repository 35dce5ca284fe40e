package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

// AuctionStore defines the auction and bid storage interface.
// Bids form an append-only ledger per auction; amounts must be strictly
// increasing in creation order.
type AuctionStore interface {
	CreateAuction(auction model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	DueAuctions(now time.Time) ([]model.Auction, error)
	CloseAuction(auctionID, winnerID string) error
	AppendBid(bid model.Bid) error
	HighestBid(auctionID string) (model.Bid, error)
	BidsByAuction(auctionID string) ([]model.Bid, error)
	EffectiveAutoBidders(auctionID string) ([]model.AutoBidder, error)
	AuctionsByBidder(userID string) ([]model.Auction, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore
type MemoryStore struct {
	mu           sync.RWMutex
	auctions     map[string]model.Auction // key: auctionID
	bids         map[string][]model.Bid   // key: auctionID -> bids in creation order
	userAuctions map[string][]string      // key: userID -> auctionIDs the user has bid on
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:     make(map[string]model.Auction),
		bids:         make(map[string][]model.Bid),
		userAuctions: make(map[string][]string),
	}
}

// CreateAuction stores a new auction
func (s *MemoryStore) CreateAuction(auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionExists)
	}
	s.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns an auction by id
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// DueAuctions returns all auctions still active whose end time has passed
func (s *MemoryStore) DueAuctions(now time.Time) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Auction
	for _, a := range s.auctions {
		if a.IsActive && !now.Before(a.EndTime) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EndTime.Before(due[j].EndTime) })
	return due, nil
}

// CloseAuction marks an auction inactive and records the winner.
// Closing an already-closed auction is a no-op so the closer stays idempotent.
func (s *MemoryStore) CloseAuction(auctionID, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("close auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if !auction.IsActive {
		return nil
	}
	auction.IsActive = false
	auction.WinnerID = winnerID
	s.auctions[auctionID] = auction
	return nil
}

// AppendBid records a bid on an auction. The ledger enforces strictly
// increasing amounts; a stale append surfaces as ErrConcurrentModification.
func (s *MemoryStore) AppendBid(bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	if existing := s.bids[bid.AuctionID]; len(existing) > 0 {
		highest := highestOf(existing)
		if !bid.Amount.GreaterThan(highest.Amount) {
			return fmt.Errorf("append bid for auction %s: amount %s not above current highest %s: %w",
				bid.AuctionID, bid.Amount, highest.Amount, auctionerrors.ErrConcurrentModification)
		}
	}

	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)

	for _, id := range s.userAuctions[bid.BidderID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	s.userAuctions[bid.BidderID] = append(s.userAuctions[bid.BidderID], bid.AuctionID)

	return nil
}

// HighestBid returns the bid with the maximum amount for an auction.
// Ties go to the earliest bid.
func (s *MemoryStore) HighestBid(auctionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return highestOf(bids), nil
}

// BidsByAuction returns all bids for an auction in creation order
func (s *MemoryStore) BidsByAuction(auctionID string) ([]model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids, ok := s.bids[auctionID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// EffectiveAutoBidders returns, per bidder who ever set an auto-bid limit on
// the auction, their maximum limit, ordered by limit descending. Equal limits
// are ordered by the creation time of the earliest bid carrying the limit.
func (s *MemoryStore) EffectiveAutoBidders(auctionID string) ([]model.AutoBidder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byBidder := make(map[string]model.AutoBidder)
	for _, b := range s.bids[auctionID] {
		if !b.AutoBidLimit.Valid {
			continue
		}
		limit := b.AutoBidLimit.Decimal
		cur, ok := byBidder[b.BidderID]
		switch {
		case !ok, limit.GreaterThan(cur.Limit):
			byBidder[b.BidderID] = model.AutoBidder{BidderID: b.BidderID, Limit: limit, Since: b.CreatedAt}
		case limit.Equal(cur.Limit) && b.CreatedAt.Before(cur.Since):
			cur.Since = b.CreatedAt
			byBidder[b.BidderID] = cur
		}
	}

	bidders := make([]model.AutoBidder, 0, len(byBidder))
	for _, ab := range byBidder {
		bidders = append(bidders, ab)
	}
	sort.Slice(bidders, func(i, j int) bool {
		if !bidders[i].Limit.Equal(bidders[j].Limit) {
			return bidders[i].Limit.GreaterThan(bidders[j].Limit)
		}
		return bidders[i].Since.Before(bidders[j].Since)
	})
	return bidders, nil
}

// AuctionsByBidder returns all auctions a user has placed bids on
func (s *MemoryStore) AuctionsByBidder(userID string) ([]model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctionIDs, ok := s.userAuctions[userID]
	if !ok || len(auctionIDs) == 0 {
		return nil, fmt.Errorf("get auctions for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	auctions := make([]model.Auction, 0, len(auctionIDs))
	for _, id := range auctionIDs {
		if a, exists := s.auctions[id]; exists {
			auctions = append(auctions, a)
		}
	}
	return auctions, nil
}

func highestOf(bids []model.Bid) model.Bid {
	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(winning.Amount) ||
			(b.Amount.Equal(winning.Amount) && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning
}
