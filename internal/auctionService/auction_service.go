package auction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/clock"
	"auction-engine/internal/directory"
	model "auction-engine/internal/models"
	"auction-engine/internal/notifier"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

const defaultMaxProxyRounds = 64

// AuctionService owns bid admission, proxy-bid resolution and auction
// closing. Bid acceptance is serialized per auction: validation, append and
// resolution run under one per-auction lock, and notifications are delivered
// only after the lock is released.
type AuctionService struct {
	store          repository.AuctionStore
	users          directory.UserDirectory
	sink           notifier.Notifier
	clock          clock.Clock
	maxProxyRounds int

	locks sync.Map // auctionID -> *sync.Mutex
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(store repository.AuctionStore, users directory.UserDirectory, sink notifier.Notifier, clk clock.Clock, opts ...Option) *AuctionService {
	s := &AuctionService{
		store:          store,
		users:          users,
		sink:           sink,
		clock:          clk,
		maxProxyRounds: defaultMaxProxyRounds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures an AuctionService
type Option func(*AuctionService)

// WithMaxProxyRounds overrides the proxy resolution round cap.
func WithMaxProxyRounds(n int) Option {
	return func(s *AuctionService) {
		if n > 0 {
			s.maxProxyRounds = n
		}
	}
}

// CreateAuctionInput carries the seller-supplied auction terms
type CreateAuctionInput struct {
	ItemID       string
	SellerID     string
	Title        string
	Description  string
	InitialPrice decimal.Decimal
	MinIncrement decimal.Decimal
	ReservePrice decimal.Decimal
	EndTime      time.Time
}

// CreateAuction validates the terms and stores a new auction. Price terms are
// immutable afterwards; only bids and the closer mutate auction state.
func (s *AuctionService) CreateAuction(in CreateAuctionInput) (model.Auction, error) {
	if in.SellerID == "" || in.Title == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing seller or title", auctionerrors.ErrInvalidAuction)
	}
	if !in.InitialPrice.IsPositive() || !in.MinIncrement.IsPositive() {
		return model.Auction{}, fmt.Errorf("service: %w - initial price and min increment must be positive", auctionerrors.ErrInvalidAuction)
	}
	if in.ReservePrice.LessThan(in.InitialPrice) {
		return model.Auction{}, fmt.Errorf("service: %w - reserve price must be at least the initial price", auctionerrors.ErrInvalidAuction)
	}

	now := s.clock.Now()
	if !in.EndTime.After(now) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidAuction)
	}

	itemID := in.ItemID
	if itemID == "" {
		itemID = utils.GenerateID()
	}

	auction := model.Auction{
		AuctionID:    utils.GenerateID(),
		ItemID:       itemID,
		SellerID:     in.SellerID,
		Title:        in.Title,
		Description:  in.Description,
		InitialPrice: in.InitialPrice,
		MinIncrement: in.MinIncrement,
		ReservePrice: in.ReservePrice,
		StartTime:    now,
		EndTime:      in.EndTime,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for seller %s: %w", in.SellerID, err)
	}
	return auction, nil
}

// PlaceBid validates and records a manual bid, then resolves any standing
// proxy-bid commitments to a stable state before returning.
func (s *AuctionService) PlaceBid(auctionID, bidderID string, amount decimal.Decimal, autoBidLimit decimal.NullDecimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}

	mu := s.lockFor(auctionID)
	mu.Lock()
	bid, events, err := s.placeBidLocked(auctionID, bidderID, amount, autoBidLimit)
	mu.Unlock()
	if err != nil {
		return model.Bid{}, err
	}

	// Notifications are fire-and-forget and must not hold the critical section.
	s.deliver(events)
	return bid, nil
}

func (s *AuctionService) placeBidLocked(auctionID, bidderID string, amount decimal.Decimal, autoBidLimit decimal.NullDecimal) (model.Bid, []pendingNotification, error) {
	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Bid{}, nil, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	now := s.clock.Now()
	if err := s.validateBid(auction, bidderID, amount, autoBidLimit, now); err != nil {
		return model.Bid{}, nil, err
	}

	bid := model.Bid{
		BidID:        utils.GenerateID(),
		AuctionID:    auctionID,
		BidderID:     bidderID,
		Amount:       amount,
		AutoBidLimit: autoBidLimit,
		CreatedAt:    now,
	}
	if err := s.store.AppendBid(bid); err != nil {
		return model.Bid{}, nil, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}

	events := []pendingNotification{s.bidPlacedEvent(auction, bid)}
	events = append(events, s.resolveProxyBids(auction)...)
	events = append(events, s.outbidEvents(auction)...)
	return bid, events, nil
}

// validateBid enforces the admission rules for a manual bid
func (s *AuctionService) validateBid(auction model.Auction, bidderID string, amount decimal.Decimal, autoBidLimit decimal.NullDecimal, now time.Time) error {
	if !auction.IsActive || auction.IsEnded(now) {
		return fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed)
	}
	if bidderID == auction.SellerID {
		return fmt.Errorf("service: %w", auctionerrors.ErrSelfBid)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidAmount)
	}

	next := s.nextValidBidAmount(auction)
	if amount.LessThan(next) {
		return fmt.Errorf("service: %w - bid must be at least %s", auctionerrors.ErrInvalidAmount, next)
	}
	if autoBidLimit.Valid && autoBidLimit.Decimal.LessThan(amount) {
		return fmt.Errorf("service: %w", auctionerrors.ErrInvalidAutoLimit)
	}
	return nil
}

// currentPrice is the highest bid amount, or the initial price with no bids
func (s *AuctionService) currentPrice(auction model.Auction) decimal.Decimal {
	highest, err := s.store.HighestBid(auction.AuctionID)
	if err != nil {
		return auction.InitialPrice
	}
	return highest.Amount
}

func (s *AuctionService) nextValidBidAmount(auction model.Auction) decimal.Decimal {
	return s.currentPrice(auction).Add(auction.MinIncrement)
}

// AuctionView is a derived, read-only snapshot of auction state. Computing it
// never mutates anything; finalization belongs to the closer alone. The
// reserve price itself stays hidden - only the met/not-met fact is exposed.
type AuctionView struct {
	Auction            model.Auction
	Status             model.AuctionStatus
	CurrentPrice       decimal.Decimal
	NextValidBidAmount decimal.Decimal
	IsReserveMet       bool
	IsEnded            bool
	NumBids            int
	LeaderID           string
	LeaderUsername     string
}

// GetAuctionView returns the derived state of an auction
func (s *AuctionService) GetAuctionView(auctionID string) (AuctionView, error) {
	if auctionID == "" {
		return AuctionView{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return AuctionView{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	now := s.clock.Now()
	view := AuctionView{
		Auction:      auction,
		Status:       auction.Status(now),
		CurrentPrice: auction.InitialPrice,
		IsEnded:      auction.IsEnded(now),
	}

	bids, err := s.store.BidsByAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		return AuctionView{}, fmt.Errorf("service: failed to load bids for auction %s: %w", auctionID, err)
	}
	view.NumBids = len(bids)

	if highest, err := s.store.HighestBid(auctionID); err == nil {
		view.CurrentPrice = highest.Amount
		view.LeaderID = highest.BidderID
		if user, err := s.users.GetUser(highest.BidderID); err == nil {
			view.LeaderUsername = user.Username
		}
	}

	view.NextValidBidAmount = view.CurrentPrice.Add(auction.MinIncrement)
	view.IsReserveMet = view.CurrentPrice.GreaterThanOrEqual(auction.ReservePrice)
	return view, nil
}

// GetBidHistory returns all bids for an auction, most recent first
func (s *AuctionService) GetBidHistory(auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.store.BidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	// ledger order is chronological; callers want newest first
	reversed := make([]model.Bid, len(bids))
	for i, b := range bids {
		reversed[len(bids)-1-i] = b
	}
	return reversed, nil
}

// GetWinningBid returns the current highest bid for an auction
func (s *AuctionService) GetWinningBid(auctionID string) (model.Bid, error) {
	if auctionID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	highest, err := s.store.HighestBid(auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return highest, nil
}

// GetAuctionsByBidder returns all auctions a user has placed bids on
func (s *AuctionService) GetAuctionsByBidder(userID string) ([]model.Auction, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	auctions, err := s.store.AuctionsByBidder(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for user %s: %w", userID, err)
	}
	return auctions, nil
}

// lockFor returns the mutex serializing bid acceptance and closing for one auction
func (s *AuctionService) lockFor(auctionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(auctionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// pendingNotification is a notification collected inside the critical
// section and delivered after it ends.
type pendingNotification struct {
	userID  string
	kind    model.NotificationKind
	payload map[string]any
}

func (s *AuctionService) deliver(events []pendingNotification) {
	for _, e := range events {
		s.sink.Notify(e.userID, e.kind, e.payload)
	}
}

// bidPlacedEvent notifies the seller of a new bid on their auction
func (s *AuctionService) bidPlacedEvent(auction model.Auction, bid model.Bid) pendingNotification {
	payload := map[string]any{
		"auction_id": auction.AuctionID,
		"amount":     bid.Amount.String(),
	}
	if user, err := s.users.GetUser(bid.BidderID); err == nil {
		payload["bidder_username"] = user.Username
	} else {
		utils.Warn("bidder profile missing for notification payload", map[string]any{
			"auction_id": auction.AuctionID,
			"bidder_id":  bid.BidderID,
		})
	}
	return pendingNotification{userID: auction.SellerID, kind: model.KindBidPlaced, payload: payload}
}

// outbidEvents notifies every past bidder except the current leader
func (s *AuctionService) outbidEvents(auction model.Auction) []pendingNotification {
	highest, err := s.store.HighestBid(auction.AuctionID)
	if err != nil {
		return nil
	}
	bids, err := s.store.BidsByAuction(auction.AuctionID)
	if err != nil {
		return nil
	}

	seen := map[string]bool{highest.BidderID: true}
	var events []pendingNotification
	for _, b := range bids {
		if seen[b.BidderID] {
			continue
		}
		seen[b.BidderID] = true
		events = append(events, pendingNotification{
			userID: b.BidderID,
			kind:   model.KindOutbid,
			payload: map[string]any{
				"auction_id":      auction.AuctionID,
				"new_highest_bid": highest.Amount.String(),
			},
		})
	}
	return events
}
