package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrUserNoBids      = errors.New("user has not placed any bids")
	ErrAuctionExists   = errors.New("auction already exists")
)

// business logic errors
var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrAuctionClosed    = errors.New("auction has ended")
	ErrSelfBid          = errors.New("seller cannot bid on own auction")
	ErrInvalidAmount    = errors.New("invalid bid amount")
	ErrInvalidAutoLimit = errors.New("auto-bid limit below bid amount")
	ErrInvalidAuction   = errors.New("invalid auction terms")
)

// ErrConcurrentModification signals a conflicting write detected inside the
// per-auction critical section; callers retry a bounded number of times.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrMissingReferencedUser is internal and defensive: logged and skipped
// during proxy resolution and notification, never surfaced to the bidder.
var ErrMissingReferencedUser = errors.New("referenced user not found")
