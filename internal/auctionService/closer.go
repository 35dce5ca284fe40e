package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"
)

// CloseDueAuctions finalizes every auction whose end time has passed: marks
// it inactive, records the winner if the reserve price was met, and notifies
// the parties. Each finalization takes the same per-auction lock as bid
// acceptance, so a last-second bid and the closer never interleave.
//
// Idempotent: auctions already closed (by an earlier sweep or a concurrent
// one) are skipped without duplicate notifications. Returns the number of
// auctions transitioned.
func (s *AuctionService) CloseDueAuctions(now time.Time) (int, error) {
	due, err := s.store.DueAuctions(now)
	if err != nil {
		return 0, fmt.Errorf("service: failed to list due auctions: %w", err)
	}

	closed := 0
	for _, candidate := range due {
		events, transitioned, err := s.closeOne(candidate.AuctionID)
		if err != nil {
			utils.Error("closer: failed to finalize auction", map[string]any{
				"auction_id": candidate.AuctionID, "error": err.Error(),
			})
			continue
		}
		if !transitioned {
			continue
		}
		closed++
		// state transition is the durable fact; notification is best-effort
		s.deliver(events)
	}
	return closed, nil
}

func (s *AuctionService) closeOne(auctionID string) ([]pendingNotification, bool, error) {
	mu := s.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return nil, false, err
	}
	if !auction.IsActive {
		return nil, false, nil
	}

	winnerID := ""
	highest, err := s.store.HighestBid(auctionID)
	switch {
	case err == nil:
		if highest.Amount.GreaterThanOrEqual(auction.ReservePrice) {
			winnerID = highest.BidderID
		}
	case errors.Is(err, auctionerrors.ErrNoBids):
		// no sale
	default:
		return nil, false, err
	}

	if err := s.store.CloseAuction(auctionID, winnerID); err != nil {
		return nil, false, err
	}

	utils.Info("auction closed", map[string]any{
		"auction_id": auctionID,
		"winner_id":  winnerID,
	})
	return s.closingEvents(auction, winnerID, highest), true, nil
}

// closingEvents builds the sale or no-sale notifications for a finalized auction
func (s *AuctionService) closingEvents(auction model.Auction, winnerID string, highest model.Bid) []pendingNotification {
	if winnerID == "" {
		return []pendingNotification{{
			userID: auction.SellerID,
			kind:   model.KindAuctionEndedNoSale,
			payload: map[string]any{
				"auction_id": auction.AuctionID,
				"title":      auction.Title,
			},
		}}
	}

	sellerPayload := map[string]any{
		"auction_id":   auction.AuctionID,
		"title":        auction.Title,
		"winner_id":    winnerID,
		"final_amount": highest.Amount.String(),
	}
	if user, err := s.users.GetUser(winnerID); err == nil {
		sellerPayload["winner_username"] = user.Username
	} else {
		utils.Warn("closer: winner profile missing for notification payload", map[string]any{
			"auction_id": auction.AuctionID, "winner_id": winnerID,
		})
	}

	return []pendingNotification{
		{
			userID: winnerID,
			kind:   model.KindAuctionWon,
			payload: map[string]any{
				"auction_id":   auction.AuctionID,
				"title":        auction.Title,
				"final_amount": highest.Amount.String(),
			},
		},
		{
			userID:  auction.SellerID,
			kind:    model.KindAuctionWon,
			payload: sellerPayload,
		},
	}
}

// Tick runs one closer sweep at the injected clock's current time. Wired to
// the cron runner; safe to also call directly.
func (s *AuctionService) Tick(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
	closed, err := s.CloseDueAuctions(s.clock.Now())
	if err != nil {
		utils.Error("closer sweep failed", map[string]any{"error": err.Error()})
		return
	}
	if closed > 0 {
		utils.Info("closer sweep finished", map[string]any{"closed": closed})
	}
}
