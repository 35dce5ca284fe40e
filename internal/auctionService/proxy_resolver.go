package auction

import (
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// resolveProxyBids escalates standing auto-bid commitments until no further
// escalation is possible - a bounded fixed-point iteration equivalent to an
// ascending second-price auction among the recorded proxy limits.
//
// Each round picks the auto-bidder with the greatest effective limit who is
// not already leading, and bids for them the smallest amount that beats both
// the standing highest bid and every competing limit:
//
//	target = min(top.limit, max(secondLimit, highest) + minIncrement)
//
// where secondLimit is the greatest effective limit held by anyone other
// than top, the current leader's included. The strict target > highest check
// makes equal limits a fixed point: the earlier commitment keeps the lead.
//
// Runs inside the caller's per-auction critical section. Returns the
// notifications to deliver once the section ends; never returns a
// user-facing error. Bidders whose accounts no longer exist are logged and
// treated as holding no commitment.
func (s *AuctionService) resolveProxyBids(auction model.Auction) []pendingNotification {
	var events []pendingNotification
	missing := make(map[string]bool)

	for round := 0; round < s.maxProxyRounds; round++ {
		highest, err := s.store.HighestBid(auction.AuctionID)
		if err != nil {
			utils.Error("proxy resolution: failed to read highest bid", map[string]any{
				"auction_id": auction.AuctionID, "error": err.Error(),
			})
			return events
		}

		autoBidders, err := s.store.EffectiveAutoBidders(auction.AuctionID)
		if err != nil {
			utils.Error("proxy resolution: failed to read auto-bidders", map[string]any{
				"auction_id": auction.AuctionID, "error": err.Error(),
			})
			return events
		}

		top, ok := s.topChallenger(autoBidders, highest.BidderID, missing)
		if !ok {
			return events
		}

		target := escalationTarget(top, secondLimit(autoBidders, top.BidderID, missing), highest.Amount, auction.MinIncrement)
		if !target.GreaterThan(highest.Amount) {
			// fixed point: the top challenger cannot beat the standing bid
			return events
		}

		synthetic := model.Bid{
			BidID:        utils.GenerateID(),
			AuctionID:    auction.AuctionID,
			BidderID:     top.BidderID,
			Amount:       target,
			AutoBidLimit: decimal.NewNullDecimal(top.Limit),
			IsAutoBid:    true,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.store.AppendBid(synthetic); err != nil {
			utils.Error("proxy resolution: failed to append synthetic bid", map[string]any{
				"auction_id": auction.AuctionID, "bidder_id": top.BidderID, "error": err.Error(),
			})
			return events
		}

		events = append(events, s.bidPlacedEvent(auction, synthetic))
		events = append(events, pendingNotification{
			userID: top.BidderID,
			kind:   model.KindAutoBidPlaced,
			payload: map[string]any{
				"auction_id": auction.AuctionID,
				"amount":     target.String(),
			},
		})
		if target.Equal(top.Limit) {
			events = append(events, pendingNotification{
				userID: top.BidderID,
				kind:   model.KindAutoBidLimitReached,
				payload: map[string]any{
					"auction_id": auction.AuctionID,
					"limit":      top.Limit.String(),
				},
			})
		}
	}

	utils.Warn("proxy resolution stopped at round cap", map[string]any{
		"auction_id": auction.AuctionID, "rounds": s.maxProxyRounds,
	})
	return events
}

// topChallenger picks the highest-limit auto-bidder who is not the current
// leader. autoBidders is ordered by limit descending, earliest bid first on
// ties, so the earlier of two equal commitments is always preferred.
// Commitments from deleted accounts are skipped, not fatal.
func (s *AuctionService) topChallenger(autoBidders []model.AutoBidder, leaderID string, missing map[string]bool) (model.AutoBidder, bool) {
	for _, ab := range autoBidders {
		if ab.BidderID == leaderID || missing[ab.BidderID] {
			continue
		}
		if _, err := s.users.GetUser(ab.BidderID); err != nil {
			utils.Warn("proxy resolution: skipping auto-bidder with missing account", map[string]any{
				"bidder_id": ab.BidderID, "error": err.Error(),
			})
			missing[ab.BidderID] = true
			continue
		}
		return ab, true
	}
	return model.AutoBidder{}, false
}

// secondLimit is the greatest effective limit held by anyone other than top.
// The current leader's commitment counts here: the winner must pay enough to
// beat every competing limit, not just the challengers'.
func secondLimit(autoBidders []model.AutoBidder, topBidderID string, missing map[string]bool) decimal.Decimal {
	for _, ab := range autoBidders {
		if ab.BidderID == topBidderID || missing[ab.BidderID] {
			continue
		}
		return ab.Limit
	}
	return decimal.Zero
}

func escalationTarget(top model.AutoBidder, second, highest, minIncrement decimal.Decimal) decimal.Decimal {
	base := highest
	if second.GreaterThan(base) {
		base = second
	}
	target := base.Add(minIncrement)
	if target.GreaterThan(top.Limit) {
		target = top.Limit
	}
	return target
}
