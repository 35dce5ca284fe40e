package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusConflict, "auction has ended"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusForbidden, "seller cannot bid on own auction"
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid bid amount"
	case errors.Is(err, auctionerrors.ErrInvalidAutoLimit):
		return http.StatusBadRequest, "auto-bid limit must be at least the bid amount"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction terms"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrConcurrentModification):
		return http.StatusConflict, "auction state changed, please retry"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrUserNoBids):
		return http.StatusOK, "no auctions found for user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// ToBidResponse converts a bid to its wire representation
func ToBidResponse(bid model.Bid) BidResponse {
	resp := BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount.String(),
		IsAutoBid: bid.IsAutoBid,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
	if bid.AutoBidLimit.Valid {
		resp.AutoBidLimit = bid.AutoBidLimit.Decimal.String()
	}
	return resp
}

// ToAuctionResponse converts an auction to its wire representation.
// The reserve price is deliberately absent.
func ToAuctionResponse(auction model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:    auction.AuctionID,
		ItemID:       auction.ItemID,
		SellerID:     auction.SellerID,
		Title:        auction.Title,
		Description:  auction.Description,
		InitialPrice: auction.InitialPrice.String(),
		MinIncrement: auction.MinIncrement.String(),
		StartTime:    auction.StartTime.UTC().Format(time.RFC3339),
		EndTime:      auction.EndTime.UTC().Format(time.RFC3339),
		IsActive:     auction.IsActive,
		WinnerID:     auction.WinnerID,
	}
}
