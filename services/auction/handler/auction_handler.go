package handler

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/auctionerrors"
	auction "auction-engine/internal/auctionService"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const defaultBidRetryAttempts = 3

type AuctionServiceInterface interface {
	CreateAuction(in auction.CreateAuctionInput) (model.Auction, error)
	PlaceBid(auctionID, bidderID string, amount decimal.Decimal, autoBidLimit decimal.NullDecimal) (model.Bid, error)
	GetAuctionView(auctionID string) (auction.AuctionView, error)
	GetBidHistory(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(userID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service       AuctionServiceInterface
	retryAttempts int
}

func NewAuctionHandler(service AuctionServiceInterface, retryAttempts int) *AuctionHandler {
	if retryAttempts <= 0 {
		retryAttempts = defaultBidRetryAttempts
	}
	return &AuctionHandler{service: service, retryAttempts: retryAttempts}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	initial, err := decimal.NewFromString(req.InitialPrice)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", fmt.Errorf("initial_price: %w", err))
		return
	}
	increment, err := decimal.NewFromString(req.MinIncrement)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", fmt.Errorf("min_increment: %w", err))
		return
	}
	reserve, err := decimal.NewFromString(req.ReservePrice)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", fmt.Errorf("reserve_price: %w", err))
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionInput{
		ItemID:       req.ItemID,
		SellerID:     req.SellerID,
		Title:        req.Title,
		Description:  req.Description,
		InitialPrice: initial,
		MinIncrement: increment,
		ReservePrice: reserve,
		EndTime:      req.EndTime,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"seller_id": req.SellerID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(created), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"seller_id":  created.SellerID,
	})
}

// PlaceBidHandler handles POST /bids. The validate-append sequence is retried
// a bounded number of times when a concurrent write invalidates it.
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", fmt.Errorf("amount: %w", err))
		return
	}
	var autoBidLimit decimal.NullDecimal
	if req.AutoBidLimit != "" {
		limit, err := decimal.NewFromString(req.AutoBidLimit)
		if err != nil {
			helpers.HandleBindError(c, "PlaceBidHandler", fmt.Errorf("auto_bid_limit: %w", err))
			return
		}
		autoBidLimit = decimal.NewNullDecimal(limit)
	}

	var bid model.Bid
	for attempt := 1; ; attempt++ {
		bid, err = h.service.PlaceBid(req.AuctionID, req.BidderID, amount, autoBidLimit)
		if err == nil || !errors.Is(err, auctionerrors.ErrConcurrentModification) || attempt >= h.retryAttempts {
			break
		}
		utils.Warn("PlaceBidHandler: retrying after concurrent modification", map[string]any{
			"auction_id": req.AuctionID,
			"attempt":    attempt,
		})
	}
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("PlaceBidHandler: failed to record bid", map[string]any{
			"handler":    "PlaceBidHandler",
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  req.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	view, err := h.service.GetAuctionView(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.AuctionViewResponse{
		Auction:            helpers.ToAuctionResponse(view.Auction),
		Status:             string(view.Status),
		CurrentPrice:       view.CurrentPrice.String(),
		NextValidBidAmount: view.NextValidBidAmount.String(),
		IsReserveMet:       view.IsReserveMet,
		IsEnded:            view.IsEnded,
		NumBids:            view.NumBids,
		LeaderID:           view.LeaderID,
		LeaderUsername:     view.LeaderUsername,
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction retrieved successfully")
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidHistory(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, helpers.ToBidResponse(bid))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToBidResponse(bid), "winning bid retrieved successfully")
	helpers.LogSuccess("GetWinningBidHandler", "winning bid retrieved successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetAuctionsByBidderHandler handles GET /users/:user_id/auctions
func (h *AuctionHandler) GetAuctionsByBidderHandler(c *gin.Context) {
	userID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByBidder(userID)
	if err != nil && !errors.Is(err, auctionerrors.ErrUserNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByBidderHandler: error retrieving auctions", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByBidderHandler", "auctions retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(resp),
	})
}
