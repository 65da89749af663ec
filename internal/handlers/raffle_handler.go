package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tickethaus/raffle-backend/internal/ledger"
	"github.com/tickethaus/raffle-backend/internal/services"
)

// RaffleHandler handles raffle-related HTTP requests
type RaffleHandler struct {
	raffleService *services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService *services.RaffleService) *RaffleHandler {
	return &RaffleHandler{
		raffleService: raffleService,
	}
}

// statusForError maps ledger sentinel errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrRaffleNotFound),
		errors.Is(err, ledger.ErrUnknownRequest),
		errors.Is(err, ledger.ErrPoolIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrZeroAddress),
		errors.Is(err, ledger.ErrZeroQuantity),
		errors.Is(err, ledger.ErrInvalidDistribution),
		errors.Is(err, ledger.ErrInvalidFee),
		errors.Is(err, ledger.ErrArithmeticOverflow):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrOperationInProgress):
		return http.StatusTooManyRequests
	case errors.Is(err, ledger.ErrRaffleNotActive),
		errors.Is(err, ledger.ErrRaffleNotEnded),
		errors.Is(err, ledger.ErrRaffleAlreadyFinalized),
		errors.Is(err, ledger.ErrRaffleNotFinalized),
		errors.Is(err, ledger.ErrRaffleIsNull),
		errors.Is(err, ledger.ErrRaffleNotNull),
		errors.Is(err, ledger.ErrInsufficientTickets),
		errors.Is(err, ledger.ErrTicketNotOwned),
		errors.Is(err, ledger.ErrTicketAlreadyRefunded),
		errors.Is(err, ledger.ErrAlreadyClaimed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func raffleIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle ID"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// CreateRaffleRequest is the JSON body for POST /raffles
type CreateRaffleRequest struct {
	Creator            string             `json:"creator" binding:"required"`
	TotalTickets       uint32             `json:"totalTickets" binding:"required"`
	TicketToken        string             `json:"ticketToken" binding:"required"`
	TicketPrice        uint64             `json:"ticketPrice"`
	Distribution       []ledger.PrizePool `json:"distribution" binding:"required"`
	DurationSeconds    uint64             `json:"durationSeconds" binding:"required"`
	MinTicketsRequired uint32             `json:"minTicketsRequired"`
}

// CreateRaffle handles POST /raffles
func (h *RaffleHandler) CreateRaffle(c *gin.Context) {
	var req CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raffle, err := h.raffleService.CreateRaffle(c.Request.Context(), req.Creator, ledger.CreateParams{
		TotalTickets:       req.TotalTickets,
		TicketToken:        req.TicketToken,
		TicketPrice:        req.TicketPrice,
		Distribution:       req.Distribution,
		Duration:           time.Duration(req.DurationSeconds) * time.Second,
		MinTicketsRequired: req.MinTicketsRequired,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// GetRaffle handles GET /raffles/:id
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// ListRaffles handles GET /raffles
func (h *RaffleHandler) ListRaffles(c *gin.Context) {
	page, limit := pagination(c)
	raffles, err := h.raffleService.ListRaffles(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffles": raffles, "page": page, "limit": limit})
}

// BuyTicketsRequest is the JSON body for POST /raffles/:id/tickets
type BuyTicketsRequest struct {
	Buyer    string `json:"buyer" binding:"required"`
	Quantity uint32 `json:"quantity" binding:"required"`
}

// BuyTickets handles POST /raffles/:id/tickets
func (h *RaffleHandler) BuyTickets(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	var req BuyTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticketIDs, err := h.raffleService.BuyTickets(c.Request.Context(), id, req.Buyer, req.Quantity)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticketIds": ticketIDs})
}

// RefundTicketRequest is the JSON body for POST /raffles/:id/tickets/:ticketId/refund
type RefundTicketRequest struct {
	Account string `json:"account" binding:"required"`
}

// RefundTicket handles POST /raffles/:id/tickets/:ticketId/refund
func (h *RaffleHandler) RefundTicket(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	ticketID, err := strconv.ParseUint(c.Param("ticketId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket ID"})
		return
	}
	var req RefundTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.raffleService.RefundTicket(c.Request.Context(), id, req.Account, uint32(ticketID)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ticket refunded"})
}

// FinalizeRaffle handles POST /raffles/:id/finalize
func (h *RaffleHandler) FinalizeRaffle(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	raffle, err := h.raffleService.FinalizeRaffle(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// ClaimRequest is the JSON body for prize and refund claims
type ClaimRequest struct {
	Account string `json:"account" binding:"required"`
}

// ClaimPrize handles POST /raffles/:id/claims/prize
func (h *RaffleHandler) ClaimPrize(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.raffleService.ClaimPrize(c.Request.Context(), id, req.Account)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

// ClaimRefund handles POST /raffles/:id/claims/refund
func (h *RaffleHandler) ClaimRefund(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := h.raffleService.ClaimRefund(c.Request.Context(), id, req.Account)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

// GetUserTickets handles GET /raffles/:id/accounts/:account/tickets
func (h *RaffleHandler) GetUserTickets(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	tickets, err := h.raffleService.UserTickets(c.Request.Context(), id, c.Param("account"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GetClaimStatus handles GET /raffles/:id/accounts/:account/claimed
func (h *RaffleHandler) GetClaimStatus(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	claimed, err := h.raffleService.HasClaimed(c.Request.Context(), id, c.Param("account"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": claimed})
}

// GetWinningTickets handles GET /raffles/:id/pools/:poolIndex/winners
func (h *RaffleHandler) GetWinningTickets(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	poolIndex, err := strconv.Atoi(c.Param("poolIndex"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pool index"})
		return
	}
	winners, err := h.raffleService.WinningTickets(c.Request.Context(), id, poolIndex)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winningTickets": winners})
}

// GetEvents handles GET /raffles/:id/events
func (h *RaffleHandler) GetEvents(c *gin.Context) {
	id, ok := raffleIDParam(c)
	if !ok {
		return
	}
	page, limit := pagination(c)
	events, err := h.raffleService.GetEvents(c.Request.Context(), id, page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "page": page, "limit": limit})
}

// GetAccountEvents handles GET /accounts/:account/events
func (h *RaffleHandler) GetAccountEvents(c *gin.Context) {
	page, limit := pagination(c)
	events, err := h.raffleService.GetAccountEvents(c.Request.Context(), c.Param("account"), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "page": page, "limit": limit})
}

// GetEventsByType handles GET /events?type=...
func (h *RaffleHandler) GetEventsByType(c *gin.Context) {
	eventType := c.Query("type")
	if eventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type query parameter is required"})
		return
	}
	page, limit := pagination(c)
	events, err := h.raffleService.GetEventsByType(c.Request.Context(), eventType, page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "page": page, "limit": limit})
}

// GetOracleFee handles GET /oracle/fee
func (h *RaffleHandler) GetOracleFee(c *gin.Context) {
	fee, err := h.raffleService.OracleFee(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee": fee})
}

// FeeConfigRequest is the JSON body for fee administration
type FeeConfigRequest struct {
	Caller       string  `json:"caller" binding:"required"`
	FeeBps       *uint64 `json:"feeBps"`
	FeeCollector string  `json:"feeCollector"`
}

// UpdateFeeConfig handles PUT /admin/fees
func (h *RaffleHandler) UpdateFeeConfig(c *gin.Context) {
	var req FeeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.FeeCollector != "" {
		if err := h.raffleService.SetFeeCollector(req.Caller, req.FeeCollector); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.FeeBps != nil {
		if err := h.raffleService.SetFeeBps(req.Caller, *req.FeeBps); err != nil {
			abortWithError(c, err)
			return
		}
	}

	bps, collector := h.raffleService.FeeConfig()
	c.JSON(http.StatusOK, gin.H{"feeBps": bps, "feeCollector": collector})
}

// GetFeeConfig handles GET /admin/fees
func (h *RaffleHandler) GetFeeConfig(c *gin.Context) {
	bps, collector := h.raffleService.FeeConfig()
	c.JSON(http.StatusOK, gin.H{"feeBps": bps, "feeCollector": collector})
}
