package handlers

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tickethaus/raffle-backend/internal/ledger"
	"github.com/tickethaus/raffle-backend/internal/services"
	"github.com/tickethaus/raffle-backend/pkg/randoracle"
)

// OracleHandler receives randomness delivery callbacks from the oracle
// service. The endpoint is authenticated by a shared secret header rather
// than operator JWTs, since the caller is a machine.
type OracleHandler struct {
	raffleService  *services.RaffleService
	callbackSecret string
}

// NewOracleHandler creates a new OracleHandler
func NewOracleHandler(raffleService *services.RaffleService, callbackSecret string) *OracleHandler {
	return &OracleHandler{
		raffleService:  raffleService,
		callbackSecret: callbackSecret,
	}
}

// SeedCallbackRequest is the JSON body the oracle posts on delivery
type SeedCallbackRequest struct {
	RequestID  string `json:"requestId" binding:"required"`
	ProviderID string `json:"providerId"`
	Seed       string `json:"seed" binding:"required"` // 32 bytes, hex encoded
}

// HandleSeedCallback handles POST /oracle/callback
func (h *OracleHandler) HandleSeedCallback(c *gin.Context) {
	secret := c.GetHeader("X-Oracle-Secret")
	if h.callbackSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.callbackSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid callback secret"})
		return
	}

	var req SeedCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := hex.DecodeString(req.Seed)
	if err != nil || len(raw) != randoracle.SeedSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seed must be 32 hex-encoded bytes"})
		return
	}
	var seed ledger.Seed
	copy(seed[:], raw)

	if err := h.raffleService.HandleSeedDelivery(c.Request.Context(), req.RequestID, req.ProviderID, seed); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Seed accepted"})
}
