package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/tickethaus/raffle-backend/internal/config"
	"github.com/tickethaus/raffle-backend/internal/handlers"
	"github.com/tickethaus/raffle-backend/internal/middleware"
)

// HandlerDependencies carries the handlers the router wires up
type HandlerDependencies struct {
	AuthHandler   *handlers.AuthHandler
	RaffleHandler *handlers.RaffleHandler
	OracleHandler *handlers.OracleHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, log *slog.Logger, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		// Auth routes
		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}

		// Raffle routes. Participant operations carry their account in the
		// body; authorization against that account is the token ledger's
		// concern, not this API's.
		raffles := public.Group("/raffles")
		{
			raffles.GET("", deps.RaffleHandler.ListRaffles)
			raffles.GET("/:id", deps.RaffleHandler.GetRaffle)
			raffles.GET("/:id/events", deps.RaffleHandler.GetEvents)
			raffles.GET("/:id/accounts/:account/tickets", deps.RaffleHandler.GetUserTickets)
			raffles.GET("/:id/accounts/:account/claimed", deps.RaffleHandler.GetClaimStatus)
			raffles.GET("/:id/pools/:poolIndex/winners", deps.RaffleHandler.GetWinningTickets)
			raffles.POST("/:id/tickets", deps.RaffleHandler.BuyTickets)
			raffles.POST("/:id/tickets/:ticketId/refund", deps.RaffleHandler.RefundTicket)
			raffles.POST("/:id/finalize", deps.RaffleHandler.FinalizeRaffle)
			raffles.POST("/:id/claims/prize", deps.RaffleHandler.ClaimPrize)
			raffles.POST("/:id/claims/refund", deps.RaffleHandler.ClaimRefund)
		}

		public.GET("/events", deps.RaffleHandler.GetEventsByType)
		public.GET("/accounts/:account/events", deps.RaffleHandler.GetAccountEvents)

		// Oracle callback, authenticated by shared secret inside the handler
		public.POST("/oracle/callback", deps.OracleHandler.HandleSeedCallback)
		public.GET("/oracle/fee", deps.RaffleHandler.GetOracleFee)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		// Raffle creation and fee administration are operator actions
		protected.POST("/raffles", deps.RaffleHandler.CreateRaffle)

		admin := protected.Group("/admin")
		{
			admin.GET("/fees", deps.RaffleHandler.GetFeeConfig)
			admin.PUT("/fees", deps.RaffleHandler.UpdateFeeConfig)
		}
	}

	return router
}
