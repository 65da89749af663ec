package main

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/tickethaus/raffle-backend/api/routes"
	"github.com/tickethaus/raffle-backend/internal/config"
	"github.com/tickethaus/raffle-backend/internal/handlers"
	"github.com/tickethaus/raffle-backend/internal/ledger"
	"github.com/tickethaus/raffle-backend/internal/repositories"
	"github.com/tickethaus/raffle-backend/internal/repositories/memory"
	mongorepo "github.com/tickethaus/raffle-backend/internal/repositories/mongodb"
	"github.com/tickethaus/raffle-backend/internal/services"
	"github.com/tickethaus/raffle-backend/pkg/mongodb"
	"github.com/tickethaus/raffle-backend/pkg/randoracle"
	"github.com/tickethaus/raffle-backend/pkg/tokenledger"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	// Repositories: MongoDB when configured, in-memory otherwise
	var (
		raffleRepo repositories.RaffleRecordRepository
		eventRepo  repositories.EventRepository
		adminRepo  repositories.AdminUserRepository
	)
	if cfg.MongoDB.URI != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			log.Error("failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error("error disconnecting from MongoDB", "error", err)
			}
		}()
		db := mongoClient.Database(cfg.MongoDB.Database)
		raffleRepo = mongorepo.NewRaffleRecordRepository(db)
		eventRepo = mongorepo.NewEventRepository(db)
		adminRepo = mongorepo.NewAdminUserRepository(db)
		log.Info("connected to MongoDB", "database", cfg.MongoDB.Database)
	} else {
		raffleRepo = memory.NewRaffleRecordRepository()
		eventRepo = memory.NewEventRepository()
		adminRepo = memory.NewAdminUserRepository()
		log.Warn("MongoDB.URI not set, using in-memory repositories")
	}

	// External collaborators: real HTTP clients or in-process mocks
	var tokens tokenledger.Ledger
	if cfg.TokenLedger.Mock {
		tokens = tokenledger.NewMock(cfg.TokenLedger.CustodyAccount)
		log.Warn("using mock token ledger")
	} else {
		tokens = tokenledger.NewClient(cfg.TokenLedger.BaseURL, cfg.TokenLedger.APIKey, cfg.TokenLedger.CustodyAccount)
	}

	var (
		oracle     randoracle.Oracle
		mockOracle *randoracle.Mock
	)
	if cfg.Oracle.Mock {
		mockOracle = randoracle.NewMock(0)
		oracle = mockOracle
		log.Warn("using mock randomness oracle")
	} else {
		oracle = randoracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.CallbackURL)
	}

	// Services
	raffleService := services.NewRaffleService(raffleRepo, eventRepo, log)
	raffleLedger, err := ledger.New(
		ledger.Config{
			Owner:        cfg.Raffle.Owner,
			FeeBps:       cfg.Raffle.FeeBps,
			FeeCollector: cfg.Raffle.FeeCollector,
		},
		tokens, oracle, clockwork.NewRealClock(), log, raffleService,
	)
	if err != nil {
		log.Error("failed to initialize raffle ledger", "error", err)
		os.Exit(1)
	}
	raffleService.Bind(raffleLedger)

	authService := services.NewAuthService(
		adminRepo, cfg.JWT.Secret,
		time.Duration(cfg.JWT.ExpiresIn)*time.Second, log,
	)
	if err := authService.EnsureSeedAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Error("failed to ensure seed admin", "error", err)
		os.Exit(1)
	}

	// Handlers
	deps := routes.HandlerDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		RaffleHandler: handlers.NewRaffleHandler(raffleService),
		OracleHandler: handlers.NewOracleHandler(raffleService, cfg.Oracle.CallbackSecret),
	}

	router := routes.SetupRouter(cfg, log, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// With the mock oracle nothing would ever deliver a seed, so feed pending
	// requests a locally generated one after a short delay.
	stopFulfiller := make(chan struct{})
	if mockOracle != nil {
		go runMockFulfiller(mockOracle, raffleService, log, stopFulfiller)
	}

	log.Info("server starting", "port", cfg.Server.Port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")
	close(stopFulfiller)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.RFC3339,
	}))
}

// runMockFulfiller polls the mock oracle and delivers a random seed for every
// pending request, standing in for the real oracle's asynchronous callback.
func runMockFulfiller(oracle *randoracle.Mock, svc *services.RaffleService, log *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, requestID := range oracle.PendingRequests() {
				var seed randoracle.Seed
				if _, err := rand.Read(seed[:]); err != nil {
					log.Error("failed to generate mock seed", "error", err)
					continue
				}
				err := oracle.Fulfill(requestID, seed, func(requestID, providerID string, s randoracle.Seed) error {
					return svc.HandleSeedDelivery(context.Background(), requestID, providerID, s)
				})
				if err != nil {
					log.Error("mock seed delivery failed", "requestId", requestID, "error", err)
				}
			}
		}
	}
}
