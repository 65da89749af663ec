package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickethaus/raffle-backend/internal/ledger"
	"github.com/tickethaus/raffle-backend/internal/repositories/memory"
	"github.com/tickethaus/raffle-backend/internal/services"
	"github.com/tickethaus/raffle-backend/pkg/randoracle"
	"github.com/tickethaus/raffle-backend/pkg/tokenledger"
)

const callbackSecret = "hook-secret"

type handlerEnv struct {
	router  *gin.Engine
	service *services.RaffleService
	tokens  *tokenledger.Mock
	oracle  *randoracle.Mock
	clock   *clockwork.FakeClock
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &handlerEnv{
		tokens: tokenledger.NewMock("custody"),
		oracle: randoracle.NewMock(0),
		clock:  clockwork.NewFakeClock(),
	}
	env.service = services.NewRaffleService(
		memory.NewRaffleRecordRepository(), memory.NewEventRepository(), nil)
	l, err := ledger.New(
		ledger.Config{Owner: "admin", FeeBps: 250, FeeCollector: "treasury"},
		env.tokens, env.oracle, env.clock, nil, env.service,
	)
	require.NoError(t, err)
	env.service.Bind(l)

	raffleHandler := NewRaffleHandler(env.service)
	oracleHandler := NewOracleHandler(env.service, callbackSecret)

	router := gin.New()
	router.POST("/raffles", raffleHandler.CreateRaffle)
	router.GET("/raffles/:id", raffleHandler.GetRaffle)
	router.POST("/raffles/:id/tickets", raffleHandler.BuyTickets)
	router.POST("/raffles/:id/finalize", raffleHandler.FinalizeRaffle)
	router.POST("/raffles/:id/claims/prize", raffleHandler.ClaimPrize)
	router.POST("/oracle/callback", oracleHandler.HandleSeedCallback)
	env.router = router
	return env
}

func (e *handlerEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createTestRaffle(t *testing.T, env *handlerEnv) uint64 {
	t.Helper()
	w := env.do(t, http.MethodPost, "/raffles", gin.H{
		"creator":      "creator",
		"totalTickets": 10,
		"ticketToken":  "RAFT",
		"ticketPrice":  5,
		"distribution": []gin.H{
			{"fundPercentage": 100, "ticketQuantity": 10},
		},
		"durationSeconds": 3600,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var raffle ledger.Raffle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raffle))
	return raffle.ID
}

func TestRaffleEndpoints_PurchaseFlow(t *testing.T) {
	env := newHandlerEnv(t)
	id := createTestRaffle(t, env)
	env.tokens.Credit("RAFT", "alice", 100)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/raffles/%d/tickets", id), gin.H{
		"buyer": "alice", "quantity": 3,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		TicketIDs []uint32 `json:"ticketIds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []uint32{0, 1, 2}, resp.TicketIDs)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/raffles/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var raffle ledger.Raffle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raffle))
	assert.Equal(t, uint32(3), raffle.TotalSold)
}

func TestRaffleEndpoints_ErrorMapping(t *testing.T) {
	env := newHandlerEnv(t)
	id := createTestRaffle(t, env)

	t.Run("unknown raffle is 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/raffles/999", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("overselling is 409", func(t *testing.T) {
		env.tokens.Credit("RAFT", "bob", 1000)
		w := env.do(t, http.MethodPost, fmt.Sprintf("/raffles/%d/tickets", id), gin.H{
			"buyer": "bob", "quantity": 50,
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("early finalize is 409", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/raffles/%d/finalize", id), nil, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOracleCallback(t *testing.T) {
	env := newHandlerEnv(t)
	id := createTestRaffle(t, env)
	env.tokens.Credit("RAFT", "alice", 100)
	_, err := env.service.BuyTickets(context.Background(), id, "alice", 10)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = env.service.FinalizeRaffle(context.Background(), id)
	require.NoError(t, err)

	requests := env.oracle.PendingRequests()
	require.Len(t, requests, 1)
	seed := randoracle.SeedFromString("callback")
	body := gin.H{
		"requestId":  requests[0],
		"providerId": "test-provider",
		"seed":       hex.EncodeToString(seed[:]),
	}

	t.Run("missing secret rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/oracle/callback", body, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad seed encoding rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/oracle/callback", gin.H{
			"requestId": requests[0], "seed": "not-hex",
		}, map[string]string{"X-Oracle-Secret": callbackSecret})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid delivery finalizes the raffle", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/oracle/callback", body,
			map[string]string{"X-Oracle-Secret": callbackSecret})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		raffle, err := env.service.GetRaffle(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusFinalized, raffle.Status)
	})

	t.Run("replayed delivery is 404", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/oracle/callback", body,
			map[string]string{"X-Oracle-Secret": callbackSecret})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
