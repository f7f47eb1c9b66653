// tests/integration/main_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leauction/internal/auction"
	"leauction/internal/bidding"
	"leauction/internal/clock"
	"leauction/internal/identity"
	"leauction/internal/notification"
	"leauction/internal/store"
	"leauction/internal/store/memory"
	"leauction/internal/transaction"
)

type txnBridge struct {
	transaction.Service
}

type testServer struct {
	*httptest.Server
	auctions auction.Service
	clock    *clock.Fake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	data := memory.New()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	locker := store.NewKeyedMutex()
	logger := zap.NewNop()
	jwt := identity.JWT{Secret: []byte("integration-secret"), TokenTTL: time.Hour}

	notifySvc := notification.NewService(data.Notifications(), clk, logger, nil)
	identitySvc := identity.NewService(data.Users(), clk)

	bridge := &txnBridge{}
	auctionSvc := auction.NewService(data.Items(), locker, bridge, notifySvc, clk, logger)
	txnSvc := transaction.NewService(data.Transactions(), auctionSvc, locker, notifySvc, clk, logger)
	bridge.Service = txnSvc
	biddingSvc := bidding.NewService(data.Bids(), data.Items(), auctionSvc, locker, notifySvc, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Mount("/auth", identity.NewHandler(identitySvc, jwt, clk).Routes())
		r.Mount("/items", auction.NewHandler(auctionSvc, jwt).Routes())
		r.Mount("/bids", bidding.NewHandler(biddingSvc, jwt, clk).Routes())
		r.Mount("/transactions", transaction.NewHandler(txnSvc, jwt).Routes())
		r.Mount("/notifications", notification.NewHandler(notifySvc, jwt).Routes())
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auctions: auctionSvc, clock: clk}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (ts *testServer) register(t *testing.T, email, nickname string) (userID, token string) {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"nickname": nickname,
		"password": "s3cretpw",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

func TestAuctionSaleFlow(t *testing.T) {
	ts := newTestServer(t)

	_, sellerTok := ts.register(t, "seller@example.com", "seller")
	buyerID, buyerTok := ts.register(t, "buyer@example.com", "buyer")

	// Seller lists an item with a reserve the buyer will clear.
	resp, body := ts.do(t, http.MethodPost, "/api/items", sellerTok, map[string]any{
		"title":          "antique clock",
		"starting_price": "10.00",
		"reserve_price":  "20.00",
		"category":       "daily",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := body["item"].(map[string]any)
	itemID := item["id"].(string)
	assert.Equal(t, "draft", item["status"])

	// Drafts are invisible to bids until published.
	resp, _ = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, buyerTok, map[string]string{"amount": "10.00"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = ts.do(t, http.MethodPost, "/api/items/"+itemID+"/publish", sellerTok, map[string]int{"duration_hours": 24})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["item"].(map[string]any)["status"])

	// The seller may not bid on their own item.
	resp, _ = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, sellerTok, map[string]string{"amount": "10.00"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A lowball is rejected with the minimum spelled out.
	resp, body = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, buyerTok, map[string]string{"amount": "9.00"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotEmpty(t, body["errors"])

	resp, _ = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, buyerTok, map[string]string{"amount": "25.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The buyer sees reserve_met, never the reserve price itself.
	resp, body = ts.do(t, http.MethodGet, "/api/items/"+itemID, buyerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := body["item"].(map[string]any)
	assert.Equal(t, true, view["reserve_met"])
	assert.Nil(t, view["reserve_price"])

	// Expiry settles the auction.
	ts.clock.Advance(25 * time.Hour)
	finalized, err := ts.auctions.TickExpiry(context.Background(), ts.clock.Now())
	require.NoError(t, err)
	require.Len(t, finalized, 1)

	resp, body = ts.do(t, http.MethodGet, "/api/items/"+itemID, buyerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	won := body["item"].(map[string]any)
	assert.Equal(t, "ended_won", won["status"])
	assert.Equal(t, buyerID, won["winner_id"])

	// Both parties confirm the transaction to complete the sale.
	resp, body = ts.do(t, http.MethodGet, "/api/transactions/item/"+itemID, sellerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	txnID := body["transaction"].(map[string]any)["id"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/transactions/"+txnID+"/confirm", sellerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = ts.do(t, http.MethodPost, "/api/transactions/"+txnID+"/confirm", buyerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	done := body["transaction"].(map[string]any)
	assert.Equal(t, true, done["seller_confirmed"])
	assert.Equal(t, true, done["buyer_confirmed"])
	require.NotNil(t, done["completed_at"])

	resp, body = ts.do(t, http.MethodGet, "/api/items/"+itemID, buyerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["item"].(map[string]any)["status"])

	// The winner's inbox saw the whole story.
	resp, body = ts.do(t, http.MethodGet, "/api/notifications/", buyerTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	types := map[string]bool{}
	for _, raw := range body["notifications"].([]any) {
		types[raw.(map[string]any)["type"].(string)] = true
	}
	assert.True(t, types["auction_won"])
	assert.True(t, types["transaction_confirmed"])
}

func TestBuyoutFlow(t *testing.T) {
	ts := newTestServer(t)

	_, sellerTok := ts.register(t, "seller@example.com", "seller")
	buyerID, buyerTok := ts.register(t, "buyer@example.com", "buyer")

	resp, body := ts.do(t, http.MethodPost, "/api/items", sellerTok, map[string]any{
		"title":          "gaming laptop",
		"starting_price": "100.00",
		"buyout_price":   "500.00",
		"category":       "electronics",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	itemID := body["item"].(map[string]any)["id"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/items/"+itemID+"/publish", sellerTok, map[string]int{"duration_days": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Overshooting the buyout wins at the full amount.
	resp, body = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, buyerTok, map[string]string{"amount": "600.00"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := body["item"].(map[string]any)
	assert.Equal(t, "ended_won", item["status"])
	assert.Equal(t, buyerID, item["winner_id"])
	assert.Equal(t, "600", item["current_price"])

	// The ledger rejects further bids.
	_, otherTok := ts.register(t, "late@example.com", "late")
	resp, _ = ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, otherTok, map[string]string{"amount": "700.00"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestConcurrentBiddersOneWinner(t *testing.T) {
	ts := newTestServer(t)

	_, sellerTok := ts.register(t, "seller@example.com", "seller")

	resp, body := ts.do(t, http.MethodPost, "/api/items", sellerTok, map[string]any{
		"title":          "limited print",
		"starting_price": "10.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	itemID := body["item"].(map[string]any)["id"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/items/"+itemID+"/publish", sellerTok, map[string]int{"duration_hours": 24})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	const bidders = 10
	tokens := make([]string, bidders)
	for i := range tokens {
		_, tokens[i] = ts.register(t, fmt.Sprintf("bidder%d@example.com", i), fmt.Sprintf("bidder%d", i))
	}

	// Everyone offers the same amount; exactly one bid can be accepted.
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for _, token := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			resp, _ := ts.do(t, http.MethodPost, "/api/bids/item/"+itemID, tok, map[string]string{"amount": "10.00"})
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(token)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted, "only one identical bid should be accepted")

	resp, body = ts.do(t, http.MethodGet, "/api/bids/item/"+itemID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["bids"].([]any), 1)
}
