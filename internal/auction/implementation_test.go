// internal/auction/implementation_test.go
package auction_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leauction/internal/auction"
	"leauction/internal/bidding"
	"leauction/internal/clock"
	"leauction/internal/store"
	"leauction/internal/store/memory"
)

type emitted struct {
	UserID uuid.UUID
	Type   string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeNotifier) Emit(userID uuid.UUID, ntype, title, content string, relatedItemID *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{UserID: userID, Type: ntype})
}

func (f *fakeNotifier) byType(ntype string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.Type == ntype {
			out = append(out, e)
		}
	}
	return out
}

type saleRecord struct {
	ItemID  uuid.UUID
	BuyerID uuid.UUID
	Price   decimal.Decimal
}

type fakeTxns struct {
	mu    sync.Mutex
	sales []saleRecord
	fail  error
}

func (f *fakeTxns) CreateForSale(ctx context.Context, itemID, sellerID, buyerID uuid.UUID, finalPrice decimal.Decimal, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sales = append(f.sales, saleRecord{ItemID: itemID, BuyerID: buyerID, Price: finalPrice})
	return nil
}

type env struct {
	svc      auction.Service
	store    *memory.Store
	notifier *fakeNotifier
	txns     *fakeTxns
	clock    *clock.Fake
	sellerID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    memory.New(),
		notifier: &fakeNotifier{},
		txns:     &fakeTxns{},
		clock:    clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		sellerID: uuid.New(),
	}
	e.svc = auction.NewService(e.store.Items(), store.NewKeyedMutex(), e.txns, e.notifier, e.clock, zap.NewNop())
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *env) createItem(t *testing.T, in auction.CreateInput) *auction.Item {
	t.Helper()
	if in.Title == "" {
		in.Title = "vintage camera"
	}
	if in.StartingPrice.IsZero() {
		in.StartingPrice = dec("10.00")
	}
	item, err := e.svc.Create(context.Background(), e.sellerID, in)
	require.NoError(t, err)
	return item
}

func (e *env) publish(t *testing.T, id uuid.UUID, hours int) *auction.Item {
	t.Helper()
	item, err := e.svc.Publish(context.Background(), id, e.sellerID, hours)
	require.NoError(t, err)
	return item
}

// placeBid applies a bid directly to the ledger, bypassing the bidding
// protocol, for tests that only exercise finalization.
func (e *env) placeBid(t *testing.T, itemID, bidderID uuid.UUID, amount decimal.Decimal) {
	t.Helper()
	ctx := context.Background()
	item, err := e.store.Items().GetItem(ctx, itemID)
	require.NoError(t, err)

	bid := &bidding.Bid{
		ID:        uuid.New(),
		ItemID:    itemID,
		BidderID:  bidderID,
		Amount:    amount,
		Seq:       item.BidCount + 1,
		CreatedAt: e.clock.Now(),
	}
	item.CurrentPrice = amount
	item.BidCount++
	require.NoError(t, e.store.Bids().ApplyBid(ctx, item, bid))
}

func TestCreateDefaults(t *testing.T) {
	e := newEnv(t)

	item := e.createItem(t, auction.CreateInput{})

	assert.Equal(t, auction.StatusDraft, item.Status)
	assert.Equal(t, "other", item.Category)
	assert.Equal(t, "new", item.Condition)
	assert.True(t, item.Increment.Equal(dec("1")))
	assert.True(t, item.CurrentPrice.Equal(item.StartingPrice))
	assert.Zero(t, item.BidCount)
	assert.Nil(t, item.StartTime)
	assert.Nil(t, item.EndTime)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	reserve := dec("0.0001")

	_, err := e.svc.Create(context.Background(), e.sellerID, auction.CreateInput{
		Title:         "x",
		StartingPrice: dec("0.001"),
		ReservePrice:  &reserve,
		Category:      "spaceships",
	})

	var verr *auction.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 4)
}

func TestBuyoutMustExceedStartingPrice(t *testing.T) {
	e := newEnv(t)
	buyout := dec("10.00")

	_, err := e.svc.Create(context.Background(), e.sellerID, auction.CreateInput{
		Title:         "vintage camera",
		StartingPrice: dec("10.00"),
		BuyoutPrice:   &buyout,
	})

	var verr *auction.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestPublishSetsWindow(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})

	published := e.publish(t, item.ID, 24)

	assert.Equal(t, auction.StatusActive, published.Status)
	require.NotNil(t, published.StartTime)
	require.NotNil(t, published.EndTime)
	assert.Equal(t, e.clock.Now(), *published.StartTime)
	assert.Equal(t, e.clock.Now().Add(24*time.Hour), *published.EndTime)
}

func TestPublishRejectsBadDuration(t *testing.T) {
	e := newEnv(t)

	for _, hours := range []int{0, -5, 169} {
		item := e.createItem(t, auction.CreateInput{})
		_, err := e.svc.Publish(context.Background(), item.ID, e.sellerID, hours)
		assert.ErrorIs(t, err, auction.ErrInvalidDuration, "hours=%d", hours)
	}
}

func TestPublishDraftOnly(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)

	_, err := e.svc.Publish(context.Background(), item.ID, e.sellerID, 24)
	assert.ErrorIs(t, err, auction.ErrInvalidState)
}

func TestPublishSellerOnly(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})

	_, err := e.svc.Publish(context.Background(), item.ID, uuid.New(), 24)
	assert.ErrorIs(t, err, auction.ErrForbidden)
}

func TestUpdateDraftOnly(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)

	title := "renamed"
	_, err := e.svc.Update(context.Background(), item.ID, e.sellerID, auction.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, auction.ErrInvalidState)
}

func TestUpdateResetsCurrentPrice(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})

	newStart := dec("25.00")
	updated, err := e.svc.Update(context.Background(), item.ID, e.sellerID, auction.UpdateInput{
		StartingPrice: &newStart,
	})
	require.NoError(t, err)
	assert.True(t, updated.CurrentPrice.Equal(newStart))
}

func TestCancelWithoutBids(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)

	cancelled, err := e.svc.Cancel(context.Background(), item.ID, e.sellerID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusCancelled, cancelled.Status)
}

func TestCancelBlockedByBids(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)
	e.placeBid(t, item.ID, uuid.New(), dec("10.00"))

	_, err := e.svc.Cancel(context.Background(), item.ID, e.sellerID)
	assert.ErrorIs(t, err, auction.ErrCannotCancel)
}

func TestDeleteDraftOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	draft := e.createItem(t, auction.CreateInput{})
	require.NoError(t, e.svc.Delete(ctx, draft.ID, e.sellerID))
	_, err := e.svc.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, auction.ErrNotFound)

	active := e.createItem(t, auction.CreateInput{})
	e.publish(t, active.ID, 24)
	assert.ErrorIs(t, e.svc.Delete(ctx, active.ID, e.sellerID), auction.ErrInvalidState)
}

func TestFinalizeWithoutBids(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)
	e.clock.Advance(2 * time.Hour)

	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, settled)

	got, err := e.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusEndedUnsold, got.Status)
	assert.Nil(t, got.WinnerID)

	unsold := e.notifier.byType("auction_unsold")
	require.Len(t, unsold, 1)
	assert.Equal(t, e.sellerID, unsold[0].UserID)
	assert.Empty(t, e.txns.sales)
}

func TestFinalizeSold(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)

	bidder := uuid.New()
	e.placeBid(t, item.ID, bidder, dec("12.00"))
	e.clock.Advance(2 * time.Hour)

	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, settled)

	got, err := e.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusEndedWon, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, bidder, *got.WinnerID)

	require.Len(t, e.txns.sales, 1)
	assert.Equal(t, bidder, e.txns.sales[0].BuyerID)
	assert.True(t, e.txns.sales[0].Price.Equal(dec("12.00")))

	assert.Len(t, e.notifier.byType("auction_won"), 1)
	assert.Len(t, e.notifier.byType("auction_sold"), 1)
}

func TestFinalizeReserveNotMet(t *testing.T) {
	e := newEnv(t)
	reserve := dec("100.00")
	item := e.createItem(t, auction.CreateInput{ReservePrice: &reserve})
	e.publish(t, item.ID, 1)

	low, high := uuid.New(), uuid.New()
	e.placeBid(t, item.ID, low, dec("11.00"))
	e.placeBid(t, item.ID, high, dec("50.00"))
	e.clock.Advance(2 * time.Hour)

	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, settled)

	got, err := e.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusEndedUnsold, got.Status)
	assert.Nil(t, got.WinnerID)
	assert.Empty(t, e.txns.sales)

	// Only the seller and the highest bidder hear about it.
	notices := e.notifier.byType("reserve_not_met")
	require.Len(t, notices, 2)
	recipients := map[uuid.UUID]bool{notices[0].UserID: true, notices[1].UserID: true}
	assert.True(t, recipients[e.sellerID])
	assert.True(t, recipients[high])
	assert.False(t, recipients[low])
}

func TestFinalizeIdempotent(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)
	e.clock.Advance(2 * time.Hour)

	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, settled)

	settled, err = e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.False(t, settled)
	assert.Len(t, e.notifier.byType("auction_unsold"), 1)
}

func TestFinalizeNotDueIsNoOp(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)

	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.False(t, settled)
}

func TestFinalizeRetriesAfterTransactionFailure(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)
	e.placeBid(t, item.ID, uuid.New(), dec("15.00"))
	e.clock.Advance(2 * time.Hour)

	e.txns.fail = fmt.Errorf("write failed")
	_, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.Error(t, err)

	// The item stays active so the next tick can settle it.
	got, err := e.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusActive, got.Status)

	e.txns.fail = nil
	settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestMarkCompleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)
	e.placeBid(t, item.ID, uuid.New(), dec("20.00"))
	e.clock.Advance(2 * time.Hour)
	_, err := e.svc.Finalize(ctx, item.ID, e.clock.Now())
	require.NoError(t, err)

	require.NoError(t, e.svc.MarkCompleted(ctx, item.ID))
	got, err := e.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusCompleted, got.Status)

	// Completing twice is a no-op.
	require.NoError(t, e.svc.MarkCompleted(ctx, item.ID))
}

func TestMarkCompletedRequiresWonItem(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 24)

	err := e.svc.MarkCompleted(context.Background(), item.ID)
	assert.ErrorIs(t, err, auction.ErrInvalidState)
}

func TestTickExpiryEndingSoonOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)

	a, b := uuid.New(), uuid.New()
	e.placeBid(t, item.ID, a, dec("10.00"))
	e.placeBid(t, item.ID, b, dec("11.00"))
	e.placeBid(t, item.ID, a, dec("12.00"))

	// Not yet inside the window.
	e.clock.Advance(50 * time.Minute)
	_, err := e.svc.TickExpiry(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, e.notifier.byType("ending_soon"))

	// Inside the final five minutes: one notice per distinct bidder.
	e.clock.Advance(7 * time.Minute)
	_, err = e.svc.TickExpiry(ctx, e.clock.Now())
	require.NoError(t, err)
	require.Len(t, e.notifier.byType("ending_soon"), 2)

	// Never again.
	e.clock.Advance(time.Minute)
	_, err = e.svc.TickExpiry(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.Len(t, e.notifier.byType("ending_soon"), 2)
}

func TestTickExpiryFinalizesExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.createItem(t, auction.CreateInput{})
	e.publish(t, first.ID, 1)
	second := e.createItem(t, auction.CreateInput{})
	e.publish(t, second.ID, 48)

	e.clock.Advance(2 * time.Hour)
	finalized, err := e.svc.TickExpiry(ctx, e.clock.Now())
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	assert.Equal(t, first.ID, finalized[0])

	got, err := e.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusActive, got.Status)
}

func TestReserveProjection(t *testing.T) {
	e := newEnv(t)
	reserve := dec("100.00")
	item := e.createItem(t, auction.CreateInput{ReservePrice: &reserve})

	sellerView := item.ViewFor(e.sellerID)
	require.NotNil(t, sellerView.ReservePrice)
	assert.True(t, sellerView.ReservePrice.Equal(reserve))
	assert.Nil(t, sellerView.ReserveMet)

	otherView := item.ViewFor(uuid.New())
	assert.Nil(t, otherView.ReservePrice)
	require.NotNil(t, otherView.HasReserve)
	require.NotNil(t, otherView.ReserveMet)
	assert.True(t, *otherView.HasReserve)
	assert.False(t, *otherView.ReserveMet)
}

func TestConcurrentFinalizeSettlesOnce(t *testing.T) {
	e := newEnv(t)
	item := e.createItem(t, auction.CreateInput{})
	e.publish(t, item.ID, 1)
	e.placeBid(t, item.ID, uuid.New(), dec("10.00"))
	e.clock.Advance(2 * time.Hour)

	var wg sync.WaitGroup
	settledCount := 0
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settled, err := e.svc.Finalize(context.Background(), item.ID, e.clock.Now())
			if err == nil && settled {
				mu.Lock()
				settledCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, settledCount)
	assert.Len(t, e.txns.sales, 1)
}

func TestGetUnknownItem(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, auction.ErrNotFound))
}
