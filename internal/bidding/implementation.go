// internal/bidding/implementation.go
package bidding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"leauction/internal/auction"
	"leauction/internal/notification"
)

// antiSnipeWindow mirrors the ending-soon threshold: a bid accepted this
// close to the end pushes the end time out by the same amount, so rivals
// always get a window to respond.
const antiSnipeWindow = 5 * time.Minute

// maxConflictRetries bounds re-evaluation after a lost ledger race. With
// per-item locking a conflict can only come from another process.
const maxConflictRetries = 3

var errBidNotPositive = errors.New("bid amount must be positive")

// service implements the Service interface.
type service struct {
	store    Store
	items    auction.Store
	auctions auction.Service
	locker   auction.Locker
	notifier notification.Emitter
	logger   *zap.Logger
}

// NewService creates a new bid ledger instance.
func NewService(store Store, items auction.Store, auctions auction.Service, locker auction.Locker, notifier notification.Emitter, logger *zap.Logger) Service {
	return &service{
		store:    store,
		items:    items,
		auctions: auctions,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
	}
}

// PlaceBid accepts or rejects one bid attempt. The whole protocol runs
// under the item's lock: two attempts on the same item never read the
// same price, and the loser of a race is re-checked against the winner's
// update before any decision is made.
func (s *service) PlaceBid(ctx context.Context, itemID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, *auction.Item, error) {
	unlock := s.locker.Lock(itemID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		item, err := s.items.GetItem(ctx, itemID)
		if err != nil {
			return nil, nil, err
		}

		bid, err := s.placeBidLocked(ctx, item, bidderID, amount, now)
		if err != nil {
			if errors.Is(err, ErrConflict) && attempt < maxConflictRetries {
				s.logger.Warn("bid ledger conflict, re-evaluating",
					zap.String("item_id", itemID.String()),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, nil, err
		}
		return bid, item, nil
	}
}

// placeBidLocked is one acceptance attempt against a fresh item read.
func (s *service) placeBidLocked(ctx context.Context, item *auction.Item, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, error) {
	if item.Status != auction.StatusActive {
		return nil, auction.ErrInvalidState
	}
	if item.EndTime == nil || !now.Before(*item.EndTime) {
		return nil, auction.ErrInvalidState
	}
	if item.SellerID == bidderID {
		return nil, auction.ErrForbidden
	}
	if !amount.IsPositive() {
		return nil, errBidNotPositive
	}

	if min := item.MinBid(); amount.LessThan(min) {
		return nil, &BidTooLowError{Min: min}
	}

	// Who to notify once this bid displaces the lead.
	prev, err := s.store.TopBid(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read highest bid: %w", err)
	}

	isBuyout := item.BuyoutPrice != nil && amount.GreaterThanOrEqual(*item.BuyoutPrice)

	bid := &Bid{
		ID:        uuid.New(),
		ItemID:    item.ID,
		BidderID:  bidderID,
		Amount:    amount,
		Seq:       item.BidCount + 1,
		CreatedAt: now,
	}

	// The buyout winner keeps their full amount; it is not clamped to
	// the buyout price.
	item.CurrentPrice = amount
	item.BidCount++
	item.UpdatedAt = now

	if !isBuyout && item.EndTime.Sub(now) <= antiSnipeWindow {
		extended := now.Add(antiSnipeWindow)
		item.EndTime = &extended
	}

	if err := s.store.ApplyBid(ctx, item, bid); err != nil {
		return nil, err
	}

	if isBuyout {
		if err := s.auctions.FinalizeBuyout(ctx, item, bidderID, amount, now); err != nil {
			// The bid itself stands; the expiry scheduler will settle
			// the item at this price if we cannot do it now.
			s.logger.Error("buyout settlement failed",
				zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}

	if prev != nil && prev.BidderID != bidderID {
		itemID := item.ID
		s.notifier.Emit(prev.BidderID, notification.TypeOutbid, "Outbid",
			fmt.Sprintf("Your bid on %q has been beaten; the price is now %s",
				item.Title, amount.StringFixed(2)), &itemID)
	}

	return bid, nil
}

// ListBids is read-only and safe to call concurrently with PlaceBid.
func (s *service) ListBids(ctx context.Context, itemID uuid.UUID) ([]*Bid, error) {
	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, itemID)
}

// MyBidItems lists the items the user has bid on, most recently ending
// first, annotated with the user's own standing.
func (s *service) MyBidItems(ctx context.Context, userID uuid.UUID) ([]MyBidItem, error) {
	itemIDs, err := s.store.ItemIDsWithBidBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]MyBidItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, err := s.items.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, auction.ErrNotFound) {
				continue
			}
			return nil, err
		}

		maxBid, err := s.store.MaxBidByUser(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if maxBid == nil {
			continue
		}

		out = append(out, MyBidItem{
			Item:     item,
			MyMaxBid: *maxBid,
			Leading:  item.Status == auction.StatusActive && maxBid.Equal(item.CurrentPrice),
			Winner:   item.WinnerID != nil && *item.WinnerID == userID,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Item.EndTime, out[j].Item.EndTime
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	return out, nil
}
