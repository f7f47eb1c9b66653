// internal/transaction/implementation.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"leauction/internal/clock"
	"leauction/internal/notification"
)

// Locker hands out per-transaction critical sections, so near-simultaneous
// confirmations by both parties cannot lose an update.
type Locker interface {
	Lock(id uuid.UUID) func()
}

// service implements the Service interface.
type service struct {
	store     Store
	completer ItemCompleter
	locker    Locker
	notifier  notification.Emitter
	clock     clock.Clock
	logger    *zap.Logger
}

// NewService creates a new transaction handshake instance.
func NewService(store Store, completer ItemCompleter, locker Locker, notifier notification.Emitter, clk clock.Clock, logger *zap.Logger) Service {
	return &service{
		store:     store,
		completer: completer,
		locker:    locker,
		notifier:  notifier,
		clock:     clk,
		logger:    logger,
	}
}

// CreateForSale records a sale. A transaction that already exists for
// the item is left untouched, which makes retried finalization safe.
func (s *service) CreateForSale(ctx context.Context, itemID, sellerID, buyerID uuid.UUID, finalPrice decimal.Decimal, now time.Time) error {
	if _, err := s.store.GetByItem(ctx, itemID); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	t := &Transaction{
		ID:         uuid.New(),
		ItemID:     itemID,
		SellerID:   sellerID,
		BuyerID:    buyerID,
		FinalPrice: finalPrice,
		CreatedAt:  now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return fmt.Errorf("failed to record sale: %w", err)
	}
	return nil
}

// Confirm registers one party's acknowledgement of the sale.
func (s *service) Confirm(ctx context.Context, id, actorID uuid.UUID) (*Transaction, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(actorID) {
		return nil, ErrNotParty
	}

	var otherID uuid.UUID
	changed := false
	switch actorID {
	case t.SellerID:
		otherID = t.BuyerID
		if !t.SellerConfirmed {
			t.SellerConfirmed = true
			changed = true
		}
	default:
		otherID = t.SellerID
		if !t.BuyerConfirmed {
			t.BuyerConfirmed = true
			changed = true
		}
	}
	if !changed {
		return t, nil
	}

	completed := t.Completed()
	if completed {
		now := s.clock.Now()
		t.CompletedAt = &now
	}

	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	itemID := t.ItemID
	if completed {
		if err := s.completer.MarkCompleted(ctx, itemID); err != nil {
			s.logger.Error("failed to complete item after handshake",
				zap.String("item_id", itemID.String()), zap.Error(err))
		}
		s.notifier.Emit(t.SellerID, notification.TypeTransactionConfirmed, "Transaction completed",
			"Both parties confirmed; the sale is complete", &itemID)
		s.notifier.Emit(t.BuyerID, notification.TypeTransactionConfirmed, "Transaction completed",
			"Both parties confirmed; the sale is complete", &itemID)
	} else {
		s.notifier.Emit(otherID, notification.TypeTransactionConfirmed, "Transaction confirmed",
			"The other party has confirmed the transaction", &itemID)
	}

	return t, nil
}

func (s *service) Get(ctx context.Context, id, actorID uuid.UUID) (*Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(actorID) {
		return nil, ErrNotParty
	}
	return t, nil
}

func (s *service) GetByItem(ctx context.Context, itemID, actorID uuid.UUID) (*Transaction, error) {
	t, err := s.store.GetByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(actorID) {
		return nil, ErrNotParty
	}
	return t, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]*Transaction, error) {
	return s.store.ListByUser(ctx, userID)
}
