// internal/auction/implementation.go
package auction

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"leauction/internal/clock"
	"leauction/internal/notification"
)

const (
	minDurationHours = 1
	maxDurationHours = 168

	// endingSoonWindow is how close to the end an auction must be before
	// bidders get their one ending-soon notice.
	endingSoonWindow = 5 * time.Minute
)

var (
	minPrice         = decimal.New(1, -2) // 0.01
	defaultIncrement = decimal.NewFromInt(1)
)

// service implements the Service interface.
type service struct {
	store    Store
	locker   Locker
	txns     TransactionCreator
	notifier notification.Emitter
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService creates a new auction state machine instance.
func NewService(store Store, locker Locker, txns TransactionCreator, notifier notification.Emitter, clk clock.Clock, logger *zap.Logger) Service {
	return &service{
		store:    store,
		locker:   locker,
		txns:     txns,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// Create validates the listing and stores it as a draft.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, in CreateInput) (*Item, error) {
	now := s.clock.Now()

	item := &Item{
		ID:            uuid.New(),
		SellerID:      sellerID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Condition:     in.Condition,
		StartingPrice: in.StartingPrice,
		ReservePrice:  in.ReservePrice,
		Increment:     defaultIncrement,
		BuyoutPrice:   in.BuyoutPrice,
		CurrentPrice:  in.StartingPrice,
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Category == "" {
		item.Category = "other"
	}
	if in.Condition == "" {
		item.Condition = "new"
	}
	if in.Increment != nil {
		item.Increment = *in.Increment
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return item, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *service) List(ctx context.Context, f ListFilter) ([]*Item, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 50 {
		f.PerPage = 20
	}
	return s.store.ListItems(ctx, f)
}

func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID, status Status) ([]*Item, error) {
	return s.store.ListItemsBySeller(ctx, sellerID, status)
}

// Update edits a draft listing. Only drafts are editable.
func (s *service) Update(ctx context.Context, id, actorID uuid.UUID, in UpdateInput) (*Item, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != actorID {
		return nil, ErrForbidden
	}
	if item.Status != StatusDraft {
		return nil, ErrInvalidState
	}

	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Condition != nil {
		item.Condition = *in.Condition
	}
	if in.StartingPrice != nil {
		item.StartingPrice = *in.StartingPrice
		item.CurrentPrice = *in.StartingPrice
	}
	if in.ClearReserve {
		item.ReservePrice = nil
	} else if in.ReservePrice != nil {
		item.ReservePrice = in.ReservePrice
	}
	if in.Increment != nil {
		item.Increment = *in.Increment
	}
	if in.ClearBuyout {
		item.BuyoutPrice = nil
	} else if in.BuyoutPrice != nil {
		item.BuyoutPrice = in.BuyoutPrice
	}

	if err := validateItem(item); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return item, nil
}

// Publish moves a draft to active, fixing its start and end time in one step.
func (s *service) Publish(ctx context.Context, id, actorID uuid.UUID, durationHours int) (*Item, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != actorID {
		return nil, ErrForbidden
	}
	if item.Status != StatusDraft {
		return nil, ErrInvalidState
	}
	if durationHours < minDurationHours || durationHours > maxDurationHours {
		return nil, ErrInvalidDuration
	}

	now := s.clock.Now()
	end := now.Add(time.Duration(durationHours) * time.Hour)
	item.StartTime = &now
	item.EndTime = &end
	item.Status = StatusActive
	item.UpdatedAt = now

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to publish item: %w", err)
	}

	s.logger.Info("auction published",
		zap.String("item_id", item.ID.String()),
		zap.Int("duration_hours", durationHours))

	return item, nil
}

// Cancel withdraws an active auction, but only while nobody has bid.
func (s *service) Cancel(ctx context.Context, id, actorID uuid.UUID) (*Item, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != actorID {
		return nil, ErrForbidden
	}
	if item.Status != StatusActive {
		return nil, ErrInvalidState
	}
	if item.BidCount > 0 {
		return nil, ErrCannotCancel
	}

	item.Status = StatusCancelled
	item.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to cancel item: %w", err)
	}

	return item, nil
}

// Delete removes a draft listing entirely.
func (s *service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != actorID {
		return ErrForbidden
	}
	if item.Status != StatusDraft {
		return ErrInvalidState
	}

	return s.store.DeleteItem(ctx, id)
}

// Finalize settles an expired active item. Calling it on an item that is
// already terminal, or not yet due, is a no-op.
func (s *service) Finalize(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	if item.Status != StatusActive {
		return false, nil
	}
	if item.EndTime == nil || now.Before(*item.EndTime) {
		return false, nil
	}

	if err := s.settle(ctx, item, now); err != nil {
		return false, err
	}
	return true, nil
}

// settle applies the terminal outcome of an active item. The caller
// holds the item's lock.
func (s *service) settle(ctx context.Context, item *Item, now time.Time) error {
	itemID := item.ID

	if item.BidCount == 0 {
		item.Status = StatusEndedUnsold
		item.UpdatedAt = now
		if err := s.store.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to settle item: %w", err)
		}
		s.notifier.Emit(item.SellerID, notification.TypeAuctionUnsold, "Auction ended",
			fmt.Sprintf("%q ended without any bids", item.Title), &itemID)
		return nil
	}

	high, err := s.store.HighestBid(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to read highest bid: %w", err)
	}

	if item.ReserveMet() {
		// Sold. Record the transaction before flipping the status so a
		// failed write leaves the item active for the next expiry tick.
		if err := s.txns.CreateForSale(ctx, itemID, item.SellerID, high.BidderID, item.CurrentPrice, now); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		item.Status = StatusEndedWon
		item.WinnerID = &high.BidderID
		item.UpdatedAt = now
		if err := s.store.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to settle item: %w", err)
		}

		price := item.CurrentPrice.StringFixed(2)
		s.notifier.Emit(high.BidderID, notification.TypeAuctionWon, "Auction won",
			fmt.Sprintf("Congratulations! You won %q for %s", item.Title, price), &itemID)
		s.notifier.Emit(item.SellerID, notification.TypeAuctionSold, "Item sold",
			fmt.Sprintf("%q sold for %s", item.Title, price), &itemID)
		return nil
	}

	// Bids exist but the reserve was not met.
	item.Status = StatusEndedUnsold
	item.UpdatedAt = now
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to settle item: %w", err)
	}

	high2 := high.Amount.StringFixed(2)
	s.notifier.Emit(item.SellerID, notification.TypeReserveNotMet, "Auction ended",
		fmt.Sprintf("%q ended; the highest bid of %s did not meet your reserve", item.Title, high2), &itemID)
	s.notifier.Emit(high.BidderID, notification.TypeReserveNotMet, "Auction ended",
		fmt.Sprintf("%q ended; the highest bid did not meet the seller's reserve", item.Title), &itemID)
	return nil
}

// FinalizeBuyout settles a buyout immediately. The bid ledger holds the
// item's lock and has already applied the winning bid to item.
func (s *service) FinalizeBuyout(ctx context.Context, item *Item, bidderID uuid.UUID, price decimal.Decimal, now time.Time) error {
	itemID := item.ID

	if err := s.txns.CreateForSale(ctx, itemID, item.SellerID, bidderID, price, now); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	item.Status = StatusEndedWon
	item.WinnerID = &bidderID
	item.UpdatedAt = now
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return fmt.Errorf("failed to settle buyout: %w", err)
	}

	p := price.StringFixed(2)
	s.notifier.Emit(bidderID, notification.TypeAuctionWon, "Auction won",
		fmt.Sprintf("Congratulations! You bought %q outright for %s", item.Title, p), &itemID)
	s.notifier.Emit(item.SellerID, notification.TypeAuctionSold, "Item sold",
		fmt.Sprintf("%q was bought outright for %s", item.Title, p), &itemID)
	return nil
}

// TickExpiry is the scheduler entry point: it sends due ending-soon
// notices, then finalizes every expired active item.
func (s *service) TickExpiry(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	soon, err := s.store.EndingSoonItemIDs(ctx, now.Add(endingSoonWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to scan ending-soon items: %w", err)
	}
	for _, id := range soon {
		if err := s.notifyEndingSoon(ctx, id, now); err != nil {
			s.logger.Warn("ending-soon notice failed",
				zap.String("item_id", id.String()), zap.Error(err))
		}
	}

	expired, err := s.store.ExpiredItemIDs(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expired items: %w", err)
	}

	var finalized []uuid.UUID
	for _, id := range expired {
		settled, err := s.Finalize(ctx, id, now)
		if err != nil {
			s.logger.Error("finalization failed",
				zap.String("item_id", id.String()), zap.Error(err))
			continue
		}
		if settled {
			finalized = append(finalized, id)
		}
	}
	return finalized, nil
}

// notifyEndingSoon emits the one-shot ending-soon notice to every
// distinct bidder of the item.
func (s *service) notifyEndingSoon(ctx context.Context, id uuid.UUID, now time.Time) error {
	unlock := s.locker.Lock(id)
	defer unlock()

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	// Re-check under the lock: a buyout or finalization may have won the race.
	if item.Status != StatusActive || item.EndingSoonSent {
		return nil
	}
	if item.EndTime == nil || now.After(*item.EndTime) || item.EndTime.Sub(now) > endingSoonWindow {
		return nil
	}

	bidders, err := s.store.DistinctBidders(ctx, id)
	if err != nil {
		return err
	}

	itemID := item.ID
	for _, bidderID := range bidders {
		s.notifier.Emit(bidderID, notification.TypeEndingSoon, "Auction ending soon",
			fmt.Sprintf("%q ends in less than 5 minutes", item.Title), &itemID)
	}

	item.EndingSoonSent = true
	item.UpdatedAt = now
	return s.store.UpdateItem(ctx, item)
}

// MarkCompleted moves an ended_won item to completed after both parties
// confirmed the transaction.
func (s *service) MarkCompleted(ctx context.Context, itemID uuid.UUID) error {
	unlock := s.locker.Lock(itemID)
	defer unlock()

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status == StatusCompleted {
		return nil
	}
	if item.Status != StatusEndedWon {
		return ErrInvalidState
	}

	item.Status = StatusCompleted
	item.UpdatedAt = s.clock.Now()
	return s.store.UpdateItem(ctx, item)
}

// validateItem enforces the listing rules carried over from the original
// marketplace: title length, closed category and condition sets, price
// floors and reserve/buyout relations to the starting price.
func validateItem(item *Item) error {
	var problems []string

	if n := utf8.RuneCountInString(item.Title); n < 2 || n > 50 {
		problems = append(problems, "title must be 2-50 characters")
	}
	if !contains(Categories, item.Category) {
		problems = append(problems, "invalid category")
	}
	if !contains(Conditions, item.Condition) {
		problems = append(problems, "invalid condition")
	}
	if item.StartingPrice.LessThan(minPrice) {
		problems = append(problems, "starting price must be at least 0.01")
	}
	if item.Increment.LessThan(minPrice) {
		problems = append(problems, "increment must be at least 0.01")
	}
	if item.ReservePrice != nil && item.ReservePrice.LessThan(item.StartingPrice) {
		problems = append(problems, "reserve price cannot be below the starting price")
	}
	if item.BuyoutPrice != nil && !item.BuyoutPrice.GreaterThan(item.StartingPrice) {
		problems = append(problems, "buyout price must be above the starting price")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
