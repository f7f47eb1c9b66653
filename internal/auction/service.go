// internal/auction/service.go
package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput carries the seller-supplied fields of a new listing.
// Pointer fields distinguish "absent" from zero in updates.
type CreateInput struct {
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Condition     string           `json:"condition"`
	StartingPrice decimal.Decimal  `json:"starting_price"`
	ReservePrice  *decimal.Decimal `json:"reserve_price"`
	Increment     *decimal.Decimal `json:"increment"`
	BuyoutPrice   *decimal.Decimal `json:"buyout_price"`
}

// UpdateInput carries a partial edit of a draft listing.
type UpdateInput struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Condition     *string          `json:"condition"`
	StartingPrice *decimal.Decimal `json:"starting_price"`
	ReservePrice  *decimal.Decimal `json:"reserve_price"`
	ClearReserve  bool             `json:"clear_reserve"`
	Increment     *decimal.Decimal `json:"increment"`
	BuyoutPrice   *decimal.Decimal `json:"buyout_price"`
	ClearBuyout   bool             `json:"clear_buyout"`
}

// TransactionCreator records the sale produced by a winning finalization.
// Implemented by the transaction service; declared here so the state
// machine stays decoupled from that package.
type TransactionCreator interface {
	CreateForSale(ctx context.Context, itemID, sellerID, buyerID uuid.UUID, finalPrice decimal.Decimal, now time.Time) error
}

// Service is the auction state machine: it owns every status transition
// of an item from draft to a terminal outcome.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, in CreateInput) (*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, f ListFilter) ([]*Item, int, error)
	ListMine(ctx context.Context, sellerID uuid.UUID, status Status) ([]*Item, error)
	Update(ctx context.Context, id, actorID uuid.UUID, in UpdateInput) (*Item, error)
	// Publish moves a draft to active for the given number of hours (1-168).
	Publish(ctx context.Context, id, actorID uuid.UUID, durationHours int) (*Item, error)
	Cancel(ctx context.Context, id, actorID uuid.UUID) (*Item, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error

	// Finalize settles an active item whose end time has passed. It is
	// idempotent: settling an already-terminal item is a no-op and
	// reports settled=false.
	Finalize(ctx context.Context, id uuid.UUID, now time.Time) (settled bool, err error)

	// FinalizeBuyout settles an item as won by bidder at price. The
	// caller (the bid ledger) already holds the item's lock and has
	// applied the winning bid to item.
	FinalizeBuyout(ctx context.Context, item *Item, bidderID uuid.UUID, price decimal.Decimal, now time.Time) error

	// TickExpiry emits due ending-soon notices and finalizes expired
	// items, returning the ids it settled.
	TickExpiry(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// MarkCompleted moves an ended_won item to completed once both
	// transaction parties have confirmed.
	MarkCompleted(ctx context.Context, itemID uuid.UUID) error
}
