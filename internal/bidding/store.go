// internal/bidding/store.go
package bidding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"leauction/internal/auction"
)

// Store is the bid ledger's persistence contract.
type Store interface {
	// ApplyBid atomically appends the bid and persists the item state
	// produced inside the per-item critical section. It returns
	// ErrConflict when another writer already took bid.Seq, in which
	// case nothing was written.
	ApplyBid(ctx context.Context, item *auction.Item, bid *Bid) error

	// ListBids returns the item's bids newest-first.
	ListBids(ctx context.Context, itemID uuid.UUID) ([]*Bid, error)

	// TopBid returns the leading bid, or nil when the item has none.
	TopBid(ctx context.Context, itemID uuid.UUID) (*Bid, error)

	// MaxBidByUser returns nil when the user never bid on the item.
	MaxBidByUser(ctx context.Context, itemID, userID uuid.UUID) (*decimal.Decimal, error)

	// ItemIDsWithBidBy lists the distinct items the user has bid on.
	ItemIDsWithBidBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
