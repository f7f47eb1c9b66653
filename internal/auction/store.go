// internal/auction/store.go
package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Locker hands out per-item critical sections. Every mutation of an
// item's price, bid count or status happens while holding its lock.
type Locker interface {
	Lock(itemID uuid.UUID) func()
}

// HighBid is the slice of bid state finalization needs: who leads and at
// what amount.
type HighBid struct {
	BidderID uuid.UUID
	Amount   decimal.Decimal
}

// ListFilter narrows and orders item listings.
type ListFilter struct {
	// Status is "active", "ended" (won, unsold or completed) or empty for all.
	Status   string
	Category string
	// Sort is one of newest, ending_soon, price_low, most_bids.
	Sort    string
	Page    int
	PerPage int
}

// Store persists auction items and answers the bid-derived queries the
// state machine needs for finalization.
type Store interface {
	CreateItem(ctx context.Context, item *Item) error
	// GetItem returns ErrNotFound when the id is unknown.
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, f ListFilter) ([]*Item, int, error)
	ListItemsBySeller(ctx context.Context, sellerID uuid.UUID, status Status) ([]*Item, error)

	// ExpiredItemIDs returns ids of active items whose end time has passed.
	ExpiredItemIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	// EndingSoonItemIDs returns ids of active items ending by the cutoff
	// that have not had their ending-soon notice sent.
	EndingSoonItemIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// HighestBid returns nil when the item has no bids.
	HighestBid(ctx context.Context, itemID uuid.UUID) (*HighBid, error)
	DistinctBidders(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error)
}
