// internal/bidding/service.go
package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"leauction/internal/auction"
)

// MyBidItem is an item the user has bid on, annotated with their
// standing in the auction.
type MyBidItem struct {
	Item     *auction.Item
	MyMaxBid decimal.Decimal
	Leading  bool
	Winner   bool
}

// Service is the bid ledger: it owns the bid-acceptance protocol and the
// authoritative price history of each item.
type Service interface {
	// PlaceBid runs the acceptance protocol for one bid attempt. Bids on
	// the same item are serialized; the returned item reflects the state
	// after acceptance, including an immediate buyout settlement.
	PlaceBid(ctx context.Context, itemID, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, *auction.Item, error)

	// ListBids returns the item's accepted bids newest-first.
	ListBids(ctx context.Context, itemID uuid.UUID) ([]*Bid, error)

	MyBidItems(ctx context.Context, userID uuid.UUID) ([]MyBidItem, error)
}
