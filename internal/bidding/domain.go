// internal/bidding/domain.go
package bidding

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrConflict reports that a bid append lost a concurrency race and the
// attempt must be re-evaluated against the fresh item state.
var ErrConflict = errors.New("concurrent bid conflict")

// Bid is one accepted bid. Bids are append-only: they are created only
// through PlaceBid and never mutated or deleted afterwards.
type Bid struct {
	ID       uuid.UUID       `json:"id"`
	ItemID   uuid.UUID       `json:"item_id"`
	BidderID uuid.UUID       `json:"bidder_id"`
	Amount   decimal.Decimal `json:"amount"`

	// Seq is the acceptance order within the item, starting at 1. It
	// doubles as the optimistic concurrency token in the ledger store.
	Seq int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// BidTooLowError rejects an amount below the minimum bid in force at
// acceptance time. Losing a price race to a concurrent bidder surfaces
// the same way: the attempt is re-checked against the winner's update.
type BidTooLowError struct {
	Min decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be at least %s", e.Min.StringFixed(2))
}
