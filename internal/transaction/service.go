// internal/transaction/service.go
package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCompleter flips the sold item to completed once the handshake is
// done. Implemented by the auction state machine; declared here to keep
// the dependency pointing outward.
type ItemCompleter interface {
	MarkCompleted(ctx context.Context, itemID uuid.UUID) error
}

// Service is the transaction handshake: independent acknowledgement from
// both parties before a sale counts as settled.
type Service interface {
	// CreateForSale records the sale produced by finalization. It is
	// idempotent per item so a retried finalization cannot duplicate it.
	CreateForSale(ctx context.Context, itemID, sellerID, buyerID uuid.UUID, finalPrice decimal.Decimal, now time.Time) error

	// Confirm registers the actor's acknowledgement. Confirming twice is
	// a no-op; the second party's confirmation completes the sale.
	Confirm(ctx context.Context, id, actorID uuid.UUID) (*Transaction, error)

	Get(ctx context.Context, id, actorID uuid.UUID) (*Transaction, error)
	GetByItem(ctx context.Context, itemID, actorID uuid.UUID) (*Transaction, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*Transaction, error)
}
