// internal/transaction/domain.go
package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("transaction not found")
	ErrNotParty = errors.New("not a party to this transaction")
)

// Transaction is the two-party confirmation record created when an
// auction ends in a sale. Confirmation is additive: the flags are only
// ever set, never reset, and completion fires exactly once when the
// second flag lands.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	FinalPrice      decimal.Decimal `json:"final_price"`
	SellerConfirmed bool            `json:"seller_confirmed"`
	BuyerConfirmed  bool            `json:"buyer_confirmed"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// Completed reports whether both parties have confirmed.
func (t *Transaction) Completed() bool {
	return t.SellerConfirmed && t.BuyerConfirmed
}

// IsParty reports whether the user is the seller or the buyer.
func (t *Transaction) IsParty(userID uuid.UUID) bool {
	return t.SellerID == userID || t.BuyerID == userID
}
