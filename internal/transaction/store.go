// internal/transaction/store.go
package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Store persists transactions. There is at most one per item, enforced
// by the store.
type Store interface {
	// Insert fails when a transaction for the item already exists.
	Insert(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// GetByItem returns ErrNotFound when the item has no transaction.
	GetByItem(ctx context.Context, itemID uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Transaction, error)
}
