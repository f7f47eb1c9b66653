// internal/store/memory/transactions.go
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"leauction/internal/transaction"
)

type transactionStore struct {
	s *Store
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func (m *transactionStore) Insert(ctx context.Context, t *transaction.Transaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.txnByItem[t.ItemID]; ok {
		return fmt.Errorf("item %s already has a transaction", t.ItemID)
	}
	m.s.transactions[t.ID] = cloneTransaction(t)
	m.s.txnByItem[t.ItemID] = t.ID
	return nil
}

func (m *transactionStore) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	t, ok := m.s.transactions[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return cloneTransaction(t), nil
}

func (m *transactionStore) GetByItem(ctx context.Context, itemID uuid.UUID) (*transaction.Transaction, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	id, ok := m.s.txnByItem[itemID]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return cloneTransaction(m.s.transactions[id]), nil
}

func (m *transactionStore) Update(ctx context.Context, t *transaction.Transaction) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.transactions[t.ID]; !ok {
		return transaction.ErrNotFound
	}
	m.s.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (m *transactionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*transaction.Transaction, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := []*transaction.Transaction{}
	for _, t := range m.s.transactions {
		if t.IsParty(userID) {
			out = append(out, cloneTransaction(t))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}
