// internal/store/memory/bids.go
package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"leauction/internal/auction"
	"leauction/internal/bidding"
)

type bidStore struct {
	s *Store
}

func cloneBid(b *bidding.Bid) *bidding.Bid {
	c := *b
	return &c
}

// ApplyBid appends the bid and persists the item state in one step. The
// sequence number is the concurrency token: if another writer already
// holds bid.Seq for this item the whole apply is rejected untouched.
func (m *bidStore) ApplyBid(ctx context.Context, item *auction.Item, bid *bidding.Bid) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.items[item.ID]; !ok {
		return auction.ErrNotFound
	}

	bids := m.s.bids[item.ID]
	if len(bids) >= bid.Seq {
		return bidding.ErrConflict
	}

	m.s.bids[item.ID] = append(bids, cloneBid(bid))
	m.s.items[item.ID] = cloneItem(item)
	return nil
}

func (m *bidStore) ListBids(ctx context.Context, itemID uuid.UUID) ([]*bidding.Bid, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	bids := m.s.bids[itemID]
	out := make([]*bidding.Bid, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		out = append(out, cloneBid(bids[i]))
	}
	return out, nil
}

func (m *bidStore) TopBid(ctx context.Context, itemID uuid.UUID) (*bidding.Bid, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	bids := m.s.bids[itemID]
	if len(bids) == 0 {
		return nil, nil
	}
	return cloneBid(bids[len(bids)-1]), nil
}

func (m *bidStore) MaxBidByUser(ctx context.Context, itemID, userID uuid.UUID) (*decimal.Decimal, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var max *decimal.Decimal
	for _, b := range m.s.bids[itemID] {
		if b.BidderID != userID {
			continue
		}
		if max == nil || b.Amount.GreaterThan(*max) {
			a := b.Amount
			max = &a
		}
	}
	return max, nil
}

func (m *bidStore) ItemIDsWithBidBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []uuid.UUID
	for itemID, bids := range m.s.bids {
		for _, b := range bids {
			if b.BidderID == userID {
				out = append(out, itemID)
				break
			}
		}
	}
	return out, nil
}
