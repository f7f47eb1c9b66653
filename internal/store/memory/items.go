// internal/store/memory/items.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"leauction/internal/auction"
)

type itemStore struct {
	s *Store
}

func cloneItem(i *auction.Item) *auction.Item {
	c := *i
	if i.ReservePrice != nil {
		r := *i.ReservePrice
		c.ReservePrice = &r
	}
	if i.BuyoutPrice != nil {
		b := *i.BuyoutPrice
		c.BuyoutPrice = &b
	}
	if i.StartTime != nil {
		t := *i.StartTime
		c.StartTime = &t
	}
	if i.EndTime != nil {
		t := *i.EndTime
		c.EndTime = &t
	}
	if i.WinnerID != nil {
		w := *i.WinnerID
		c.WinnerID = &w
	}
	return &c
}

func (m *itemStore) CreateItem(ctx context.Context, item *auction.Item) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.items[item.ID] = cloneItem(item)
	return nil
}

func (m *itemStore) GetItem(ctx context.Context, id uuid.UUID) (*auction.Item, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	i, ok := m.s.items[id]
	if !ok {
		return nil, auction.ErrNotFound
	}
	return cloneItem(i), nil
}

func (m *itemStore) UpdateItem(ctx context.Context, item *auction.Item) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.items[item.ID]; !ok {
		return auction.ErrNotFound
	}
	m.s.items[item.ID] = cloneItem(item)
	return nil
}

func (m *itemStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.items[id]; !ok {
		return auction.ErrNotFound
	}
	delete(m.s.items, id)
	delete(m.s.bids, id)
	return nil
}

func matchStatus(filter string, st auction.Status) bool {
	switch filter {
	case "":
		return true
	case "active":
		return st == auction.StatusActive
	case "ended":
		return st == auction.StatusEndedWon || st == auction.StatusEndedUnsold || st == auction.StatusCompleted
	default:
		return string(st) == filter
	}
}

func (m *itemStore) ListItems(ctx context.Context, f auction.ListFilter) ([]*auction.Item, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := []*auction.Item{}
	for _, i := range m.s.items {
		if !matchStatus(f.Status, i.Status) {
			continue
		}
		if f.Category != "" && i.Category != f.Category {
			continue
		}
		out = append(out, cloneItem(i))
	}

	sortItems(out, f.Sort)

	total := len(out)
	start := (f.Page - 1) * f.PerPage
	if start > total {
		start = total
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func sortItems(items []*auction.Item, by string) {
	switch by {
	case "ending_soon":
		sort.SliceStable(items, func(a, b int) bool {
			ea, eb := items[a].EndTime, items[b].EndTime
			if ea == nil || eb == nil {
				return ea != nil
			}
			return ea.Before(*eb)
		})
	case "price_low":
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].CurrentPrice.LessThan(items[b].CurrentPrice)
		})
	case "most_bids":
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].BidCount > items[b].BidCount
		})
	default: // newest
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].CreatedAt.After(items[b].CreatedAt)
		})
	}
}

func (m *itemStore) ListItemsBySeller(ctx context.Context, sellerID uuid.UUID, status auction.Status) ([]*auction.Item, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := []*auction.Item{}
	for _, i := range m.s.items {
		if i.SellerID != sellerID {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		out = append(out, cloneItem(i))
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (m *itemStore) ExpiredItemIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var ids []uuid.UUID
	for _, i := range m.s.items {
		if i.Status == auction.StatusActive && i.EndTime != nil && !now.Before(*i.EndTime) {
			ids = append(ids, i.ID)
		}
	}
	return ids, nil
}

func (m *itemStore) EndingSoonItemIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var ids []uuid.UUID
	for _, i := range m.s.items {
		if i.Status == auction.StatusActive && !i.EndingSoonSent &&
			i.EndTime != nil && !i.EndTime.After(cutoff) {
			ids = append(ids, i.ID)
		}
	}
	return ids, nil
}

func (m *itemStore) HighestBid(ctx context.Context, itemID uuid.UUID) (*auction.HighBid, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	bids := m.s.bids[itemID]
	if len(bids) == 0 {
		return nil, nil
	}
	top := bids[len(bids)-1]
	return &auction.HighBid{BidderID: top.BidderID, Amount: top.Amount}, nil
}

func (m *itemStore) DistinctBidders(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, b := range m.s.bids[itemID] {
		if _, ok := seen[b.BidderID]; ok {
			continue
		}
		seen[b.BidderID] = struct{}{}
		out = append(out, b.BidderID)
	}
	return out, nil
}
