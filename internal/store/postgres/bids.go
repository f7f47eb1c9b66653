// internal/store/postgres/bids.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"leauction/internal/auction"
	"leauction/internal/bidding"
)

type bidStore struct {
	s *Store
}

// ApplyBid appends the bid and persists the item it was accepted
// against in one serializable transaction. UNIQUE(item_id, seq) is the
// optimistic concurrency check: a second writer racing for the same
// sequence number hits the constraint and nothing is written.
func (p *bidStore) ApplyBid(ctx context.Context, item *auction.Item, bid *bidding.Bid) error {
	ctx, span := p.s.tracer.Start(ctx, "store.apply_bid",
		trace.WithAttributes(
			attribute.String("item.id", item.ID.String()),
			attribute.Int("bid.seq", bid.Seq),
		),
	)
	defer span.End()

	tx, err := p.s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bids (id, item_id, bidder_id, amount, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, bid.ID, bid.ItemID, bid.BidderID, bid.Amount, bid.Seq, bid.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			span.SetAttributes(attribute.Bool("conflict.detected", true))
			return bidding.ErrConflict
		}
		return fmt.Errorf("insert bid: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE auction_items
		SET current_price = $2, bid_count = $3, end_time = $4,
			ending_soon_sent = $5, updated_at = $6
		WHERE id = $1
	`, item.ID, item.CurrentPrice, item.BidCount, nullTime(item.EndTime),
		item.EndingSoonSent, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update item after bid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auction.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "40001" {
			return bidding.ErrConflict
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *bidStore) ListBids(ctx context.Context, itemID uuid.UUID) ([]*bidding.Bid, error) {
	rows, err := p.s.db.QueryContext(ctx, `
		SELECT id, item_id, bidder_id, amount, seq, created_at
		FROM bids
		WHERE item_id = $1
		ORDER BY seq DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	bids := []*bidding.Bid{}
	for rows.Next() {
		var b bidding.Bid
		if err := rows.Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &b.Seq, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, &b)
	}
	return bids, rows.Err()
}

func (p *bidStore) TopBid(ctx context.Context, itemID uuid.UUID) (*bidding.Bid, error) {
	var b bidding.Bid
	err := p.s.db.QueryRowContext(ctx, `
		SELECT id, item_id, bidder_id, amount, seq, created_at
		FROM bids
		WHERE item_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, itemID).Scan(&b.ID, &b.ItemID, &b.BidderID, &b.Amount, &b.Seq, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query top bid: %w", err)
	}
	return &b, nil
}

func (p *bidStore) MaxBidByUser(ctx context.Context, itemID, userID uuid.UUID) (*decimal.Decimal, error) {
	var max decimal.NullDecimal
	err := p.s.db.QueryRowContext(ctx, `
		SELECT MAX(amount) FROM bids WHERE item_id = $1 AND bidder_id = $2
	`, itemID, userID).Scan(&max)
	if err != nil {
		return nil, fmt.Errorf("query max bid: %w", err)
	}
	if !max.Valid {
		return nil, nil
	}
	return &max.Decimal, nil
}

func (p *bidStore) ItemIDsWithBidBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := p.s.db.QueryContext(ctx, `
		SELECT DISTINCT item_id FROM bids WHERE bidder_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bid items: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
