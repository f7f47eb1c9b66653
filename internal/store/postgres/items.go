// internal/store/postgres/items.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"leauction/internal/auction"
)

type itemStore struct {
	s *Store
}

const itemColumns = `id, seller_id, title, description, category, condition,
	starting_price, reserve_price, increment, buyout_price, current_price,
	bid_count, start_time, end_time, status, winner_id, ending_soon_sent,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*auction.Item, error) {
	var (
		i       auction.Item
		reserve decimal.NullDecimal
		buyout  decimal.NullDecimal
		start   sql.NullTime
		end     sql.NullTime
		winner  uuid.NullUUID
	)
	err := row.Scan(
		&i.ID, &i.SellerID, &i.Title, &i.Description, &i.Category, &i.Condition,
		&i.StartingPrice, &reserve, &i.Increment, &buyout, &i.CurrentPrice,
		&i.BidCount, &start, &end, &i.Status, &winner, &i.EndingSoonSent,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reserve.Valid {
		i.ReservePrice = &reserve.Decimal
	}
	if buyout.Valid {
		i.BuyoutPrice = &buyout.Decimal
	}
	if start.Valid {
		t := start.Time
		i.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		i.EndTime = &t
	}
	if winner.Valid {
		id := winner.UUID
		i.WinnerID = &id
	}
	return &i, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (p *itemStore) CreateItem(ctx context.Context, item *auction.Item) error {
	_, err := p.s.db.ExecContext(ctx, `
		INSERT INTO auction_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		item.ID, item.SellerID, item.Title, item.Description, item.Category, item.Condition,
		item.StartingPrice, nullDecimal(item.ReservePrice), item.Increment,
		nullDecimal(item.BuyoutPrice), item.CurrentPrice,
		item.BidCount, nullTime(item.StartTime), nullTime(item.EndTime),
		item.Status, nullUUID(item.WinnerID), item.EndingSoonSent,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (p *itemStore) GetItem(ctx context.Context, id uuid.UUID) (*auction.Item, error) {
	row := p.s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM auction_items WHERE id = $1
	`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auction.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (p *itemStore) UpdateItem(ctx context.Context, item *auction.Item) error {
	res, err := p.s.db.ExecContext(ctx, `
		UPDATE auction_items
		SET title = $2, description = $3, category = $4, condition = $5,
			starting_price = $6, reserve_price = $7, increment = $8,
			buyout_price = $9, current_price = $10, bid_count = $11,
			start_time = $12, end_time = $13, status = $14, winner_id = $15,
			ending_soon_sent = $16, updated_at = $17
		WHERE id = $1
	`,
		item.ID, item.Title, item.Description, item.Category, item.Condition,
		item.StartingPrice, nullDecimal(item.ReservePrice), item.Increment,
		nullDecimal(item.BuyoutPrice), item.CurrentPrice, item.BidCount,
		nullTime(item.StartTime), nullTime(item.EndTime), item.Status,
		nullUUID(item.WinnerID), item.EndingSoonSent, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auction.ErrNotFound
	}
	return nil
}

func (p *itemStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := p.s.db.ExecContext(ctx, `DELETE FROM auction_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auction.ErrNotFound
	}
	return nil
}

func (p *itemStore) ListItems(ctx context.Context, f auction.ListFilter) ([]*auction.Item, int, error) {
	ctx, span := p.s.tracer.Start(ctx, "store.list_items",
		trace.WithAttributes(
			attribute.String("filter.status", f.Status),
			attribute.String("filter.category", f.Category),
		),
	)
	defer span.End()

	where := "TRUE"
	args := []any{}
	switch f.Status {
	case "active":
		where += " AND status = 'active'"
	case "ended":
		where += " AND status IN ('ended_won', 'ended_unsold', 'completed')"
	case "":
	default:
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int
	if err := p.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auction_items WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	var order string
	switch f.Sort {
	case "ending_soon":
		order = "end_time ASC NULLS LAST"
	case "price_low":
		order = "current_price ASC"
	case "most_bids":
		order = "bid_count DESC"
	default:
		order = "created_at DESC"
	}

	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM auction_items WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		itemColumns, where, order, len(args)-1, len(args))

	rows, err := p.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []*auction.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}

	span.SetAttributes(attribute.Int("items.returned", len(items)))
	return items, total, nil
}

func (p *itemStore) ListItemsBySeller(ctx context.Context, sellerID uuid.UUID, status auction.Status) ([]*auction.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM auction_items WHERE seller_id = $1`
	args := []any{sellerID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := p.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seller items: %w", err)
	}
	defer rows.Close()

	items := []*auction.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (p *itemStore) ExpiredItemIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return p.queryIDs(ctx, `
		SELECT id FROM auction_items
		WHERE status = 'active' AND end_time IS NOT NULL AND end_time <= $1
	`, now)
}

func (p *itemStore) EndingSoonItemIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return p.queryIDs(ctx, `
		SELECT id FROM auction_items
		WHERE status = 'active' AND NOT ending_soon_sent
			AND end_time IS NOT NULL AND end_time <= $1
	`, cutoff)
}

func (p *itemStore) queryIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := p.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query item ids: %w", err)
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

func (p *itemStore) HighestBid(ctx context.Context, itemID uuid.UUID) (*auction.HighBid, error) {
	var hb auction.HighBid
	err := p.s.db.QueryRowContext(ctx, `
		SELECT bidder_id, amount FROM bids
		WHERE item_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, itemID).Scan(&hb.BidderID, &hb.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query highest bid: %w", err)
	}
	return &hb, nil
}

func (p *itemStore) DistinctBidders(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	return p.queryIDs(ctx, `SELECT DISTINCT bidder_id FROM bids WHERE item_id = $1`, itemID)
}
