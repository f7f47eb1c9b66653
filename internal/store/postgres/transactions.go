// internal/store/postgres/transactions.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"leauction/internal/transaction"
)

type transactionStore struct {
	s *Store
}

const txnColumns = `id, item_id, seller_id, buyer_id, final_price,
	seller_confirmed, buyer_confirmed, created_at, completed_at`

func scanTxn(row rowScanner) (*transaction.Transaction, error) {
	var (
		t         transaction.Transaction
		completed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.ItemID, &t.SellerID, &t.BuyerID, &t.FinalPrice,
		&t.SellerConfirmed, &t.BuyerConfirmed, &t.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		at := completed.Time
		t.CompletedAt = &at
	}
	return &t, nil
}

func (p *transactionStore) Insert(ctx context.Context, t *transaction.Transaction) error {
	_, err := p.s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+txnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.ItemID, t.SellerID, t.BuyerID, t.FinalPrice,
		t.SellerConfirmed, t.BuyerConfirmed, t.CreatedAt, nullTime(t.CompletedAt))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("item %s already has a transaction", t.ItemID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (p *transactionStore) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return p.getTxn(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = $1`, id)
}

func (p *transactionStore) GetByItem(ctx context.Context, itemID uuid.UUID) (*transaction.Transaction, error) {
	return p.getTxn(ctx, `SELECT `+txnColumns+` FROM transactions WHERE item_id = $1`, itemID)
}

func (p *transactionStore) getTxn(ctx context.Context, query string, arg any) (*transaction.Transaction, error) {
	t, err := scanTxn(p.s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return t, nil
}

func (p *transactionStore) Update(ctx context.Context, t *transaction.Transaction) error {
	res, err := p.s.db.ExecContext(ctx, `
		UPDATE transactions
		SET seller_confirmed = $2, buyer_confirmed = $3, completed_at = $4
		WHERE id = $1
	`, t.ID, t.SellerConfirmed, t.BuyerConfirmed, nullTime(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

func (p *transactionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*transaction.Transaction, error) {
	rows, err := p.s.db.QueryContext(ctx, `
		SELECT `+txnColumns+` FROM transactions
		WHERE seller_id = $1 OR buyer_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []*transaction.Transaction{}
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
