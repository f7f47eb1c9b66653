// internal/store/postgres/postgres.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"leauction/internal/auction"
	"leauction/internal/bidding"
	"leauction/internal/identity"
	"leauction/internal/notification"
	"leauction/internal/transaction"
)

// Store implements every persistence contract on PostgreSQL. Like the
// in-memory store it hands out per-domain facades over one shared pool.
type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("leauction/store"),
	}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Items() auction.Store              { return &itemStore{s} }
func (s *Store) Bids() bidding.Store               { return &bidStore{s} }
func (s *Store) Users() identity.Store             { return &userStore{s} }
func (s *Store) Notifications() notification.Store { return &notificationStore{s} }
func (s *Store) Transactions() transaction.Store   { return &transactionStore{s} }

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			nickname TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS auction_items (
			id UUID PRIMARY KEY,
			seller_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			condition TEXT NOT NULL,
			starting_price NUMERIC(14,2) NOT NULL,
			reserve_price NUMERIC(14,2),
			increment NUMERIC(14,2) NOT NULL,
			buyout_price NUMERIC(14,2),
			current_price NUMERIC(14,2) NOT NULL,
			bid_count INTEGER NOT NULL DEFAULT 0,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			status TEXT NOT NULL,
			winner_id UUID,
			ending_soon_sent BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status_end_time
			ON auction_items(status, end_time)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL REFERENCES auction_items(id) ON DELETE CASCADE,
			bidder_id UUID NOT NULL REFERENCES users(id),
			amount NUMERIC(14,2) NOT NULL,
			seq INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE(item_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			item_id UUID NOT NULL UNIQUE REFERENCES auction_items(id),
			seller_id UUID NOT NULL REFERENCES users(id),
			buyer_id UUID NOT NULL REFERENCES users(id),
			final_price NUMERIC(14,2) NOT NULL,
			seller_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			buyer_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			related_item_id UUID,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user
			ON notifications(user_id, is_read)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
