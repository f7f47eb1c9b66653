// internal/store/memory/memory.go
package memory

import (
	"sync"

	"github.com/google/uuid"

	"leauction/internal/auction"
	"leauction/internal/bidding"
	"leauction/internal/identity"
	"leauction/internal/notification"
	"leauction/internal/transaction"
)

// Store is the in-memory implementation of every persistence contract.
// It backs tests and the standalone dev mode when no DATABASE_URL is
// configured. Values are cloned on the way in and out so callers can
// never alias store-internal state. Each domain contract is served by a
// facade over the same core so the whole dataset shares one lock.
type Store struct {
	mu sync.RWMutex

	users         map[uuid.UUID]*identity.User
	usersByEmail  map[string]uuid.UUID
	items         map[uuid.UUID]*auction.Item
	bids          map[uuid.UUID][]*bidding.Bid // itemID -> bids ordered by Seq asc
	transactions  map[uuid.UUID]*transaction.Transaction
	txnByItem     map[uuid.UUID]uuid.UUID
	notifications map[uuid.UUID][]*notification.Notification // userID -> newest last
}

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*identity.User),
		usersByEmail:  make(map[string]uuid.UUID),
		items:         make(map[uuid.UUID]*auction.Item),
		bids:          make(map[uuid.UUID][]*bidding.Bid),
		transactions:  make(map[uuid.UUID]*transaction.Transaction),
		txnByItem:     make(map[uuid.UUID]uuid.UUID),
		notifications: make(map[uuid.UUID][]*notification.Notification),
	}
}

func (s *Store) Items() auction.Store              { return &itemStore{s} }
func (s *Store) Bids() bidding.Store               { return &bidStore{s} }
func (s *Store) Users() identity.Store             { return &userStore{s} }
func (s *Store) Notifications() notification.Store { return &notificationStore{s} }
func (s *Store) Transactions() transaction.Store   { return &transactionStore{s} }
