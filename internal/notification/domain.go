// internal/notification/domain.go
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification types emitted by the auction engine.
const (
	TypeOutbid               = "outbid"
	TypeEndingSoon           = "ending_soon"
	TypeAuctionWon           = "auction_won"
	TypeAuctionSold          = "auction_sold"
	TypeAuctionUnsold        = "auction_unsold"
	TypeReserveNotMet        = "reserve_not_met"
	TypeTransactionConfirmed = "transaction_confirmed"
)

// Notification is a fire-and-forget event record addressed to one user.
type Notification struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	RelatedItemID *uuid.UUID `json:"related_item_id,omitempty"`
	IsRead        bool       `json:"is_read"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Emitter is the side-effect sink used by the auction, bidding and
// transaction services. Delivery is best effort: Emit never reports
// failure to its caller, so a broken sink can never roll back the state
// transition that triggered it.
type Emitter interface {
	Emit(userID uuid.UUID, ntype, title, content string, relatedItemID *uuid.UUID)
}
