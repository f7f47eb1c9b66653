// internal/auction/domain.go
package auction

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("item not found")
	ErrForbidden       = errors.New("not allowed to act on this item")
	ErrInvalidState    = errors.New("action not allowed in current status")
	ErrInvalidDuration = errors.New("auction duration must be between 1 and 168 hours")
	ErrCannotCancel    = errors.New("cannot cancel an auction that already has bids")
)

// Status is the lifecycle state of an auction item.
//
// Transitions: draft -> active -> {ended_won, ended_unsold, cancelled};
// ended_won -> completed via the transaction handshake. All other states
// are terminal.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusActive      Status = "active"
	StatusEndedWon    Status = "ended_won"
	StatusEndedUnsold Status = "ended_unsold"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
)

// Terminal reports whether no further auction transitions are possible.
// ended_won counts as terminal for the auction itself; only the
// transaction handshake moves it on to completed.
func (s Status) Terminal() bool {
	switch s {
	case StatusEndedWon, StatusEndedUnsold, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Item categories and conditions accepted at creation time.
var (
	Categories = []string{"electronics", "food", "daily", "other"}
	Conditions = []string{"new", "like_new", "good", "fair"}
)

// Item is one auction listing. The reserve price and the ending-soon
// bookkeeping flag never leave the engine through plain serialization;
// reads go through View.
type Item struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`

	StartingPrice decimal.Decimal  `json:"starting_price"`
	ReservePrice  *decimal.Decimal `json:"-"`
	Increment     decimal.Decimal  `json:"increment"`
	BuyoutPrice   *decimal.Decimal `json:"buyout_price,omitempty"`
	CurrentPrice  decimal.Decimal  `json:"current_price"`

	BidCount  int        `json:"bid_count"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    Status     `json:"status"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`

	EndingSoonSent bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveReserve is the lowest acceptable final price: the reserve
// price when the seller set one, otherwise the starting price.
func (i *Item) EffectiveReserve() decimal.Decimal {
	if i.ReservePrice != nil {
		return *i.ReservePrice
	}
	return i.StartingPrice
}

// ReserveMet reports whether the current price satisfies the reserve.
func (i *Item) ReserveMet() bool {
	return i.CurrentPrice.GreaterThanOrEqual(i.EffectiveReserve())
}

// MinBid is the minimum acceptable next bid: the starting price while no
// bids exist, afterwards current price plus one increment.
func (i *Item) MinBid() decimal.Decimal {
	if i.BidCount == 0 {
		return i.StartingPrice
	}
	return i.CurrentPrice.Add(i.Increment)
}

// View is the read projection of an item. The stored reserve price is
// exposed only to the seller; everyone else sees the derived reserve_met
// and has_reserve booleans instead.
type View struct {
	Item
	ReservePrice *decimal.Decimal `json:"reserve_price,omitempty"`
	ReserveMet   *bool            `json:"reserve_met,omitempty"`
	HasReserve   *bool            `json:"has_reserve,omitempty"`
}

// ViewFor builds the projection appropriate for the given viewer.
func (i *Item) ViewFor(viewerID uuid.UUID) View {
	v := View{Item: *i}
	if viewerID == i.SellerID {
		v.ReservePrice = i.ReservePrice
		return v
	}
	met := i.ReserveMet()
	has := i.ReservePrice != nil
	v.ReserveMet = &met
	v.HasReserve = &has
	return v
}

// ValidationError aggregates the problems found in a create or update
// request so the caller can fix them all at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid item: " + strings.Join(e.Problems, "; ")
}
