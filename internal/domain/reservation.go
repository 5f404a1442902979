package domain

import (
	"context"
	"time"
)

// SlotCapacity is the maximum number of reservations a single slot can
// hold.
const SlotCapacity = 2

// Reservation is a buyer's claim on one seat within a slot. The buyer
// is identified by an opaque string (in practice an email address);
// the engine compares it by exact match and does not link it to an
// account.
type Reservation struct {
	ID         string    `json:"id"`
	SlotID     string    `json:"slot_id"`
	BuyerEmail string    `json:"buyer_email"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewReservation returns a new Reservation with the given fields. ID is typically set by the repository on create.
func NewReservation(slotID, buyerEmail string, createdAt time.Time) *Reservation {
	return &Reservation{
		SlotID:     slotID,
		BuyerEmail: buyerEmail,
		CreatedAt:  createdAt,
	}
}

// ReservationRepository defines storage operations for reservations.
//
// Reserve is the engine's critical section: the slot-exists check, the
// not-yet-started check against now, the capacity check, the duplicate
// check, and the insert must execute as one atomic unit so that
// concurrent callers can never push a slot past SlotCapacity or book
// the same buyer twice. It returns ErrNotFound, ErrSlotExpired,
// ErrSlotFull, or ErrDuplicateReservation accordingly.
type ReservationRepository interface {
	Reserve(ctx context.Context, res *Reservation, now time.Time) error
	CountBySlot(ctx context.Context, slotID string) (int, error)
	ListBySlot(ctx context.Context, slotID string) ([]*Reservation, error)
}

// ReservationService defines buyer-facing reservation operations and
// the occupancy queries used by availability displays.
type ReservationService interface {
	Reserve(ctx context.Context, slotID, buyerEmail string) (*Reservation, error)
	CountForSlot(ctx context.Context, slotID string) (int, error)
	// ListForSlot returns the reservations held against one of the
	// seller's slots; ErrForbidden when the slot belongs to someone
	// else.
	ListForSlot(ctx context.Context, slotID, sellerID string) ([]*Reservation, error)
}
