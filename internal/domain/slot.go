package domain

import (
	"context"
	"time"
)

// SlotLookahead is how far into the future a slot's start may be
// scheduled, measured from the moment of creation.
const SlotLookahead = 21 * 24 * time.Hour

// Slot is a seller-defined time window during which a property can be
// visited. Slots are never mutated in place; changing times is a
// delete followed by a recreate.
type Slot struct {
	ID         string    `json:"id"`
	SellerID   string    `json:"seller_id"`
	PropertyID string    `json:"property_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSlot returns a new Slot with the given fields. ID is typically set by the repository on create.
func NewSlot(sellerID, propertyID string, startsAt, endsAt, createdAt time.Time) *Slot {
	return &Slot{
		SellerID:   sellerID,
		PropertyID: propertyID,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		CreatedAt:  createdAt,
	}
}

// Overlaps reports whether the half-open interval [start, end) shares
// any instant with the slot's [StartsAt, EndsAt).
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && start.Before(s.EndsAt)
}

// SlotFilter narrows an availability search. Zero values mean "no
// filter" for the corresponding field.
type SlotFilter struct {
	CityID string
	From   *time.Time
	To     *time.Time
}

// AvailableSlot is the read model returned by availability search: the
// slot plus the property/city context buyers filter on and the live
// occupancy for "1/2 booked" displays.
type AvailableSlot struct {
	Slot
	PropertyName  string `json:"property_name"`
	CityID        string `json:"city_id"`
	ReservedCount int    `json:"reserved_count"`
	Capacity      int    `json:"capacity"`
}

// SlotRepository defines storage operations for visit slots.
//
// Create must enforce the per-seller non-overlap invariant atomically
// with the insert: when two creations race for the same seller, at
// most one of a conflicting pair wins. It returns ErrSlotConflict on
// overlap. Delete removes the slot and all reservations held against
// it.
type SlotRepository interface {
	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	Delete(ctx context.Context, id string) error
	ListBySeller(ctx context.Context, sellerID string, p PaginationParams) ([]*Slot, int, error)
	ListAvailable(ctx context.Context, f SlotFilter, now time.Time, p PaginationParams) ([]*AvailableSlot, int, error)
}

// SlotService defines seller-facing slot management and the public
// availability search.
type SlotService interface {
	// CreateSlot validates, in order: property exists and is owned by
	// the seller, end strictly after start, start within the lookahead
	// window, no overlap with the seller's existing slots.
	CreateSlot(ctx context.Context, sellerID, propertyID string, startsAt, endsAt time.Time) (*Slot, error)
	// DeleteSlot removes a slot owned by the seller together with its
	// reservations.
	DeleteSlot(ctx context.Context, slotID, sellerID string) error
	ListSellerSlots(ctx context.Context, sellerID string, p PaginationParams) ([]*Slot, int, error)
	// SearchAvailable returns slots that have not yet started, newest
	// start first, with live occupancy.
	SearchAvailable(ctx context.Context, f SlotFilter, p PaginationParams) ([]*AvailableSlot, int, error)
}
