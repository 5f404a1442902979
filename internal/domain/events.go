package domain

import (
	"context"
	"time"
)

// Event subjects published on the bus.
const (
	SubjectSlotCreated        = "visit.slot.created"
	SubjectSlotDeleted        = "visit.slot.deleted"
	SubjectReservationCreated = "visit.reservation.created"
)

// EventPublisher is the port to the event bus. Publication is
// best-effort: services log failures and never fail the operation that
// triggered the event.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// SlotEvent is the payload for slot lifecycle subjects.
type SlotEvent struct {
	SlotID     string    `json:"slot_id"`
	SellerID   string    `json:"seller_id"`
	PropertyID string    `json:"property_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// ReservationEvent is the payload for visit.reservation.created.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	SlotID        string    `json:"slot_id"`
	BuyerEmail    string    `json:"buyer_email"`
	CreatedAt     time.Time `json:"created_at"`
}
