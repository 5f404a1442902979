package domain

import "errors"

// Sentinel errors shared across the engine. Services wrap them with
// context; controllers match them with errors.Is to pick status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Sentinel errors for slot creation.
var (
	ErrInvalidRange = errors.New("slot end must be strictly after start")
	ErrOutOfWindow  = errors.New("slot start outside the scheduling window")
	ErrSlotConflict = errors.New("slot overlaps an existing slot for this seller")
)

// Sentinel errors for reservations.
var (
	ErrSlotExpired          = errors.New("slot has already started")
	ErrSlotFull             = errors.New("slot is fully booked")
	ErrDuplicateReservation = errors.New("buyer already holds a reservation for this slot")
)
