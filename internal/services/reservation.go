package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hogar360/internal/domain"
)

type reservationService struct {
	reservationRepo domain.ReservationRepository
	slotRepo        domain.SlotRepository
	clock           domain.Clock
	publisher       domain.EventPublisher
	logger          *slog.Logger
	contextTimeout  time.Duration
}

// NewReservationService creates a ReservationService. The ledger holds
// a read-only reference into the slot store for existence and
// ownership checks; it never mutates slots.
func NewReservationService(
	reservationRepo domain.ReservationRepository,
	slotRepo domain.SlotRepository,
	clock domain.Clock,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		clock:           clock,
		publisher:       publisher,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

func (s *reservationService) Reserve(ctx context.Context, slotID, buyerEmail string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Buyer identity is opaque: trimmed and compared by exact match,
	// never resolved to an account.
	buyerEmail = strings.TrimSpace(buyerEmail)
	if slotID == "" || buyerEmail == "" {
		return nil, domain.ErrInvalidInput
	}

	now := s.clock.Now()
	res := domain.NewReservation(slotID, buyerEmail, now)
	if err := s.reservationRepo.Reserve(ctx, res, now); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrSlotExpired),
			errors.Is(err, domain.ErrSlotFull),
			errors.Is(err, domain.ErrDuplicateReservation):
			return nil, err
		}
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	s.publish(ctx, domain.SubjectReservationCreated, domain.ReservationEvent{
		ReservationID: res.ID,
		SlotID:        res.SlotID,
		BuyerEmail:    res.BuyerEmail,
		CreatedAt:     res.CreatedAt,
	})
	return res, nil
}

func (s *reservationService) CountForSlot(ctx context.Context, slotID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.slotRepo.GetByID(ctx, slotID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get slot: %w", err)
	}
	count, err := s.reservationRepo.CountBySlot(ctx, slotID)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (s *reservationService) ListForSlot(ctx context.Context, slotID, sellerID string) ([]*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}

	reservations, err := s.reservationRepo.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if reservations == nil {
		reservations = []*domain.Reservation{}
	}
	return reservations, nil
}

func (s *reservationService) publish(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "subject", subject, "err", err)
	}
}
