package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hogar360/internal/domain"
)

type slotService struct {
	slotRepo       domain.SlotRepository
	properties     domain.PropertyDirectory
	clock          domain.Clock
	publisher      domain.EventPublisher
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewSlotService creates a SlotService with the given store, property
// collaborator, clock, and event publisher.
func NewSlotService(
	slotRepo domain.SlotRepository,
	properties domain.PropertyDirectory,
	clock domain.Clock,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SlotService {
	return &slotService{
		slotRepo:       slotRepo,
		properties:     properties,
		clock:          clock,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, sellerID, propertyID string, startsAt, endsAt time.Time) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if sellerID == "" || propertyID == "" {
		return nil, domain.ErrInvalidInput
	}

	prop, err := s.properties.PropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	if prop.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}

	if !endsAt.After(startsAt) {
		return nil, domain.ErrInvalidRange
	}
	// Both window edges are inclusive: a slot may start right now or
	// exactly at the lookahead horizon.
	now := s.clock.Now()
	if startsAt.Before(now) || startsAt.After(now.Add(domain.SlotLookahead)) {
		return nil, domain.ErrOutOfWindow
	}

	slot := domain.NewSlot(sellerID, propertyID, startsAt, endsAt, now)
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			return nil, domain.ErrSlotConflict
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.publish(ctx, domain.SubjectSlotCreated, domain.SlotEvent{
		SlotID:     slot.ID,
		SellerID:   slot.SellerID,
		PropertyID: slot.PropertyID,
		StartsAt:   slot.StartsAt,
		EndsAt:     slot.EndsAt,
	})
	return slot, nil
}

func (s *slotService) DeleteSlot(ctx context.Context, slotID, sellerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get slot: %w", err)
	}
	if slot.SellerID != sellerID {
		return domain.ErrForbidden
	}

	// Reservations held against the slot are removed with it; the
	// ledger never keeps claims on a window that no longer exists.
	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	s.publish(ctx, domain.SubjectSlotDeleted, domain.SlotEvent{
		SlotID:     slot.ID,
		SellerID:   slot.SellerID,
		PropertyID: slot.PropertyID,
		StartsAt:   slot.StartsAt,
		EndsAt:     slot.EndsAt,
	})
	return nil
}

func (s *slotService) ListSellerSlots(ctx context.Context, sellerID string, p domain.PaginationParams) ([]*domain.Slot, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if sellerID == "" {
		return nil, 0, domain.ErrInvalidInput
	}
	slots, total, err := s.slotRepo.ListBySeller(ctx, sellerID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list seller slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, total, nil
}

func (s *slotService) SearchAvailable(ctx context.Context, f domain.SlotFilter, p domain.PaginationParams) ([]*domain.AvailableSlot, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slots, total, err := s.slotRepo.ListAvailable(ctx, f, s.clock.Now(), p)
	if err != nil {
		return nil, 0, fmt.Errorf("list available slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.AvailableSlot{}
	}
	return slots, total, nil
}

// publish sends a lifecycle event best-effort. A bus failure is logged
// and never fails the operation that triggered it.
func (s *slotService) publish(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "subject", subject, "err", err)
	}
}
