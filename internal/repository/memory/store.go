// Package memory provides a mutex-guarded in-memory implementation of
// the engine's storage ports. It backs the test suites and the
// STORAGE=memory development mode; postgres is the production store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hogar360/internal/domain"
)

// Store keeps slots, reservations, and a property directory in memory.
// A single RWMutex guards all three maps, which makes every mutating
// operation a serialized critical section: the overlap scan-and-insert
// of Create and the check-and-insert of Reserve are indivisible.
type Store struct {
	mu           sync.RWMutex
	slots        map[string]*domain.Slot
	reservations map[string]*domain.Reservation
	properties   map[string]*domain.Property
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		slots:        make(map[string]*domain.Slot),
		reservations: make(map[string]*domain.Reservation),
		properties:   make(map[string]*domain.Property),
	}
}

var (
	_ domain.SlotRepository        = (*Store)(nil)
	_ domain.ReservationRepository = (*Store)(nil)
	_ domain.PropertyDirectory     = (*Store)(nil)
)

// Create inserts the slot unless it overlaps an existing slot of the
// same seller. The scan and the insert happen under one lock.
func (s *Store) Create(_ context.Context, slot *domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.slots {
		if existing.SellerID != slot.SellerID {
			continue
		}
		if existing.Overlaps(slot.StartsAt, slot.EndsAt) {
			return domain.ErrSlotConflict
		}
	}

	slot.ID = uuid.NewString()
	stored := *slot
	s.slots[slot.ID] = &stored
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *slot
	return &out, nil
}

// Delete removes the slot and cascades to its reservations.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.slots, id)
	for resID, res := range s.reservations {
		if res.SlotID == id {
			delete(s.reservations, resID)
		}
	}
	return nil
}

func (s *Store) ListBySeller(_ context.Context, sellerID string, p domain.PaginationParams) ([]*domain.Slot, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Slot
	for _, slot := range s.slots {
		if slot.SellerID != sellerID {
			continue
		}
		copied := *slot
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	total := len(out)
	return paginate(out, p), total, nil
}

func (s *Store) ListAvailable(_ context.Context, f domain.SlotFilter, now time.Time, p domain.PaginationParams) ([]*domain.AvailableSlot, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AvailableSlot
	for _, slot := range s.slots {
		if !slot.StartsAt.After(now) {
			continue
		}
		if f.From != nil && slot.StartsAt.Before(*f.From) {
			continue
		}
		if f.To != nil && slot.StartsAt.After(*f.To) {
			continue
		}
		prop := s.properties[slot.PropertyID]
		if f.CityID != "" && (prop == nil || prop.CityID != f.CityID) {
			continue
		}
		avail := &domain.AvailableSlot{
			Slot:          *slot,
			ReservedCount: s.countLocked(slot.ID),
			Capacity:      domain.SlotCapacity,
		}
		if prop != nil {
			avail.PropertyName = prop.Name
			avail.CityID = prop.CityID
		}
		out = append(out, avail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	total := len(out)
	return paginate(out, p), total, nil
}

// Reserve runs the full reservation check sequence and the insert
// under one lock: slot exists, slot has not started, capacity below
// the cap, buyer not already booked.
func (s *Store) Reserve(_ context.Context, res *domain.Reservation, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[res.SlotID]
	if !ok {
		return domain.ErrNotFound
	}
	if !slot.StartsAt.After(now) {
		return domain.ErrSlotExpired
	}
	count := 0
	for _, existing := range s.reservations {
		if existing.SlotID != res.SlotID {
			continue
		}
		if existing.BuyerEmail == res.BuyerEmail {
			return domain.ErrDuplicateReservation
		}
		count++
	}
	if count >= domain.SlotCapacity {
		return domain.ErrSlotFull
	}

	res.ID = uuid.NewString()
	stored := *res
	s.reservations[res.ID] = &stored
	return nil
}

func (s *Store) CountBySlot(_ context.Context, slotID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(slotID), nil
}

func (s *Store) ListBySlot(_ context.Context, slotID string) ([]*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Reservation
	for _, res := range s.reservations {
		if res.SlotID != slotID {
			continue
		}
		copied := *res
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PutProperty registers a property in the directory. Properties are
// managed by the external collaborator; this seeds the in-memory view
// of it for tests and dev mode.
func (s *Store) PutProperty(prop *domain.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *prop
	s.properties[prop.ID] = &copied
}

func (s *Store) PropertyByID(_ context.Context, id string) (*domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prop, ok := s.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *prop
	return &out, nil
}

func (s *Store) countLocked(slotID string) int {
	count := 0
	for _, res := range s.reservations {
		if res.SlotID == slotID {
			count++
		}
	}
	return count
}

func paginate[T any](items []T, p domain.PaginationParams) []T {
	if p.Limit() == 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
