package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hogar360/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReservationRepo is an in-memory ReservationRepository for tests.
// It shares a fakeSlotRepo so Reserve can run the same checks the real
// stores do.
type fakeReservationRepo struct {
	slots      *fakeSlotRepo
	bySlot     map[string][]*domain.Reservation
	nextID     int
	reserveErr error // if set, Reserve returns this error
	countErr   error // if set, CountBySlot returns this error
}

func newFakeReservationRepo(slots *fakeSlotRepo) *fakeReservationRepo {
	return &fakeReservationRepo{
		slots:  slots,
		bySlot: make(map[string][]*domain.Reservation),
		nextID: 1,
	}
}

func (f *fakeReservationRepo) Reserve(ctx context.Context, res *domain.Reservation, now time.Time) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	slot, ok := f.slots.byID[res.SlotID]
	if !ok {
		return domain.ErrNotFound
	}
	if !slot.StartsAt.After(now) {
		return domain.ErrSlotExpired
	}
	held := f.bySlot[res.SlotID]
	for _, r := range held {
		if r.BuyerEmail == res.BuyerEmail {
			return domain.ErrDuplicateReservation
		}
	}
	if len(held) >= domain.SlotCapacity {
		return domain.ErrSlotFull
	}
	res.ID = fmt.Sprintf("res-%d", f.nextID)
	f.nextID++
	f.bySlot[res.SlotID] = append(held, res)
	return nil
}

func (f *fakeReservationRepo) CountBySlot(ctx context.Context, slotID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.bySlot[slotID]), nil
}

func (f *fakeReservationRepo) ListBySlot(ctx context.Context, slotID string) ([]*domain.Reservation, error) {
	return f.bySlot[slotID], nil
}

func TestReservationService_Reserve(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}

	futureSlot := func(slots *fakeSlotRepo) {
		_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
	}

	tests := []struct {
		name       string
		setup      func() (*fakeSlotRepo, *fakeReservationRepo)
		slotID     string
		buyerEmail string
		wantErr    error
		assert     func(t *testing.T, repo *fakeReservationRepo, res *domain.Reservation)
	}{
		{
			name: "success",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-1",
			buyerEmail: "buyer@example.com",
			assert: func(t *testing.T, repo *fakeReservationRepo, res *domain.Reservation) {
				require.NotEmpty(t, res.ID)
				assert.Equal(t, "slot-1", res.SlotID)
				assert.Equal(t, "buyer@example.com", res.BuyerEmail)
				assert.True(t, res.CreatedAt.Equal(now))
			},
		},
		{
			name: "buyer identity is trimmed",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-1",
			buyerEmail: "  buyer@example.com  ",
			assert: func(t *testing.T, repo *fakeReservationRepo, res *domain.Reservation) {
				assert.Equal(t, "buyer@example.com", res.BuyerEmail)
			},
		},
		{
			name: "empty buyer",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-1",
			buyerEmail: "   ",
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name: "slot not found",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-missing",
			buyerEmail: "buyer@example.com",
			wantErr:    domain.ErrNotFound,
		},
		{
			name: "slot already started",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				slots.byID["slot-1"] = &domain.Slot{ID: "slot-1", SellerID: "seller-1", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-1",
			buyerEmail: "buyer@example.com",
			wantErr:    domain.ErrSlotExpired,
		},
		{
			name: "slot starting exactly now is expired",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				slots.byID["slot-1"] = &domain.Slot{ID: "slot-1", SellerID: "seller-1", StartsAt: now, EndsAt: now.Add(time.Hour)}
				return slots, newFakeReservationRepo(slots)
			},
			slotID:     "slot-1",
			buyerEmail: "buyer@example.com",
			wantErr:    domain.ErrSlotExpired,
		},
		{
			name: "slot full",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				repo := newFakeReservationRepo(slots)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "a@example.com", now), now)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "b@example.com", now), now)
				return slots, repo
			},
			slotID:     "slot-1",
			buyerEmail: "c@example.com",
			wantErr:    domain.ErrSlotFull,
		},
		{
			name: "duplicate buyer",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				repo := newFakeReservationRepo(slots)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "buyer@example.com", now), now)
				return slots, repo
			},
			slotID:     "slot-1",
			buyerEmail: "buyer@example.com",
			wantErr:    domain.ErrDuplicateReservation,
		},
		{
			name: "repo error",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				futureSlot(slots)
				repo := newFakeReservationRepo(slots)
				repo.reserveErr = errors.New("db error")
				return slots, repo
			},
			slotID:     "slot-1",
			buyerEmail: "buyer@example.com",
			wantErr:    errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, repo := tt.setup()
			pub := &capturingPublisher{}
			svc := NewReservationService(repo, slots, clock, pub, testLogger(), timeout)
			res, err := svc.Reserve(ctx, tt.slotID, tt.buyerEmail)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.Nil(t, res)
				if errors.Is(tt.wantErr, domain.ErrNotFound) ||
					errors.Is(tt.wantErr, domain.ErrInvalidInput) ||
					errors.Is(tt.wantErr, domain.ErrSlotExpired) ||
					errors.Is(tt.wantErr, domain.ErrSlotFull) ||
					errors.Is(tt.wantErr, domain.ErrDuplicateReservation) {
					require.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				}
				assert.Empty(t, pub.subjects)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, res)
			require.Equal(t, []string{domain.SubjectReservationCreated}, pub.subjects)
			if tt.assert != nil {
				tt.assert(t, repo, res)
			}
		})
	}
}

func TestReservationService_CountForSlot(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}

	tests := []struct {
		name      string
		setup     func() (*fakeSlotRepo, *fakeReservationRepo)
		slotID    string
		wantCount int
		wantErr   error
	}{
		{
			name: "success",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
				repo := newFakeReservationRepo(slots)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "a@example.com", now), now)
				return slots, repo
			},
			slotID:    "slot-1",
			wantCount: 1,
		},
		{
			name: "zero for empty slot",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
				return slots, newFakeReservationRepo(slots)
			},
			slotID:    "slot-1",
			wantCount: 0,
		},
		{
			name: "slot not found",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				return slots, newFakeReservationRepo(slots)
			},
			slotID:  "slot-missing",
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, repo := tt.setup()
			svc := NewReservationService(repo, slots, clock, &capturingPublisher{}, testLogger(), timeout)
			count, err := svc.CountForSlot(ctx, tt.slotID)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestReservationService_ListForSlot(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}

	tests := []struct {
		name     string
		setup    func() (*fakeSlotRepo, *fakeReservationRepo)
		slotID   string
		sellerID string
		wantLen  int
		wantErr  error
	}{
		{
			name: "success",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
				repo := newFakeReservationRepo(slots)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "a@example.com", now), now)
				_ = repo.Reserve(ctx, domain.NewReservation("slot-1", "b@example.com", now), now)
				return slots, repo
			},
			slotID:   "slot-1",
			sellerID: "seller-1",
			wantLen:  2,
		},
		{
			name: "empty list for unbooked slot",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
				return slots, newFakeReservationRepo(slots)
			},
			slotID:   "slot-1",
			sellerID: "seller-1",
			wantLen:  0,
		},
		{
			name: "slot not found",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				return slots, newFakeReservationRepo(slots)
			},
			slotID:   "slot-missing",
			sellerID: "seller-1",
			wantErr:  domain.ErrNotFound,
		},
		{
			name: "forbidden not owner",
			setup: func() (*fakeSlotRepo, *fakeReservationRepo) {
				slots := newFakeSlotRepo()
				_ = slots.Create(ctx, domain.NewSlot("seller-1", "prop-1", now.Add(time.Hour), now.Add(2*time.Hour), now))
				return slots, newFakeReservationRepo(slots)
			},
			slotID:   "slot-1",
			sellerID: "seller-2",
			wantErr:  domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, repo := tt.setup()
			svc := NewReservationService(repo, slots, clock, &capturingPublisher{}, testLogger(), timeout)
			got, err := svc.ListForSlot(ctx, tt.slotID, tt.sellerID)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Len(t, got, tt.wantLen)
		})
	}
}
