package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hogar360/internal/domain"
)

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{
		DB: db,
	}
}

// Reserve runs the reservation check sequence and the insert in one
// transaction. Locking the slot row FOR UPDATE serializes concurrent
// reservations against the same slot, so the capacity count and the
// duplicate check are evaluated against a stable state. The unique
// (slot_id, buyer_email) constraint backs the duplicate check at the
// schema level as well.
func (r *reservationRepository) Reserve(ctx context.Context, res *domain.Reservation, now time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var startsAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT starts_at FROM slots WHERE id = $1 FOR UPDATE`, res.SlotID).Scan(&startsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock slot: %w", err)
	}
	if !startsAt.After(now) {
		return domain.ErrSlotExpired
	}

	// the duplicate check runs before the capacity check so a buyer who
	// already holds a seat in a full slot sees the duplicate error
	var duplicate bool
	dupQuery := `SELECT EXISTS (SELECT 1 FROM reservations WHERE slot_id = $1 AND buyer_email = $2)`
	if err := tx.QueryRowContext(ctx, dupQuery, res.SlotID, res.BuyerEmail).Scan(&duplicate); err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if duplicate {
		return domain.ErrDuplicateReservation
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE slot_id = $1`, res.SlotID).Scan(&count); err != nil {
		return fmt.Errorf("count reservations: %w", err)
	}
	if count >= domain.SlotCapacity {
		return domain.ErrSlotFull
	}

	insertQuery := `
		INSERT INTO reservations (slot_id, buyer_email, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertQuery, res.SlotID, res.BuyerEmail, res.CreatedAt).Scan(&res.ID); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return tx.Commit()
}

func (r *reservationRepository) CountBySlot(ctx context.Context, slotID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE slot_id = $1`, slotID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reservationRepository) ListBySlot(ctx context.Context, slotID string) ([]*domain.Reservation, error) {
	query := `
		SELECT id, slot_id, buyer_email, created_at
		FROM reservations
		WHERE slot_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		res := &domain.Reservation{}
		if err := rows.Scan(&res.ID, &res.SlotID, &res.BuyerEmail, &res.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []*domain.Reservation{}
	}
	return reservations, nil
}
