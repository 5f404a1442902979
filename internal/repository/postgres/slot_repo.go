package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hogar360/internal/domain"
)

type slotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(db *sql.DB) domain.SlotRepository {
	return &slotRepository{
		DB: db,
	}
}

// Create inserts the slot after checking the seller's existing slots
// for overlap. A per-seller advisory lock serializes the scan and the
// insert so two racing creations for the same seller cannot both pass
// the check.
func (r *slotRepository) Create(ctx context.Context, slot *domain.Slot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slot.SellerID); err != nil {
		return fmt.Errorf("acquire seller lock: %w", err)
	}

	var overlaps bool
	overlapQuery := `
		SELECT EXISTS (
			SELECT 1 FROM slots
			WHERE seller_id = $1 AND starts_at < $3 AND ends_at > $2
		)
	`
	if err := tx.QueryRowContext(ctx, overlapQuery, slot.SellerID, slot.StartsAt, slot.EndsAt).Scan(&overlaps); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if overlaps {
		return domain.ErrSlotConflict
	}

	insertQuery := `
		INSERT INTO slots (seller_id, property_id, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertQuery, slot.SellerID, slot.PropertyID, slot.StartsAt, slot.EndsAt, slot.CreatedAt).Scan(&slot.ID); err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return tx.Commit()
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `
		SELECT id, seller_id, property_id, starts_at, ends_at, created_at
		FROM slots
		WHERE id = $1
	`
	slot := &domain.Slot{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&slot.ID, &slot.SellerID, &slot.PropertyID, &slot.StartsAt, &slot.EndsAt, &slot.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return slot, nil
}

// Delete removes the slot row. Reservations referencing it are removed
// by the ON DELETE CASCADE constraint on reservations.slot_id.
func (r *slotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) ListBySeller(ctx context.Context, sellerID string, p domain.PaginationParams) ([]*domain.Slot, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM slots WHERE seller_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, sellerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, seller_id, property_id, starts_at, ends_at, created_at
		FROM slots
		WHERE seller_id = $1
		ORDER BY starts_at DESC
		LIMIT NULLIF($2, 0) OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, sellerID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var slots []*domain.Slot
	for rows.Next() {
		slot := &domain.Slot{}
		if err := rows.Scan(&slot.ID, &slot.SellerID, &slot.PropertyID, &slot.StartsAt, &slot.EndsAt, &slot.CreatedAt); err != nil {
			return nil, 0, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, total, nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, f domain.SlotFilter, now time.Time, p domain.PaginationParams) ([]*domain.AvailableSlot, int, error) {
	var from, to sql.NullTime
	if f.From != nil {
		from = sql.NullTime{Time: *f.From, Valid: true}
	}
	if f.To != nil {
		to = sql.NullTime{Time: *f.To, Valid: true}
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM slots s
		JOIN properties p ON p.id = s.property_id
		WHERE s.starts_at > $1
		  AND ($2 = '' OR p.city_id = $2)
		  AND ($3::timestamptz IS NULL OR s.starts_at >= $3)
		  AND ($4::timestamptz IS NULL OR s.starts_at <= $4)
	`
	if err := r.DB.QueryRowContext(ctx, countQuery, now, f.CityID, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT s.id, s.seller_id, s.property_id, s.starts_at, s.ends_at, s.created_at,
		       p.name, p.city_id,
		       (SELECT COUNT(*) FROM reservations r WHERE r.slot_id = s.id) AS reserved
		FROM slots s
		JOIN properties p ON p.id = s.property_id
		WHERE s.starts_at > $1
		  AND ($2 = '' OR p.city_id = $2)
		  AND ($3::timestamptz IS NULL OR s.starts_at >= $3)
		  AND ($4::timestamptz IS NULL OR s.starts_at <= $4)
		ORDER BY s.starts_at DESC
		LIMIT NULLIF($5, 0) OFFSET $6
	`
	rows, err := r.DB.QueryContext(ctx, query, now, f.CityID, from, to, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var slots []*domain.AvailableSlot
	for rows.Next() {
		avail := &domain.AvailableSlot{Capacity: domain.SlotCapacity}
		if err := rows.Scan(
			&avail.ID, &avail.SellerID, &avail.PropertyID, &avail.StartsAt, &avail.EndsAt, &avail.CreatedAt,
			&avail.PropertyName, &avail.CityID, &avail.ReservedCount,
		); err != nil {
			return nil, 0, err
		}
		slots = append(slots, avail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if slots == nil {
		slots = []*domain.AvailableSlot{}
	}
	return slots, total, nil
}
