package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hogar360/internal/domain"
)

// propertyRepository is a read-only view over the properties table
// owned by the listing subsystem. The engine only resolves existence,
// ownership, and city.
type propertyRepository struct {
	DB *sql.DB
}

func NewPropertyRepository(db *sql.DB) domain.PropertyDirectory {
	return &propertyRepository{
		DB: db,
	}
}

func (r *propertyRepository) PropertyByID(ctx context.Context, id string) (*domain.Property, error) {
	query := `
		SELECT id, seller_id, name, city_id
		FROM properties
		WHERE id = $1
	`
	prop := &domain.Property{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&prop.ID, &prop.SellerID, &prop.Name, &prop.CityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return prop, nil
}
