package domain

import "context"

// Property is the read model the engine consumes from the property
// collaborator. Listing CRUD lives outside this service; the engine
// only needs ownership and city for validation and search.
type Property struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Name     string `json:"name"`
	CityID   string `json:"city_id"`
}

// PropertyDirectory is the port to the external property collaborator.
// PropertyByID returns ErrNotFound when no such property exists.
type PropertyDirectory interface {
	PropertyByID(ctx context.Context, id string) (*Property, error)
}
