package listing

import (
	"context"

	"github.com/google/uuid"
)

// SearchFilter narrows a listing search. Zero values mean "no constraint".
type SearchFilter struct {
	// Location matches city, country or address, case-insensitively.
	Location string
	// MinPriceCents and MaxPriceCents bound the nightly rate.
	MinPriceCents int64
	MaxPriceCents int64
	// Guests requires MaxGuests >= Guests.
	Guests int
	// Amenities requires all named amenities to be present.
	Amenities []string
}

// ListingRepository defines the persistence contract for listing aggregates.
type ListingRepository interface {
	// FindByID retrieves a listing by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByHostID retrieves all listings owned by a host.
	FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*Listing, error)

	// Search retrieves listings matching the filter with pagination.
	Search(ctx context.Context, filter SearchFilter, page, limit int) ([]*Listing, int64, error)

	// Save persists a new listing.
	Save(ctx context.Context, listing *Listing) error

	// Update persists changes to an existing listing with optimistic locking.
	Update(ctx context.Context, listing *Listing) error

	// Delete removes a listing.
	Delete(ctx context.Context, id uuid.UUID) error
}
