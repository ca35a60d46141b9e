package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/stayfinder/service-booking/internal/domain"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

// Location is an immutable value object describing where a listing is.
type Location struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Listing is the aggregate root for a bookable property. Identity and host
// ownership are immutable; descriptive attributes change only through
// host-authorized updates.
type Listing struct {
	id          uuid.UUID
	hostID      uuid.UUID
	title       string
	description string
	location    Location
	priceCents  int64
	maxGuests   int
	bedrooms    int
	bathrooms   int
	amenities   []string
	images      []string
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewListing creates a new Listing with validated fields.
func NewListing(
	hostID uuid.UUID,
	title, description string,
	location Location,
	priceCents int64,
	maxGuests, bedrooms, bathrooms int,
	amenities, images []string,
) (*Listing, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if len(title) > maxTitleLen {
		return nil, domain.NewValidationError("title cannot be more than 100 characters")
	}
	if description == "" {
		return nil, domain.NewValidationError("description is required")
	}
	if len(description) > maxDescriptionLen {
		return nil, domain.NewValidationError("description cannot be more than 1000 characters")
	}
	if location.Address == "" || location.City == "" || location.Country == "" {
		return nil, domain.NewValidationError("location address, city and country are required")
	}
	if priceCents <= 0 {
		return nil, domain.NewValidationError("nightly price must be positive")
	}
	if maxGuests < 1 {
		return nil, domain.NewValidationError("maximum guests must be at least 1")
	}
	if bedrooms < 0 || bathrooms < 0 {
		return nil, domain.NewValidationError("bedroom and bathroom counts cannot be negative")
	}
	if len(images) == 0 {
		return nil, domain.NewValidationError("at least one image is required")
	}

	now := time.Now().UTC()
	return &Listing{
		id:          uuid.New(),
		hostID:      hostID,
		title:       title,
		description: description,
		location:    location,
		priceCents:  priceCents,
		maxGuests:   maxGuests,
		bedrooms:    bedrooms,
		bathrooms:   bathrooms,
		amenities:   amenities,
		images:      images,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Listing from persistence data (no validation).
func Reconstruct(
	id, hostID uuid.UUID,
	title, description string,
	location Location,
	priceCents int64,
	maxGuests, bedrooms, bathrooms int,
	amenities, images []string,
	version int64,
	createdAt, updatedAt time.Time,
) *Listing {
	return &Listing{
		id:          id,
		hostID:      hostID,
		title:       title,
		description: description,
		location:    location,
		priceCents:  priceCents,
		maxGuests:   maxGuests,
		bedrooms:    bedrooms,
		bathrooms:   bathrooms,
		amenities:   amenities,
		images:      images,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (l *Listing) ID() uuid.UUID        { return l.id }
func (l *Listing) HostID() uuid.UUID    { return l.hostID }
func (l *Listing) Title() string        { return l.title }
func (l *Listing) Description() string  { return l.description }
func (l *Listing) Location() Location   { return l.location }
func (l *Listing) PriceCents() int64    { return l.priceCents }
func (l *Listing) MaxGuests() int       { return l.maxGuests }
func (l *Listing) Bedrooms() int        { return l.bedrooms }
func (l *Listing) Bathrooms() int       { return l.bathrooms }
func (l *Listing) Amenities() []string  { return l.amenities }
func (l *Listing) Images() []string     { return l.images }
func (l *Listing) Version() int64       { return l.version }
func (l *Listing) CreatedAt() time.Time { return l.createdAt }
func (l *Listing) UpdatedAt() time.Time { return l.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the listing belongs to the given host.
func (l *Listing) IsOwnedBy(hostID uuid.UUID) bool {
	return l.hostID == hostID
}

// Update applies partial updates to the listing's mutable attributes.
// Zero values leave the corresponding field unchanged.
func (l *Listing) Update(
	title, description string,
	location *Location,
	priceCents int64,
	maxGuests, bedrooms, bathrooms int,
	amenities, images []string,
) error {
	if title != "" {
		if len(title) > maxTitleLen {
			return domain.NewValidationError("title cannot be more than 100 characters")
		}
		l.title = title
	}
	if description != "" {
		if len(description) > maxDescriptionLen {
			return domain.NewValidationError("description cannot be more than 1000 characters")
		}
		l.description = description
	}
	if location != nil {
		l.location = *location
	}
	if priceCents > 0 {
		l.priceCents = priceCents
	}
	if maxGuests > 0 {
		l.maxGuests = maxGuests
	}
	if bedrooms > 0 {
		l.bedrooms = bedrooms
	}
	if bathrooms > 0 {
		l.bathrooms = bathrooms
	}
	if amenities != nil {
		l.amenities = amenities
	}
	if images != nil {
		l.images = images
	}
	l.version++
	l.updatedAt = time.Now().UTC()
	return nil
}
