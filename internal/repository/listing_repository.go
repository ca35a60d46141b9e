package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayfinder/service-booking/internal/domain"
	listingDomain "github.com/stayfinder/service-booking/internal/domain/listing"
)

// ListingModel is the GORM model for the listings table.
type ListingModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HostID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title       string          `gorm:"not null;size:100"`
	Description string          `gorm:"not null;size:1000"`
	Location    json.RawMessage `gorm:"type:jsonb;not null"`
	City        string          `gorm:"index;not null;size:100"`
	Country     string          `gorm:"index;not null;size:100"`
	PriceCents  int64           `gorm:"not null;index"`
	MaxGuests   int             `gorm:"not null"`
	Bedrooms    int             `gorm:"not null"`
	Bathrooms   int             `gorm:"not null"`
	Amenities   json.RawMessage `gorm:"type:jsonb"`
	Images      json.RawMessage `gorm:"type:jsonb;not null"`
	Version     int64           `gorm:"not null;default:1"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ListingModel) TableName() string {
	return "listings"
}

// GormListingRepository is the GORM-based implementation of ListingRepository.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID retrieves a listing by its unique identifier.
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return toDomainListing(&model)
}

// FindByHostID retrieves all listings owned by a host.
func (r *GormListingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*listingDomain.Listing, error) {
	var models []ListingModel
	if err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find host listings: %w", err)
	}
	return toDomainListings(models)
}

// Search retrieves listings matching the filter with pagination.
func (r *GormListingRepository) Search(ctx context.Context, filter listingDomain.SearchFilter, page, limit int) ([]*listingDomain.Listing, int64, error) {
	var amenitiesJSON string
	if len(filter.Amenities) > 0 {
		wanted, err := json.Marshal(filter.Amenities)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal amenities filter: %w", err)
		}
		amenitiesJSON = string(wanted)
	}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&ListingModel{})
		if filter.Location != "" {
			pattern := "%" + filter.Location + "%"
			q = q.Where(
				"(city ILIKE ? OR country ILIKE ? OR location->>'address' ILIKE ?)",
				pattern, pattern, pattern,
			)
		}
		if filter.MinPriceCents > 0 {
			q = q.Where("price_cents >= ?", filter.MinPriceCents)
		}
		if filter.MaxPriceCents > 0 {
			q = q.Where("price_cents <= ?", filter.MaxPriceCents)
		}
		if filter.Guests > 0 {
			q = q.Where("max_guests >= ?", filter.Guests)
		}
		if amenitiesJSON != "" {
			q = q.Where("amenities @> ?", amenitiesJSON)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var models []ListingModel
	offset := (page - 1) * limit
	if err := base().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search listings: %w", err)
	}

	listings, err := toDomainListings(models)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Save persists a new listing.
func (r *GormListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	model, err := toListingModel(l)
	if err != nil {
		return fmt.Errorf("failed to convert listing to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// Update persists changes to an existing listing with optimistic locking.
func (r *GormListingRepository) Update(ctx context.Context, l *listingDomain.Listing) error {
	model, err := toListingModel(l)
	if err != nil {
		return fmt.Errorf("failed to convert listing to model: %w", err)
	}

	expectedVersion := l.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ListingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":       model.Title,
			"description": model.Description,
			"location":    model.Location,
			"city":        model.City,
			"country":     model.Country,
			"price_cents": model.PriceCents,
			"max_guests":  model.MaxGuests,
			"bedrooms":    model.Bedrooms,
			"bathrooms":   model.Bathrooms,
			"amenities":   model.Amenities,
			"images":      model.Images,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	return nil
}

// Delete removes a listing.
func (r *GormListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ListingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Listing", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toListingModel(l *listingDomain.Listing) (*ListingModel, error) {
	locationJSON, err := json.Marshal(l.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}

	amenities := l.Amenities()
	if amenities == nil {
		amenities = []string{}
	}
	amenitiesJSON, err := json.Marshal(amenities)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal amenities: %w", err)
	}

	imagesJSON, err := json.Marshal(l.Images())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}

	return &ListingModel{
		ID:          l.ID(),
		HostID:      l.HostID(),
		Title:       l.Title(),
		Description: l.Description(),
		Location:    locationJSON,
		City:        l.Location().City,
		Country:     l.Location().Country,
		PriceCents:  l.PriceCents(),
		MaxGuests:   l.MaxGuests(),
		Bedrooms:    l.Bedrooms(),
		Bathrooms:   l.Bathrooms(),
		Amenities:   amenitiesJSON,
		Images:      imagesJSON,
		Version:     l.Version(),
		CreatedAt:   l.CreatedAt(),
		UpdatedAt:   l.UpdatedAt(),
	}, nil
}

func toDomainListing(m *ListingModel) (*listingDomain.Listing, error) {
	var location listingDomain.Location
	if err := json.Unmarshal(m.Location, &location); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}

	var amenities []string
	if len(m.Amenities) > 0 {
		if err := json.Unmarshal(m.Amenities, &amenities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal amenities: %w", err)
		}
	}

	var images []string
	if len(m.Images) > 0 {
		if err := json.Unmarshal(m.Images, &images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}

	return listingDomain.Reconstruct(
		m.ID,
		m.HostID,
		m.Title,
		m.Description,
		location,
		m.PriceCents,
		m.MaxGuests,
		m.Bedrooms,
		m.Bathrooms,
		amenities,
		images,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainListings(models []ListingModel) ([]*listingDomain.Listing, error) {
	listings := make([]*listingDomain.Listing, len(models))
	for i, m := range models {
		l, err := toDomainListing(&m)
		if err != nil {
			return nil, err
		}
		listings[i] = l
	}
	return listings, nil
}
