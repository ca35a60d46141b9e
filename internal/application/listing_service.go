package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayfinder/service-booking/internal/domain"
	listingDomain "github.com/stayfinder/service-booking/internal/domain/listing"
)

// LocationRequest is the request DTO for a listing's location.
type LocationRequest struct {
	Address   string  `json:"address" binding:"required"`
	City      string  `json:"city" binding:"required"`
	State     string  `json:"state"`
	Country   string  `json:"country" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateListingRequest is the request DTO for publishing a listing.
type CreateListingRequest struct {
	Title       string          `json:"title" binding:"required,max=100"`
	Description string          `json:"description" binding:"required,max=1000"`
	Location    LocationRequest `json:"location" binding:"required"`
	PriceCents  int64           `json:"price_cents" binding:"required,min=1"`
	MaxGuests   int             `json:"max_guests" binding:"required,min=1"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	Amenities   []string        `json:"amenities"`
	Images      []string        `json:"images" binding:"required,min=1"`
}

// UpdateListingRequest is the request DTO for partially updating a listing.
// Zero values leave the corresponding field unchanged.
type UpdateListingRequest struct {
	Title       string           `json:"title" binding:"max=100"`
	Description string           `json:"description" binding:"max=1000"`
	Location    *LocationRequest `json:"location"`
	PriceCents  int64            `json:"price_cents"`
	MaxGuests   int              `json:"max_guests"`
	Bedrooms    int              `json:"bedrooms"`
	Bathrooms   int              `json:"bathrooms"`
	Amenities   []string         `json:"amenities"`
	Images      []string         `json:"images"`
}

// SearchListingsRequest carries the optional search filters.
type SearchListingsRequest struct {
	Location      string
	MinPriceCents int64
	MaxPriceCents int64
	Guests        int
	Amenities     []string
}

// ListingDTO is the API response representation of a listing.
type ListingDTO struct {
	ID          uuid.UUID              `json:"id"`
	HostID      uuid.UUID              `json:"host_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Location    listingDomain.Location `json:"location"`
	PriceCents  int64                  `json:"price_cents"`
	Currency    string                 `json:"currency"`
	MaxGuests   int                    `json:"max_guests"`
	Bedrooms    int                    `json:"bedrooms"`
	Bathrooms   int                    `json:"bathrooms"`
	Amenities   []string               `json:"amenities"`
	Images      []string               `json:"images"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ListingService implements use cases for listing management and search.
type ListingService struct {
	repo   listingDomain.ListingRepository
	logger *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(repo listingDomain.ListingRepository, logger *zap.Logger) *ListingService {
	return &ListingService{repo: repo, logger: logger}
}

// CreateListing publishes a new listing for the given host.
func (s *ListingService) CreateListing(ctx context.Context, hostID uuid.UUID, req CreateListingRequest) (*ListingDTO, error) {
	l, err := listingDomain.NewListing(
		hostID,
		req.Title, req.Description,
		toLocation(req.Location),
		req.PriceCents,
		req.MaxGuests, req.Bedrooms, req.Bathrooms,
		req.Amenities, req.Images,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error("failed to create listing", zap.Error(err))
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", l.ID().String()),
		zap.String("host_id", hostID.String()),
	)
	result := toListingDTO(l)
	return &result, nil
}

// GetListing returns a single listing by ID.
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error) {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	result := toListingDTO(l)
	return &result, nil
}

// SearchListings returns listings matching the given filters, paginated.
func (s *ListingService) SearchListings(ctx context.Context, req SearchListingsRequest, page, limit int) (*domain.PaginatedResult[ListingDTO], error) {
	filter := listingDomain.SearchFilter{
		Location:      req.Location,
		MinPriceCents: req.MinPriceCents,
		MaxPriceCents: req.MaxPriceCents,
		Guests:        req.Guests,
		Amenities:     req.Amenities,
	}
	listings, total, err := s.repo.Search(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	result := domain.NewPaginatedResult(toListingDTOs(listings), total, page, limit)
	return &result, nil
}

// GetHostListings returns all listings owned by the given host.
func (s *ListingService) GetHostListings(ctx context.Context, hostID uuid.UUID) ([]ListingDTO, error) {
	listings, err := s.repo.FindByHostID(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get host listings: %w", err)
	}
	return toListingDTOs(listings), nil
}

// UpdateListing applies partial updates to a listing, verifying ownership.
func (s *ListingService) UpdateListing(ctx context.Context, hostID, listingID uuid.UUID, req UpdateListingRequest) (*ListingDTO, error) {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(hostID) {
		return nil, domain.NewForbiddenError("you do not own this listing")
	}

	var loc *listingDomain.Location
	if req.Location != nil {
		converted := toLocation(*req.Location)
		loc = &converted
	}
	if err := l.Update(
		req.Title, req.Description,
		loc,
		req.PriceCents,
		req.MaxGuests, req.Bedrooms, req.Bathrooms,
		req.Amenities, req.Images,
	); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.Error("failed to update listing", zap.Error(err))
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	s.logger.Info("listing updated", zap.String("listing_id", listingID.String()))
	result := toListingDTO(l)
	return &result, nil
}

// DeleteListing removes a listing, verifying ownership.
func (s *ListingService) DeleteListing(ctx context.Context, hostID, listingID uuid.UUID) error {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !l.IsOwnedBy(hostID) {
		return domain.NewForbiddenError("you do not own this listing")
	}

	if err := s.repo.Delete(ctx, listingID); err != nil {
		s.logger.Error("failed to delete listing", zap.Error(err))
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s.logger.Info("listing deleted", zap.String("listing_id", listingID.String()))
	return nil
}

func toLocation(req LocationRequest) listingDomain.Location {
	return listingDomain.Location{
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
}

func toListingDTO(l *listingDomain.Listing) ListingDTO {
	return ListingDTO{
		ID:          l.ID(),
		HostID:      l.HostID(),
		Title:       l.Title(),
		Description: l.Description(),
		Location:    l.Location(),
		PriceCents:  l.PriceCents(),
		Currency:    domain.CurrencyINR,
		MaxGuests:   l.MaxGuests(),
		Bedrooms:    l.Bedrooms(),
		Bathrooms:   l.Bathrooms(),
		Amenities:   l.Amenities(),
		Images:      l.Images(),
		CreatedAt:   l.CreatedAt(),
		UpdatedAt:   l.UpdatedAt(),
	}
}

func toListingDTOs(listings []*listingDomain.Listing) []ListingDTO {
	dtos := make([]ListingDTO, len(listings))
	for i, l := range listings {
		dtos[i] = toListingDTO(l)
	}
	return dtos
}
