package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	listingDomain "github.com/stayfinder/service-booking/internal/domain/listing"
)

const listingCacheTTL = 10 * time.Minute

// cachedListing is the cache serialization form of a listing aggregate.
type cachedListing struct {
	ID          uuid.UUID              `json:"id"`
	HostID      uuid.UUID              `json:"host_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Location    listingDomain.Location `json:"location"`
	PriceCents  int64                  `json:"price_cents"`
	MaxGuests   int                    `json:"max_guests"`
	Bedrooms    int                    `json:"bedrooms"`
	Bathrooms   int                    `json:"bathrooms"`
	Amenities   []string               `json:"amenities"`
	Images      []string               `json:"images"`
	Version     int64                  `json:"version"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// CachedListingRepository decorates a ListingRepository with a Redis
// read-through cache for single-listing lookups. Writes invalidate the
// cached entry; cache failures fall back to the inner repository.
type CachedListingRepository struct {
	inner  listingDomain.ListingRepository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCachedListingRepository creates a new CachedListingRepository.
func NewCachedListingRepository(inner listingDomain.ListingRepository, rdb *redis.Client, logger *zap.Logger) *CachedListingRepository {
	return &CachedListingRepository{inner: inner, rdb: rdb, logger: logger}
}

// FindByID retrieves a listing, serving from cache when possible.
func (r *CachedListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	key := listingCacheKey(id)

	if data, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached cachedListing
		if err := json.Unmarshal(data, &cached); err == nil {
			return fromCachedListing(&cached), nil
		}
		r.logger.Warn("corrupt listing cache entry", zap.String("key", key))
	} else if err != redis.Nil {
		r.logger.Warn("listing cache read failed", zap.Error(err))
	}

	l, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.put(ctx, l)
	return l, nil
}

// FindByHostID retrieves all listings owned by a host.
func (r *CachedListingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*listingDomain.Listing, error) {
	return r.inner.FindByHostID(ctx, hostID)
}

// Search retrieves listings matching the filter with pagination.
func (r *CachedListingRepository) Search(ctx context.Context, filter listingDomain.SearchFilter, page, limit int) ([]*listingDomain.Listing, int64, error) {
	return r.inner.Search(ctx, filter, page, limit)
}

// Save persists a new listing.
func (r *CachedListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	return r.inner.Save(ctx, l)
}

// Update persists changes to a listing and invalidates its cache entry.
func (r *CachedListingRepository) Update(ctx context.Context, l *listingDomain.Listing) error {
	if err := r.inner.Update(ctx, l); err != nil {
		return err
	}
	r.invalidate(ctx, l.ID())
	return nil
}

// Delete removes a listing and invalidates its cache entry.
func (r *CachedListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedListingRepository) put(ctx context.Context, l *listingDomain.Listing) {
	data, err := json.Marshal(toCachedListing(l))
	if err != nil {
		r.logger.Warn("failed to marshal listing for cache", zap.Error(err))
		return
	}
	if err := r.rdb.Set(ctx, listingCacheKey(l.ID()), data, listingCacheTTL).Err(); err != nil {
		r.logger.Warn("listing cache write failed", zap.Error(err))
	}
}

func (r *CachedListingRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.rdb.Del(ctx, listingCacheKey(id)).Err(); err != nil {
		r.logger.Warn("listing cache invalidation failed",
			zap.String("listing_id", id.String()),
			zap.Error(err),
		)
	}
}

func listingCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("listing:%s", id)
}

func toCachedListing(l *listingDomain.Listing) *cachedListing {
	return &cachedListing{
		ID:          l.ID(),
		HostID:      l.HostID(),
		Title:       l.Title(),
		Description: l.Description(),
		Location:    l.Location(),
		PriceCents:  l.PriceCents(),
		MaxGuests:   l.MaxGuests(),
		Bedrooms:    l.Bedrooms(),
		Bathrooms:   l.Bathrooms(),
		Amenities:   l.Amenities(),
		Images:      l.Images(),
		Version:     l.Version(),
		CreatedAt:   l.CreatedAt(),
		UpdatedAt:   l.UpdatedAt(),
	}
}

func fromCachedListing(c *cachedListing) *listingDomain.Listing {
	return listingDomain.Reconstruct(
		c.ID,
		c.HostID,
		c.Title,
		c.Description,
		c.Location,
		c.PriceCents,
		c.MaxGuests,
		c.Bedrooms,
		c.Bathrooms,
		c.Amenities,
		c.Images,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
}
