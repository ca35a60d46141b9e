package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stayfinder/service-booking/internal/domain"
	bookingDomain "github.com/stayfinder/service-booking/internal/domain/booking"
	"github.com/stayfinder/service-booking/internal/domain/daterange"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber   string     `gorm:"uniqueIndex;not null;size:20"`
	ListingID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	HostID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	GuestID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	CheckIn         time.Time  `gorm:"type:date;not null"`
	CheckOut        time.Time  `gorm:"type:date;not null"`
	Guests          int        `gorm:"not null"`
	Status          string     `gorm:"not null;size:30;index"`
	TotalPriceCents int64      `gorm:"not null"`
	ServiceFeeCents int64      `gorm:"not null"`
	Currency        string     `gorm:"not null;size:3;default:'INR'"`
	PaidAt          *time.Time `gorm:""`
	ConfirmedAt     *time.Time `gorm:""`
	RejectedAt      *time.Time `gorm:""`
	CancelledAt     *time.Time `gorm:""`
	CancelNote      string     `gorm:"size:500"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// activeStatuses are the statuses that block a listing's dates.
var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusConfirmed),
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves bookings made by a specific guest with pagination.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "guest_id = ?", []interface{}{guestID}, page, limit)
}

// FindByHostID retrieves bookings against a host's listings with pagination.
func (r *GormBookingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "host_id = ?", []interface{}{hostID}, page, limit)
}

// FindActiveByListing retrieves the pending and confirmed bookings for a listing.
func (r *GormBookingRepository) FindActiveByListing(ctx context.Context, listingID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status IN ?", listingID, activeStatuses).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return toDomainBookings(models)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "", nil, page, limit)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CreateIfAvailable persists a new booking unless its dates overlap an
// active booking for the same listing. A per-listing advisory lock makes
// the overlap check and the insert atomic against concurrent requests;
// the lock is released when the transaction ends. The exclusion
// constraint on the bookings table backstops this at the storage level.
func (r *GormBookingRepository) CreateIfAvailable(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?::text))",
			model.ListingID.String(),
		).Error; err != nil {
			return fmt.Errorf("failed to acquire listing lock: %w", err)
		}

		var overlapping int64
		if err := tx.Model(&BookingModel{}).
			Where("listing_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
				model.ListingID, activeStatuses, model.CheckOut, model.CheckIn).
			Count(&overlapping).Error; err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if overlapping > 0 {
			return domain.NewDateConflictError("these dates are no longer available")
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	return err
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called, so the stored row must still be at
	// version - 1 for this update to win.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"paid_at":      model.PaidAt,
			"confirmed_at": model.ConfirmedAt,
			"rejected_at":  model.RejectedAt,
			"cancelled_at": model.CancelledAt,
			"cancel_note":  model.CancelNote,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

func (r *GormBookingRepository) findPage(ctx context.Context, cond string, args []interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&BookingModel{})
		if cond != "" {
			q = q.Where(cond, args...)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := base().
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ListingID:       bk.ListingID(),
		HostID:          bk.HostID(),
		GuestID:         bk.GuestID(),
		CheckIn:         bk.Dates().CheckIn(),
		CheckOut:        bk.Dates().CheckOut(),
		Guests:          bk.Guests(),
		Status:          string(bk.Status()),
		TotalPriceCents: bk.TotalPriceCents(),
		ServiceFeeCents: bk.ServiceFeeCents(),
		Currency:        bk.Currency(),
		PaidAt:          bk.PaidAt(),
		ConfirmedAt:     bk.ConfirmedAt(),
		RejectedAt:      bk.RejectedAt(),
		CancelledAt:     bk.CancelledAt(),
		CancelNote:      bk.CancelNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	dates, err := daterange.New(m.CheckIn, m.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("stored booking has invalid dates: %w", err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.ListingID,
		m.HostID,
		m.GuestID,
		dates,
		m.Guests,
		status,
		m.TotalPriceCents,
		m.ServiceFeeCents,
		m.Currency,
		m.PaidAt,
		m.ConfirmedAt,
		m.RejectedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
