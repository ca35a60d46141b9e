package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayfinder/service-booking/internal/domain"
	bookingDomain "github.com/stayfinder/service-booking/internal/domain/booking"
	"github.com/stayfinder/service-booking/internal/domain/daterange"
	listingDomain "github.com/stayfinder/service-booking/internal/domain/listing"
	"github.com/stayfinder/service-booking/internal/events"
	"github.com/stayfinder/service-booking/internal/platform/kafka"
	"github.com/stayfinder/service-booking/internal/platform/validation"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	CheckIn   string    `json:"check_in" binding:"required,iso8601date"`
	CheckOut  string    `json:"check_out" binding:"required,iso8601date"`
	Guests    int       `json:"guests" binding:"required,min=1"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingNumber   string     `json:"booking_number"`
	ListingID       uuid.UUID  `json:"listing_id"`
	HostID          uuid.UUID  `json:"host_id"`
	GuestID         uuid.UUID  `json:"guest_id"`
	CheckIn         time.Time  `json:"check_in"`
	CheckOut        time.Time  `json:"check_out"`
	Nights          int        `json:"nights"`
	Guests          int        `json:"guests"`
	Status          string     `json:"status"`
	TotalPriceCents int64      `json:"total_price_cents"`
	ServiceFeeCents int64      `json:"service_fee_cents"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelNote      string     `json:"cancel_note,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	listings listingDomain.ListingRepository
	pricing  bookingDomain.PricingStrategy
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	listings listingDomain.ListingRepository,
	pricing bookingDomain.PricingStrategy,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		listings: listings,
		pricing:  pricing,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking creates a new pending booking for the given guest. The
// availability check and the insert are one atomic unit per listing, so a
// concurrent request for overlapping dates on the same listing fails with
// a date conflict rather than double-booking.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	dates, err := parseDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	lst, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if req.Guests > lst.MaxGuests() {
		return nil, domain.NewCapacityExceededError(req.Guests, lst.MaxGuests())
	}

	quote, err := s.pricing.Quote(dates, lst.PriceCents())
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(lst.ID(), lst.HostID(), guestID, dates, req.Guests, quote)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.CreateIfAvailable(ctx, bk); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, events.BookingRequestedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ListingID:     bk.ListingID(),
		HostID:        bk.HostID(),
		GuestID:       bk.GuestID(),
		CheckIn:       bk.Dates().CheckIn(),
		CheckOut:      bk.Dates().CheckOut(),
		Guests:        bk.Guests(),
		TotalPrice:    bk.TotalPriceCents(),
		Currency:      bk.Currency(),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// QuoteStay returns the price breakdown for a prospective stay without
// creating a booking.
func (s *BookingService) QuoteStay(ctx context.Context, listingID uuid.UUID, checkIn, checkOut string) (*bookingDomain.Quote, error) {
	dates, err := parseDates(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	lst, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(dates, lst.PriceCents())
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}
	return &quote, nil
}

// SetStatus applies a status transition on behalf of the actor and
// persists it with optimistic locking. A lost race against a concurrent
// transition on the same booking surfaces as a retryable conflict.
func (s *BookingService) SetStatus(ctx context.Context, bookingID, actorID uuid.UUID, target bookingDomain.BookingStatus, reason string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.TransitionTo(target, actorID, reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishTransition(ctx, bk, actorID, reason)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking confirms a pending booking on behalf of the listing's host.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	return s.SetStatus(ctx, bookingID, actorID, bookingDomain.StatusConfirmed, "")
}

// RejectBooking rejects a pending booking on behalf of the listing's host.
// Rejection frees the dates for other guests.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	return s.SetStatus(ctx, bookingID, actorID, bookingDomain.StatusRejected, "")
}

// CancelBooking cancels a pending or confirmed booking on behalf of the
// guest who made it. Cancellation frees the dates for other guests.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (*BookingDTO, error) {
	return s.SetStatus(ctx, bookingID, actorID, bookingDomain.StatusCancelled, reason)
}

// RecordPayment records a captured payment against a booking. Repeated
// captures keep the first timestamp.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID uuid.UUID, capturedAt time.Time) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	bk.MarkPaid(capturedAt)
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking. Only the guest who booked, the
// listing's host, or an admin may view it.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && actorID != bk.GuestID() && actorID != bk.HostID() {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetGuestBookings retrieves paginated bookings made by a guest.
func (s *BookingService) GetGuestBookings(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetHostBookings retrieves paginated bookings against a host's listings.
func (s *BookingService) GetHostBookings(ctx context.Context, hostID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByHostID(ctx, hostID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

func parseDates(checkIn, checkOut string) (daterange.DateRange, error) {
	in, err := validation.ParseDate(checkIn)
	if err != nil {
		return daterange.DateRange{}, domain.NewValidationError("check-in must be a YYYY-MM-DD date")
	}
	out, err := validation.ParseDate(checkOut)
	if err != nil {
		return daterange.DateRange{}, domain.NewValidationError("check-out must be a YYYY-MM-DD date")
	}
	return daterange.New(in, out)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		ListingID:       bk.ListingID(),
		HostID:          bk.HostID(),
		GuestID:         bk.GuestID(),
		CheckIn:         bk.Dates().CheckIn(),
		CheckOut:        bk.Dates().CheckOut(),
		Nights:          bk.Dates().Nights(),
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

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishTransition(ctx context.Context, bk *bookingDomain.Booking, actorID uuid.UUID, reason string) {
	now := time.Now().UTC()
	switch bk.Status() {
	case bookingDomain.StatusConfirmed:
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, events.BookingConfirmedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ListingID:     bk.ListingID(),
			GuestID:       bk.GuestID(),
			OccurredAt:    now,
		})
	case bookingDomain.StatusRejected:
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRejected, events.BookingRejectedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ListingID:     bk.ListingID(),
			GuestID:       bk.GuestID(),
			OccurredAt:    now,
		})
	case bookingDomain.StatusCancelled:
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, events.BookingCancelledEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			ListingID:     bk.ListingID(),
			CancelledBy:   actorID,
			Reason:        reason,
			OccurredAt:    now,
		})
	}
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
