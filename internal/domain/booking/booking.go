package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/stayfinder/service-booking/internal/domain"
	"github.com/stayfinder/service-booking/internal/domain/daterange"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain. A booking holds a
// guest's claim on a listing's calendar for a half-open date range. The
// total price is snapshotted at creation time and never recomputed, even
// if the listing's nightly rate changes later.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	listingID     uuid.UUID
	hostID        uuid.UUID
	guestID       uuid.UUID
	dates         daterange.DateRange
	guests        int
	status        BookingStatus

	totalPriceCents int64
	serviceFeeCents int64
	currency        string

	paidAt      *time.Time
	confirmedAt *time.Time
	rejectedAt  *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "SF-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "SF-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	listingID uuid.UUID,
	hostID uuid.UUID,
	guestID uuid.UUID,
	dates daterange.DateRange,
	guests int,
	quote Quote,
) (*Booking, error) {
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if dates.IsZero() {
		return nil, domain.NewValidationError("date range is required")
	}
	if guests < 1 {
		return nil, domain.NewValidationError("guest count must be at least 1")
	}
	if quote.TotalCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		listingID:       listingID,
		hostID:          hostID,
		guestID:         guestID,
		dates:           dates,
		guests:          guests,
		status:          StatusPending,
		totalPriceCents: quote.TotalCents,
		serviceFeeCents: quote.ServiceFeeCents,
		currency:        quote.Currency,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	listingID uuid.UUID,
	hostID uuid.UUID,
	guestID uuid.UUID,
	dates daterange.DateRange,
	guests int,
	status BookingStatus,
	totalPriceCents int64,
	serviceFeeCents int64,
	currency string,
	paidAt *time.Time,
	confirmedAt *time.Time,
	rejectedAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		listingID:       listingID,
		hostID:          hostID,
		guestID:         guestID,
		dates:           dates,
		guests:          guests,
		status:          status,
		totalPriceCents: totalPriceCents,
		serviceFeeCents: serviceFeeCents,
		currency:        currency,
		paidAt:          paidAt,
		confirmedAt:     confirmedAt,
		rejectedAt:      rejectedAt,
		cancelledAt:     cancelledAt,
		cancelNote:      cancelNote,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ListingID returns the booked listing's identifier.
func (b *Booking) ListingID() uuid.UUID { return b.listingID }

// HostID returns the user ID of the listing's host.
func (b *Booking) HostID() uuid.UUID { return b.hostID }

// GuestID returns the user ID of the guest who booked.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// Dates returns the booked date range.
func (b *Booking) Dates() daterange.DateRange { return b.dates }

// Guests returns the number of guests staying.
func (b *Booking) Guests() int { return b.guests }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalPriceCents returns the stay total (nights x nightly rate) in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// ServiceFeeCents returns the platform service fee in cents.
func (b *Booking) ServiceFeeCents() int64 { return b.serviceFeeCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaidAt returns the time payment was captured, or nil if unpaid.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// ConfirmedAt returns the time the host confirmed the booking.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// RejectedAt returns the time the host rejected the booking.
func (b *Booking) RejectedAt() *time.Time { return b.rejectedAt }

// CancelledAt returns the time the guest cancelled the booking.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelNote returns the cancellation reason.
func (b *Booking) CancelNote() string { return b.cancelNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive returns true if the booking occupies the listing's calendar.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed. Only the
// listing's host may confirm.
func (b *Booking) Confirm(actorID uuid.UUID) error {
	if actorID != b.hostID {
		return domain.NewForbiddenError("only the listing's host can confirm a booking")
	}
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Reject transitions the booking from pending to rejected. Only the
// listing's host may reject. Rejection frees the dates.
func (b *Booking) Reject(actorID uuid.UUID) error {
	if actorID != b.hostID {
		return domain.NewForbiddenError("only the listing's host can reject a booking")
	}
	if !b.status.CanTransitionTo(StatusRejected) {
		return domain.NewInvalidStateError(string(b.status), string(StatusRejected))
	}
	now := time.Now().UTC()
	b.status = StatusRejected
	b.rejectedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled. Only the guest who booked
// may cancel, from either pending or confirmed. Cancellation frees the dates.
func (b *Booking) Cancel(actorID uuid.UUID, reason string) error {
	if actorID != b.guestID {
		return domain.NewForbiddenError("only the guest who booked can cancel a booking")
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// TransitionTo applies the requested status change on behalf of actorID,
// dispatching to the matching lifecycle method.
func (b *Booking) TransitionTo(target BookingStatus, actorID uuid.UUID, reason string) error {
	switch target {
	case StatusConfirmed:
		return b.Confirm(actorID)
	case StatusRejected:
		return b.Reject(actorID)
	case StatusCancelled:
		return b.Cancel(actorID, reason)
	default:
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
}

// MarkPaid records the payment capture time. Repeated captures for the
// same booking keep the first timestamp.
func (b *Booking) MarkPaid(at time.Time) {
	if b.paidAt != nil {
		return
	}
	paid := at.UTC()
	b.paidAt = &paid
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
