package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types.
const (
	BookingRequested = "booking.requested"
	BookingConfirmed = "booking.confirmed"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	PaymentCaptured  = "payment.captured"
)

// BookingRequestedEvent is published when a guest creates a booking.
type BookingRequestedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ListingID     uuid.UUID `json:"listing_id"`
	HostID        uuid.UUID `json:"host_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out"`
	Guests        int       `json:"guests"`
	TotalPrice    int64     `json:"total_price_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when the host confirms a booking.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ListingID     uuid.UUID `json:"listing_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingRejectedEvent is published when the host rejects a booking.
type BookingRejectedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ListingID     uuid.UUID `json:"listing_id"`
	GuestID       uuid.UUID `json:"guest_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when the guest cancels a booking.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ListingID     uuid.UUID `json:"listing_id"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from the payment service when a charge
// for a booking succeeds.
type PaymentCapturedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Amount     int64     `json:"amount_cents"`
	Currency   string    `json:"currency"`
	CapturedAt time.Time `json:"captured_at"`
	OccurredAt time.Time `json:"occurred_at"`
}
