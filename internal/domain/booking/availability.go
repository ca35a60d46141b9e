package booking

import (
	"sync"

	"github.com/google/uuid"

	"github.com/stayfinder/service-booking/internal/domain"
	"github.com/stayfinder/service-booking/internal/domain/daterange"
)

// AvailabilityIndex tracks the date ranges held by active bookings, keyed
// by listing. Reservation is atomic per listing: the overlap check and the
// insert happen under a single per-listing lock, so two concurrent
// reservations for the same listing can never both succeed on overlapping
// dates. Different listings do not contend with each other.
type AvailabilityIndex struct {
	mu        sync.Mutex
	calendars map[uuid.UUID]*listingCalendar
	byBooking map[uuid.UUID]uuid.UUID
}

// listingCalendar holds the active ranges for one listing.
type listingCalendar struct {
	mu      sync.Mutex
	entries map[uuid.UUID]daterange.DateRange
}

// NewAvailabilityIndex creates an empty AvailabilityIndex.
func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{
		calendars: make(map[uuid.UUID]*listingCalendar),
		byBooking: make(map[uuid.UUID]uuid.UUID),
	}
}

// calendar returns the calendar for the listing, creating it if needed.
func (idx *AvailabilityIndex) calendar(listingID uuid.UUID) *listingCalendar {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cal, ok := idx.calendars[listingID]
	if !ok {
		cal = &listingCalendar{entries: make(map[uuid.UUID]daterange.DateRange)}
		idx.calendars[listingID] = cal
	}
	return cal
}

// IsAvailable reports whether the candidate range overlaps no active
// booking for the listing. The answer may be stale by the time the caller
// acts on it; use Reserve for a check that holds through insertion.
func (idx *AvailabilityIndex) IsAvailable(listingID uuid.UUID, r daterange.DateRange) bool {
	cal := idx.calendar(listingID)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return !cal.conflicts(r)
}

// Reserve atomically checks the candidate range against the listing's
// active bookings and records it. It fails with a date-conflict error when
// any active booking overlaps.
func (idx *AvailabilityIndex) Reserve(listingID, bookingID uuid.UUID, r daterange.DateRange) error {
	cal := idx.calendar(listingID)

	cal.mu.Lock()
	if cal.conflicts(r) {
		cal.mu.Unlock()
		return domain.NewDateConflictError("dates " + r.String() + " are no longer available")
	}
	cal.entries[bookingID] = r
	cal.mu.Unlock()

	idx.mu.Lock()
	idx.byBooking[bookingID] = listingID
	idx.mu.Unlock()
	return nil
}

// Add records a booking's range without checking for conflicts. The caller
// must have verified availability within the same atomic unit, or be
// rebuilding the index from storage.
func (idx *AvailabilityIndex) Add(listingID, bookingID uuid.UUID, r daterange.DateRange) {
	cal := idx.calendar(listingID)

	cal.mu.Lock()
	cal.entries[bookingID] = r
	cal.mu.Unlock()

	idx.mu.Lock()
	idx.byBooking[bookingID] = listingID
	idx.mu.Unlock()
}

// Remove releases the range held by a booking, making its dates available
// again. Removing an unknown booking is a no-op.
func (idx *AvailabilityIndex) Remove(bookingID uuid.UUID) {
	idx.mu.Lock()
	listingID, ok := idx.byBooking[bookingID]
	if ok {
		delete(idx.byBooking, bookingID)
	}
	cal := idx.calendars[listingID]
	idx.mu.Unlock()

	if !ok || cal == nil {
		return
	}
	cal.mu.Lock()
	delete(cal.entries, bookingID)
	cal.mu.Unlock()
}

// conflicts reports whether r overlaps any entry. Caller holds cal.mu.
func (cal *listingCalendar) conflicts(r daterange.DateRange) bool {
	for _, existing := range cal.entries {
		if existing.Overlaps(r) {
			return true
		}
	}
	return false
}
