package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayfinder/service-booking/internal/application"
	"github.com/stayfinder/service-booking/internal/domain"
	bookingDomain "github.com/stayfinder/service-booking/internal/domain/booking"
	listingDomain "github.com/stayfinder/service-booking/internal/domain/listing"
)

// fakeBookingRepo is an in-memory BookingRepository backed by the
// availability index, so CreateIfAvailable has the same atomicity as the
// real store.
type fakeBookingRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
	index    *bookingDomain.AvailabilityIndex
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		byID:     make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
		index:    bookingDomain.NewAvailabilityIndex(),
	}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.byID {
		if bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", number)
}

func (r *fakeBookingRepo) FindByGuestID(_ context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.GuestID() == guestID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByHostID(_ context.Context, hostID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.HostID() == hostID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindActiveByListing(_ context.Context, listingID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.ListingID() == listingID && bk.IsActive() {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*bookingDomain.Booking, 0, len(r.byID))
	for _, bk := range r.byID {
		out = append(out, bk)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.byID {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) CreateIfAvailable(_ context.Context, bk *bookingDomain.Booking) error {
	if err := r.index.Reserve(bk.ListingID(), bk.ID(), bk.Dates()); err != nil {
		return err
	}
	r.mu.Lock()
	r.byID[bk.ID()] = bk
	r.versions[bk.ID()] = bk.Version()
	r.mu.Unlock()
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	stored, ok := r.versions[bk.ID()]
	if !ok || stored != bk.Version()-1 {
		r.mu.Unlock()
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.byID[bk.ID()] = bk
	r.versions[bk.ID()] = bk.Version()
	r.mu.Unlock()

	if !bk.IsActive() {
		r.index.Remove(bk.ID())
	}
	return nil
}

// fakeListingRepo is an in-memory ListingRepository.
type fakeListingRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*listingDomain.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{byID: make(map[uuid.UUID]*listingDomain.Listing)}
}

func (r *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return l, nil
}

func (r *fakeListingRepo) FindByHostID(_ context.Context, hostID uuid.UUID) ([]*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*listingDomain.Listing
	for _, l := range r.byID {
		if l.HostID() == hostID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) Search(_ context.Context, filter listingDomain.SearchFilter, page, limit int) ([]*listingDomain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*listingDomain.Listing
	for _, l := range r.byID {
		if r.matches(l, filter) {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeListingRepo) matches(l *listingDomain.Listing, filter listingDomain.SearchFilter) bool {
	if filter.Location != "" {
		loc := l.Location()
		needle := strings.ToLower(filter.Location)
		if !strings.Contains(strings.ToLower(loc.City), needle) &&
			!strings.Contains(strings.ToLower(loc.Country), needle) &&
			!strings.Contains(strings.ToLower(loc.Address), needle) {
			return false
		}
	}
	if filter.MinPriceCents > 0 && l.PriceCents() < filter.MinPriceCents {
		return false
	}
	if filter.MaxPriceCents > 0 && l.PriceCents() > filter.MaxPriceCents {
		return false
	}
	if filter.Guests > 0 && l.MaxGuests() < filter.Guests {
		return false
	}
	for _, want := range filter.Amenities {
		found := false
		for _, have := range l.Amenities() {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *fakeListingRepo) Save(_ context.Context, l *listingDomain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.ID()] = l
	return nil
}

func (r *fakeListingRepo) Update(_ context.Context, l *listingDomain.Listing) error {
	return r.Save(context.Background(), l)
}

func (r *fakeListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

// --- Fixtures ---

type fixture struct {
	service  *application.BookingService
	bookings *fakeBookingRepo
	listings *fakeListingRepo
	listing  *listingDomain.Listing
	hostID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hostID := uuid.New()
	lst, err := listingDomain.NewListing(
		hostID,
		"Seaside Villa",
		"Two bedroom villa near the beach",
		listingDomain.Location{Address: "12 Beach Rd", City: "Goa", Country: "India"},
		100000, // 1000 rupees a night
		4, 2, 1,
		[]string{"wifi"},
		[]string{"https://img.example/villa.jpg"},
	)
	require.NoError(t, err)

	bookings := newFakeBookingRepo()
	listings := newFakeListingRepo()
	require.NoError(t, listings.Save(context.Background(), lst))

	service := application.NewBookingService(
		bookings,
		listings,
		bookingDomain.NewStandardPricingStrategy(),
		nil,
		zap.NewNop(),
	)
	return &fixture{
		service:  service,
		bookings: bookings,
		listings: listings,
		listing:  lst,
		hostID:   hostID,
	}
}

func (f *fixture) createBooking(t *testing.T, guestID uuid.UUID, checkIn, checkOut string) *application.BookingDTO {
	t.Helper()
	dto, err := f.service.CreateBooking(context.Background(), guestID, application.CreateBookingRequest{
		ListingID: f.listing.ID(),
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    2,
	})
	require.NoError(t, err)
	return dto
}

// --- Tests ---

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()

	dto := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")

	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, f.listing.ID(), dto.ListingID)
	assert.Equal(t, f.hostID, dto.HostID)
	assert.Equal(t, guestID, dto.GuestID)
	assert.Equal(t, 3, dto.Nights)
	assert.Equal(t, int64(300000), dto.TotalPriceCents)
	assert.Equal(t, int64(36000), dto.ServiceFeeCents)
	assert.Equal(t, "INR", dto.Currency)
	assert.Regexp(t, `^SF-[A-Z2-9]{6}$`, dto.BookingNumber)
}

func TestCreateBooking_InvalidDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		wantErr  interface{}
	}{
		{"checkout before checkin", "2026-09-04", "2026-09-01", new(*domain.InvalidRangeError)},
		{"same day", "2026-09-01", "2026-09-01", new(*domain.InvalidRangeError)},
		{"garbage check-in", "not-a-date", "2026-09-04", new(*domain.ValidationError)},
		{"garbage check-out", "2026-09-01", "04/09/2026", new(*domain.ValidationError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
				ListingID: f.listing.ID(),
				CheckIn:   tt.checkIn,
				CheckOut:  tt.checkOut,
				Guests:    2,
			})
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.wantErr), "got %T: %v", err, err)
		})
	}
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), application.CreateBookingRequest{
		ListingID: f.listing.ID(),
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-04",
		Guests:    5, // listing sleeps 4
	})
	var capErr *domain.CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Requested)
	assert.Equal(t, 4, capErr.Max)
}

func TestCreateBooking_UnknownListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), application.CreateBookingRequest{
		ListingID: uuid.New(),
		CheckIn:   "2026-09-01",
		CheckOut:  "2026-09-04",
		Guests:    2,
	})
	var notFoundErr *domain.NotFoundError
	assert.True(t, errors.As(err, &notFoundErr))
}

func TestCreateBooking_OverlapConflict(t *testing.T) {
	f := newFixture(t)
	f.createBooking(t, uuid.New(), "2026-09-10", "2026-09-15")

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), application.CreateBookingRequest{
		ListingID: f.listing.ID(),
		CheckIn:   "2026-09-12",
		CheckOut:  "2026-09-17",
		Guests:    2,
	})
	var conflictErr *domain.DateConflictError
	assert.True(t, errors.As(err, &conflictErr))
}

func TestCreateBooking_BackToBackStaysAllowed(t *testing.T) {
	f := newFixture(t)
	f.createBooking(t, uuid.New(), "2026-09-10", "2026-09-15")
	f.createBooking(t, uuid.New(), "2026-09-15", "2026-09-20")
	f.createBooking(t, uuid.New(), "2026-09-05", "2026-09-10")
}

func TestCreateBooking_ConcurrentRace_OneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const racers = 16
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
				ListingID: f.listing.ID(),
				CheckIn:   "2026-09-10",
				CheckOut:  "2026-09-15",
				Guests:    2,
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var conflictErr *domain.DateConflictError
		assert.True(t, errors.As(err, &conflictErr), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins, "exactly one racer should win the dates")
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	dto := f.createBooking(t, uuid.New(), "2026-09-01", "2026-09-04")

	confirmed, err := f.service.ConfirmBooking(context.Background(), dto.ID, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, dto.Version+1, confirmed.Version)
}

func TestConfirmBooking_GuestForbidden(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()
	dto := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")

	_, err := f.service.ConfirmBooking(context.Background(), dto.ID, guestID)
	var forbiddenErr *domain.ForbiddenError
	assert.True(t, errors.As(err, &forbiddenErr))
}

func TestRejectBooking_FreesDates(t *testing.T) {
	f := newFixture(t)
	dto := f.createBooking(t, uuid.New(), "2026-09-01", "2026-09-04")

	rejected, err := f.service.RejectBooking(context.Background(), dto.ID, f.hostID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)

	// The same dates can now be booked again.
	f.createBooking(t, uuid.New(), "2026-09-01", "2026-09-04")
}

func TestCancelBooking_FreesDates(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()
	dto := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")

	cancelled, err := f.service.CancelBooking(context.Background(), dto.ID, guestID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancelNote)

	f.createBooking(t, uuid.New(), "2026-09-01", "2026-09-04")
}

func TestCancelBooking_TerminalBookingRejectsRetry(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()
	dto := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")

	_, err := f.service.CancelBooking(context.Background(), dto.ID, guestID, "")
	require.NoError(t, err)

	_, err = f.service.CancelBooking(context.Background(), dto.ID, guestID, "")
	var stateErr *domain.InvalidStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, "cancelled", stateErr.From)
}

func TestRecordPayment_KeepsFirstCapture(t *testing.T) {
	f := newFixture(t)
	dto := f.createBooking(t, uuid.New(), "2026-09-01", "2026-09-04")

	first := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	paid, err := f.service.RecordPayment(context.Background(), dto.ID, first)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, first, *paid.PaidAt)
	assert.Equal(t, "pending", paid.Status, "payment must not change the status")

	again, err := f.service.RecordPayment(context.Background(), dto.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, *again.PaidAt)
}

func TestGetBooking_Authorization(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()
	dto := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")
	ctx := context.Background()

	_, err := f.service.GetBooking(ctx, dto.ID, guestID, false)
	assert.NoError(t, err, "guest can view own booking")

	_, err = f.service.GetBooking(ctx, dto.ID, f.hostID, false)
	assert.NoError(t, err, "host can view bookings on own listing")

	_, err = f.service.GetBooking(ctx, dto.ID, uuid.New(), true)
	assert.NoError(t, err, "admin can view any booking")

	_, err = f.service.GetBooking(ctx, dto.ID, uuid.New(), false)
	var forbiddenErr *domain.ForbiddenError
	assert.True(t, errors.As(err, &forbiddenErr), "strangers are rejected")
}

func TestQuoteStay(t *testing.T) {
	f := newFixture(t)

	quote, err := f.service.QuoteStay(context.Background(), f.listing.ID(), "2026-09-01", "2026-09-08")
	require.NoError(t, err)
	assert.Equal(t, 7, quote.Nights)
	assert.Equal(t, int64(700000), quote.TotalCents)
	assert.Equal(t, int64(84000), quote.ServiceFeeCents)
	assert.Equal(t, int64(784000), quote.GrandTotalCents)
}

func TestGetBookingStats(t *testing.T) {
	f := newFixture(t)
	guestID := uuid.New()
	a := f.createBooking(t, guestID, "2026-09-01", "2026-09-04")
	f.createBooking(t, uuid.New(), "2026-09-10", "2026-09-12")

	_, err := f.service.ConfirmBooking(context.Background(), a.ID, f.hostID)
	require.NoError(t, err)

	stats, err := f.service.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["confirmed"])
	assert.Equal(t, int64(1), stats.ByStatus["pending"])
}
