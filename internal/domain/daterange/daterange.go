package daterange

import (
	"fmt"
	"time"

	"github.com/stayfinder/service-booking/internal/domain"
)

const nightsPerDay = 24 * time.Hour

// DateRange is an immutable half-open [check-in, check-out) interval over
// calendar days. Both endpoints are normalized to UTC midnight.
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// New creates a DateRange from two calendar dates. It fails when the
// check-out date is not strictly after the check-in date.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	if !out.After(in) {
		return DateRange{}, domain.NewInvalidRangeError(
			fmt.Sprintf("check-out %s must be after check-in %s",
				out.Format("2006-01-02"), in.Format("2006-01-02")),
		)
	}
	return DateRange{checkIn: in, checkOut: out}, nil
}

// CheckIn returns the check-in date (inclusive).
func (r DateRange) CheckIn() time.Time { return r.checkIn }

// CheckOut returns the check-out date (exclusive).
func (r DateRange) CheckOut() time.Time { return r.checkOut }

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.checkOut.Sub(r.checkIn) / nightsPerDay)
}

// Overlaps reports whether the two ranges intersect under the half-open
// rule. Back-to-back stays sharing a boundary date do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

// IsZero reports whether the range has not been initialized.
func (r DateRange) IsZero() bool {
	return r.checkIn.IsZero() && r.checkOut.IsZero()
}

// String returns the range in "YYYY-MM-DD..YYYY-MM-DD" form.
func (r DateRange) String() string {
	return r.checkIn.Format("2006-01-02") + ".." + r.checkOut.Format("2006-01-02")
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
