package booking

import (
	"fmt"

	"github.com/stayfinder/service-booking/internal/domain"
	"github.com/stayfinder/service-booking/internal/domain/daterange"
)

// Quote is the price breakdown for a prospective stay. All amounts are in
// the currency's minor units (cents / paise); floats are never used for
// money anywhere in the service.
type Quote struct {
	Nights           int    `json:"nights"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	TotalCents       int64  `json:"total_cents"`
	ServiceFeeCents  int64  `json:"service_fee_cents"`
	GrandTotalCents  int64  `json:"grand_total_cents"`
	Currency         string `json:"currency"`
}

// PricingStrategy defines the interface for quoting a stay.
type PricingStrategy interface {
	// Quote returns the price breakdown for the given dates and nightly rate.
	Quote(dates daterange.DateRange, nightlyRateCents int64) (Quote, error)
}

// serviceFeeBps is the platform service fee in basis points (12%).
const serviceFeeBps = 1200

// StandardPricingStrategy implements the default StayFinder pricing logic:
// the stay total is nights x nightly rate, and the service fee is 12% of
// the total, rounded half-up to the nearest minor unit.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Quote computes the deterministic price breakdown for a stay.
func (s *StandardPricingStrategy) Quote(dates daterange.DateRange, nightlyRateCents int64) (Quote, error) {
	if nightlyRateCents <= 0 {
		return Quote{}, fmt.Errorf("nightly rate must be positive, got %d", nightlyRateCents)
	}
	nights := dates.Nights()
	if nights < 1 {
		return Quote{}, fmt.Errorf("stay must cover at least one night")
	}

	total := int64(nights) * nightlyRateCents
	fee := (total*serviceFeeBps + 5000) / 10000

	return Quote{
		Nights:           nights,
		NightlyRateCents: nightlyRateCents,
		TotalCents:       total,
		ServiceFeeCents:  fee,
		GrandTotalCents:  total + fee,
		Currency:         domain.CurrencyINR,
	}, nil
}
