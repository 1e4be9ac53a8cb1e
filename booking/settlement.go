/*
settlement.go - Provider payout derivation

PURPOSE:
  Turns a confirmed package into the payouts owed to its providers. Pure and
  deterministic: the same package always yields the same entries, in the
  same order, with the same ids.

SPLIT RATIOS:
  Accommodation: 90% of the nightly price (AccommodationPerNight, default)
                 or 90% of nightly price x nights (AccommodationStay).
  Transport:     20% of the package total, once per leg.

  The entries are not apportioned and do not reconcile against the package
  total. Three legs pay out 60% of the total on top of the accommodation
  share. That is the observed business rule, kept as is.

ORDER:
  Accommodation first, then one entry per transport leg in package order.
  No sorting, no deduplication by provider name.

IDS:
  Settlement ids are UUIDv5 over (booking payload, index, provider name), so
  two legs from the same provider still get distinct, stable ids.
*/
package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	AccommodationShare = decimal.RequireFromString("0.9")
	TransportShare     = decimal.RequireFromString("0.2")
)

// settlementNamespace scopes settlement UUIDs.
var settlementNamespace = uuid.MustParse("6f1c9a52-3e0b-4c1e-9a57-1d0b8e6f2c41")

// AccommodationBasis selects what the accommodation share is applied to.
type AccommodationBasis string

const (
	AccommodationPerNight AccommodationBasis = "per_night"
	AccommodationStay     AccommodationBasis = "stay"
)

func (b AccommodationBasis) Valid() bool {
	return b == AccommodationPerNight || b == AccommodationStay
}

// SettlementDeriver computes payouts for a package.
type SettlementDeriver struct {
	Basis AccommodationBasis
}

// Derive returns the settlements for pkg, all Pending.
func (d SettlementDeriver) Derive(pkg TravelPackage) []Settlement {
	out := make([]Settlement, 0, 1+len(pkg.Transport))

	accommodation := pkg.Accommodation.PricePerNight
	if d.Basis == AccommodationStay {
		accommodation = accommodation.Mul(decimal.NewFromInt(int64(StayNights(pkg))))
	}
	out = append(out, Settlement{
		ID:           settlementID(pkg.BookingPayload, 0, pkg.Accommodation.Name),
		ProviderName: pkg.Accommodation.Name,
		Amount:       accommodation.Mul(AccommodationShare),
		Currency:     pkg.Currency,
		PayoutStatus: PayoutPending,
	})

	legShare := pkg.TotalEstimatedPrice.Mul(TransportShare)
	for i, leg := range pkg.Transport {
		out = append(out, Settlement{
			ID:           settlementID(pkg.BookingPayload, i+1, leg.Provider),
			ProviderName: leg.Provider,
			Amount:       legShare,
			Currency:     pkg.Currency,
			PayoutStatus: PayoutPending,
		})
	}
	return out
}

// StayNights is the number of nights between departure and return dates.
// Unparseable or inverted dates count as one night.
func StayNights(pkg TravelPackage) int {
	from, err1 := parseDate(pkg.DepartureDate)
	to, err2 := parseDate(pkg.ReturnDate)
	if err1 != nil || err2 != nil {
		return 1
	}
	n := int(to.Sub(from).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func settlementID(payload string, index int, provider string) string {
	return uuid.NewSHA1(settlementNamespace, []byte(fmt.Sprintf("%s/%d/%s", payload, index, provider))).String()
}
