/*
projection.go - Read-side aggregation for the provider dashboard

PURPOSE:
  Pure functions over the result of Ledger.List(). Nothing is cached or
  maintained incrementally; the dashboard recomputes on every read.

FUNCTIONS:
  RevenueByCurrency:  85% platform cut of each package total, per currency
  FlattenSettlements: every settlement with its owning booking id
  GroupByStatus:      stable partition by fulfillment status
  FilterByStatus:     one status, order preserved
  Summarize:          all of the above plus payout totals

ORDER:
  Every function preserves the order of its input (most recent first when
  fed straight from List()).
*/
package booking

import "github.com/shopspring/decimal"

// PlatformShare is the part of a package total the platform keeps.
var PlatformShare = decimal.RequireFromString("0.85")

// RevenueByCurrency sums PlatformShare x total per package currency.
func RevenueByCurrency(bookings []Booking) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, b := range bookings {
		cut := b.Package.TotalEstimatedPrice.Mul(PlatformShare)
		out[b.Package.Currency] = out[b.Package.Currency].Add(cut)
	}
	return out
}

// SettlementRow is a settlement together with the booking that owes it.
type SettlementRow struct {
	BookingID string `json:"booking_id"`
	Settlement
}

// FlattenSettlements concatenates the settlements of every booking, in
// booking order then settlement order. Bookings stored before settlements
// were tracked contribute nothing.
func FlattenSettlements(bookings []Booking) []SettlementRow {
	out := []SettlementRow{}
	for _, b := range bookings {
		for _, s := range b.Settlements {
			out = append(out, SettlementRow{BookingID: b.ID, Settlement: s})
		}
	}
	return out
}

// GroupByStatus partitions bookings by status. Every known status has an
// entry, possibly empty.
func GroupByStatus(bookings []Booking) map[Status][]Booking {
	out := make(map[Status][]Booking, len(Statuses))
	for _, s := range Statuses {
		out[s] = []Booking{}
	}
	for _, b := range bookings {
		out[b.Status] = append(out[b.Status], b)
	}
	return out
}

// FilterByStatus keeps the bookings with the given status.
func FilterByStatus(bookings []Booking, status Status) []Booking {
	out := []Booking{}
	for _, b := range bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// Dashboard is everything the provider view renders in one pass.
type Dashboard struct {
	Total          int                        `json:"total"`
	CountByStatus  map[Status]int             `json:"count_by_status"`
	Revenue        map[string]decimal.Decimal `json:"revenue"`
	PendingPayouts map[string]decimal.Decimal `json:"pending_payouts"`
	SettledPayouts map[string]decimal.Decimal `json:"settled_payouts"`
	Settlements    []SettlementRow            `json:"settlements"`
}

func Summarize(bookings []Booking) Dashboard {
	d := Dashboard{
		Total:          len(bookings),
		CountByStatus:  make(map[Status]int, len(Statuses)),
		Revenue:        RevenueByCurrency(bookings),
		PendingPayouts: make(map[string]decimal.Decimal),
		SettledPayouts: make(map[string]decimal.Decimal),
		Settlements:    FlattenSettlements(bookings),
	}
	for status, group := range GroupByStatus(bookings) {
		d.CountByStatus[status] = len(group)
	}
	for _, row := range d.Settlements {
		bucket := d.PendingPayouts
		if row.PayoutStatus == PayoutSettled {
			bucket = d.SettledPayouts
		}
		bucket[row.Currency] = bucket[row.Currency].Add(row.Amount)
	}
	return d
}
