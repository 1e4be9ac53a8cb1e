/*
Package booking provides the booking and settlement engine.

PURPOSE:
  Owns the durable record of confirmed travel packages ("bookings"), the
  provider payouts derived from each of them, and the read-side aggregation
  used by the provider dashboard. Package synthesis, payment and rendering
  are collaborators outside this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - TravelPackage: a fully priced trip offer, received from a producer
  - Booking: a confirmed package plus fulfillment status and settlements
  - Settlement: one provider's payout obligation with its own release status
  - Status / PayoutStatus: the only mutable fields of a booking

DESIGN PRINCIPLES:
  1. Single source of truth: the persisted collection, re-read on every call
  2. Precision: money uses decimal.Decimal, never float64
  3. Type safety: statuses and modes are named string types

USAGE:
  ledger := booking.NewLedger(store.NewMemory(), booking.LedgerConfig{})
  b, err := ledger.Append(ctx, pkg)

SEE ALSO:
  - ledger.go: Append / List / SetStatus / SetSettlementStatus
  - settlement.go: Settlement derivation
  - projection.go: Dashboard aggregation
*/
package booking

import (
	"github.com/shopspring/decimal"
)

// Amounts are persisted and served as JSON numbers, the shape the producer
// and older stored collections use.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// =============================================================================
// PACKAGE MODEL - Produced externally, immutable once received
// =============================================================================

// TransportMode is the kind of vehicle used by a transport leg.
type TransportMode string

const (
	ModeFlight TransportMode = "Flight"
	ModeTrain  TransportMode = "Train"
	ModeBus    TransportMode = "Bus"
	ModeCab    TransportMode = "Cab"
)

// Valid reports whether m is one of the known modes.
func (m TransportMode) Valid() bool {
	switch m {
	case ModeFlight, ModeTrain, ModeBus, ModeCab:
		return true
	}
	return false
}

type Accommodation struct {
	Name               string          `json:"name" validate:"required"`
	PricePerNight      decimal.Decimal `json:"price_per_night" validate:"gte=0"`
	CancellationPolicy string          `json:"cancellation_policy,omitempty"`
}

// TransportLeg is one leg of the trip, in travel order.
type TransportLeg struct {
	Mode               TransportMode `json:"mode" validate:"required,oneof=Flight Train Bus Cab"`
	Provider           string        `json:"provider" validate:"required"`
	ReferenceNumber    string        `json:"reference_number,omitempty"`
	DepartureTime      string        `json:"departure_time,omitempty"`
	ArrivalTime        string        `json:"arrival_time,omitempty"`
	Origin             string        `json:"origin,omitempty"`
	Destination        string        `json:"destination,omitempty"`
	Status             string        `json:"status,omitempty"`
	CancellationPolicy string        `json:"cancellation_policy,omitempty"`
}

// ItineraryDay lists the activities of one day. Days are contiguous from 1;
// that is the producer's responsibility and is not enforced here.
type ItineraryDay struct {
	Day        int      `json:"day" validate:"min=1"`
	Activities []string `json:"activities"`
}

type LocalEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	DateTime    string `json:"date_time,omitempty"`
}

type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// TravelPackage is a synthesized, fully priced trip offer.
// BookingPayload is the identity token the booking inherits.
type TravelPackage struct {
	Destination         string            `json:"destination" validate:"required"`
	DepartureDate       string            `json:"departure_date,omitempty"`
	ReturnDate          string            `json:"return_date,omitempty"`
	Currency            string            `json:"currency" validate:"required"`
	TotalEstimatedPrice decimal.Decimal   `json:"total_estimated_price" validate:"gte=0"`
	Accommodation       Accommodation     `json:"accommodation"`
	Transport           []TransportLeg    `json:"transport" validate:"dive"`
	Itinerary           []ItineraryDay    `json:"itinerary" validate:"dive"`
	LocalEvents         []LocalEvent      `json:"local_events,omitempty"`
	GroundingSources    []GroundingSource `json:"grounding_sources,omitempty"`
	BookingPayload      string            `json:"booking_payload" validate:"required"`
}

// =============================================================================
// BOOKING - Owned exclusively by the Ledger
// =============================================================================

// Status is the fulfillment status of a booking.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusFulfilled Status = "Fulfilled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusFulfilled}

func (s Status) Valid() bool { return s.rank() >= 0 }

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusFulfilled:
		return 2
	}
	return -1
}

// PayoutStatus is the release status of a settlement. It only moves forward.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "Pending"
	PayoutSettled PayoutStatus = "Settled"
)

// DefaultCustomerName is recorded when the caller does not identify the traveler.
const DefaultCustomerName = "Anonymous Traveler"

// Settlement is one provider's payout obligation arising from a booking.
// ProviderName is not unique within a booking; ID is.
type Settlement struct {
	ID           string          `json:"id,omitempty"`
	ProviderName string          `json:"providerName"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	PayoutStatus PayoutStatus    `json:"payoutStatus"`
}

// Booking is a confirmed package plus its fulfillment status.
// Package is embedded by value and never modified after creation.
type Booking struct {
	ID           string        `json:"id"`
	CustomerName string        `json:"customerName,omitempty"`
	Package      TravelPackage `json:"package"`
	Timestamp    int64         `json:"timestamp"`
	Status       Status        `json:"status"`
	Settlements  []Settlement  `json:"settlements,omitempty"`
}

func (b Booking) clone() Booking {
	if b.Settlements != nil {
		s := make([]Settlement, len(b.Settlements))
		copy(s, b.Settlements)
		b.Settlements = s
	}
	return b
}
