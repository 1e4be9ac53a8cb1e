/*
Package factory converts producer JSON into booking.TravelPackage.

PURPOSE:
  The package producer (a generative model behind a fixed response schema)
  returns JSON. This factory decodes it, normalizes it, and validates the
  fields the ledger depends on, so the ledger only ever sees clean packages.

ACCEPTED SHAPES:
  "transport" may be either the leg array:

    "transport": [{"mode": "Flight", "provider": "SkyWays", ...}]

  or the older two-field object the first schema produced:

    "transport": {"flight": "SkyWays SW-201", "local_cab": "CityCab"}

  The object becomes a Flight leg and a Cab leg, in that order.

NORMALIZATION:
  - currency upper-cased, strings trimmed
  - leg modes title-cased ("flight" -> "Flight")

USAGE:
  f := factory.NewPackageFactory()
  pkg, err := f.ParsePackage(body)
  if errors.Is(err, booking.ErrMalformedPackage) { ... }
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oneearth/travel-engine/booking"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PackageJSON mirrors the producer schema; Transport is decoded lazily
// because it has two shapes.
type PackageJSON struct {
	Destination         string                    `json:"destination"`
	DepartureDate       string                    `json:"departure_date"`
	ReturnDate          string                    `json:"return_date"`
	Currency            string                    `json:"currency"`
	TotalEstimatedPrice decimal.Decimal           `json:"total_estimated_price"`
	Accommodation       booking.Accommodation     `json:"accommodation"`
	Transport           json.RawMessage           `json:"transport"`
	Itinerary           []booking.ItineraryDay    `json:"itinerary"`
	LocalEvents         []booking.LocalEvent      `json:"local_events"`
	GroundingSources    []booking.GroundingSource `json:"grounding_sources"`
	BookingPayload      string                    `json:"booking_payload"`
}

// LegacyTransportJSON is the original two-field transport object.
type LegacyTransportJSON struct {
	Flight   string `json:"flight"`
	LocalCab string `json:"local_cab"`
}

// =============================================================================
// FACTORY
// =============================================================================

type PackageFactory struct{}

func NewPackageFactory() *PackageFactory {
	return &PackageFactory{}
}

// ParsePackage decodes, normalizes and validates producer JSON.
// Decoding failures and validation failures are both MalformedPackageError.
func (f *PackageFactory) ParsePackage(data []byte) (booking.TravelPackage, error) {
	var raw PackageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return booking.TravelPackage{}, &booking.MalformedPackageError{Fields: []string{fmt.Sprintf("body: %v", err)}}
	}

	legs, err := parseTransport(raw.Transport)
	if err != nil {
		return booking.TravelPackage{}, &booking.MalformedPackageError{Fields: []string{fmt.Sprintf("transport: %v", err)}}
	}

	pkg := booking.TravelPackage{
		Destination:         strings.TrimSpace(raw.Destination),
		DepartureDate:       strings.TrimSpace(raw.DepartureDate),
		ReturnDate:          strings.TrimSpace(raw.ReturnDate),
		Currency:            strings.ToUpper(strings.TrimSpace(raw.Currency)),
		TotalEstimatedPrice: raw.TotalEstimatedPrice,
		Accommodation:       raw.Accommodation,
		Transport:           legs,
		Itinerary:           raw.Itinerary,
		LocalEvents:         raw.LocalEvents,
		GroundingSources:    raw.GroundingSources,
		BookingPayload:      strings.TrimSpace(raw.BookingPayload),
	}
	pkg.Accommodation.Name = strings.TrimSpace(pkg.Accommodation.Name)

	if err := booking.ValidatePackage(pkg); err != nil {
		return booking.TravelPackage{}, err
	}
	return pkg, nil
}

// Normalize applies the same clean-up to an already decoded package and
// validates it.
func (f *PackageFactory) Normalize(pkg booking.TravelPackage) (booking.TravelPackage, error) {
	data, err := json.Marshal(pkg)
	if err != nil {
		return booking.TravelPackage{}, err
	}
	return f.ParsePackage(data)
}

func parseTransport(raw json.RawMessage) ([]booking.TransportLeg, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []booking.TransportLeg{}, nil
	}

	switch raw[0] {
	case '[':
		var legs []booking.TransportLeg
		if err := json.Unmarshal(raw, &legs); err != nil {
			return nil, err
		}
		for i := range legs {
			legs[i].Mode = normalizeMode(legs[i].Mode)
			legs[i].Provider = strings.TrimSpace(legs[i].Provider)
		}
		return legs, nil
	case '{':
		var legacy LegacyTransportJSON
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, err
		}
		return legacyLegs(legacy), nil
	default:
		return nil, fmt.Errorf("expected array or object")
	}
}

func legacyLegs(t LegacyTransportJSON) []booking.TransportLeg {
	legs := []booking.TransportLeg{}
	if p := strings.TrimSpace(t.Flight); p != "" {
		legs = append(legs, booking.TransportLeg{Mode: booking.ModeFlight, Provider: p, Status: "Scheduled"})
	}
	if p := strings.TrimSpace(t.LocalCab); p != "" {
		legs = append(legs, booking.TransportLeg{Mode: booking.ModeCab, Provider: p, Status: "Scheduled"})
	}
	return legs
}

func normalizeMode(m booking.TransportMode) booking.TransportMode {
	s := strings.TrimSpace(string(m))
	for _, known := range []booking.TransportMode{booking.ModeFlight, booking.ModeTrain, booking.ModeBus, booking.ModeCab} {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return booking.TransportMode(s)
}
