/*
scenarios.go - Demo scenario loaders for the provider dashboard

PURPOSE:
	Populates the ledger with realistic bookings so the provider view has
	something to show without going through checkout. Packages are written
	straight to the ledger; no payment is simulated.

AVAILABLE SCENARIOS:

	empty:          No bookings ("System Standby")
	single-trip:    One Paris booking, two transport legs, all Pending
	busy-pipeline:  Three bookings across USD and EUR in every status,
	                some payouts already released

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-pipeline"}

NOTE:

	Loading a scenario resets the ledger first. Development/demo only.
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/oneearth/travel-engine/booking"
)

var scenarios = []ScenarioDTO{
	{ID: "empty", Name: "Empty Pipeline", Description: "No bookings yet"},
	{ID: "single-trip", Name: "Single Trip", Description: "One Paris package with a flight and a train leg"},
	{ID: "busy-pipeline", Name: "Busy Pipeline", Description: "Three bookings in USD and EUR, every status, partial payouts"},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario id.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario resets the ledger and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("%q", req.ScenarioID))
			return
		}
		h.writeLedgerError(w, err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()
	h.Log.Info("scenario loaded", "scenario", req.ScenarioID)

	bookings, err := h.Ledger.List(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingListResponse{Bookings: bookings, Count: len(bookings)})
}

// ResetDatabase drops every booking.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Reset(r.Context()); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

var errUnknownScenario = errors.New("unknown scenario")

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	switch id {
	case "empty", "single-trip", "busy-pipeline":
	default:
		return errUnknownScenario
	}
	if err := h.Ledger.Reset(ctx); err != nil {
		return err
	}

	switch id {
	case "single-trip":
		_, err := h.Ledger.Append(ctx, DemoPackage("BK-PARIS-001", "Paris", "USD", 1000, 100))
		return err
	case "busy-pipeline":
		return h.loadBusyPipeline(ctx)
	}
	return nil
}

func (h *Handler) loadBusyPipeline(ctx context.Context) error {
	lisbon := DemoPackage("BK-LISBON-003", "Lisbon", "EUR", 200, 40)
	tokyo := DemoPackage("BK-TOKYO-002", "Tokyo", "USD", 500, 120)
	paris := DemoPackage("BK-PARIS-001", "Paris", "USD", 1000, 100)

	for _, pkg := range []booking.TravelPackage{paris, tokyo, lisbon} {
		if _, err := h.Ledger.Append(ctx, pkg); err != nil {
			return err
		}
	}
	if err := h.Ledger.SetStatus(ctx, paris.BookingPayload, booking.StatusFulfilled); err != nil {
		return err
	}
	if err := h.Ledger.SetStatus(ctx, tokyo.BookingPayload, booking.StatusConfirmed); err != nil {
		return err
	}
	return h.Ledger.SetSettlementStatus(ctx, paris.BookingPayload, paris.Transport[0].Provider, booking.PayoutSettled)
}

// DemoPackage builds a three-day package with a flight out and a train
// leg, priced at total with the given nightly rate.
func DemoPackage(payload, city, currency string, total, nightly int64) booking.TravelPackage {
	return booking.TravelPackage{
		Destination:         city,
		DepartureDate:       "2026-11-02",
		ReturnDate:          "2026-11-05",
		Currency:            currency,
		TotalEstimatedPrice: decimal.NewFromInt(total),
		Accommodation: booking.Accommodation{
			Name:               "Hotel " + city + " Central",
			PricePerNight:      decimal.NewFromInt(nightly),
			CancellationPolicy: "Free cancellation up to 48h before check-in",
		},
		Transport: []booking.TransportLeg{
			{
				Mode:            booking.ModeFlight,
				Provider:        "SkyWays",
				ReferenceNumber: "SW-" + payload,
				Origin:          "Home",
				Destination:     city,
				Status:          "Scheduled",
			},
			{
				Mode:            booking.ModeTrain,
				Provider:        "RailLink",
				ReferenceNumber: "RL-" + payload,
				Origin:          city,
				Destination:     city + " Old Town",
				Status:          "Scheduled",
			},
		},
		Itinerary: []booking.ItineraryDay{
			{Day: 1, Activities: []string{"Arrival", "Walking tour", "Dinner"}},
			{Day: 2, Activities: []string{"Museum", "Market", "River cruise"}},
			{Day: 3, Activities: []string{"Day trip", "Local food", "Departure"}},
		},
		BookingPayload: payload,
	}
}
