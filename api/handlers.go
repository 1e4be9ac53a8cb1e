/*
handlers.go - HTTP API handlers for the booking engine

ENDPOINTS:
  Traveler:
    POST   /api/packages/parse                       Normalize producer JSON
    POST   /api/bookings                             Pay and confirm a package

  Provider:
    GET    /api/bookings[?status=]                   List bookings, newest first
    GET    /api/bookings/{id}                        Single booking
    PUT    /api/bookings/{id}/status                 Change fulfillment status
    POST   /api/bookings/{id}/settlements/release    Release a provider's payouts
    POST   /api/bookings/{id}/settlements/{sid}/release  Release one payout
    GET    /api/settlements                          All payouts, flattened
    GET    /api/dashboard                            Projection summary

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"}:
  - 400: Invalid body, unknown status
  - 404: Booking or settlement not found
  - 409: Duplicate booking, concurrent modification
  - 422: Malformed package, illegal transition
  - 402: Payment declined
  - 503: Store unavailable
  - 500: Anything else

SECURITY NOTE:
  No authentication. The provider endpoints are as open as the traveler ones.
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/oneearth/travel-engine/booking"
	"github.com/oneearth/travel-engine/checkout"
	"github.com/oneearth/travel-engine/factory"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *booking.Ledger
	Checkout *checkout.Service
	Factory  *factory.PackageFactory
	Log      *slog.Logger

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

func NewHandler(ledger *booking.Ledger, co *checkout.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Ledger:   ledger,
		Checkout: co,
		Factory:  factory.NewPackageFactory(),
		Log:      log,
		validate: validator.New(),
	}
}

// =============================================================================
// TRAVELER HANDLERS
// =============================================================================

// ParsePackage normalizes producer JSON without booking it.
// POST /api/packages/parse
func (h *Handler) ParsePackage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	pkg, err := h.Factory.ParsePackage(body)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

// Book charges a package and records the booking.
// POST /api/bookings
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.Checkout.BookJSON(r.Context(), req.Package, req.CustomerName)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BookResponse{Booking: res.Booking, ReceiptID: res.Receipt.ID})
}

// =============================================================================
// PROVIDER HANDLERS
// =============================================================================

// ListBookings returns bookings, optionally filtered by ?status=.
// GET /api/bookings
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Ledger.List(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := booking.Status(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status filter", fmt.Errorf("unknown status %q", s))
			return
		}
		bookings = booking.FilterByStatus(bookings, status)
	}
	writeJSON(w, http.StatusOK, BookingListResponse{Bookings: bookings, Count: len(bookings)})
}

// GetBooking returns a single booking.
// GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UpdateStatus changes a booking's fulfillment status and returns it.
// PUT /api/bookings/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Ledger.SetStatus(r.Context(), id, booking.Status(req.Status)); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.respondWithBooking(w, r, id)
}

// ReleaseProviderSettlements releases every payout of a provider in a booking.
// POST /api/bookings/{id}/settlements/release
func (h *Handler) ReleaseProviderSettlements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ReleaseSettlementRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	status := booking.PayoutSettled
	if req.Status != "" {
		status = booking.PayoutStatus(req.Status)
	}
	if err := h.Ledger.SetSettlementStatus(r.Context(), id, req.ProviderName, status); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.respondWithBooking(w, r, id)
}

// ReleaseSettlement releases a single payout by id.
// POST /api/bookings/{id}/settlements/{settlementID}/release
func (h *Handler) ReleaseSettlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Ledger.SettleByID(r.Context(), id, chi.URLParam(r, "settlementID")); err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.respondWithBooking(w, r, id)
}

// ListSettlements returns every payout across bookings.
// GET /api/settlements
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Ledger.List(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettlementListResponse{Settlements: booking.FlattenSettlements(bookings)})
}

// Dashboard returns the provider summary.
// GET /api/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Ledger.List(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking.Summarize(bookings))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Ledger.List(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) respondWithBooking(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeLedgerError maps engine errors to HTTP statuses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case booking.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, booking.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "Bookings changed concurrently, reload and retry", err)
	case errors.Is(err, booking.ErrDuplicateBooking):
		writeError(w, http.StatusConflict, "Booking already exists", err)
	case errors.Is(err, booking.ErrMalformedPackage), errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, "Request rejected", err)
	case errors.Is(err, checkout.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, "Payment declined", err)
	case errors.Is(err, booking.ErrPersistence):
		h.Log.Error("booking store failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Booking store unavailable", err)
	default:
		h.Log.Error("unhandled error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
