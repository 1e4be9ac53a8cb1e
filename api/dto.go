/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

  Bookings, settlements and the dashboard are returned in their booking
  package JSON form; the provider UI reads those shapes directly.

VALIDATION:
  Request types carry validator tags and are checked in decodeAndValidate
  before any ledger call.
*/
package api

import (
	"encoding/json"

	"github.com/oneearth/travel-engine/booking"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// BookRequest is the body of POST /api/bookings. Package is raw producer
// JSON and goes through the package factory.
type BookRequest struct {
	CustomerName string          `json:"customer_name" validate:"omitempty,max=200"`
	Package      json.RawMessage `json:"package" validate:"required"`
}

// UpdateStatusRequest is the body of PUT /api/bookings/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Confirmed Fulfilled"`
}

// ReleaseSettlementRequest is the body of POST /api/bookings/{id}/settlements/release.
// Status defaults to Settled; Pending is rejected by the ledger.
type ReleaseSettlementRequest struct {
	ProviderName string `json:"provider_name" validate:"required"`
	Status       string `json:"status" validate:"omitempty,oneof=Pending Settled"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type BookResponse struct {
	Booking   booking.Booking `json:"booking"`
	ReceiptID string          `json:"receipt_id"`
}

type BookingListResponse struct {
	Bookings []booking.Booking `json:"bookings"`
	Count    int               `json:"count"`
}

type SettlementListResponse struct {
	Settlements []booking.SettlementRow `json:"settlements"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
