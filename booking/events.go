package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened to a booking.
type EventType string

const (
	EventBookingCreated     EventType = "booking.created"
	EventStatusChanged      EventType = "booking.status_changed"
	EventSettlementReleased EventType = "settlement.released"
)

// Event is emitted after a write has been persisted.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id"`
	Status     string    `json:"status,omitempty"`
	Providers  []string  `json:"providers,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers booking events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func newEvent(t EventType, bookingID string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		BookingID:  bookingID,
		OccurredAt: at.UTC(),
	}
}
