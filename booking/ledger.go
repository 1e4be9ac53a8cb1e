/*
ledger.go - Booking ledger

PURPOSE:
  The Ledger owns the persisted collection of bookings and every mutation
  to it. There is no cached copy: each call re-reads the collection from the
  Store, and each write persists the whole updated collection immediately.

OPERATIONS:
  Append:              confirm a package, most recent first
  List / Get:          read-only
  SetStatus:           move a booking along Pending -> Confirmed -> Fulfilled
  SetSettlementStatus: release every settlement of a provider (one-way)
  SettleByID:          release one settlement by its stable id (one-way)

CRITICAL INVARIANTS:
  1. ORDER: List() is most-recently-appended first
  2. IDENTITY: booking id = booking_payload, unique in the collection
  3. ONE-WAY PAYOUTS: Settled never goes back to Pending
  4. WRITE-THROUGH: every successful call has been persisted before it returns

CONCURRENCY:
  Within a process, read-modify-write cycles are serialized by a mutex.
  Events are published after the mutex is released.
  Across processes, the Store's version check rejects a stale write with
  ErrConcurrentModification. The ledger never retries.

FAILURES:
  Persistence failures are returned as *PersistenceError. Append still
  returns the booking it built, but it is not durable; callers must not
  assume otherwise without a successful List().

SEE ALSO:
  - store.go: Store contract
  - settlement.go: Settlement derivation
*/
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// TransitionPolicy decides which status changes SetStatus accepts.
type TransitionPolicy string

const (
	// TransitionForward allows only moves toward Fulfilled (skips allowed)
	// and re-setting the current status.
	TransitionForward TransitionPolicy = "forward"

	// TransitionAny allows any assignment between valid statuses.
	TransitionAny TransitionPolicy = "any"
)

func (p TransitionPolicy) Valid() bool {
	return p == TransitionForward || p == TransitionAny
}

// Allows reports whether a booking may move from one status to another.
func (p TransitionPolicy) Allows(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if p == TransitionAny || from == to {
		return true
	}
	return to.rank() > from.rank()
}

// LedgerConfig holds the ledger's knobs. The zero value is usable.
type LedgerConfig struct {
	Transitions TransitionPolicy   // default TransitionForward
	Basis       AccommodationBasis // default AccommodationPerNight

	// MaxBookings bounds the collection; the oldest bookings beyond it are
	// dropped on Append. 0 means unbounded.
	MaxBookings int

	Publisher Publisher // optional
	Logger    *slog.Logger
	Clock     func() time.Time
}

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store       Store
	deriver     SettlementDeriver
	transitions TransitionPolicy
	maxBookings int
	publisher   Publisher
	log         *slog.Logger
	clock       func() time.Time

	mu            sync.Mutex
	lastTimestamp int64
}

func NewLedger(store Store, cfg LedgerConfig) *Ledger {
	if cfg.Transitions == "" {
		cfg.Transitions = TransitionForward
	}
	if cfg.Basis == "" {
		cfg.Basis = AccommodationPerNight
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Ledger{
		store:       store,
		deriver:     SettlementDeriver{Basis: cfg.Basis},
		transitions: cfg.Transitions,
		maxBookings: cfg.MaxBookings,
		publisher:   cfg.Publisher,
		log:         cfg.Logger,
		clock:       cfg.Clock,
	}
}

// Deriver returns the settlement deriver the ledger applies on Append.
func (l *Ledger) Deriver() SettlementDeriver { return l.deriver }

// Append records pkg as a new Pending booking for an anonymous traveler.
func (l *Ledger) Append(ctx context.Context, pkg TravelPackage) (Booking, error) {
	return l.AppendFor(ctx, pkg, "")
}

// AppendFor records pkg as a new Pending booking for the named customer.
func (l *Ledger) AppendFor(ctx context.Context, pkg TravelPackage, customerName string) (Booking, error) {
	if err := ValidatePackage(pkg); err != nil {
		return Booking{}, err
	}
	if strings.TrimSpace(customerName) == "" {
		customerName = DefaultCustomerName
	}
	b, ev, err := l.appendLocked(ctx, pkg, customerName)
	l.publish(ctx, ev)
	return b, err
}

func (l *Ledger) appendLocked(ctx context.Context, pkg TravelPackage, customerName string) (Booking, *Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := Booking{
		ID:           pkg.BookingPayload,
		CustomerName: customerName,
		Package:      pkg,
		Timestamp:    l.nextTimestamp(),
		Status:       StatusPending,
		Settlements:  l.deriver.Derive(pkg),
	}

	bookings, version, err := l.load(ctx)
	if err != nil {
		return b, nil, err
	}
	if indexOf(bookings, b.ID) >= 0 {
		return Booking{}, nil, &DuplicateBookingError{ID: b.ID}
	}

	next := make([]Booking, 0, len(bookings)+1)
	next = append(next, b)
	next = append(next, bookings...)
	if l.maxBookings > 0 && len(next) > l.maxBookings {
		l.log.Info("retention limit reached, dropping oldest bookings",
			"dropped", len(next)-l.maxBookings, "limit", l.maxBookings)
		next = next[:l.maxBookings]
	}

	if err := l.save(ctx, next, version); err != nil {
		return b, nil, err
	}
	l.log.Debug("booking appended", "id", b.ID, "settlements", len(b.Settlements))

	ev := l.pendingEvent(EventBookingCreated, b.ID)
	if ev != nil {
		ev.Status = string(b.Status)
	}
	return b.clone(), ev, nil
}

// List returns every booking, most recent first. Never nil.
func (l *Ledger) List(ctx context.Context) ([]Booking, error) {
	bookings, _, err := l.load(ctx)
	return bookings, err
}

// Get returns the booking with the given id.
func (l *Ledger) Get(ctx context.Context, id string) (Booking, error) {
	bookings, _, err := l.load(ctx)
	if err != nil {
		return Booking{}, err
	}
	i := indexOf(bookings, id)
	if i < 0 {
		return Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	return bookings[i], nil
}

// SetStatus changes a booking's fulfillment status. Setting the current
// status again is a no-op and writes nothing.
func (l *Ledger) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	ev, err := l.setStatusLocked(ctx, id, status)
	l.publish(ctx, ev)
	return err
}

func (l *Ledger) setStatusLocked(ctx context.Context, id string, status Status) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bookings, version, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(bookings, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}

	current := bookings[i].Status
	if current == status {
		return nil, nil
	}
	if !l.transitions.Allows(current, status) {
		return nil, &InvalidTransitionError{BookingID: id, From: string(current), To: string(status)}
	}

	bookings[i].Status = status
	if err := l.save(ctx, bookings, version); err != nil {
		return nil, err
	}
	l.log.Debug("booking status changed", "id", id, "from", current, "to", status)

	ev := l.pendingEvent(EventStatusChanged, id)
	if ev != nil {
		ev.Status = string(status)
	}
	return ev, nil
}

// SetSettlementStatus releases every settlement of the booking whose
// provider name equals providerName. Only PayoutSettled is accepted.
func (l *Ledger) SetSettlementStatus(ctx context.Context, bookingID, providerName string, status PayoutStatus) error {
	if status != PayoutSettled {
		return fmt.Errorf("%w: payouts can only move to %s, got %q", ErrInvalidTransition, PayoutSettled, status)
	}
	return l.release(ctx, bookingID, func(s Settlement) bool {
		return s.ProviderName == providerName
	}, providerName)
}

// SettleByID releases a single settlement identified by its stable id.
func (l *Ledger) SettleByID(ctx context.Context, bookingID, settlementID string) error {
	return l.release(ctx, bookingID, func(s Settlement) bool {
		return s.ID == settlementID
	}, settlementID)
}

// Reset drops every booking. Used by demo scenarios.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, version, err := l.load(ctx)
	if err != nil {
		return err
	}
	return l.save(ctx, []Booking{}, version)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (l *Ledger) release(ctx context.Context, bookingID string, match func(Settlement) bool, target string) error {
	ev, err := l.releaseLocked(ctx, bookingID, match, target)
	l.publish(ctx, ev)
	return err
}

func (l *Ledger) releaseLocked(ctx context.Context, bookingID string, match func(Settlement) bool, target string) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bookings, version, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(bookings, bookingID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}

	var (
		matched  bool
		released []string
	)
	for j := range bookings[i].Settlements {
		s := &bookings[i].Settlements[j]
		if !match(*s) {
			continue
		}
		matched = true
		if s.PayoutStatus != PayoutSettled {
			s.PayoutStatus = PayoutSettled
			released = append(released, s.ProviderName)
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: %s in booking %s", ErrSettlementNotFound, target, bookingID)
	}
	if len(released) == 0 {
		return nil, nil
	}

	if err := l.save(ctx, bookings, version); err != nil {
		return nil, err
	}
	l.log.Debug("settlements released", "booking", bookingID, "count", len(released))

	ev := l.pendingEvent(EventSettlementReleased, bookingID)
	if ev != nil {
		ev.Providers = released
	}
	return ev, nil
}

func (l *Ledger) load(ctx context.Context) ([]Booking, int64, error) {
	snap, err := l.store.Read(ctx)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "read", Err: err}
	}
	bookings, err := decodeCollection(snap.Data)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "decode", Err: err}
	}
	return bookings, snap.Version, nil
}

func (l *Ledger) save(ctx context.Context, bookings []Booking, version int64) error {
	data, err := encodeCollection(bookings)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	if err := l.store.Write(ctx, data, version); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}
	return nil
}

// nextTimestamp never goes below a timestamp this ledger already issued.
// Caller holds l.mu.
func (l *Ledger) nextTimestamp() int64 {
	ts := l.clock().UnixMilli()
	if ts < l.lastTimestamp {
		ts = l.lastTimestamp
	}
	l.lastTimestamp = ts
	return ts
}

// pendingEvent returns nil when no publisher is configured. Caller holds l.mu.
func (l *Ledger) pendingEvent(t EventType, bookingID string) *Event {
	if l.publisher == nil {
		return nil
	}
	e := newEvent(t, bookingID, l.clock())
	return &e
}

// publish is called without l.mu held.
func (l *Ledger) publish(ctx context.Context, e *Event) {
	if e == nil {
		return
	}
	if err := l.publisher.Publish(ctx, *e); err != nil {
		l.log.Warn("failed to publish booking event",
			"type", e.Type, "booking", e.BookingID, "error", err)
	}
}

func indexOf(bookings []Booking, id string) int {
	for i := range bookings {
		if bookings[i].ID == id {
			return i
		}
	}
	return -1
}
