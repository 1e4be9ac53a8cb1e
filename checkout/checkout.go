/*
Package checkout runs the one-click booking flow.

FLOW:
  1. Normalize and validate the package (factory)
  2. Refuse a payload that is already booked, before charging
  3. Charge it through the payment Gateway
  4. Append it to the ledger

  A package is only recorded after a successful charge. A failed or
  cancelled charge records nothing.

GATEWAY:
  Payments are simulated. SimulatedGateway waits a fixed delay (2s by
  default, the same pause the traveler UI shows) and approves, unless the
  context is cancelled first. Any real gateway can implement Gateway.
*/
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oneearth/travel-engine/booking"
	"github.com/oneearth/travel-engine/factory"
)

// ErrPaymentDeclined is returned when the gateway refuses the charge.
var ErrPaymentDeclined = errors.New("payment declined")

// DefaultPaymentDelay is how long the simulated gateway takes to approve.
const DefaultPaymentDelay = 2 * time.Second

// Charge is what the gateway is asked to collect.
type Charge struct {
	BookingPayload string
	Amount         decimal.Decimal
	Currency       string
}

// Receipt identifies an approved charge.
type Receipt struct {
	ID         string
	ApprovedAt time.Time
}

type Gateway interface {
	Charge(ctx context.Context, c Charge) (Receipt, error)
}

// SimulatedGateway approves every charge after Delay.
type SimulatedGateway struct {
	Delay time.Duration
}

func (g SimulatedGateway) Charge(ctx context.Context, c Charge) (Receipt, error) {
	if c.Amount.IsNegative() {
		return Receipt{}, fmt.Errorf("%w: negative amount %s", ErrPaymentDeclined, c.Amount)
	}
	timer := time.NewTimer(g.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-timer.C:
	}
	return Receipt{ID: uuid.NewString(), ApprovedAt: time.Now().UTC()}, nil
}

// Service books packages.
type Service struct {
	Ledger  *booking.Ledger
	Gateway Gateway
	Factory *factory.PackageFactory
	Log     *slog.Logger
}

func NewService(ledger *booking.Ledger, gateway Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		Ledger:  ledger,
		Gateway: gateway,
		Factory: factory.NewPackageFactory(),
		Log:     log,
	}
}

// Result is a confirmed booking and the charge that paid for it.
type Result struct {
	Booking booking.Booking
	Receipt Receipt
}

// Book normalizes pkg, charges it and records it for customerName
// ("" = anonymous).
func (s *Service) Book(ctx context.Context, pkg booking.TravelPackage, customerName string) (Result, error) {
	pkg, err := s.Factory.Normalize(pkg)
	if err != nil {
		return Result{}, err
	}
	return s.book(ctx, pkg, customerName)
}

// BookJSON parses producer JSON once and books the result.
func (s *Service) BookJSON(ctx context.Context, data []byte, customerName string) (Result, error) {
	pkg, err := s.Factory.ParsePackage(data)
	if err != nil {
		return Result{}, err
	}
	return s.book(ctx, pkg, customerName)
}

// book expects a validated package.
func (s *Service) book(ctx context.Context, pkg booking.TravelPackage, customerName string) (Result, error) {
	_, err := s.Ledger.Get(ctx, pkg.BookingPayload)
	switch {
	case err == nil:
		return Result{}, &booking.DuplicateBookingError{ID: pkg.BookingPayload}
	case !errors.Is(err, booking.ErrBookingNotFound):
		return Result{}, err
	}

	receipt, err := s.Gateway.Charge(ctx, Charge{
		BookingPayload: pkg.BookingPayload,
		Amount:         pkg.TotalEstimatedPrice,
		Currency:       pkg.Currency,
	})
	if err != nil {
		s.Log.Warn("payment failed", "booking", pkg.BookingPayload, "error", err)
		return Result{}, fmt.Errorf("charge %s: %w", pkg.BookingPayload, err)
	}
	s.Log.Info("payment approved", "booking", pkg.BookingPayload, "receipt", receipt.ID)

	b, err := s.Ledger.AppendFor(ctx, pkg, customerName)
	if err != nil {
		// Only reachable when another writer recorded the same payload, or the
		// store failed, between the check above and the append. The receipt is
		// returned so the charge can be reconciled.
		s.Log.Error("booking not recorded after payment",
			"booking", pkg.BookingPayload, "receipt", receipt.ID, "error", err)
		return Result{Booking: b, Receipt: receipt}, err
	}
	return Result{Booking: b, Receipt: receipt}, nil
}
