package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneearth/travel-engine/booking"
	"github.com/oneearth/travel-engine/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_EmptyRead(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.Read(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap.Data)
	assert.Zero(t, snap.Version)
}

func TestStore_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, []byte(`[]`), 0))
	require.NoError(t, s.Write(ctx, []byte(`[{"id":"BK-1"}]`), 1))

	snap, err := s.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"BK-1"}]`, string(snap.Data))
	assert.Equal(t, int64(2), snap.Version)
}

func TestStore_VersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Write(ctx, []byte(`[]`), 0))

	// A second "first write" loses on the primary key.
	err := s.Write(ctx, []byte(`[1]`), 0)
	assert.ErrorIs(t, err, booking.ErrConcurrentModification)

	// A write based on a version that no longer exists matches no row.
	err = s.Write(ctx, []byte(`[2]`), 7)
	assert.ErrorIs(t, err, booking.ErrConcurrentModification)

	snap, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(snap.Data))
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Write(ctx, []byte(`[]`), 0))

	require.NoError(t, s.Reset(ctx))

	snap, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Version)
}

func TestStore_SurvivesReopen(t *testing.T) {
	// GIVEN: A booking written through a file-backed store
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookings.db")
	s, err := New(path)
	require.NoError(t, err)

	ledger := booking.NewLedger(s, booking.LedgerConfig{Logger: logger.Discard()})
	_, err = ledger.Append(ctx, booking.TravelPackage{
		Destination:         "Oslo",
		Currency:            "NOK",
		TotalEstimatedPrice: decimal.NewFromInt(9000),
		Accommodation:       booking.Accommodation{Name: "Fjord Inn", PricePerNight: decimal.NewFromInt(1200)},
		Transport:           []booking.TransportLeg{{Mode: booking.ModeTrain, Provider: "Vy"}},
		BookingPayload:      "BK-OSLO",
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// WHEN: Reopening the file in a fresh process
	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	// THEN: The booking and its settlements are still there
	list, err := booking.NewLedger(reopened, booking.LedgerConfig{Logger: logger.Discard()}).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "BK-OSLO", list[0].ID)
	assert.Len(t, list[0].Settlements, 2)
}
