package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneearth/travel-engine/booking"
)

func bookingOf(id, currency, total string, status booking.Status) booking.Booking {
	pkg := testPackage(id)
	pkg.Currency = currency
	pkg.TotalEstimatedPrice = dec(total)
	return booking.Booking{
		ID:          id,
		Package:     pkg,
		Status:      status,
		Settlements: booking.SettlementDeriver{}.Derive(pkg),
	}
}

func TestRevenueByCurrency(t *testing.T) {
	// GIVEN: Two USD bookings (1000, 500) and one EUR booking (200)
	bookings := []booking.Booking{
		bookingOf("A", "USD", "1000", booking.StatusPending),
		bookingOf("B", "USD", "500", booking.StatusConfirmed),
		bookingOf("C", "EUR", "200", booking.StatusFulfilled),
	}

	// WHEN: Aggregating
	rev := booking.RevenueByCurrency(bookings)

	// THEN: 85% per currency
	require.Len(t, rev, 2)
	assert.True(t, rev["USD"].Equal(dec("1275")), "got %s", rev["USD"])
	assert.True(t, rev["EUR"].Equal(dec("170")), "got %s", rev["EUR"])
}

func TestRevenueByCurrency_Empty(t *testing.T) {
	assert.Empty(t, booking.RevenueByCurrency(nil))
}

func TestFlattenSettlements(t *testing.T) {
	legacy := booking.Booking{ID: "OLD", Status: booking.StatusPending}
	bookings := []booking.Booking{
		bookingOf("A", "USD", "1000", booking.StatusPending),
		legacy,
		bookingOf("B", "EUR", "200", booking.StatusPending),
	}

	rows := booking.FlattenSettlements(bookings)

	require.Len(t, rows, 6)
	for i, row := range rows {
		want := "A"
		if i >= 3 {
			want = "B"
		}
		assert.Equal(t, want, row.BookingID)
	}
	assert.Equal(t, "Hotel Lumiere", rows[0].ProviderName)
	assert.Equal(t, "SkyWays", rows[1].ProviderName)
	assert.Equal(t, "CityCab", rows[2].ProviderName)
}

func TestFlattenSettlements_NeverNil(t *testing.T) {
	rows := booking.FlattenSettlements(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGroupByStatus(t *testing.T) {
	bookings := []booking.Booking{
		bookingOf("A", "USD", "1", booking.StatusPending),
		bookingOf("B", "USD", "1", booking.StatusFulfilled),
		bookingOf("C", "USD", "1", booking.StatusPending),
	}

	groups := booking.GroupByStatus(bookings)

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"A", "C"}, ids(groups[booking.StatusPending]))
	assert.Empty(t, groups[booking.StatusConfirmed])
	assert.Equal(t, []string{"B"}, ids(groups[booking.StatusFulfilled]))
}

func TestFilterByStatus(t *testing.T) {
	bookings := []booking.Booking{
		bookingOf("A", "USD", "1", booking.StatusConfirmed),
		bookingOf("B", "USD", "1", booking.StatusPending),
		bookingOf("C", "USD", "1", booking.StatusConfirmed),
	}

	assert.Equal(t, []string{"A", "C"}, ids(booking.FilterByStatus(bookings, booking.StatusConfirmed)))
	assert.Empty(t, booking.FilterByStatus(bookings, booking.StatusFulfilled))
}

func TestSummarize(t *testing.T) {
	a := bookingOf("A", "USD", "1000", booking.StatusFulfilled)
	a.Settlements[1].PayoutStatus = booking.PayoutSettled
	bookings := []booking.Booking{
		a,
		bookingOf("B", "EUR", "200", booking.StatusPending),
	}

	d := booking.Summarize(bookings)

	assert.Equal(t, 2, d.Total)
	assert.Equal(t, 1, d.CountByStatus[booking.StatusFulfilled])
	assert.Equal(t, 1, d.CountByStatus[booking.StatusPending])
	assert.Equal(t, 0, d.CountByStatus[booking.StatusConfirmed])
	assert.True(t, d.Revenue["USD"].Equal(dec("850")))
	assert.True(t, d.Revenue["EUR"].Equal(dec("170")))

	// USD: 90 hotel + 200 cab pending, 200 flight settled.
	assert.True(t, d.PendingPayouts["USD"].Equal(dec("290")), "got %s", d.PendingPayouts["USD"])
	assert.True(t, d.SettledPayouts["USD"].Equal(dec("200")), "got %s", d.SettledPayouts["USD"])
	// EUR: 90 hotel + 2 x 40.
	assert.True(t, d.PendingPayouts["EUR"].Equal(dec("170")), "got %s", d.PendingPayouts["EUR"])
	assert.Len(t, d.Settlements, 6)
}
