package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneearth/travel-engine/booking"
)

func TestDerive_OneAccommodationPlusOnePerLeg(t *testing.T) {
	tests := []struct {
		name string
		legs int
	}{
		{"no legs", 0},
		{"one leg", 1},
		{"three legs", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := testPackage("BK-1")
			pkg.Transport = nil
			for i := 0; i < tt.legs; i++ {
				pkg.Transport = append(pkg.Transport, booking.TransportLeg{Mode: booking.ModeBus, Provider: "Coach Co"})
			}

			got := booking.SettlementDeriver{}.Derive(pkg)

			require.Len(t, got, 1+tt.legs)
			assert.Equal(t, "Hotel Lumiere", got[0].ProviderName)
			for _, s := range got {
				assert.Equal(t, booking.PayoutPending, s.PayoutStatus)
				assert.Equal(t, pkg.Currency, s.Currency)
			}
		})
	}
}

func TestDerive_Amounts(t *testing.T) {
	// GIVEN: total 1000, 100/night
	pkg := testPackage("BK-1")

	// WHEN: Deriving on the default per-night basis
	got := booking.SettlementDeriver{}.Derive(pkg)

	// THEN: 90% of one night, 20% of total per leg
	require.Len(t, got, 3)
	assert.True(t, got[0].Amount.Equal(dec("90")), "got %s", got[0].Amount)
	assert.True(t, got[1].Amount.Equal(dec("200")), "got %s", got[1].Amount)
	assert.True(t, got[2].Amount.Equal(dec("200")), "got %s", got[2].Amount)
}

func TestDerive_StayBasis(t *testing.T) {
	// 2026-05-01 to 2026-05-04 is three nights.
	pkg := testPackage("BK-1")

	got := booking.SettlementDeriver{Basis: booking.AccommodationStay}.Derive(pkg)

	assert.True(t, got[0].Amount.Equal(dec("270")), "got %s", got[0].Amount)
	assert.True(t, got[1].Amount.Equal(dec("200")))
}

func TestDerive_Deterministic(t *testing.T) {
	pkg := testPackage("BK-1")
	d := booking.SettlementDeriver{}

	first := d.Derive(pkg)
	second := d.Derive(pkg)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].ProviderName, second[i].ProviderName)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
}

func TestDerive_DistinctIDsForRepeatedProvider(t *testing.T) {
	pkg := testPackage("BK-1")
	pkg.Transport = []booking.TransportLeg{
		{Mode: booking.ModeFlight, Provider: "SkyWays"},
		{Mode: booking.ModeFlight, Provider: "SkyWays"},
	}

	got := booking.SettlementDeriver{}.Derive(pkg)

	require.Len(t, got, 3)
	assert.Equal(t, got[1].ProviderName, got[2].ProviderName)
	assert.NotEqual(t, got[1].ID, got[2].ID)

	other := testPackage("BK-2")
	other.Transport = pkg.Transport
	assert.NotEqual(t, got[1].ID, booking.SettlementDeriver{}.Derive(other)[1].ID)
}

func TestStayNights(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     int
	}{
		{"dates", "2026-05-01", "2026-05-04", 3},
		{"rfc3339", "2026-05-01T14:00:00Z", "2026-05-03T10:00:00Z", 1},
		{"same day", "2026-05-01", "2026-05-01", 1},
		{"inverted", "2026-05-04", "2026-05-01", 1},
		{"unparseable", "soon", "later", 1},
		{"missing", "", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := booking.TravelPackage{DepartureDate: tt.from, ReturnDate: tt.to}
			assert.Equal(t, tt.want, booking.StayNights(pkg))
		})
	}
}
