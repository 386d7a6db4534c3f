package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryFromTTL_NegativeMeansUnlimited(t *testing.T) {
	nows := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2031, 6, 15, 12, 30, 0, 0, time.UTC),
		time.Now(),
	}
	for _, now := range nows {
		assert.Equal(t, UnlimitedExpiry(), ExpiryFromTTL(now, -1))
		assert.Equal(t, UnlimitedExpiry(), ExpiryFromTTL(now, -52_560_001))
	}
}

func TestExpiryFromTTL_HugeTTLClampsToSentinel(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// One minute past the 100-year bound behaves exactly like unlimited.
	assert.Equal(t, UnlimitedExpiry(), ExpiryFromTTL(now, 52_560_001))
	// Absurd values never overflow into the past.
	got := ExpiryFromTTL(now, int(^uint(0)>>1))
	assert.Equal(t, UnlimitedExpiry(), got)
	assert.True(t, got.After(now))
}

func TestExpiryFromTTL_FiniteTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Minute), ExpiryFromTTL(now, 30))
	assert.Equal(t, now, ExpiryFromTTL(now, 0))
}

func TestReservationExpiry_CeilingAt48Hours(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ceiling := now.Add(48 * time.Hour)

	assert.Equal(t, ceiling, ReservationExpiry(now, -1), "unlimited clamps to ceiling")
	assert.Equal(t, ceiling, ReservationExpiry(now, ReservationMaxTTLMinutes))
	assert.Equal(t, ceiling, ReservationExpiry(now, ReservationMaxTTLMinutes+1))
	assert.Equal(t, now.Add(90*time.Minute), ReservationExpiry(now, 90))
}

func TestNormalizeMaxUses(t *testing.T) {
	assert.Equal(t, UnlimitedUses, NormalizeMaxUses(-1))
	assert.Equal(t, UnlimitedUses, NormalizeMaxUses(-1000))
	assert.Equal(t, 0, NormalizeMaxUses(0))
	assert.Equal(t, 3, NormalizeMaxUses(3))
}
