package core

import "time"

const (
	// UnlimitedUses is the finite budget stored when a caller asks for an
	// unlimited credential. Fits int32 so it survives any integer column.
	UnlimitedUses = 1<<31 - 1

	// maxTTLMinutes is 100 years. Anything above it is treated as unlimited
	// before any date arithmetic happens, so expiry math cannot overflow.
	maxTTLMinutes = 52_560_000

	// ReservationMaxTTLMinutes caps every reservation at 48 hours.
	ReservationMaxTTLMinutes = 48 * 60
)

// unlimitedExpiry is the fixed instant stored for "never expires". Using one
// constant instant keeps unlimited credentials comparable and indexable.
var unlimitedExpiry = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// UnlimitedExpiry returns the sentinel instant for unlimited lifetimes.
func UnlimitedExpiry() time.Time {
	return unlimitedExpiry
}

// ExpiryFromTTL computes a credential expiry. Negative TTLs mean unlimited;
// TTLs beyond the 100-year bound are clamped to the same sentinel.
func ExpiryFromTTL(now time.Time, ttlMinutes int) time.Time {
	if ttlMinutes < 0 || ttlMinutes > maxTTLMinutes {
		return unlimitedExpiry
	}
	exp := now.UTC().Add(time.Duration(ttlMinutes) * time.Minute)
	if exp.After(unlimitedExpiry) {
		return unlimitedExpiry
	}
	return exp
}

// ReservationExpiry computes a reservation expiry. Unlimited or out-of-range
// requests get the full 48-hour window, never more.
func ReservationExpiry(now time.Time, ttlMinutes int) time.Time {
	if ttlMinutes < 0 || ttlMinutes > ReservationMaxTTLMinutes {
		ttlMinutes = ReservationMaxTTLMinutes
	}
	return now.UTC().Add(time.Duration(ttlMinutes) * time.Minute)
}

// NormalizeMaxUses maps the caller's "unlimited" request (any negative value)
// onto the stored finite budget.
func NormalizeMaxUses(maxUses int) int {
	if maxUses < 0 {
		return UnlimitedUses
	}
	return maxUses
}
