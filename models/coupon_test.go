package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCouponExtendCompounds(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	coupon := Coupon{
		ID:        "c1",
		ItemName:  "Americano",
		ExpiredAt: issued.Add(CouponExtension).Unix(),
	}

	coupon.Extend(CouponExtension)
	coupon.Extend(CouponExtension)

	// Two extensions push the expiry 14 days past the original date,
	// regardless of when they were applied.
	want := issued.Add(3 * CouponExtension).Unix()
	assert.Equal(t, want, coupon.ExpiredAt)
}

func TestCouponExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	coupon := Coupon{ExpiredAt: now.Add(time.Hour).Unix()}

	assert.False(t, coupon.Expired(now))
	assert.True(t, coupon.Expired(now.Add(time.Hour)))
	assert.True(t, coupon.Expired(now.Add(2*time.Hour)))
}
