package models

import (
	"time"
)

// CouponExtension is how much one expiry extension adds. Extensions
// compound on the existing expiry, they do not reset from now.
const CouponExtension = 7 * 24 * time.Hour

// Coupon is an issued voucher. It does not store its owner; ownership
// is established by a CouponSummary row in the owning user's list.
type Coupon struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ItemName    string    `json:"item_name" gorm:"not null"`
	BrandName   string    `json:"brand_name"`
	Description string    `json:"description" gorm:"type:text"`
	ThumbnailID string    `json:"thumbnail_id"`
	VoucherID   string    `json:"voucher_id"`
	ExpiredAt   int64     `json:"expired_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Extend pushes the expiry out from its current value.
func (c *Coupon) Extend(d time.Duration) {
	c.ExpiredAt += int64(d / time.Second)
}

// Expired reports whether the coupon is past its expiry at the given
// instant.
func (c *Coupon) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiredAt
}

// CouponSummary is the projection of a coupon stored inside the owning
// user's record.
type CouponSummary struct {
	ID          string `json:"id" gorm:"primaryKey"`
	UserID      string `json:"user_id" gorm:"not null;index"`
	CouponID    string `json:"coupon_id" gorm:"not null;index"`
	ItemName    string `json:"item_name"`
	BrandName   string `json:"brand_name"`
	ThumbnailID string `json:"thumbnail_id"`
	ExpiredAt   int64  `json:"expired_at"`
}
