package models

import (
	"time"
)

// User is the service-local account record. The primary key is the
// subject id (`sub`) of the verified ID token, so no mapping table is
// needed between the identity provider and this service.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"index;not null"`
	Point       int       `json:"point" gorm:"not null;default:0"`
	ThumbnailID string    `json:"thumbnail_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Coupons owned by the user. The coupon document itself does not
	// store an owner; ownership is this list.
	CouponList []CouponSummary `json:"coupon_list,omitempty" gorm:"foreignKey:UserID"`
}

// UserMeta is the lightweight projection embedded wherever another
// entity references a user (challenge participants, donation lists).
type UserMeta struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	ThumbnailID string `json:"thumbnail_id"`
}

// Meta returns the projection of the user used in participant rows.
func (u *User) Meta() UserMeta {
	return UserMeta{ID: u.ID, Username: u.Username, ThumbnailID: u.ThumbnailID}
}
