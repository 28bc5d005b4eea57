package models

import (
	"time"
)

// Reward is a catalog item users purchase with points. Purchasing one
// issues a Coupon against the coupon-network voucher pool for its
// item type.
type Reward struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ItemName    string    `json:"item_name" gorm:"not null"`
	BrandName   string    `json:"brand_name"`
	ItemType    string    `json:"item_type" gorm:"index;not null"`
	Price       int       `json:"price" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	ThumbnailID string    `json:"thumbnail_id"`
	ImageID     string    `json:"image_id"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RewardMeta is the brief projection used for catalog listings.
type RewardMeta struct {
	ID          string `json:"id"`
	ItemName    string `json:"item_name"`
	BrandName   string `json:"brand_name"`
	ItemType    string `json:"item_type"`
	Price       int    `json:"price"`
	ThumbnailID string `json:"thumbnail_id"`
}

// Meta returns the catalog-listing projection of the reward.
func (r *Reward) Meta() RewardMeta {
	return RewardMeta{
		ID:          r.ID,
		ItemName:    r.ItemName,
		BrandName:   r.BrandName,
		ItemType:    r.ItemType,
		Price:       r.Price,
		ThumbnailID: r.ThumbnailID,
	}
}
