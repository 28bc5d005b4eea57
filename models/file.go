package models

import (
	"time"
)

// StoredFile is the metadata row for an uploaded blob. The bytes live
// in R2 under Key; URL is the public CDN address.
type StoredFile struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	OwnerID     string    `json:"owner_id" gorm:"index"`
	IsPrivate   bool      `json:"is_private" gorm:"default:false"`
	Key         string    `json:"-"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
