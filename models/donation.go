package models

import (
	"time"
)

// DonationState is the lifecycle state of a donation campaign.
type DonationState string

const (
	DonationStateActive   DonationState = "active"
	DonationStateFinished DonationState = "finished"
)

// Donation is a point-collection campaign. Participants watch a
// rewarded ad; the verified reward is split between the user (up to
// RewardPoint) and the campaign total. CurrentPoint only increases.
type Donation struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	Name         string        `json:"name" gorm:"not null"`
	Description  string        `json:"description" gorm:"type:text"`
	TargetPoint  int           `json:"target_point" gorm:"not null"`
	CurrentPoint int           `json:"current_point" gorm:"not null;default:0"`
	RewardPoint  int           `json:"reward_point" gorm:"not null;default:0"`
	State        DonationState `json:"state" gorm:"type:varchar(16);default:'active'"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []DonationParticipant `json:"participants,omitempty" gorm:"foreignKey:DonationID"`
}

// DonationParticipant marks that a user already contributed to a
// campaign; the (donation, user) pair is unique.
type DonationParticipant struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	DonationID string    `json:"donation_id" gorm:"not null;uniqueIndex:idx_donation_participant"`
	UserID     string    `json:"user_id" gorm:"not null;uniqueIndex:idx_donation_participant;index"`
	JoinedAt   time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
