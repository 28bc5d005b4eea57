package models

import (
	"time"
)

// ChallengeState is the lifecycle state of a challenge.
type ChallengeState string

const (
	ChallengeStatePending  ChallengeState = "pending"
	ChallengeStateActive   ChallengeState = "active"
	ChallengeStateInactive ChallengeState = "inactive"
	ChallengeStateFinished ChallengeState = "finished"
	ChallengeStateFailed   ChallengeState = "failed"
)

// Terminal reports whether the state can no longer advance on its own.
// The expiry sweep skips challenges in a terminal state.
func (s ChallengeState) Terminal() bool {
	return s == ChallengeStateFinished || s == ChallengeStateInactive || s == ChallengeStateFailed
}

// TerminalChallengeStates lists the states Terminal reports true for,
// in a form usable as a query filter.
var TerminalChallengeStates = []ChallengeState{
	ChallengeStateFinished,
	ChallengeStateInactive,
	ChallengeStateFailed,
}

// Challenge is an environmental challenge users join by paying the
// participation cost and later claim a payout from once it finishes.
type Challenge struct {
	ID                  string         `json:"id" gorm:"primaryKey"`
	Slug                string         `json:"slug" gorm:"index"`
	Name                string         `json:"name" gorm:"not null"`
	Description         string         `json:"description" gorm:"type:text"`
	TotalParticipants   int            `json:"total_participants" gorm:"not null"`
	CurrentParticipants int            `json:"current_participants" gorm:"not null;default:0"`
	RewardPoint         int            `json:"reward_point" gorm:"not null;default:0"`
	AdditionalPoint     int            `json:"additional_point" gorm:"not null;default:0"`
	DateStart           time.Time      `json:"date_start"`
	DateEnd             time.Time      `json:"date_end" gorm:"index"`
	State               ChallengeState `json:"state" gorm:"type:varchar(16);default:'active';index"`
	CreatedAt           time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	Participants []ChallengeParticipant `json:"participants,omitempty" gorm:"foreignKey:ChallengeID"`
	Records      []ChallengeRecord      `json:"records,omitempty" gorm:"foreignKey:ChallengeID"`
}

// ChallengeParticipant is one enrollment. The (challenge, user) pair is
// unique so a user can never appear twice in a challenge. The username
// and thumbnail are denormalized from the user at join time.
type ChallengeParticipant struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ChallengeID string    `json:"challenge_id" gorm:"not null;uniqueIndex:idx_challenge_participant"`
	UserID      string    `json:"user_id" gorm:"not null;uniqueIndex:idx_challenge_participant;index"`
	Username    string    `json:"username"`
	ThumbnailID string    `json:"thumbnail_id"`
	JoinedAt    time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// ChallengeRecord is one piece of submitted evidence. Seq is a
// per-challenge counter starting at 0, assigned in submission order;
// it is the record id clients reference, not a global id.
type ChallengeRecord struct {
	ID          string    `json:"-" gorm:"primaryKey"`
	ChallengeID string    `json:"challenge_id" gorm:"not null;uniqueIndex:idx_challenge_record"`
	Seq         int       `json:"id" gorm:"not null;uniqueIndex:idx_challenge_record"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	ImageID     string    `json:"image_id" gorm:"not null"`
	Approved    bool      `json:"approved" gorm:"not null;default:false"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
}

// ChallengeMeta is the brief projection used for list responses.
type ChallengeMeta struct {
	ID                  string         `json:"id"`
	Slug                string         `json:"slug"`
	Name                string         `json:"name"`
	TotalParticipants   int            `json:"total_participants"`
	CurrentParticipants int            `json:"current_participants"`
	DateStart           time.Time      `json:"date_start"`
	DateEnd             time.Time      `json:"date_end"`
	State               ChallengeState `json:"state"`
}

// Meta returns the list projection of the challenge.
func (c *Challenge) Meta() ChallengeMeta {
	return ChallengeMeta{
		ID:                  c.ID,
		Slug:                c.Slug,
		Name:                c.Name,
		TotalParticipants:   c.TotalParticipants,
		CurrentParticipants: c.CurrentParticipants,
		DateStart:           c.DateStart,
		DateEnd:             c.DateEnd,
		State:               c.State,
	}
}
