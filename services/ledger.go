// services/ledger.go
package services

import (
	"errors"
	"fmt"

	"ecofootprint-service/models"
)

// Point amounts used across the workflows.
const (
	// ChallengeParticipatePoint is debited when creating or joining a
	// challenge.
	ChallengeParticipatePoint = 50
	// ChallengeRewardPoint is the default base payout per participant.
	ChallengeRewardPoint = 100
	// ChallengeAdditionalPoint is the default bonus pool distributed by
	// record share at payout time.
	ChallengeAdditionalPoint = 100
	// SimpleActionPoint is credited for a verified everyday eco-action.
	SimpleActionPoint = 10
)

// ErrInsufficientPoint is returned when a debit would take a balance
// below zero.
var ErrInsufficientPoint = errors.New("not enough point")

// DebitPoints decreases the user's balance, rejecting any debit that
// would go negative. Every balance decrease in the service goes
// through here; callers persist the user afterwards.
func DebitPoints(u *models.User, amount int) error {
	if amount < 0 {
		return fmt.Errorf("negative debit amount %d", amount)
	}
	if u.Point < amount {
		return ErrInsufficientPoint
	}
	u.Point -= amount
	return nil
}

// CreditPoints increases the user's balance. There is no upper bound.
func CreditPoints(u *models.User, amount int) {
	if amount < 0 {
		return
	}
	u.Point += amount
}

// SplitReward divides a verified ad reward between the watching user
// and a shared pool: the user gets at most userCap, the remainder goes
// to the pool.
func SplitReward(amount, userCap int) (toUser, toPool int) {
	if amount <= 0 {
		return 0, 0
	}
	toUser = amount
	if userCap >= 0 && toUser > userCap {
		toUser = userCap
	}
	return toUser, amount - toUser
}

// PayoutPoints computes the challenge payout for one participant:
// the base reward plus a share of the bonus pool proportional to the
// participant's submitted records. With no records at all the pool
// contributes nothing.
func PayoutPoints(base, pool, userRecords, totalRecords int) int {
	if totalRecords <= 0 || userRecords <= 0 {
		return base
	}
	return base + pool*userRecords/totalRecords
}
