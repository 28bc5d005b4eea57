package services

import (
	"testing"

	"ecofootprint-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitPointsRejectsInsufficientBalance(t *testing.T) {
	user := &models.User{ID: "u1", Point: 40}

	err := DebitPoints(user, 50)

	require.ErrorIs(t, err, ErrInsufficientPoint)
	assert.Equal(t, 40, user.Point, "balance must be unchanged after a rejected debit")
}

func TestDebitPointsNeverGoesNegative(t *testing.T) {
	user := &models.User{ID: "u1", Point: 50}

	require.NoError(t, DebitPoints(user, 50))
	assert.Equal(t, 0, user.Point)

	err := DebitPoints(user, 1)
	require.ErrorIs(t, err, ErrInsufficientPoint)
	assert.Equal(t, 0, user.Point)
}

func TestDebitPointsRejectsNegativeAmount(t *testing.T) {
	user := &models.User{ID: "u1", Point: 10}

	err := DebitPoints(user, -5)

	require.Error(t, err)
	assert.Equal(t, 10, user.Point)
}

func TestCreditPoints(t *testing.T) {
	user := &models.User{ID: "u1", Point: 10}

	CreditPoints(user, 30)
	assert.Equal(t, 40, user.Point)

	CreditPoints(user, -10)
	assert.Equal(t, 40, user.Point, "negative credits are ignored")
}

func TestSplitReward(t *testing.T) {
	cases := []struct {
		name           string
		amount, cap    int
		toUser, toPool int
	}{
		{"reward below cap goes entirely to user", 30, 50, 30, 0},
		{"reward above cap overflows to pool", 80, 50, 50, 30},
		{"reward equal to cap leaves nothing for pool", 50, 50, 50, 0},
		{"zero cap routes everything to pool", 80, 0, 0, 80},
		{"zero amount", 0, 50, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toUser, toPool := SplitReward(tc.amount, tc.cap)
			assert.Equal(t, tc.toUser, toUser)
			assert.Equal(t, tc.toPool, toPool)
		})
	}
}

func TestPayoutPoints(t *testing.T) {
	// Two participants, 3 and 1 records, base 600, pool 2000.
	assert.Equal(t, 2100, PayoutPoints(600, 2000, 3, 4))
	assert.Equal(t, 1100, PayoutPoints(600, 2000, 1, 4))

	// Truncating division, never rounds up.
	assert.Equal(t, 600+2000/3, PayoutPoints(600, 2000, 1, 3))

	// No records at all: pool contributes nothing, no division by zero.
	assert.Equal(t, 600, PayoutPoints(600, 2000, 0, 0))
	assert.Equal(t, 600, PayoutPoints(600, 2000, 0, 4))
}
