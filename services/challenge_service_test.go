package services

import (
	"testing"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRecordSeq(t *testing.T) {
	assert.Equal(t, 0, nextRecordSeq(nil))
	assert.Equal(t, 0, nextRecordSeq([]models.ChallengeRecord{}))

	records := []models.ChallengeRecord{{Seq: 0}, {Seq: 1}, {Seq: 2}}
	assert.Equal(t, 3, nextRecordSeq(records))

	// Sequence continues from the highest seq even when earlier
	// records were removed.
	sparse := []models.ChallengeRecord{{Seq: 5}, {Seq: 2}}
	assert.Equal(t, 6, nextRecordSeq(sparse))
}

func TestThirdJoinRejectedOnTwoSlotChallenge(t *testing.T) {
	creator := models.User{ID: "u1", Username: "creator", Point: 100}
	challenge := models.Challenge{ID: "c1", TotalParticipants: 2, State: models.ChallengeStateActive}
	enroll(&challenge, &creator)

	second := models.User{ID: "u2", Username: "second", Point: 100}
	status, _ := participateCheck(&challenge, false, second.Point)
	require.Equal(t, 0, status)
	enroll(&challenge, &second)

	status, msg := participateCheck(&challenge, false, 100)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Challenge is full", msg)
	assert.Len(t, challenge.Participants, 2)
	assert.Equal(t, 2, challenge.CurrentParticipants)
}

func TestParticipateCheckRejectsDuplicate(t *testing.T) {
	challenge := models.Challenge{TotalParticipants: 4, CurrentParticipants: 1, State: models.ChallengeStateActive}

	status, msg := participateCheck(&challenge, true, 100)

	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Already participated in the challenge", msg)
}

func TestParticipateCheckRejectsInactive(t *testing.T) {
	challenge := models.Challenge{TotalParticipants: 4, CurrentParticipants: 1, State: models.ChallengeStateFinished}

	status, msg := participateCheck(&challenge, false, 100)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Challenge is not active", msg)
}

func TestParticipateCheckRejectsInsufficientBalance(t *testing.T) {
	challenge := models.Challenge{TotalParticipants: 4, CurrentParticipants: 1, State: models.ChallengeStateActive}

	status, msg := participateCheck(&challenge, false, 40)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Not enough point to participate in the challenge", msg)
}

func TestParticipateCheckOrderCapacityFirst(t *testing.T) {
	// A full challenge wins over every later precondition, duplicate
	// enrollment and balance included.
	challenge := models.Challenge{TotalParticipants: 1, CurrentParticipants: 1, State: models.ChallengeStateFinished}

	status, msg := participateCheck(&challenge, true, 0)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Challenge is full", msg)
}

func TestEnrollKeepsParticipantCountConsistent(t *testing.T) {
	challenge := models.Challenge{ID: "c1", TotalParticipants: 3, State: models.ChallengeStateActive}

	for i, id := range []string{"u1", "u2", "u3"} {
		user := models.User{ID: id, Username: id, Point: 100}
		status, _ := participateCheck(&challenge, false, user.Point)
		require.Equal(t, 0, status)
		enroll(&challenge, &user)
		assert.Equal(t, i+1, challenge.CurrentParticipants)
		assert.Equal(t, challenge.CurrentParticipants, len(challenge.Participants))
	}
}
