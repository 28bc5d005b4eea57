// services/challenge_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// CreateChallenge opens a new challenge. The creator pays the
// participation cost and becomes participant #1; the challenge starts
// active immediately.
func (s *ChallengeService) CreateChallenge(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		Name              string     `json:"name"`
		Description       string     `json:"description"`
		TotalParticipants int        `json:"total_participants"`
		RewardPoint       *int       `json:"reward_point"`
		AdditionalPoint   *int       `json:"additional_point"`
		DateStart         *time.Time `json:"date_start"`
		DateEnd           time.Time  `json:"date_end"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.TotalParticipants < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_participants must be at least 1"})
	}
	if req.DateEnd.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_end is required"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := DebitPoints(&user, ChallengeParticipatePoint); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not enough point to create the challenge"})
	}

	rewardPoint := ChallengeRewardPoint
	if req.RewardPoint != nil && *req.RewardPoint >= 0 {
		rewardPoint = *req.RewardPoint
	}
	additionalPoint := ChallengeAdditionalPoint
	if req.AdditionalPoint != nil && *req.AdditionalPoint >= 0 {
		additionalPoint = *req.AdditionalPoint
	}
	dateStart := time.Now()
	if req.DateStart != nil {
		dateStart = *req.DateStart
	}

	challenge := models.Challenge{
		ID:                uuid.NewString(),
		Slug:              slug.Make(req.Name),
		Name:              req.Name,
		Description:       req.Description,
		TotalParticipants: req.TotalParticipants,
		RewardPoint:       rewardPoint,
		AdditionalPoint:   additionalPoint,
		DateStart:         dateStart,
		DateEnd:           req.DateEnd,
		State:             models.ChallengeStateActive,
	}
	creator := enroll(&challenge, &user)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&challenge).Error; err != nil {
			return err
		}
		if err := tx.Create(&creator).Error; err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		log.Printf("DB Error creating challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create challenge"})
	}

	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// GetAllChallenges lists every challenge as a brief projection.
func (s *ChallengeService) GetAllChallenges(c *fiber.Ctx) error {
	var challenges []models.Challenge
	if err := s.DB.Order("created_at DESC").Find(&challenges).Error; err != nil {
		log.Printf("DB Error fetching challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch challenges"})
	}

	metas := make([]models.ChallengeMeta, len(challenges))
	for i := range challenges {
		metas[i] = challenges[i].Meta()
	}
	return c.JSON(metas)
}

// GetChallenge returns one challenge with participants and records.
func (s *ChallengeService) GetChallenge(c *fiber.Ctx) error {
	challengeID := c.Params("id")

	var challenge models.Challenge
	if err := s.DB.Preload("Participants").Preload("Records").
		First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(challenge)
}

// ParticipateChallenge enrolls the caller. Checks run in a fixed order
// before any mutation: authentication, existence, capacity, state,
// duplicate participation, balance.
func (s *ChallengeService) ParticipateChallenge(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	challengeID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var challenge models.Challenge
	if err := s.DB.Preload("Participants").First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	alreadyJoined := false
	for _, p := range challenge.Participants {
		if p.UserID == userID {
			alreadyJoined = true
			break
		}
	}
	if status, msg := participateCheck(&challenge, alreadyJoined, user.Point); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	if err := DebitPoints(&user, ChallengeParticipatePoint); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not enough point to participate in the challenge"})
	}

	participant := enroll(&challenge, &user)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&challenge).Error; err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		log.Printf("DB Error joining challenge %s: %v", challengeID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to participate in the challenge"})
	}

	return s.GetChallenge(c)
}

// participateCheck runs the join preconditions in their fixed order:
// capacity, state, duplicate enrollment, balance. It returns the HTTP
// status and message of the first violated precondition, or 0 when the
// join may proceed.
func participateCheck(challenge *models.Challenge, alreadyJoined bool, balance int) (int, string) {
	if challenge.CurrentParticipants >= challenge.TotalParticipants {
		return fiber.StatusBadRequest, "Challenge is full"
	}
	if challenge.State != models.ChallengeStateActive {
		return fiber.StatusBadRequest, "Challenge is not active"
	}
	if alreadyJoined {
		return fiber.StatusConflict, "Already participated in the challenge"
	}
	if balance < ChallengeParticipatePoint {
		return fiber.StatusBadRequest, "Not enough point to participate in the challenge"
	}
	return 0, ""
}

// enroll adds the user to the challenge's participant list and bumps
// the counter, keeping current_participants equal to the number of
// participant rows.
func enroll(challenge *models.Challenge, user *models.User) models.ChallengeParticipant {
	p := models.ChallengeParticipant{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		Username:    user.Username,
		ThumbnailID: user.ThumbnailID,
	}
	challenge.Participants = append(challenge.Participants, p)
	challenge.CurrentParticipants++
	return p
}

// AddChallengeRecord submits evidence for the challenge. Only current
// participants may submit; the record id is a per-challenge counter
// starting at 0.
func (s *ChallengeService) AddChallengeRecord(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	challengeID := c.Params("id")
	imageID := c.Params("imageId")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var challenge models.Challenge
	if err := s.DB.Preload("Records").First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var participant models.ChallengeParticipant
	if err := s.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not a participant of the challenge"})
	}

	var image models.StoredFile
	if err := s.DB.First(&image, "id = ?", imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Image not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	record := models.ChallengeRecord{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		Seq:         nextRecordSeq(challenge.Records),
		UserID:      userID,
		ImageID:     imageID,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		log.Printf("DB Error adding challenge record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add record"})
	}

	return s.GetChallenge(c)
}

// nextRecordSeq assigns the per-challenge record id: 0 for the first
// record, previous last id + 1 after that.
func nextRecordSeq(records []models.ChallengeRecord) int {
	if len(records) == 0 {
		return 0
	}
	last := records[0].Seq
	for _, r := range records[1:] {
		if r.Seq > last {
			last = r.Seq
		}
	}
	return last + 1
}

// ChangeRecordState flips a record's approval flag. Any current
// participant acts as reviewer; the design does not carry a distinct
// moderator role.
func (s *ChallengeService) ChangeRecordState(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	challengeID := c.Params("id")
	seq, err := strconv.Atoi(c.Params("recordId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid record id"})
	}
	approve := c.QueryBool("approve", true)

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var participant models.ChallengeParticipant
	if err := s.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var record models.ChallengeRecord
	if err := s.DB.Where("challenge_id = ? AND seq = ?", challengeID, seq).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	record.Approved = approve
	if err := s.DB.Save(&record).Error; err != nil {
		log.Printf("DB Error updating record state: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update record"})
	}

	return s.GetChallenge(c)
}

// ClearChallenge pays out the caller's share of a finished challenge.
// The participant row is removed inside the same transaction that
// credits the user, so a repeat claim finds no enrollment and is
// rejected; the last claim flips the challenge to inactive.
func (s *ChallengeService) ClearChallenge(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	challengeID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var challenge models.Challenge
	if err := s.DB.Preload("Records").First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if challenge.State != models.ChallengeStateFinished {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Challenge is not finished yet"})
	}

	var participant models.ChallengeParticipant
	if err := s.DB.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&participant).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not a participant or already claimed"})
	}

	userRecords := 0
	for _, r := range challenge.Records {
		if r.UserID == userID {
			userRecords++
		}
	}
	payout := PayoutPoints(challenge.RewardPoint, challenge.AdditionalPoint, userRecords, len(challenge.Records))

	challenge.CurrentParticipants--
	if challenge.CurrentParticipants <= 0 {
		challenge.CurrentParticipants = 0
		challenge.State = models.ChallengeStateInactive
	}
	CreditPoints(&user, payout)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&participant).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&challenge).Error; err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		log.Printf("DB Error clearing challenge %s for user %s: %v", challengeID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to claim challenge reward"})
	}

	return c.JSON(fiber.Map{"awarded_point": payout, "point": user.Point, "challenge_state": challenge.State})
}

// SweepExpiredChallenges finishes every challenge whose end date has
// passed. Individual failures are logged and skipped, the sweep keeps
// going.
func (s *ChallengeService) SweepExpiredChallenges(now time.Time) {
	var challenges []models.Challenge
	if err := s.DB.Where("date_end <= ? AND state NOT IN ?", now, models.TerminalChallengeStates).
		Find(&challenges).Error; err != nil {
		log.Printf("[Scheduler] DB error in expiry sweep: %v", err)
		return
	}

	for _, challenge := range challenges {
		challenge.State = models.ChallengeStateFinished
		if err := s.DB.Save(&challenge).Error; err != nil {
			log.Printf("[Scheduler] Failed to finish challenge %s: %v", challenge.ID, err)
			continue
		}
		log.Printf("✅ Challenge finished by expiry: %s", challenge.Name)
	}
}
