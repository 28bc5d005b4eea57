// services/user_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB       *gorm.DB
	Verifier *AdVerifier
}

func NewUserService(db *gorm.DB, verifier *AdVerifier) *UserService {
	return &UserService{DB: db, Verifier: verifier}
}

// RegisterUser creates the account for the authenticated subject.
func (s *UserService) RegisterUser(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		Username    string `json:"username"`
		ThumbnailID string `json:"thumbnail_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username is required"})
	}

	var existing models.User
	if err := s.DB.First(&existing, "id = ?", userID).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already registered"})
	}

	user := models.User{
		ID:          userID,
		Username:    req.Username,
		ThumbnailID: req.ThumbnailID,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		status, msg := registerErrorStatus(err)
		if status != fiber.StatusConflict {
			log.Printf("DB Error registering user %s: %v", userID, err)
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// registerErrorStatus maps a user-insert failure. The subject id is
// the primary key, so a duplicate key means a concurrent registration
// won the race and the request is a Conflict, not a server error.
func registerErrorStatus(err error) (int, string) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fiber.StatusConflict, "User already registered"
	}
	return fiber.StatusInternalServerError, "Failed to register user"
}

// GetMe returns the caller's full record: balance, coupon list and
// challenge participation summaries.
func (s *UserService) GetMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := s.DB.Preload("CouponList").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var challengeIDs []string
	if err := s.DB.Model(&models.ChallengeParticipant{}).
		Where("user_id = ?", userID).
		Pluck("challenge_id", &challengeIDs).Error; err != nil {
		log.Printf("DB Error fetching challenge list for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	challengeList := []models.ChallengeMeta{}
	if len(challengeIDs) > 0 {
		var challenges []models.Challenge
		if err := s.DB.Where("id IN ?", challengeIDs).Find(&challenges).Error; err != nil {
			log.Printf("DB Error fetching challenges for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		for i := range challenges {
			challengeList = append(challengeList, challenges[i].Meta())
		}
	}

	return c.JSON(fiber.Map{
		"id":             user.ID,
		"username":       user.Username,
		"point":          user.Point,
		"thumbnail_id":   user.ThumbnailID,
		"coupon_list":    user.CouponList,
		"challenge_list": challengeList,
	})
}

// GetUser returns another user's public profile.
func (s *UserService) GetUser(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(user.Meta())
}

// UpdateMe applies partial profile updates.
func (s *UserService) UpdateMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Username    *string `json:"username"`
		ThumbnailID *string `json:"thumbnail_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Username != nil {
		if *req.Username == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username must not be empty"})
		}
		user.Username = *req.Username
	}
	if req.ThumbnailID != nil {
		user.ThumbnailID = *req.ThumbnailID
	}

	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("DB Error updating user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}
	return c.JSON(user)
}

// DeleteMe hard-deletes the caller's account together with coupon
// summaries and enrollments. The id is never reused.
func (s *UserService) DeleteMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.CouponSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ChallengeParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.DonationParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Printf("DB Error deleting user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	return c.JSON(fiber.Map{"deleted": true})
}

// CreditAdPoint claims the caller's pending ad entitlement and credits
// the full amount. The entitlement is consumed exactly once.
func (s *UserService) CreditAdPoint(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	ent, ok := s.Verifier.Consume(userID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ad not watched yet"})
	}

	CreditPoints(&user, ent.RewardAmount)
	if err := s.DB.Save(&user).Error; err != nil {
		// Put the entitlement back so the credit can be retried.
		s.Verifier.Record(ent.UserID, ent.RewardAmount, ent.Timestamp)
		log.Printf("DB Error crediting ad point for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to credit point"})
	}

	return c.JSON(fiber.Map{"awarded_point": ent.RewardAmount, "point": user.Point})
}

// CreditActionPoint credits the fixed reward for an everyday
// eco-action.
func (s *UserService) CreditActionPoint(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	CreditPoints(&user, SimpleActionPoint)
	if err := s.DB.Save(&user).Error; err != nil {
		log.Printf("DB Error crediting action point for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to credit point"})
	}

	return c.JSON(fiber.Map{"awarded_point": SimpleActionPoint, "point": user.Point})
}

// VerifySSV handles AdMob's server-side verification callback. It is
// called by the ad network, not a user agent, so it carries no bearer
// token; authenticity comes from the callback signature alone.
func (s *UserService) VerifySSV(c *fiber.Ctx) error {
	params := c.Queries()

	keyID := params["key_id"]
	signature := params["signature"]
	if keyID == "" || signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bad Request"})
	}
	userID := params["user_id"]
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bad Request"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !s.Verifier.Verify(params, keyID, signature) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	timestamp, err := strconv.ParseInt(params["timestamp"], 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bad Request"})
	}
	rewardAmount, err := strconv.Atoi(params["reward_amount"])
	if err != nil || rewardAmount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bad Request"})
	}

	s.Verifier.Record(userID, rewardAmount, timestamp)
	return c.JSON(fiber.Map{"status": "success"})
}
