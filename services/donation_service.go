// services/donation_service.go
package services

import (
	"errors"
	"log"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DonationService struct {
	DB       *gorm.DB
	Verifier *AdVerifier
}

func NewDonationService(db *gorm.DB, verifier *AdVerifier) *DonationService {
	return &DonationService{DB: db, Verifier: verifier}
}

// CreateDonation opens a new donation campaign.
func (s *DonationService) CreateDonation(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		TargetPoint int    `json:"target_point"`
		RewardPoint int    `json:"reward_point"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.TargetPoint <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "target_point must be positive"})
	}
	if req.RewardPoint < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward_point must be non-negative"})
	}

	donation := models.Donation{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		TargetPoint: req.TargetPoint,
		RewardPoint: req.RewardPoint,
		State:       models.DonationStateActive,
	}
	if err := s.DB.Create(&donation).Error; err != nil {
		log.Printf("DB Error creating donation: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create donation"})
	}

	return c.Status(fiber.StatusCreated).JSON(donation)
}

// GetAllDonations lists every donation campaign.
func (s *DonationService) GetAllDonations(c *fiber.Ctx) error {
	var donations []models.Donation
	if err := s.DB.Order("created_at DESC").Find(&donations).Error; err != nil {
		log.Printf("DB Error fetching donations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch donations"})
	}
	return c.JSON(donations)
}

// GetDonation returns one donation with its participant list.
func (s *DonationService) GetDonation(c *fiber.Ctx) error {
	var donation models.Donation
	if err := s.DB.Preload("Participants").First(&donation, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Donation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(donation)
}

// ParticipateDonation contributes a verified ad watch to the campaign.
// The caller must hold a fresh ad entitlement; the reward is split so
// the user keeps at most the campaign's per-participant cap and the
// remainder raises the campaign total.
func (s *DonationService) ParticipateDonation(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	donationID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var donation models.Donation
	if err := s.DB.First(&donation, "id = ?", donationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Donation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if donation.State != models.DonationStateActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Donation is not active"})
	}

	var existing models.DonationParticipant
	if err := s.DB.Where("donation_id = ? AND user_id = ?", donationID, userID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already participated in the donation"})
	}

	ent, ok := s.Verifier.Consume(userID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ad not watched yet"})
	}

	toUser, toPool := SplitReward(ent.RewardAmount, donation.RewardPoint)
	CreditPoints(&user, toUser)
	donation.CurrentPoint += toPool
	if donation.CurrentPoint >= donation.TargetPoint {
		donation.State = models.DonationStateFinished
	}

	participant := models.DonationParticipant{
		ID:         uuid.NewString(),
		DonationID: donation.ID,
		UserID:     user.ID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		if err := tx.Save(&donation).Error; err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		// Put the entitlement back so the contribution can be retried.
		s.Verifier.Record(ent.UserID, ent.RewardAmount, ent.Timestamp)
		log.Printf("DB Error joining donation %s: %v", donationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to participate in the donation"})
	}

	return c.JSON(fiber.Map{
		"awarded_point":  toUser,
		"donated_point":  toPool,
		"point":          user.Point,
		"donation_state": donation.State,
	})
}
