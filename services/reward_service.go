// services/reward_service.go
package services

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Voucher pools per item type. Placeholder until the gift-coupon
// network API is available; ids reference pre-uploaded voucher images.
var voucherPools = map[string][]string{
	"burger": {
		"6744a8355885bfc26714aa32", "6744a861d3331dac07b19577", "6744a86cd3331dac07b19579",
		"6744a881d3331dac07b1957d", "6744a889d3331dac07b1957f", "6744a891d3331dac07b19581",
	},
	"chicken": {"6744a89c7f333de2df997e7b", "6744a8a47f333de2df997e7d"},
	"coffee":  {"6744a8ad7f333de2df997e7f", "6744a8b57f333de2df997e81", "6744a8bd7f333de2df997e83"},
}

type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// CreateReward adds a catalog item.
func (s *RewardService) CreateReward(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	// TODO: restrict catalog management to admins once a role claim exists

	var req struct {
		ItemName    string `json:"item_name"`
		BrandName   string `json:"brand_name"`
		ItemType    string `json:"item_type"`
		Price       int    `json:"price"`
		Description string `json:"description"`
		ThumbnailID string `json:"thumbnail_id"`
		ImageID     string `json:"image_id"`
		Provider    string `json:"provider"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.ItemName == "" || req.ItemType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item_name and item_type are required"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be non-negative"})
	}

	reward := models.Reward{
		ID:          uuid.NewString(),
		ItemName:    req.ItemName,
		BrandName:   req.BrandName,
		ItemType:    req.ItemType,
		Price:       req.Price,
		Description: req.Description,
		ThumbnailID: req.ThumbnailID,
		ImageID:     req.ImageID,
		Provider:    req.Provider,
	}
	if err := s.DB.Create(&reward).Error; err != nil {
		log.Printf("DB Error creating reward: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reward"})
	}

	return c.Status(fiber.StatusCreated).JSON(reward)
}

// GetAllRewards lists the catalog as brief projections.
func (s *RewardService) GetAllRewards(c *fiber.Ctx) error {
	var rewards []models.Reward
	if err := s.DB.Find(&rewards).Error; err != nil {
		log.Printf("DB Error fetching rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rewards"})
	}

	metas := make([]models.RewardMeta, len(rewards))
	for i := range rewards {
		metas[i] = rewards[i].Meta()
	}
	return c.JSON(metas)
}

// GetReward returns one catalog item.
func (s *RewardService) GetReward(c *fiber.Ctx) error {
	var reward models.Reward
	if err := s.DB.First(&reward, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(reward)
}

// UpdateReward applies partial updates to a catalog item.
func (s *RewardService) UpdateReward(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	// TODO: restrict catalog management to admins once a role claim exists

	var reward models.Reward
	if err := s.DB.First(&reward, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		ItemName    *string `json:"item_name"`
		BrandName   *string `json:"brand_name"`
		ItemType    *string `json:"item_type"`
		Price       *int    `json:"price"`
		Description *string `json:"description"`
		ThumbnailID *string `json:"thumbnail_id"`
		ImageID     *string `json:"image_id"`
		Provider    *string `json:"provider"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.ItemName != nil {
		reward.ItemName = *req.ItemName
	}
	if req.BrandName != nil {
		reward.BrandName = *req.BrandName
	}
	if req.ItemType != nil {
		reward.ItemType = *req.ItemType
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must be non-negative"})
		}
		reward.Price = *req.Price
	}
	if req.Description != nil {
		reward.Description = *req.Description
	}
	if req.ThumbnailID != nil {
		reward.ThumbnailID = *req.ThumbnailID
	}
	if req.ImageID != nil {
		reward.ImageID = *req.ImageID
	}
	if req.Provider != nil {
		reward.Provider = *req.Provider
	}

	if err := s.DB.Save(&reward).Error; err != nil {
		log.Printf("DB Error updating reward: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update reward"})
	}
	return c.JSON(reward)
}

// DeleteReward removes a catalog item.
func (s *RewardService) DeleteReward(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	// TODO: restrict catalog management to admins once a role claim exists

	var reward models.Reward
	if err := s.DB.First(&reward, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&reward).Error; err != nil {
		log.Printf("DB Error deleting reward: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete reward"})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// PurchaseReward exchanges points for a coupon. The coupon document,
// the owner's coupon summary and the point debit are written in one
// transaction so a failure cannot charge the user without recording
// the coupon, or the other way around.
func (s *RewardService) PurchaseReward(c *fiber.Ctx) error {
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

	var reward models.Reward
	if err := s.DB.First(&reward, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reward not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if status, msg := purchaseCheck(&reward, user.Point); status != 0 {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	if err := DebitPoints(&user, reward.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not enough point"})
	}
	pool := voucherPools[reward.ItemType]

	coupon := models.Coupon{
		ID:          uuid.NewString(),
		ItemName:    reward.ItemName,
		BrandName:   reward.BrandName,
		Description: reward.Description,
		ThumbnailID: reward.ThumbnailID,
		VoucherID:   pool[rand.Intn(len(pool))],
		ExpiredAt:   time.Now().Add(models.CouponExtension).Unix(),
	}
	summary := models.CouponSummary{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		CouponID:    coupon.ID,
		ItemName:    coupon.ItemName,
		BrandName:   coupon.BrandName,
		ThumbnailID: coupon.ThumbnailID,
		ExpiredAt:   coupon.ExpiredAt,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&coupon).Error; err != nil {
			return err
		}
		if err := tx.Create(&summary).Error; err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		log.Printf("DB Error purchasing reward %s for user %s: %v", reward.ID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to purchase reward"})
	}

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// purchaseCheck validates a redemption before any write: a voucher
// pool must exist for the item type and the balance must cover the
// price. It returns the HTTP status and message of the first violated
// precondition, or 0 when the purchase may proceed.
func purchaseCheck(reward *models.Reward, balance int) (int, string) {
	if pool, ok := voucherPools[reward.ItemType]; !ok || len(pool) == 0 {
		return fiber.StatusBadRequest, "No coupon available for this item type"
	}
	if balance < reward.Price {
		return fiber.StatusBadRequest, "Not enough point"
	}
	return 0, ""
}

// ExtendCoupon pushes a coupon's expiry out by seven days. The new
// expiry is computed from the current one, so repeated extensions
// compound instead of resetting from now.
func (s *RewardService) ExtendCoupon(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	couponID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var summary models.CouponSummary
	if err := s.DB.Where("user_id = ? AND coupon_id = ?", userID, couponID).
		First(&summary).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon not found in your list"})
	}

	var coupon models.Coupon
	if err := s.DB.First(&coupon, "id = ?", couponID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	coupon.Extend(models.CouponExtension)
	summary.ExpiredAt = coupon.ExpiredAt

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&coupon).Error; err != nil {
			return err
		}
		return tx.Save(&summary).Error
	})
	if err != nil {
		log.Printf("DB Error extending coupon %s: %v", couponID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to extend coupon"})
	}

	return c.JSON(coupon)
}

// DeleteCoupon removes a coupon the caller owns, together with its
// summary in the owner's coupon list.
func (s *RewardService) DeleteCoupon(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	couponID := c.Params("id")

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var summary models.CouponSummary
	if err := s.DB.Where("user_id = ? AND coupon_id = ?", userID, couponID).
		First(&summary).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon not found in your list"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Coupon{}, "id = ?", couponID).Error; err != nil {
			return err
		}
		return tx.Delete(&summary).Error
	})
	if err != nil {
		log.Printf("DB Error deleting coupon %s: %v", couponID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete coupon"})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
