// handlers/reward.go
package handlers

import (
	"ecofootprint-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(app *fiber.App, rewardService *services.RewardService) {
	// 🔓 Public catalog
	app.Get("/api/reward/all", rewardService.GetAllRewards)

	// 🔐 Catalog management and redemption
	reward := app.Group("/api/reward")
	reward.Post("/create", rewardService.CreateReward)
	reward.Put("/:id", rewardService.UpdateReward)
	reward.Delete("/:id", rewardService.DeleteReward)
	reward.Post("/purchase/:id", rewardService.PurchaseReward)

	// 🔐 Coupons held by the purchaser
	coupon := app.Group("/api/coupon")
	coupon.Post("/extend/:id", rewardService.ExtendCoupon)
	coupon.Delete("/:id", rewardService.DeleteCoupon)

	// 🔓 Public item detail
	app.Get("/api/reward/:id", rewardService.GetReward)
}
