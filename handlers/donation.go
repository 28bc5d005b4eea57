// handlers/donation.go
package handlers

import (
	"ecofootprint-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupDonationRoutes(app *fiber.App, donationService *services.DonationService) {
	// 🔓 Public browsing
	app.Get("/api/donation/all", donationService.GetAllDonations)

	// 🔐 Creation and ad-backed participation
	donation := app.Group("/api/donation")
	donation.Post("/create", donationService.CreateDonation)
	donation.Post("/:id/participate", donationService.ParticipateDonation)

	// 🔓 Public detail view
	app.Get("/api/donation/:id", donationService.GetDonation)
}
