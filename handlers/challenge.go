// handlers/challenge.go
package handlers

import (
	"ecofootprint-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	// 🔓 Public browsing
	app.Get("/api/challenge/all", challengeService.GetAllChallenges)

	// 🔐 Challenge lifecycle (create costs points, the rest require
	// participation)
	challenge := app.Group("/api/challenge")
	challenge.Post("/create", challengeService.CreateChallenge)
	challenge.Post("/:id/participate", challengeService.ParticipateChallenge)
	challenge.Post("/:id/add/:imageId", challengeService.AddChallengeRecord)
	challenge.Put("/:id/record/:recordId/approve", challengeService.ChangeRecordState)
	challenge.Post("/:id/clear", challengeService.ClearChallenge)

	// 🔓 Public detail view (after the fixed routes so /all and /create
	// are not captured by the wildcard)
	app.Get("/api/challenge/:id", challengeService.GetChallenge)
}
