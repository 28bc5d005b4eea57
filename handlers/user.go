// handlers/user.go
package handlers

import (
	"ecofootprint-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	// 🔓 SSV callback — invoked by the ad network, authenticated by its
	// callback signature, never by a bearer token
	app.Post("/api/ssv/verify", userService.VerifySSV)

	// 🔐 Authenticated user routes (registered before the public :id
	// wildcard so /me is not captured by it)
	user := app.Group("/api/user")
	user.Post("/register", userService.RegisterUser)
	user.Get("/me", userService.GetMe)
	user.Put("/me", userService.UpdateMe)
	user.Delete("/me", userService.DeleteMe)
	user.Post("/point/ad", userService.CreditAdPoint)
	user.Post("/point/action", userService.CreditActionPoint)

	// 🔓 Public profile
	app.Get("/api/user/:id", userService.GetUser)
}
