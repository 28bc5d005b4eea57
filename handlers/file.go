// handlers/file.go
package handlers

import (
	"ecofootprint-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupFileRoutes(app *fiber.App, fileService *services.FileService) {
	file := app.Group("/api/file")
	file.Post("/upload", fileService.UploadFile)
	file.Get("/:id", fileService.GetFile)
	file.Get("/:id/download", fileService.DownloadFile)
	file.Delete("/:id", fileService.DeleteFile)
}
