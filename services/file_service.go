// services/file_service.go
package services

import (
	"errors"
	"log"
	"path/filepath"

	"ecofootprint-service/models"
	"ecofootprint-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileService struct {
	DB *gorm.DB
}

func NewFileService(db *gorm.DB) *FileService {
	return &FileService{DB: db}
}

// UploadFile stores a multipart image in R2 and records its metadata.
func (s *FileService) UploadFile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	isPrivate := c.FormValue("is_private") == "true"

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "uploads/" + uuid.NewString() + ext

	url, err := utils.UploadToR2(fileHeader, key)
	if err != nil {
		log.Printf("R2 upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file"})
	}

	file := models.StoredFile{
		ID:          uuid.NewString(),
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		OwnerID:     userID,
		IsPrivate:   isPrivate,
		Key:         key,
		URL:         url,
	}
	if err := s.DB.Create(&file).Error; err != nil {
		log.Printf("DB Error creating file record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save file"})
	}

	return c.Status(fiber.StatusCreated).JSON(file)
}

// GetFile returns file metadata. Private files are visible only to
// their owner.
func (s *FileService) GetFile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var file models.StoredFile
	if err := s.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if file.IsPrivate && file.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "File is private"})
	}
	return c.JSON(file)
}

// DownloadFile redirects to the CDN URL of the blob. Private files are
// downloadable only by their owner.
func (s *FileService) DownloadFile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var file models.StoredFile
	if err := s.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if file.IsPrivate && file.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "File is private"})
	}
	return c.Redirect(file.URL, fiber.StatusTemporaryRedirect)
}

// DeleteFile removes the blob and its metadata. Owner only.
func (s *FileService) DeleteFile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var file models.StoredFile
	if err := s.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if file.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the owner of the file"})
	}

	if err := utils.DeleteFromR2(file.Key); err != nil {
		// Metadata removal still proceeds; the orphaned object is logged
		// for manual cleanup.
		log.Printf("R2 delete failed for %s: %v", file.Key, err)
	}
	if err := s.DB.Delete(&file).Error; err != nil {
		log.Printf("DB Error deleting file %s: %v", file.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete file"})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
