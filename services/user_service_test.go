package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRegisterErrorStatus(t *testing.T) {
	// A duplicate primary key means a concurrent registration already
	// created the account.
	status, msg := registerErrorStatus(gorm.ErrDuplicatedKey)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "User already registered", msg)

	status, msg = registerErrorStatus(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "User already registered", msg)

	status, _ = registerErrorStatus(errors.New("connection reset"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
}
