package services

import (
	"testing"

	"ecofootprint-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestPurchaseCheckRejectsInsufficientBalance(t *testing.T) {
	user := models.User{ID: "u1", Point: 50}
	reward := models.Reward{ID: "r1", ItemType: "burger", Price: 100}

	status, msg := purchaseCheck(&reward, user.Point)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Not enough point", msg)
	assert.Equal(t, 50, user.Point, "a rejected purchase must not touch the balance")
}

func TestPurchaseCheckRejectsUnknownItemType(t *testing.T) {
	reward := models.Reward{ID: "r1", ItemType: "pizza", Price: 10}

	status, msg := purchaseCheck(&reward, 100)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No coupon available for this item type", msg)
}

func TestPurchaseCheckAllowsAffordablePurchase(t *testing.T) {
	reward := models.Reward{ID: "r1", ItemType: "coffee", Price: 50}

	status, _ := purchaseCheck(&reward, 50)

	assert.Equal(t, 0, status)
}
