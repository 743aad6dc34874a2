package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gigworkid/gigwork_be/internal/models"
)

type WalletHandler struct {
	DB *gorm.DB
}

func NewWalletHandler(db *gorm.DB) *WalletHandler {
	return &WalletHandler{DB: db}
}

// GetWallet returns the user's current balance and transaction ledger.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var transactions []models.WalletTransaction
	if err := h.DB.Where("user_id = ?", userUUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"balance":      user.Balance,
			"transactions": transactions,
		},
	})
}
