package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigworkid/gigwork_be/internal/models"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

func (h *NotificationHandler) ListMine(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var notifications []models.Notification
	if err := h.DB.Where("user_id = ?", userUUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch notifications"})
	}

	var unread int64
	h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userUUID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifications,
		"unread":  unread,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid notification ID"})
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userUUID).
		Update("is_read", true)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update notification"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Notification not found"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userUUID, false).
		Update("is_read", true).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "All notifications marked as read"})
}
