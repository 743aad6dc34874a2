package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/pricing"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch categories"})
	}
	return c.JSON(fiber.Map{"success": true, "data": categories})
}

// Quote computes the current price for a category/pages/quality/deadline
// combination. Purely informational: checkout recomputes from scratch, so a
// stale quote can never be paid.
func (h *CategoryHandler) Quote(c *fiber.Ctx) error {
	categoryID := c.QueryInt("category_id")
	pageCount := c.QueryInt("page_count")
	quality := pricing.Quality(c.Query("quality", string(pricing.QualityStandard)))
	method := models.PaymentMethod(c.Query("payment_method", string(models.PaymentMethodPayNow)))

	deadline, err := time.Parse(time.RFC3339, c.Query("deadline"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "deadline must be RFC3339"})
	}
	if !method.Valid() {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payment method"})
	}

	var category models.Category
	if err := h.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Category not found"})
	}

	now := time.Now()
	budget, err := pricing.Price(category.BasePricePerPage, pageCount, quality, deadline, now)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var breakdown pricing.Breakdown
	if method == models.PaymentMethodPayLater {
		breakdown = pricing.PayLaterBreakdown(budget)
	} else {
		breakdown = pricing.PayNowBreakdown(budget)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"category":            category.Name,
			"page_count":          pageCount,
			"quality_level":       quality,
			"deadline":            deadline,
			"quality_multiplier":  mustQualityMultiplier(quality),
			"deadline_multiplier": pricing.DeadlineMultiplier(deadline, now),
			"payment_method":      method,
			"breakdown":           breakdown,
		},
	})
}

func mustQualityMultiplier(q pricing.Quality) float64 {
	m, _ := pricing.QualityMultiplier(q)
	return m
}
