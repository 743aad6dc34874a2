package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
)

type ApplicationHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
}

func NewApplicationHandler(db *gorm.DB, notifySvc *notify.Service) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Notify: notifySvc}
}

type ApplyRequest struct {
	CoverLetter  string  `json:"cover_letter"`
	ProposedRate float64 `json:"proposed_rate"`
}

// Apply submits a freelancer's offer on an open job.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
	}

	if job.Status != models.JobStatusOpen {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Job is no longer open"})
	}
	if job.HirerID == userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "You cannot apply to your own job"})
	}

	app := models.Application{
		JobID:        job.ID,
		FreelancerID: userUUID,
		CoverLetter:  req.CoverLetter,
		ProposedRate: req.ProposedRate,
		Status:       models.ApplicationStatusPending,
	}

	// (job_id, freelancer_id) unique index makes a second apply fail here.
	if err := h.DB.Create(&app).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "You already applied to this job"})
	}

	if err := h.Notify.Notify(nil, job.HirerID,
		"New application",
		"Someone applied to \""+job.Title+"\".",
		models.NotificationTypeApplication); err != nil {
		log.Println("Error creating application notification:", err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": app})
}

// ListForJob returns all applications on a job. Hirer only.
func (h *ApplicationHandler) ListForJob(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
	}
	if job.HirerID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the hirer can view applications"})
	}

	var apps []models.Application
	if err := h.DB.Preload("Freelancer").
		Where("job_id = ?", job.ID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch applications"})
	}

	return c.JSON(fiber.Map{"success": true, "data": apps})
}

// ListMine returns the calling freelancer's applications with their jobs.
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var apps []models.Application
	if err := h.DB.Preload("Job").
		Where("freelancer_id = ?", userUUID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch applications"})
	}

	return c.JSON(fiber.Map{"success": true, "data": apps})
}

// Accept picks one application as the winner. The job row is locked for the
// whole transaction so two hirers tabs racing each other cannot both accept:
// the loser sees the job already assigned and gets a 409. Every sibling
// pending application is rejected in the same transaction.
func (h *ApplicationHandler) Accept(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid application ID"})
	}

	var accepted models.Application

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.First(&app, "id = ?", appID).Error; err != nil {
			return fiber.NewError(404, "Application not found")
		}

		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&job, "id = ?", app.JobID).Error; err != nil {
			return fiber.NewError(404, "Job not found")
		}

		if job.HirerID != userUUID {
			return fiber.NewError(403, "Only the hirer can accept applications")
		}
		if job.Status != models.JobStatusOpen {
			return fiber.NewError(409, "Job is no longer open")
		}
		if app.Status != models.ApplicationStatusPending {
			return fiber.NewError(409, "Application is not pending")
		}

		if err := tx.Model(&models.Job{}).Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":        models.JobStatusAssigned,
				"freelancer_id": app.FreelancerID,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).
			Update("status", models.ApplicationStatusAccepted).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Application{}).
			Where("job_id = ? AND id <> ? AND status = ?", job.ID, app.ID, models.ApplicationStatusPending).
			Update("status", models.ApplicationStatusRejected).Error; err != nil {
			return err
		}

		if err := h.Notify.Notify(tx, app.FreelancerID,
			"Application accepted",
			"You were selected for \""+job.Title+"\".",
			models.NotificationTypeApplication); err != nil {
			return err
		}

		app.Status = models.ApplicationStatusAccepted
		accepted = app
		return nil
	})

	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		log.Println("Error accepting application:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to accept application"})
	}

	return c.JSON(fiber.Map{"success": true, "data": accepted})
}

// Reject turns down a single pending application without touching the job.
func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid application ID"})
	}

	var app models.Application
	if err := h.DB.Preload("Job").First(&app, "id = ?", appID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Application not found"})
	}
	if app.Job == nil || app.Job.HirerID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the hirer can reject applications"})
	}

	res := h.DB.Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, models.ApplicationStatusPending).
		Update("status", models.ApplicationStatusRejected)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to reject application"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Application is not pending"})
	}

	if err := h.Notify.Notify(nil, app.FreelancerID,
		"Application rejected",
		"Your application for \""+app.Job.Title+"\" was not selected.",
		models.NotificationTypeApplication); err != nil {
		log.Println("Error creating rejection notification:", err)
	}

	return c.JSON(fiber.Map{"success": true, "message": "Application rejected"})
}

// Withdraw deletes the freelancer's own pending application.
func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid application ID"})
	}

	res := h.DB.Where("id = ? AND freelancer_id = ? AND status = ?",
		appID, userUUID, models.ApplicationStatusPending).
		Delete(&models.Application{})
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to withdraw application"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "No pending application to withdraw"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Application withdrawn"})
}
