package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
	"github.com/gigworkid/gigwork_be/internal/services/wallet"
)

type JobHandler struct {
	DB     *gorm.DB
	Notify *notify.Service
	Wallet *wallet.WalletService
}

func NewJobHandler(db *gorm.DB, notifySvc *notify.Service, walletSvc *wallet.WalletService) *JobHandler {
	return &JobHandler{DB: db, Notify: notifySvc, Wallet: walletSvc}
}

type UserMini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JobResponse struct {
	ID           string     `json:"id"`
	HirerID      string     `json:"hirer_id"`
	FreelancerID *string    `json:"freelancer_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	PageCount    int        `json:"page_count"`
	QualityLevel string     `json:"quality_level"`
	Budget       float64    `json:"budget"`
	Deadline     time.Time  `json:"deadline"`
	Status       string     `json:"status"`
	Attachments  any        `json:"attachments,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Hirer      *UserMini `json:"hirer,omitempty"`
	Freelancer *UserMini `json:"freelancer,omitempty"`
}

func toJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:           job.ID.String(),
		HirerID:      job.HirerID.String(),
		Title:        job.Title,
		Description:  job.Description,
		Category:     job.Category,
		PageCount:    job.PageCount,
		QualityLevel: job.QualityLevel,
		Budget:       job.Budget,
		Deadline:     job.Deadline,
		Status:       string(job.Status),
		CreatedAt:    job.CreatedAt,
	}
	if len(job.Attachments) > 0 {
		resp.Attachments = job.Attachments
	}
	if job.FreelancerID != nil {
		s := job.FreelancerID.String()
		resp.FreelancerID = &s
	}
	if job.Hirer != nil {
		resp.Hirer = &UserMini{ID: job.Hirer.ID.String(), Name: job.Hirer.Name}
	}
	if job.Freelancer != nil {
		resp.Freelancer = &UserMini{ID: job.Freelancer.ID.String(), Name: job.Freelancer.Name}
	}
	return resp
}

// ListOpen returns open jobs for freelancers to browse. Unpaid drafts never
// show up here because a Job row only exists after settlement.
func (h *JobHandler) ListOpen(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)

	q := h.DB.Preload("Hirer").
		Where("status = ?", models.JobStatusOpen).
		Order("created_at DESC").
		Limit(limit).Offset(offset)

	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		log.Println("Error fetching open jobs:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(&job))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *JobHandler) GetDetail(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	var job models.Job
	if err := h.DB.Preload("Hirer").Preload("Freelancer").First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
	}

	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(&job)})
}

// ListMineHirer returns the hirer's own jobs, any status.
func (h *JobHandler) ListMineHirer(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var jobs []models.Job
	if err := h.DB.Preload("Freelancer").
		Where("hirer_id = ?", userUUID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(&job))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ListMineFreelancer returns jobs assigned to the calling freelancer.
func (h *JobHandler) ListMineFreelancer(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var jobs []models.Job
	if err := h.DB.Preload("Hirer").
		Where("freelancer_id = ?", userUUID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(&job))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Start moves an assigned job to in_progress. Freelancer only.
func (h *JobHandler) Start(c *fiber.Ctx) error {
	return h.freelancerTransition(c, models.JobStatusAssigned, models.JobStatusInProgress)
}

// Submit moves an in_progress job to submitted. Freelancer only.
func (h *JobHandler) Submit(c *fiber.Ctx) error {
	return h.freelancerTransition(c, models.JobStatusInProgress, models.JobStatusSubmitted)
}

func (h *JobHandler) freelancerTransition(c *fiber.Ctx, from, to models.JobStatus) error {
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

	if job.FreelancerID == nil || *job.FreelancerID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the assigned freelancer can update this job"})
	}

	// Compare-and-swap on the previous status so two concurrent calls
	// cannot both apply.
	res := h.DB.Model(&models.Job{}).
		Where("id = ? AND status = ?", job.ID, from).
		Update("status", to)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update job"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Job is not in " + string(from) + " status"})
	}

	if err := h.Notify.Notify(nil, job.HirerID,
		"Job update",
		"\""+job.Title+"\" is now "+string(to)+".",
		models.NotificationTypeJobUpdate); err != nil {
		log.Println("Error creating job update notification:", err)
	}

	job.Status = to
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(&job)})
}

// Complete marks the job completed and releases held funds to the
// freelancer. Hirer only, idempotent: completing a completed job is a no-op.
func (h *JobHandler) Complete(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&job, "id = ?", jobID).Error; err != nil {
			return fiber.NewError(404, "Job not found")
		}

		if job.HirerID != userUUID {
			return fiber.NewError(403, "Only the hirer can complete this job")
		}

		// Idempotency: completing twice is fine.
		if job.Status == models.JobStatusCompleted {
			log.Printf("Job %s already completed (idempotent no-op)", job.ID)
			return nil
		}

		if !job.Status.CanComplete() {
			return fiber.NewError(409, "Job cannot be completed from status "+string(job.Status))
		}

		freelancerID := job.FreelancerID

		if err := tx.Model(&models.Job{}).Where("id = ?", job.ID).
			Update("status", models.JobStatusCompleted).Error; err != nil {
			return err
		}

		// Escrow release: only pay_now payments hold funds.
		var payment models.Payment
		if err := tx.Where("job_id = ? AND status = ?", job.ID, models.PaymentStatusPaid).
			First(&payment).Error; err == nil && payment.FreelancerAmount > 0 && freelancerID != nil {
			desc := "Payout for job \"" + job.Title + "\""
			if err := h.Wallet.CreditFreelancer(tx, *freelancerID, payment.FreelancerAmount, job.ID, desc); err != nil {
				log.Printf("Failed to release escrow for job %s: %v", job.ID, err)
				return err
			}
		}

		if freelancerID != nil {
			if err := h.Notify.Notify(tx, *freelancerID,
				"Job completed",
				"\""+job.Title+"\" was marked completed by the hirer.",
				models.NotificationTypeJobUpdate); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to complete job"})
	}

	var finalJob models.Job
	h.DB.Preload("Freelancer").First(&finalJob, "id = ?", jobID)
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(&finalJob)})
}

// Cancel aborts a job in any pre-completed state. If funds were held for the
// freelancer they are refunded to the hirer's balance, and the freelancer
// binding is cleared so the freelancer_id/status invariant holds.
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&job, "id = ?", jobID).Error; err != nil {
			return fiber.NewError(404, "Job not found")
		}

		if job.HirerID != userUUID {
			return fiber.NewError(403, "Only the hirer can cancel this job")
		}

		if job.Status == models.JobStatusCancelled {
			return nil
		}
		if !job.Status.CanCancel() {
			return fiber.NewError(409, "Completed jobs cannot be cancelled")
		}

		freelancerID := job.FreelancerID

		if err := tx.Model(&models.Job{}).Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":        models.JobStatusCancelled,
				"freelancer_id": nil,
			}).Error; err != nil {
			return err
		}

		var payment models.Payment
		if err := tx.Where("job_id = ? AND status = ?", job.ID, models.PaymentStatusPaid).
			First(&payment).Error; err == nil && payment.FreelancerAmount > 0 {
			desc := "Refund for cancelled job \"" + job.Title + "\""
			if err := h.Wallet.RefundHirer(tx, job.HirerID, payment.FreelancerAmount, job.ID, desc); err != nil {
				return err
			}
		}

		if freelancerID != nil {
			if err := h.Notify.Notify(tx, *freelancerID,
				"Job cancelled",
				"\""+job.Title+"\" was cancelled by the hirer.",
				models.NotificationTypeJobUpdate); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{"success": false, "message": e.Message})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to cancel job"})
	}

	var finalJob models.Job
	h.DB.First(&finalJob, "id = ?", jobID)
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(&finalJob)})
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview lets either party of a completed job review the other, once.
func (h *JobHandler) CreateReview(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Rating must be between 1 and 5"})
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", jobID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
	}

	if job.Status != models.JobStatusCompleted {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Only completed jobs can be reviewed"})
	}

	var revieweeID uuid.UUID
	switch {
	case job.HirerID == userUUID && job.FreelancerID != nil:
		revieweeID = *job.FreelancerID
	case job.FreelancerID != nil && *job.FreelancerID == userUUID:
		revieweeID = job.HirerID
	default:
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only job participants can review"})
	}

	review := models.Review{
		JobID:      job.ID,
		ReviewerID: userUUID,
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	// The (job_id, reviewer_id) unique index is the real guard; a duplicate
	// insert surfaces as a constraint error.
	if err := h.DB.Create(&review).Error; err != nil {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "You already reviewed this job"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": review})
}
