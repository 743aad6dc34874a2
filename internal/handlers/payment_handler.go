package handlers

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/pricing"
	"github.com/gigworkid/gigwork_be/internal/services/flowpay"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
)

const channelCacheKey = "flowpay:channels"
const channelCacheTTL = 5 * time.Minute

type PaymentHandler struct {
	DB              *gorm.DB
	Gateway         *flowpay.FlowpayService
	RDB             *redis.Client
	Notify          *notify.Service
	AppBaseURL      string
	FrontendBaseURL string
}

func NewPaymentHandler(db *gorm.DB, gateway *flowpay.FlowpayService, rdb *redis.Client, notifySvc *notify.Service, appBaseURL, frontendBaseURL string) *PaymentHandler {
	return &PaymentHandler{
		DB:              db,
		Gateway:         gateway,
		RDB:             rdb,
		Notify:          notifySvc,
		AppBaseURL:      strings.TrimRight(appBaseURL, "/"),
		FrontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
	}
}

type JobDraftRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	CategoryID     uint     `json:"category_id"`
	PageCount      int      `json:"page_count"`
	QualityLevel   string   `json:"quality_level"`
	Deadline       string   `json:"deadline"` // RFC3339
	AttachmentURLs []string `json:"attachment_urls"`
}

type CreatePaymentRequest struct {
	PaymentMethod string          `json:"payment_method"`
	Job           JobDraftRequest `json:"job"`
}

// CreatePayment inserts a pending Payment carrying the job draft. The budget
// is recomputed server-side from the draft attributes; a client-sent total is
// never trusted. This must happen before any checkout request: the payment id
// is the only correlation key the settlement path will have.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request"})
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Payment method must be pay_now or pay_later"})
	}
	if strings.TrimSpace(req.Job.Title) == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Job title is required"})
	}
	if req.Job.PageCount <= 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Page count must be positive"})
	}

	deadline, err := time.Parse(time.RFC3339, req.Job.Deadline)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid deadline, expected RFC3339"})
	}

	var cat models.Category
	if err := h.DB.First(&cat, "id = ?", req.Job.CategoryID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid category"})
	}

	budget, err := pricing.Price(cat.BasePricePerPage, req.Job.PageCount, pricing.Quality(req.Job.QualityLevel), deadline, time.Now())
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	var bd pricing.Breakdown
	if method == models.PaymentMethodPayNow {
		bd = pricing.PayNowBreakdown(budget)
	} else {
		bd = pricing.PayLaterBreakdown(budget)
	}

	if bd.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Payment amount must be positive"})
	}

	draft := models.JobDraft{
		Title:          strings.TrimSpace(req.Job.Title),
		Description:    req.Job.Description,
		CategoryID:     cat.ID,
		Category:       cat.Name,
		PageCount:      req.Job.PageCount,
		QualityLevel:   req.Job.QualityLevel,
		Deadline:       deadline,
		Budget:         budget,
		AttachmentURLs: req.Job.AttachmentURLs,
	}

	metaJSON, err := json.Marshal(models.PaymentMetadata{JobData: draft})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to encode job draft"})
	}

	payment := models.Payment{
		ID:               uuid.New(),
		UserID:           userUUID,
		Amount:           bd.Amount,
		SiteFee:          bd.SiteFee,
		FreelancerAmount: bd.FreelancerAmount,
		PaymentMethod:    method,
		Status:           models.PaymentStatusPending,
		Metadata:         datatypes.JSON(metaJSON),
	}

	if err := h.DB.Create(&payment).Error; err != nil {
		log.Printf("Failed to create payment: %v", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create payment"})
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"payment_id":        payment.ID,
			"budget":            bd.Budget,
			"site_fee":          bd.SiteFee,
			"amount":            bd.Amount,
			"freelancer_amount": bd.FreelancerAmount,
			"payment_method":    method,
		},
	})
}

type CheckoutRequest struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
	Purpose   string  `json:"purpose"`
}

// InitiateCheckout opens a gateway checkout session for an owned payment and
// moves it to processing. A gateway failure leaves the payment untouched so
// the caller can retry with the same payment id. A payment that already
// settled is refused outright.
func (h *PaymentHandler) InitiateCheckout(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid payment_id"})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Payment not found"})
	}

	// Ownership comes from the token, never from the body.
	if payment.UserID != userUUID {
		return c.Status(403).JSON(fiber.Map{"error": "You do not own this payment"})
	}

	if payment.Status == models.PaymentStatusPaid {
		return c.Status(409).JSON(fiber.Map{"error": "Payment already settled"})
	}

	if req.Amount > 0 && pricing.Round2(req.Amount) != payment.Amount {
		return c.Status(400).JSON(fiber.Map{"error": "Amount does not match payment"})
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", payment.UserID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load user"})
	}

	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = "job_payment"
	}

	reference := models.GeneratePaymentRef()
	meta := flowpay.Metadata{
		PaymentID: payment.ID.String(),
		UserID:    payment.UserID.String(),
		Purpose:   purpose,
	}

	resp, err := h.Gateway.CreateCheckout(
		reference,
		int64(math.Round(payment.Amount*100)),
		user.Name,
		user.Email,
		purpose,
		meta,
		h.AppBaseURL+"/payment-webhook",
		h.AppBaseURL+"/payment/success?payment_id="+payment.ID.String(),
		h.AppBaseURL+"/payment/cancel",
	)
	if err != nil {
		// Retryable: nothing was written, resubmitting with the same
		// payment id is safe.
		log.Printf("Flowpay error for payment %s: %v", payment.ID, err)
		return c.Status(502).JSON(fiber.Map{"error": "Payment gateway error: " + err.Error()})
	}

	// Guard against a settlement racing this request.
	res := h.DB.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusProcessing,
			"transaction_id": resp.Data.Reference,
			"checkout_url":   resp.Data.CheckoutURL,
		})
	if res.Error != nil {
		log.Printf("Failed to store checkout for payment %s: %v", payment.ID, res.Error)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update payment"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"error": "Payment already settled"})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"checkout_url":   resp.Data.CheckoutURL,
		"transaction_id": resp.Data.Reference,
	})
}

// HandleWebhook turns an at-least-once, possibly reordered, possibly spoofed
// gateway callback into an exactly-once internal effect. The callback body is
// only ever used to learn which transaction to re-verify; the gateway's own
// verify endpoint is the sole source of truth.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	reference := webhookReference(c.Get("Content-Type"), c.Body())
	if reference == "" {
		log.Printf("Webhook without transaction reference, body: %.200s", string(c.Body()))
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Missing transaction reference"})
	}

	verified, err := h.Gateway.VerifyTransaction(reference)
	if err != nil {
		// Never guess: let the gateway redeliver.
		log.Printf("Verify failed for %s: %v", reference, err)
		return c.Status(502).JSON(fiber.Map{"success": false, "message": "Verification failed"})
	}

	meta, err := flowpay.ParseMetadata(verified.Data.Metadata)
	if err != nil {
		// Uncorrelatable settlement must mutate nothing.
		log.Printf("Webhook for %s has unusable metadata: %v", reference, err)
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Uncorrelatable callback"})
	}

	paymentID, err := uuid.Parse(meta.PaymentID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payment_id in metadata"})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		log.Printf("Webhook references unknown payment %s", paymentID)
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Payment not found"})
	}

	if verified.Data.Status == flowpay.StatusPaid {
		if err := h.settleSuccess(&payment, verified.Data.Reference); err != nil {
			log.Printf("Settlement failed for payment %s: %v", payment.ID, err)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Settlement failed"})
		}
	} else {
		if err := h.settleFailure(&payment, verified.Data.Status); err != nil {
			log.Printf("Failure settlement failed for payment %s: %v", payment.ID, err)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Settlement failed"})
		}
	}

	// 200 for every handled outcome, including the idempotent no-op, so the
	// gateway's retry policy only governs genuinely unresolved deliveries.
	return c.JSON(fiber.Map{"success": true})
}

// settleSuccess flips the payment to paid and creates the Job from the draft
// in one transaction. The conditional UPDATE is the idempotency gate: a
// duplicate delivery loses the compare-and-swap and writes nothing.
func (h *PaymentHandler) settleSuccess(payment *models.Payment, reference string) error {
	// Decode the draft before touching any row: a corrupted draft must not
	// leave a paid payment without its job.
	draft, err := payment.Draft()
	if err != nil {
		return err
	}

	attachments, err := json.Marshal(draft.AttachmentURLs)
	if err != nil {
		return err
	}

	return h.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status <> ?", payment.ID, models.PaymentStatusPaid).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusPaid,
				"transaction_id": reference,
				"paid_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already settled by an earlier delivery.
			log.Printf("Payment %s already paid (idempotent no-op)", payment.ID)
			return nil
		}

		job := models.Job{
			ID:           uuid.New(),
			HirerID:      payment.UserID,
			Title:        draft.Title,
			Description:  draft.Description,
			Category:     draft.Category,
			PageCount:    draft.PageCount,
			QualityLevel: draft.QualityLevel,
			Budget:       draft.Budget,
			Deadline:     draft.Deadline,
			Status:       models.JobStatusOpen,
			Attachments:  attachments,
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).
			Update("job_id", job.ID).Error; err != nil {
			return err
		}

		return h.Notify.Notify(tx, payment.UserID,
			"Payment received",
			"Your payment was received and the job \""+draft.Title+"\" is now open for applications.",
			models.NotificationTypePaymentSuccess)
	})
}

// settleFailure marks the payment failed unless it already reached a handled
// state. paid stays paid; an already-failed payment is not re-notified.
func (h *PaymentHandler) settleFailure(payment *models.Payment, gatewayStatus string) error {
	return h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status NOT IN ?", payment.ID,
				[]models.PaymentStatus{models.PaymentStatusPaid, models.PaymentStatusFailed}).
			Update("status", models.PaymentStatusFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		return h.Notify.Notify(tx, payment.UserID,
			"Payment failed",
			"Your payment could not be completed (gateway status: "+gatewayStatus+"). You can retry the checkout.",
			models.NotificationTypePaymentFailed)
	})
}

// PaymentStatus is what the success page polls while waiting for settlement.
func (h *PaymentHandler) PaymentStatus(c *fiber.Ctx) error {
	userUUID, err := currentUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payment ID"})
	}

	var payment models.Payment
	if err := h.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Payment not found"})
	}

	if payment.UserID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"payment_id":     payment.ID,
			"status":         payment.Status,
			"job_id":         payment.JobID,
			"transaction_id": payment.TransactionID,
		},
	})
}

// GetChannels serves the gateway's payment channel list, cached in Redis so
// checkout pages do not hit the gateway on every load.
func (h *PaymentHandler) GetChannels(c *fiber.Ctx) error {
	ctx := context.Background()

	if cached, err := h.RDB.Get(ctx, channelCacheKey).Bytes(); err == nil {
		var channels []flowpay.PaymentChannel
		if err := json.Unmarshal(cached, &channels); err == nil {
			return c.JSON(fiber.Map{"success": true, "data": channels})
		}
	}

	channels, err := h.Gateway.GetPaymentChannels()
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"success": false, "message": "Failed to fetch channels: " + err.Error()})
	}

	if encoded, err := json.Marshal(channels); err == nil {
		if err := h.RDB.Set(ctx, channelCacheKey, encoded, channelCacheTTL).Err(); err != nil {
			log.Printf("Failed to cache payment channels: %v", err)
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": channels})
}

// SuccessRedirect forwards the gateway's browser return to the frontend
// success page, which then polls PaymentStatus.
func (h *PaymentHandler) SuccessRedirect(c *fiber.Ctx) error {
	target := h.FrontendBaseURL + "/payment/success"
	if pid := c.Query("payment_id"); pid != "" {
		target += "?payment_id=" + pid
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

func (h *PaymentHandler) CancelRedirect(c *fiber.Ctx) error {
	return c.Redirect(h.FrontendBaseURL+"/payment/cancel", fiber.StatusTemporaryRedirect)
}
