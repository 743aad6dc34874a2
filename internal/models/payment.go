package models

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCanceled   PaymentStatus = "canceled"
)

// Terminal reports whether no further settlement may touch this payment.
// "paid" is the only terminal success state; a failed payment may be retried
// by re-initiating checkout with the same payment id.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid
}

type PaymentMethod string

const (
	PaymentMethodPayNow   PaymentMethod = "pay_now"   // budget + site fee charged upfront
	PaymentMethodPayLater PaymentMethod = "pay_later" // site fee only, freelancer paid off-platform
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodPayNow || m == PaymentMethodPayLater
}

// JobDraft is the only durable form of a job before settlement. It lives in
// Payment.Metadata under the "jobData" key until the webhook creates the Job.
type JobDraft struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CategoryID     uint      `json:"category_id"`
	Category       string    `json:"category"`
	PageCount      int       `json:"page_count"`
	QualityLevel   string    `json:"quality_level"`
	Deadline       time.Time `json:"deadline"`
	Budget         float64   `json:"budget"`
	AttachmentURLs []string  `json:"attachment_urls"`
}

type PaymentMetadata struct {
	JobData JobDraft `json:"jobData"`
}

type Payment struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Amount           float64 `gorm:"not null" json:"amount"`            // charged via gateway
	SiteFee          float64 `gorm:"not null" json:"site_fee"`          // ceil(budget * 0.20)
	FreelancerAmount float64 `gorm:"not null" json:"freelancer_amount"` // budget if pay_now, else 0

	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	TransactionID *string    `gorm:"type:varchar(50);uniqueIndex" json:"transaction_id,omitempty"`
	JobID         *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	CheckoutURL   string     `gorm:"type:text" json:"checkout_url"`

	Metadata datatypes.JSON `json:"metadata"`
	PaidAt   *time.Time     `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Job  *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
}

// Draft decodes metadata.jobData. The draft is written by CreatePayment, so a
// decode failure here means the row was corrupted out-of-band.
func (p *Payment) Draft() (*JobDraft, error) {
	var meta PaymentMetadata
	if err := json.Unmarshal(p.Metadata, &meta); err != nil {
		return nil, err
	}
	return &meta.JobData, nil
}

// GeneratePaymentRef generates the merchant reference sent to the gateway,
// e.g. PMT-L9POKTVJ.
func GeneratePaymentRef() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return "PMT-" + string(b)
}
