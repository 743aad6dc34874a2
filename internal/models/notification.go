package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypePaymentSuccess = "payment_success"
	NotificationTypePaymentFailed  = "payment_failed"
	NotificationTypeApplication    = "application"
	NotificationTypeJobUpdate      = "job_update"
)

type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Title   string `gorm:"type:varchar(150);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Type    string `gorm:"type:varchar(30);index" json:"type"`
	IsRead  bool   `json:"is_read"`

	CreatedAt time.Time `json:"created_at"`

	// Relation
	User *User `gorm:"foreignKey:UserID" json:"-"`
}
