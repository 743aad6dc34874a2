package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"        // Menunggu pelamar
	JobStatusAssigned   JobStatus = "assigned"    // Freelancer terpilih
	JobStatusInProgress JobStatus = "in_progress" // Sedang dikerjakan
	JobStatusSubmitted  JobStatus = "submitted"   // Hasil dikirim
	JobStatusCompleted  JobStatus = "completed"   // Selesai
	JobStatusCancelled  JobStatus = "cancelled"   // Dibatalkan
)

// Job is only ever created by the settlement path, never directly by a hirer,
// so every row here is backed by a paid Payment.
type Job struct {
	ID      uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HirerID uuid.UUID  `gorm:"type:uuid;index;not null" json:"hirer_id"`

	Title        string `gorm:"not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Category     string `gorm:"type:varchar(80);index" json:"category"`
	PageCount    int    `json:"page_count"`
	QualityLevel string `gorm:"type:varchar(20)" json:"quality_level"`

	Budget   float64   `gorm:"not null" json:"budget"`
	Deadline time.Time `json:"deadline"`

	Status       JobStatus  `gorm:"type:varchar(20);default:'open';index" json:"status"`
	FreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"freelancer_id,omitempty"`

	Attachments datatypes.JSON `json:"attachments"` // list of hosted URLs

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Hirer      *User `gorm:"foreignKey:HirerID" json:"hirer,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}

// CanComplete reports whether a hirer may mark the job completed.
func (s JobStatus) CanComplete() bool {
	return s == JobStatusAssigned || s == JobStatusInProgress || s == JobStatusSubmitted
}

// CanCancel reports whether the job may still be cancelled.
func (s JobStatus) CanCancel() bool {
	return s != JobStatusCompleted && s != JobStatusCancelled
}
