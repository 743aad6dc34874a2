package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is a freelancer's offer on an open job. At most one application
// per job is ever accepted; the accept transition also rejects every sibling
// pending application in the same transaction.
type Application struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_app_job_freelancer;not null" json:"job_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_app_job_freelancer;not null" json:"freelancer_id"`

	CoverLetter  string  `gorm:"type:text" json:"cover_letter"`
	ProposedRate float64 `json:"proposed_rate"`

	Status ApplicationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Job        *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}
