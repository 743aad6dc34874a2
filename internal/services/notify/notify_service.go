package notify

import (
	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service persists notification records. Delivery (push, email, whatever the
// frontend polls) is someone else's problem; emitting the row is ours.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Notify writes one notification row. Pass the surrounding tx when the
// notification must commit atomically with the state change it describes.
func (s *Service) Notify(tx *gorm.DB, userID uuid.UUID, title, message, ntype string) error {
	if tx == nil {
		tx = s.DB
	}
	n := models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
	}
	return tx.Create(&n).Error
}
