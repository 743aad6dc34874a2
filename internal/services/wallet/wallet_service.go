package wallet

import (
	"errors"
	"fmt"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// CreditFreelancer releases held funds to the freelancer's balance and writes
// a ledger entry. Must be called inside the completing transaction.
func (s *WalletService) CreditFreelancer(tx *gorm.DB, userID uuid.UUID, amount float64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found for id %s", userID)
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxCredit,
		Description: description,
		ReferenceID: &referenceID,
	}

	return tx.Create(&ledger).Error
}

// RefundHirer returns held funds to the hirer's balance, e.g. when an
// assigned job is cancelled. Must be called inside the cancelling transaction.
func (s *WalletService) RefundHirer(tx *gorm.DB, userID uuid.UUID, amount float64, referenceID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to refund must be greater than zero")
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found for id %s", userID)
	}

	ledger := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Type:        models.WalletTrxRefund,
		Description: description,
		ReferenceID: &referenceID,
	}

	return tx.Create(&ledger).Error
}
