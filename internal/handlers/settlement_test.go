package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func processingPayment(t *testing.T) *models.Payment {
	t.Helper()

	meta, err := json.Marshal(models.PaymentMetadata{JobData: models.JobDraft{
		Title:        "Translate 10 pages",
		Category:     "Translation",
		PageCount:    10,
		QualityLevel: "premium",
		Deadline:     time.Now().Add(72 * time.Hour),
		Budget:       101,
	}})
	require.NoError(t, err)

	return &models.Payment{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Amount:           122,
		SiteFee:          21,
		FreelancerAmount: 101,
		PaymentMethod:    models.PaymentMethodPayNow,
		Status:           models.PaymentStatusProcessing,
		Metadata:         meta,
	}
}

func TestSettleSuccessCreatesJobAndNotification(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := &PaymentHandler{DB: gdb, Notify: notify.NewService(gdb)}
	payment := processingPayment(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec(`UPDATE "payments" SET "job_id"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	require.NoError(t, h.settleSuccess(payment, "PMT-TEST1111"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A redelivered settled callback loses the compare-and-swap and must write
// nothing: no second job, no second notification.
func TestSettleSuccessDuplicateDeliveryWritesNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := &PaymentHandler{DB: gdb, Notify: notify.NewService(gdb)}
	payment := processingPayment(t)
	payment.Status = models.PaymentStatusPaid

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, h.settleSuccess(payment, "PMT-TEST1111"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleSuccessCorruptedDraftWritesNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := &PaymentHandler{DB: gdb, Notify: notify.NewService(gdb)}
	payment := processingPayment(t)
	payment.Metadata = []byte(`{broken`)

	require.Error(t, h.settleSuccess(payment, "PMT-TEST1111"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleFailureMarksFailedAndNotifies(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := &PaymentHandler{DB: gdb, Notify: notify.NewService(gdb)}
	payment := processingPayment(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	require.NoError(t, h.settleFailure(payment, "EXPIRED"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// paid stays paid: a late failure callback may not downgrade the payment, and
// no notification goes out.
func TestSettleFailurePaidPaymentUntouched(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := &PaymentHandler{DB: gdb, Notify: notify.NewService(gdb)}
	payment := processingPayment(t)
	payment.Status = models.PaymentStatusPaid

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "payments" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, h.settleFailure(payment, "FAILED"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
