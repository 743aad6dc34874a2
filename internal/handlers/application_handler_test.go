package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigworkid/gigwork_be/internal/models"
	"github.com/gigworkid/gigwork_be/internal/services/notify"
)

func acceptTestApp(h *ApplicationHandler, userID string) *fiber.App {
	app := fiber.New()
	app.Post("/applications/:id/accept", func(c *fiber.Ctx) error {
		c.Locals("userId", userID)
		c.Locals("role", "hirer")
		return h.Accept(c)
	})
	return app
}

func TestAcceptAssignsJobAndRejectsSiblings(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := NewApplicationHandler(gdb, notify.NewService(gdb))

	hirerID := uuid.New()
	freelancerID := uuid.New()
	jobID := uuid.New()
	appID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "freelancer_id", "status"}).
			AddRow(appID.String(), jobID.String(), freelancerID.String(), "pending"))
	mock.ExpectQuery(`SELECT (.+) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hirer_id", "title", "status"}).
			AddRow(jobID.String(), hirerID.String(), "Translate 10 pages", "open"))
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "applications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// sibling pendings rejected in the same transaction
	mock.ExpectExec(`UPDATE "applications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	app := acceptTestApp(h, hirerID.String())
	resp, err := app.Test(httptest.NewRequest("POST", "/applications/"+appID.String()+"/accept", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		Success bool               `json:"success"`
		Data    models.Application `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, models.ApplicationStatusAccepted, body.Data.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// The losing side of an accept race finds the job already assigned under the
// row lock and gets a Conflict without writing anything.
func TestAcceptRaceLoserGetsConflict(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := NewApplicationHandler(gdb, notify.NewService(gdb))

	hirerID := uuid.New()
	jobID := uuid.New()
	appID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "freelancer_id", "status"}).
			AddRow(appID.String(), jobID.String(), uuid.New().String(), "pending"))
	mock.ExpectQuery(`SELECT (.+) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hirer_id", "title", "status"}).
			AddRow(jobID.String(), hirerID.String(), "Translate 10 pages", "assigned"))
	mock.ExpectRollback()

	app := acceptTestApp(h, hirerID.String())
	resp, err := app.Test(httptest.NewRequest("POST", "/applications/"+appID.String()+"/accept", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// An application that already lost (rejected) cannot be accepted afterwards.
func TestAcceptNonPendingApplicationConflicts(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := NewApplicationHandler(gdb, notify.NewService(gdb))

	hirerID := uuid.New()
	jobID := uuid.New()
	appID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "freelancer_id", "status"}).
			AddRow(appID.String(), jobID.String(), uuid.New().String(), "rejected"))
	mock.ExpectQuery(`SELECT (.+) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hirer_id", "title", "status"}).
			AddRow(jobID.String(), hirerID.String(), "Translate 10 pages", "open"))
	mock.ExpectRollback()

	app := acceptTestApp(h, hirerID.String())
	resp, err := app.Test(httptest.NewRequest("POST", "/applications/"+appID.String()+"/accept", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Only the job's hirer may accept.
func TestAcceptByNonOwnerForbidden(t *testing.T) {
	gdb, mock := newMockDB(t)
	h := NewApplicationHandler(gdb, notify.NewService(gdb))

	jobID := uuid.New()
	appID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "freelancer_id", "status"}).
			AddRow(appID.String(), jobID.String(), uuid.New().String(), "pending"))
	mock.ExpectQuery(`SELECT (.+) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hirer_id", "title", "status"}).
			AddRow(jobID.String(), uuid.New().String(), "Translate 10 pages", "open"))
	mock.ExpectRollback()

	app := acceptTestApp(h, uuid.New().String())
	resp, err := app.Test(httptest.NewRequest("POST", "/applications/"+appID.String()+"/accept", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}
