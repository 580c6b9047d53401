package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

func appointmentRow(id, staffID uuid.UUID, start time.Time, minutes int, status model.AppointmentStatus) []driver.Value {
	now := time.Now().UTC()
	return []driver.Value{
		id.String(), uuid.NewString(), staffID.String(), uuid.NewString(), uuid.NewString(),
		start, minutes, start.Add(time.Duration(minutes) * time.Minute), string(status), "25.00",
		"", nil, now, now,
	}
}

func TestAppointmentCreateSetsDerivedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	price := decimal.RequireFromString("25.00")
	appt := &model.Appointment{
		ShopID:          uuid.New(),
		StaffID:         uuid.New(),
		ServiceID:       uuid.New(),
		ClientID:        uuid.New(),
		StartTime:       start,
		DurationMinutes: 30,
		Status:          model.AppointmentStatusConfirmed,
		Price:           &price,
	}

	mock.ExpectExec("INSERT INTO appointments").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), appt))
	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, start.Add(30*time.Minute), appt.EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentCreateExclusionViolationIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint"})

	err := repo.Create(context.Background(), &model.Appointment{DurationMinutes: 30})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestAppointmentGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = \\$1").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAppointmentGetForUpdateLocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	id, staff := uuid.New(), uuid.New()
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(appointmentColumns).
			AddRow(appointmentRow(id, staff, start, 30, model.AppointmentStatusConfirmed)...))

	appt, err := repo.GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, appt.ID)
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)
	require.NotNil(t, appt.Price)
	assert.True(t, appt.Price.Equal(decimal.NewFromInt(25)))
	assert.Nil(t, appt.CancelReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOverlapCandidatesExcludesCancelledAndNoShow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	staff := uuid.New()
	from := time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 4, 10, 45, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM appointments WHERE staff_id = \$1 AND start_time >= \$2 AND start_time < \$3 AND status NOT IN \(\$4,\$5\)`).
		WithArgs(staff, from, to, "cancelled", "no_show").
		WillReturnRows(sqlmock.NewRows(appointmentColumns).
			AddRow(appointmentRow(uuid.New(), staff, from.Add(8*time.Hour), 30, model.AppointmentStatusConfirmed)...))

	got, err := repo.ListOverlapCandidates(context.Background(), staff, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueForAdvance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	shop := uuid.New()
	now := time.Date(2024, 3, 4, 10, 35, 0, 0, time.UTC)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT id FROM appointments WHERE \(\(status = \$1 AND start_time <= \$2\) OR \(status = \$3 AND end_time <= \$4\)\) AND shop_id = \$5 ORDER BY start_time ASC, id ASC LIMIT 100 OFFSET 20`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a.String()).AddRow(b.String()))

	ids, err := repo.ListDueForAdvance(context.Background(), &shop, now, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}

func TestUpdateStatusMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("UPDATE appointments SET status = \\$1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusCompleted, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteAppointment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM appointments").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
