package appointment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/handler/handlertest"
	"github.com/jwalitptl/barber-api/internal/model"
	appointmentService "github.com/jwalitptl/barber-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Book(ctx context.Context, shopID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	args := m.Called(ctx, shopID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockService) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, shopID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockService) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *mockService) Transition(ctx context.Context, shopID, id uuid.UUID, req *model.TransitionRequest) (*appointmentService.TransitionResult, error) {
	args := m.Called(ctx, shopID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointmentService.TransitionResult), args.Error(1)
}

func (m *mockService) Cancel(ctx context.Context, shopID, id uuid.UUID, reason string) (*appointmentService.CancelResult, error) {
	args := m.Called(ctx, shopID, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointmentService.CancelResult), args.Error(1)
}

type mockSettler struct {
	mock.Mock
}

func (m *mockSettler) SettleIfCompleted(ctx context.Context, shopID, id uuid.UUID, method model.PaymentMethod) (*model.Settlement, error) {
	args := m.Called(ctx, shopID, id, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settlement), args.Error(1)
}

type fixture struct {
	svc     *mockService
	settler *mockSettler
	caller  handlertest.Caller
	base    string
}

func newFixture(role model.Role) *fixture {
	caller := handlertest.NewCaller(role)
	return &fixture{
		svc:     new(mockService),
		settler: new(mockSettler),
		caller:  caller,
		base:    "/shops/" + caller.ShopID.String() + "/appointments",
	}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, handlertest.Envelope) {
	r := handlertest.Engine(NewHandler(f.svc, f.settler), f.caller)
	w := handlertest.Do(t, r, method, f.base+path, body)
	return w.Code, handlertest.Decode(t, w)
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(model.RoleClient)
	staffID, serviceID, clientID := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	booked := &model.Appointment{ShopID: f.caller.ShopID, StaffID: staffID, Status: model.AppointmentStatusConfirmed}
	f.svc.On("Book", mock.Anything, f.caller.ShopID, mock.MatchedBy(func(req *model.CreateAppointmentRequest) bool {
		return req.StaffID == staffID && req.StartTime.Equal(start) && req.DurationMinutes == 30
	})).Return(booked, nil)

	code, env := f.do(t, http.MethodPost, "", map[string]interface{}{
		"staff_id":         staffID,
		"service_id":       serviceID,
		"client_id":        clientID,
		"start_time":       start.Format(time.RFC3339),
		"duration_minutes": 30,
	})

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", env.Status)
	f.svc.AssertExpectations(t)
}

func TestCreateAppointmentRejections(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"double booked", apperrors.NewConflict("double-booked", "slot taken"), http.StatusConflict, "double-booked"},
		{"staff blocked", apperrors.NewConflict("staff-blocked", "staff unavailable"), http.StatusConflict, "staff-blocked"},
		{"shop closed", apperrors.NewValidation("shop-closed", "shop is closed"), http.StatusUnprocessableEntity, "shop-closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(model.RoleClient)
			f.svc.On("Book", mock.Anything, f.caller.ShopID, mock.Anything).Return(nil, tt.err)

			code, env := f.do(t, http.MethodPost, "", map[string]interface{}{
				"staff_id":   uuid.New(),
				"service_id": uuid.New(),
				"client_id":  uuid.New(),
				"start_time": "2024-06-03T10:00:00Z",
			})

			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.wantReason, env.Reason)
		})
	}
}

func TestCreateAppointmentInvalidBody(t *testing.T) {
	f := newFixture(model.RoleClient)

	code, env := f.do(t, http.MethodPost, "", map[string]interface{}{"notes": "hi"})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid-input", env.Reason)
	f.svc.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAppointmentsParsesFilters(t *testing.T) {
	f := newFixture(model.RoleStaff)
	staffID := uuid.New()

	f.svc.On("List", mock.Anything, mock.MatchedBy(func(fl *model.AppointmentFilters) bool {
		return fl.ShopID == f.caller.ShopID &&
			fl.StaffID != nil && *fl.StaffID == staffID &&
			fl.Status != nil && *fl.Status == model.AppointmentStatusCompleted &&
			fl.StartDate != nil && fl.Limit == 10 && fl.Offset == 0
	})).Return([]*model.Appointment{{StaffID: staffID}}, nil)

	code, _ := f.do(t, http.MethodGet, "?staff_id="+staffID.String()+"&status=completed&start_date=2024-06-01&limit=10", nil)

	assert.Equal(t, http.StatusOK, code)
	f.svc.AssertExpectations(t)
}

func TestListAppointmentsBadStatus(t *testing.T) {
	f := newFixture(model.RoleStaff)
	code, _ := f.do(t, http.MethodGet, "?status=finished", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetAppointmentNotFound(t *testing.T) {
	f := newFixture(model.RoleClient)
	id := uuid.New()
	f.svc.On("Get", mock.Anything, f.caller.ShopID, id).Return(nil, apperrors.NewNotFound("appointment", nil))

	code, _ := f.do(t, http.MethodGet, "/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetAppointmentBadID(t *testing.T) {
	f := newFixture(model.RoleClient)
	code, _ := f.do(t, http.MethodGet, "/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUpdateStatusRequiresStaff(t *testing.T) {
	f := newFixture(model.RoleClient)
	code, _ := f.do(t, http.MethodPost, "/"+uuid.NewString()+"/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, code)
	f.svc.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusCompletesWithSettlement(t *testing.T) {
	f := newFixture(model.RoleStaff)
	id := uuid.New()
	total := decimal.RequireFromString("40.00")

	f.svc.On("Transition", mock.Anything, f.caller.ShopID, id, mock.MatchedBy(func(req *model.TransitionRequest) bool {
		return req.Status == model.AppointmentStatusCompleted && req.PaymentMethod == model.PaymentMethodCard
	})).Return(&appointmentService.TransitionResult{
		Appointment: &model.Appointment{Status: model.AppointmentStatusCompleted},
		Settlement:  &model.Settlement{Sale: &model.Sale{Total: total}, RateSource: "rule"},
	}, nil)

	code, env := f.do(t, http.MethodPost, "/"+id.String()+"/status", map[string]string{
		"status":         "completed",
		"payment_method": "card",
	})

	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"rate_source":"rule"`)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	f := newFixture(model.RoleManager)
	id := uuid.New()
	f.svc.On("Transition", mock.Anything, f.caller.ShopID, id, mock.Anything).
		Return(nil, apperrors.NewValidation("invalid-transition", "cannot move completed to confirmed"))

	code, env := f.do(t, http.MethodPost, "/"+id.String()+"/status", map[string]string{"status": "confirmed"})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid-transition", env.Reason)
}

func TestCancelAppointment(t *testing.T) {
	t.Run("first cancel returns the appointment", func(t *testing.T) {
		f := newFixture(model.RoleClient)
		id := uuid.New()
		reason := "running late"
		f.svc.On("Cancel", mock.Anything, f.caller.ShopID, id, reason).Return(&appointmentService.CancelResult{
			Appointment: &model.Appointment{Status: model.AppointmentStatusCancelled, CancelReason: &reason},
		}, nil)

		code, env := f.do(t, http.MethodPost, "/"+id.String()+"/cancel", map[string]string{"reason": reason})

		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, string(env.Data), `"status":"cancelled"`)
	})

	t.Run("second cancel deletes", func(t *testing.T) {
		f := newFixture(model.RoleClient)
		id := uuid.New()
		f.svc.On("Cancel", mock.Anything, f.caller.ShopID, id, "").Return(&appointmentService.CancelResult{Deleted: true}, nil)

		code, env := f.do(t, http.MethodPost, "/"+id.String()+"/cancel", nil)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "appointment deleted", env.Message)
	})
}

func TestSettleAppointment(t *testing.T) {
	t.Run("settles", func(t *testing.T) {
		f := newFixture(model.RoleStaff)
		id := uuid.New()
		f.settler.On("SettleIfCompleted", mock.Anything, f.caller.ShopID, id, model.PaymentMethodCash).
			Return(&model.Settlement{Sale: &model.Sale{}}, nil)

		code, _ := f.do(t, http.MethodPost, "/"+id.String()+"/settle", map[string]string{"payment_method": "cash"})
		assert.Equal(t, http.StatusCreated, code)
	})

	t.Run("nothing to settle", func(t *testing.T) {
		f := newFixture(model.RoleOwner)
		id := uuid.New()
		f.settler.On("SettleIfCompleted", mock.Anything, f.caller.ShopID, id, model.PaymentMethod("")).Return(nil, nil)

		code, env := f.do(t, http.MethodPost, "/"+id.String()+"/settle", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "nothing to settle", env.Message)
	})
}
