package appointment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/internal/repository/mocks"
	"github.com/jwalitptl/barber-api/internal/service/slot"
	"github.com/jwalitptl/barber-api/pkg/clock"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/metrics"
)

// slotStub returns decisions in order, repeating the last one.
type slotStub struct {
	decisions []slot.Decision
	calls     int
}

func (s *slotStub) ValidateSlot(ctx context.Context, shopID, staffID uuid.UUID, start time.Time, duration time.Duration) (slot.Decision, error) {
	i := s.calls
	if i >= len(s.decisions) {
		i = len(s.decisions) - 1
	}
	s.calls++
	return s.decisions[i], nil
}

type settlerStub struct {
	calls  int
	method model.PaymentMethod
}

func (s *settlerStub) SettleInTx(ctx context.Context, appt *model.Appointment, method model.PaymentMethod) (*model.Settlement, error) {
	s.calls++
	s.method = method
	return &model.Settlement{Sale: &model.Sale{Total: *appt.Price}}, nil
}

type advancerStub struct {
	calls int
	err   error
}

func (a *advancerStub) AdvanceShop(ctx context.Context, shopID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	a.calls++
	return nil, a.err
}

type emitterStub struct {
	types []string
}

func (e *emitterStub) Emit(ctx context.Context, aggregateID uuid.UUID, eventType string, payload interface{}) error {
	e.types = append(e.types, eventType)
	return nil
}

var accepted = slot.Decision{Accepted: true, Reason: slot.ReasonAccepted}

type fixture struct {
	svc      *Service
	shopID   uuid.UUID
	tx       *mocks.Transactor
	repo     *mocks.AppointmentRepository
	services *mocks.ServiceRepository
	slots    *slotStub
	settler  *settlerStub
	advancer *advancerStub
	events   *emitterStub
}

func newFixture(decisions ...slot.Decision) *fixture {
	if len(decisions) == 0 {
		decisions = []slot.Decision{accepted}
	}
	f := &fixture{
		shopID:   uuid.New(),
		tx:       &mocks.Transactor{},
		repo:     &mocks.AppointmentRepository{},
		services: &mocks.ServiceRepository{},
		slots:    &slotStub{decisions: decisions},
		settler:  &settlerStub{},
		advancer: &advancerStub{},
		events:   &emitterStub{},
	}
	f.svc = NewService(Deps{
		Tx:       f.tx,
		Repo:     f.repo,
		Services: f.services,
		Slots:    f.slots,
		Settler:  f.settler,
		Advancer: f.advancer,
		Events:   f.events,
		Clock:    clock.NewMockClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)),
		Metrics:  metrics.NewNop(),
		Logger:   logger.Nop(),
	})
	return f
}

func bookingRequest() *model.CreateAppointmentRequest {
	price := decimal.RequireFromString("100.00")
	return &model.CreateAppointmentRequest{
		StaffID:         uuid.New(),
		ServiceID:       uuid.New(),
		ClientID:        uuid.New(),
		StartTime:       time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Price:           &price,
	}
}

func (f *fixture) stored(status model.AppointmentStatus) *model.Appointment {
	price := decimal.RequireFromString("100.00")
	return &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ShopID:          f.shopID,
		StaffID:         uuid.New(),
		ServiceID:       uuid.New(),
		StartTime:       time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          status,
		Price:           &price,
	}
}

func TestBookAccepted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.Appointment")).Return(nil)

	appt, err := f.svc.Book(ctx, f.shopID, bookingRequest())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)
	assert.Equal(t, f.shopID, appt.ShopID)
	assert.Equal(t, appt.StartTime.Add(30*time.Minute), appt.EndTime)
	assert.Equal(t, 1, f.tx.Serializable)
	assert.Equal(t, []string{model.EventAppointmentBooked}, f.events.types)
}

func TestBookRejectedSlot(t *testing.T) {
	tests := []struct {
		reason slot.Reason
		code   apperrors.ErrorCode
	}{
		{slot.ReasonDoubleBooked, apperrors.ErrConflict},
		{slot.ReasonStaffBlocked, apperrors.ErrConflict},
		{slot.ReasonShopClosed, apperrors.ErrValidation},
		{slot.ReasonOutsideHours, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			f := newFixture(slot.Decision{Reason: tt.reason})

			_, err := f.svc.Book(context.Background(), f.shopID, bookingRequest())
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, string(tt.reason), appErr.Reason)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestBookLostRaceReportsDoubleBooked(t *testing.T) {
	f := newFixture(accepted, accepted)
	ctx := context.Background()
	f.repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("failed to create appointment: %w", repository.ErrConflict)).Once()

	_, err := f.svc.Book(ctx, f.shopID, bookingRequest())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, string(slot.ReasonDoubleBooked), appErr.Reason)
	assert.Equal(t, 2, f.slots.calls)
	f.repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestBookLostRaceReturnsRevalidatedReason(t *testing.T) {
	f := newFixture(accepted, slot.Decision{Reason: slot.ReasonStaffBlocked})
	ctx := context.Background()
	f.repo.On("Create", ctx, mock.Anything).Return(repository.ErrConflict)

	_, err := f.svc.Book(ctx, f.shopID, bookingRequest())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, string(slot.ReasonStaffBlocked), appErr.Reason)
}

func TestBookStorageErrorIsNotRetried(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	boom := errors.New("connection refused")
	f.repo.On("Create", ctx, mock.Anything).Return(boom)

	_, err := f.svc.Book(ctx, f.shopID, bookingRequest())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.slots.calls)
}

func TestBookDefaultsFromCatalog(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := bookingRequest()
	req.DurationMinutes = 0
	req.Price = nil

	f.services.On("Get", ctx, f.shopID, req.ServiceID).Return(&model.Service{
		Duration: 45,
		Price:    decimal.RequireFromString("35.00"),
	}, nil)
	f.repo.On("Create", ctx, mock.Anything).Return(nil)

	appt, err := f.svc.Book(ctx, f.shopID, req)
	require.NoError(t, err)
	assert.Equal(t, 45, appt.DurationMinutes)
	assert.True(t, appt.Price.Equal(decimal.RequireFromString("35.00")))
}

func TestBookInvalidDuration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := bookingRequest()
	req.DurationMinutes = 0

	f.services.On("Get", ctx, f.shopID, req.ServiceID).Return(&model.Service{Duration: 0}, nil)

	_, err := f.svc.Book(ctx, f.shopID, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, string(slot.ReasonInvalidDuration), appErr.Reason)
}

func TestBookRejectsOversizedDuration(t *testing.T) {
	f := newFixture()
	req := bookingRequest()
	req.DurationMinutes = 30 + 1<<53

	_, err := f.svc.Book(context.Background(), f.shopID, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation))
	assert.Equal(t, 0, f.slots.calls)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookRejectsOversizedCatalogDuration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := bookingRequest()
	req.DurationMinutes = 0

	f.services.On("Get", ctx, f.shopID, req.ServiceID).Return(&model.Service{Duration: model.MaxDurationMinutes + 1}, nil)

	_, err := f.svc.Book(ctx, f.shopID, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, string(slot.ReasonInvalidDuration), appErr.Reason)
	assert.Equal(t, 0, f.slots.calls)
}

func TestBookRequiresIdentifiers(t *testing.T) {
	f := newFixture()
	req := bookingRequest()
	req.StaffID = uuid.Nil

	_, err := f.svc.Book(context.Background(), f.shopID, req)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation))
}

func TestListAdvancesFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	filters := &model.AppointmentFilters{ShopID: f.shopID}
	f.repo.On("List", ctx, filters).Return([]*model.Appointment{f.stored(model.AppointmentStatusCompleted)}, nil)

	list, err := f.svc.List(ctx, filters)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, f.advancer.calls)
}

func TestListFailsWhenClockFails(t *testing.T) {
	f := newFixture()
	f.advancer.err = errors.New("db down")

	_, err := f.svc.List(context.Background(), &model.AppointmentFilters{ShopID: f.shopID})
	assert.Error(t, err)
	f.repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetOtherShopIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.stored(model.AppointmentStatusConfirmed)
	appt.ShopID = uuid.New()
	f.repo.On("Get", ctx, appt.ID).Return(appt, nil)

	_, err := f.svc.Get(ctx, f.shopID, appt.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]model.AppointmentStatus{
		{model.AppointmentStatusPending, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusInProgress},
		{model.AppointmentStatusPending, model.AppointmentStatusCompleted},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted},
		{model.AppointmentStatusInProgress, model.AppointmentStatusCompleted},
		{model.AppointmentStatusPending, model.AppointmentStatusCancelled},
		{model.AppointmentStatusInProgress, model.AppointmentStatusNoShow},
	}
	for _, p := range allowed {
		assert.True(t, CanTransition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}

	denied := [][2]model.AppointmentStatus{
		{model.AppointmentStatusPending, model.AppointmentStatusInProgress},
		{model.AppointmentStatusInProgress, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusPending},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusCompleted, model.AppointmentStatusCancelled},
		{model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusNoShow, model.AppointmentStatusCompleted},
	}
	for _, p := range denied {
		assert.False(t, CanTransition(p[0], p[1]), "%s -> %s", p[0], p[1])
	}
}

func TestTransitionCompleteSettles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.stored(model.AppointmentStatusInProgress)

	f.repo.On("GetForUpdate", ctx, appt.ID).Return(appt, nil)
	f.repo.On("UpdateStatus", ctx, appt.ID, model.AppointmentStatusCompleted, (*string)(nil)).Return(nil)

	res, err := f.svc.Transition(ctx, f.shopID, appt.ID, &model.TransitionRequest{
		Status:        model.AppointmentStatusCompleted,
		PaymentMethod: model.PaymentMethodCard,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, res.Appointment.Status)
	require.NotNil(t, res.Settlement)
	assert.Equal(t, 1, f.settler.calls)
	assert.Equal(t, model.PaymentMethodCard, f.settler.method)
	assert.Equal(t, 1, f.tx.Plain)
}

func TestTransitionInvalid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.stored(model.AppointmentStatusCompleted)
	f.repo.On("GetForUpdate", ctx, appt.ID).Return(appt, nil)

	_, err := f.svc.Transition(ctx, f.shopID, appt.ID, &model.TransitionRequest{Status: model.AppointmentStatusNoShow})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, "invalid-transition", appErr.Reason)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionUnknownStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Transition(context.Background(), f.shopID, uuid.New(), &model.TransitionRequest{Status: "finished"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation))
}

func TestCancelFlagsThenDeletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.stored(model.AppointmentStatusConfirmed)
	reason := "client called"

	f.repo.On("GetForUpdate", ctx, appt.ID).Return(appt, nil)
	f.repo.On("UpdateStatus", ctx, appt.ID, model.AppointmentStatusCancelled, &reason).Return(nil)
	f.repo.On("Delete", ctx, appt.ID).Return(nil)

	res, err := f.svc.Cancel(ctx, f.shopID, appt.ID, reason)
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, model.AppointmentStatusCancelled, res.Appointment.Status)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	res, err = f.svc.Cancel(ctx, f.shopID, appt.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	f.repo.AssertCalled(t, "Delete", ctx, appt.ID)
	assert.Equal(t, []string{model.EventAppointmentStatusChanged, model.EventAppointmentDeleted}, f.events.types)
}

func TestCancelTerminalIsRejected(t *testing.T) {
	for _, status := range []model.AppointmentStatus{model.AppointmentStatusCompleted, model.AppointmentStatusNoShow} {
		f := newFixture()
		ctx := context.Background()
		appt := f.stored(status)
		f.repo.On("GetForUpdate", ctx, appt.ID).Return(appt, nil)

		_, err := f.svc.Cancel(ctx, f.shopID, appt.ID, "")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation), string(status))
	}
}

func TestCancelMissing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()
	f.repo.On("GetForUpdate", ctx, id).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Cancel(ctx, f.shopID, id, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
