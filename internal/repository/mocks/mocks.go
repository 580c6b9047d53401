// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

var (
	_ repository.Transactor               = (*Transactor)(nil)
	_ repository.ShopRepository           = (*ShopRepository)(nil)
	_ repository.ServiceRepository        = (*ServiceRepository)(nil)
	_ repository.CalendarRepository       = (*CalendarRepository)(nil)
	_ repository.BlackoutRepository       = (*BlackoutRepository)(nil)
	_ repository.AppointmentRepository    = (*AppointmentRepository)(nil)
	_ repository.CommissionRuleRepository = (*CommissionRuleRepository)(nil)
	_ repository.SaleRepository           = (*SaleRepository)(nil)
	_ repository.CommissionRepository     = (*CommissionRepository)(nil)
	_ repository.OutboxRepository         = (*OutboxRepository)(nil)
)

// Transactor runs fn inline and counts calls per isolation level.
type Transactor struct {
	Plain        int
	Serializable int
}

func (m *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Plain++
	return fn(ctx)
}

func (m *Transactor) WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Serializable++
	return fn(ctx)
}

type ShopRepository struct {
	mock.Mock
}

func (m *ShopRepository) Get(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	args := m.Called(ctx, id)
	shop, _ := args.Get(0).(*model.Shop)
	return shop, args.Error(1)
}

type ServiceRepository struct {
	mock.Mock
}

func (m *ServiceRepository) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Service, error) {
	args := m.Called(ctx, shopID, id)
	svc, _ := args.Get(0).(*model.Service)
	return svc, args.Error(1)
}

type CalendarRepository struct {
	mock.Mock
}

func (m *CalendarRepository) GetHours(ctx context.Context, shopID uuid.UUID, dayOfWeek int) (*model.BusinessHours, error) {
	args := m.Called(ctx, shopID, dayOfWeek)
	hours, _ := args.Get(0).(*model.BusinessHours)
	return hours, args.Error(1)
}

func (m *CalendarRepository) ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error) {
	args := m.Called(ctx, shopID)
	hours, _ := args.Get(0).([]*model.BusinessHours)
	return hours, args.Error(1)
}

func (m *CalendarRepository) ReplaceHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) error {
	return m.Called(ctx, shopID, days).Error(0)
}

type BlackoutRepository struct {
	mock.Mock
}

func (m *BlackoutRepository) Create(ctx context.Context, blackout *model.Blackout) error {
	return m.Called(ctx, blackout).Error(0)
}

func (m *BlackoutRepository) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Blackout, error) {
	args := m.Called(ctx, shopID, id)
	b, _ := args.Get(0).(*model.Blackout)
	return b, args.Error(1)
}

func (m *BlackoutRepository) Update(ctx context.Context, blackout *model.Blackout) error {
	return m.Called(ctx, blackout).Error(0)
}

func (m *BlackoutRepository) Deactivate(ctx context.Context, shopID, id uuid.UUID) error {
	return m.Called(ctx, shopID, id).Error(0)
}

func (m *BlackoutRepository) ListActive(ctx context.Context, shopID, staffID uuid.UUID) ([]*model.Blackout, error) {
	args := m.Called(ctx, shopID, staffID)
	list, _ := args.Get(0).([]*model.Blackout)
	return list, args.Error(1)
}

func (m *BlackoutRepository) List(ctx context.Context, filters *model.BlackoutFilters) ([]*model.Blackout, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Blackout)
	return list, args.Error(1)
}

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Appointment)
	return a, args.Error(1)
}

func (m *AppointmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Appointment)
	return a, args.Error(1)
}

func (m *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error {
	return m.Called(ctx, id, status, cancelReason).Error(0)
}

func (m *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Appointment)
	return list, args.Error(1)
}

func (m *AppointmentRepository) ListOverlapCandidates(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	args := m.Called(ctx, staffID, from, to)
	list, _ := args.Get(0).([]*model.Appointment)
	return list, args.Error(1)
}

func (m *AppointmentRepository) ListDueForAdvance(ctx context.Context, shopID *uuid.UUID, now time.Time, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, shopID, now, limit, offset)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type CommissionRuleRepository struct {
	mock.Mock
}

func (m *CommissionRuleRepository) GetRate(ctx context.Context, shopID, staffID, serviceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, shopID, staffID, serviceID)
	rate, _ := args.Get(0).(decimal.Decimal)
	return rate, args.Error(1)
}

func (m *CommissionRuleRepository) Upsert(ctx context.Context, rule *model.CommissionRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *CommissionRuleRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	return m.Called(ctx, shopID, id).Error(0)
}

func (m *CommissionRuleRepository) List(ctx context.Context, shopID uuid.UUID) ([]*model.CommissionRule, error) {
	args := m.Called(ctx, shopID)
	list, _ := args.Get(0).([]*model.CommissionRule)
	return list, args.Error(1)
}

type SaleRepository struct {
	mock.Mock
}

func (m *SaleRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Sale, error) {
	args := m.Called(ctx, appointmentID)
	sale, _ := args.Get(0).(*model.Sale)
	return sale, args.Error(1)
}

func (m *SaleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *SaleRepository) List(ctx context.Context, filters *model.SaleFilters) ([]*model.Sale, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Sale)
	return list, args.Error(1)
}

type CommissionRepository struct {
	mock.Mock
}

func (m *CommissionRepository) Create(ctx context.Context, commission *model.Commission) error {
	return m.Called(ctx, commission).Error(0)
}

func (m *CommissionRepository) GetBySale(ctx context.Context, saleID uuid.UUID) (*model.Commission, error) {
	args := m.Called(ctx, saleID)
	c, _ := args.Get(0).(*model.Commission)
	return c, args.Error(1)
}

func (m *CommissionRepository) MarkPaid(ctx context.Context, shopID, id uuid.UUID, paidAt time.Time) (*model.Commission, error) {
	args := m.Called(ctx, shopID, id, paidAt)
	c, _ := args.Get(0).(*model.Commission)
	return c, args.Error(1)
}

func (m *CommissionRepository) List(ctx context.Context, filters *model.CommissionFilters) ([]*model.Commission, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Commission)
	return list, args.Error(1)
}

func (m *CommissionRepository) Summary(ctx context.Context, shopID, staffID uuid.UUID) (*model.PayoutSummary, error) {
	args := m.Called(ctx, shopID, staffID)
	s, _ := args.Get(0).(*model.PayoutSummary)
	return s, args.Error(1)
}

type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	list, _ := args.Get(0).([]*model.OutboxEvent)
	return list, args.Error(1)
}

func (m *OutboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return m.Called(ctx, id, status, errorMessage).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
