package calendar

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/barber-api/internal/handler/handlertest"
	"github.com/jwalitptl/barber-api/internal/model"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]*model.BusinessHours), args.Error(1)
}

func (m *mockService) SetHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) ([]*model.BusinessHours, error) {
	args := m.Called(ctx, shopID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BusinessHours), args.Error(1)
}

func TestListHours(t *testing.T) {
	caller := handlertest.NewCaller(model.RoleClient)
	svc := new(mockService)
	svc.On("ListHours", mock.Anything, caller.ShopID).Return([]*model.BusinessHours{
		{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "18:00"},
	}, nil)

	r := handlertest.Engine(NewHandler(svc), caller)
	w := handlertest.Do(t, r, http.MethodGet, "/shops/"+caller.ShopID.String()+"/hours", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var hours []model.BusinessHours
	handlertest.DecodeData(t, w, &hours)
	assert.Len(t, hours, 1)
	assert.Equal(t, "09:00", hours[0].OpenTime)
}

func TestSetHoursOwnerOnly(t *testing.T) {
	body := map[string]interface{}{
		"days": []map[string]interface{}{{"day_of_week": 1, "open_time": "09:00", "close_time": "18:00"}},
	}

	t.Run("manager is rejected", func(t *testing.T) {
		caller := handlertest.NewCaller(model.RoleManager)
		svc := new(mockService)
		r := handlertest.Engine(NewHandler(svc), caller)

		w := handlertest.Do(t, r, http.MethodPut, "/shops/"+caller.ShopID.String()+"/hours", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "SetHours", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owner replaces the week", func(t *testing.T) {
		caller := handlertest.NewCaller(model.RoleOwner)
		svc := new(mockService)
		svc.On("SetHours", mock.Anything, caller.ShopID, mock.MatchedBy(func(days []model.BusinessHours) bool {
			return len(days) == 1 && days[0].DayOfWeek == 1 && days[0].CloseTime == "18:00"
		})).Return([]*model.BusinessHours{{DayOfWeek: 1}}, nil)
		r := handlertest.Engine(NewHandler(svc), caller)

		w := handlertest.Do(t, r, http.MethodPut, "/shops/"+caller.ShopID.String()+"/hours", body)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid range surfaces reason", func(t *testing.T) {
		caller := handlertest.NewCaller(model.RoleOwner)
		svc := new(mockService)
		svc.On("SetHours", mock.Anything, caller.ShopID, mock.Anything).
			Return(nil, apperrors.NewValidation("invalid-range", "open must be before close"))
		r := handlertest.Engine(NewHandler(svc), caller)

		w := handlertest.Do(t, r, http.MethodPut, "/shops/"+caller.ShopID.String()+"/hours", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid-range", handlertest.Decode(t, w).Reason)
	})

	t.Run("empty week is rejected", func(t *testing.T) {
		caller := handlertest.NewCaller(model.RoleOwner)
		r := handlertest.Engine(NewHandler(new(mockService)), caller)

		w := handlertest.Do(t, r, http.MethodPut, "/shops/"+caller.ShopID.String()+"/hours", map[string]interface{}{"days": []interface{}{}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestOtherShopIsForbidden(t *testing.T) {
	caller := handlertest.NewCaller(model.RoleOwner)
	r := handlertest.Engine(NewHandler(new(mockService)), caller)

	w := handlertest.Do(t, r, http.MethodGet, "/shops/"+uuid.NewString()+"/hours", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
