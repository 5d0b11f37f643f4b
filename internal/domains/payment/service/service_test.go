package service_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	paymentMocks "lodge/internal/domains/payment/mocks"
	"lodge/internal/domains/payment/model"
	"lodge/internal/domains/payment/model/dto"
	"lodge/internal/domains/payment/service"
	"lodge/internal/lifecycle"
	cacheMocks "lodge/shared/cache/mocks"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/timezone"
)

func newService(t *testing.T) (service.Payment, *paymentMocks.MockPayment, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := paymentMocks.NewMockPayment(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	return service.New(mockRepo, cfg, mockCache, mocks.NewOtel()), mockRepo, mockCache
}

type captureMatcher struct {
	dst *gDto.FilterGroup
}

func (m captureMatcher) Matches(x any) bool {
	filter, ok := x.(gDto.FilterGroup)
	if ok {
		*m.dst = filter
	}

	return ok
}

func (m captureMatcher) String() string {
	return "is a filter group"
}

func capture(dst *gDto.FilterGroup) gomock.Matcher {
	return captureMatcher{dst: dst}
}

func ptr[T any](v T) *T {
	return &v
}

func TestPaymentService_Reconcile(t *testing.T) {
	var tx *sqlx.Tx

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")

	t.Run("inserts when no payment correlates", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		var inserted model.Payment

		mockRepo.EXPECT().
			GetTx(gomock.Any(), tx, gomock.Any()).
			Return(model.Payment{}, nil)
		mockRepo.EXPECT().
			InsertTx(gomock.Any(), tx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, p model.Payment) error {
				inserted = p

				return nil
			})

		res, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{
			EntityID: "evt-1",
			Type:     model.TypeEvent,
			Status:   lifecycle.PaymentFailed,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, inserted, res)
		assert.Equal(t, "evt-1", res.BookingID)
		assert.Equal(t, model.TypeEvent, res.Type)
		assert.Equal(t, lifecycle.PaymentFailed, res.Status)
		assert.Equal(t, int64(0), res.Amount)
		assert.Equal(t, "admin-1", res.CreatedBy)
	})

	t.Run("new record takes the fallback amount", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().GetTx(gomock.Any(), tx, gomock.Any()).Return(model.Payment{}, nil)
		mockRepo.EXPECT().InsertTx(gomock.Any(), tx, gomock.Any()).Return(nil)

		res, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{
			EntityID:       "bk-1",
			Type:           model.TypeBooking,
			Status:         lifecycle.PaymentCompleted,
			FallbackAmount: 7500,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7500), res.Amount)
	})

	t.Run("merges into the existing record", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		existing := model.Payment{
			ID:        "pay-1",
			BookingID: "bk-1",
			Type:      model.TypeBooking,
			Amount:    5000,
			Method:    model.MethodCard,
			Status:    lifecycle.PaymentCompleted,
		}

		var fields map[string]any

		mockRepo.EXPECT().GetTx(gomock.Any(), tx, gomock.Any()).Return(existing, nil)
		mockRepo.EXPECT().
			UpdateTx(gomock.Any(), tx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, req map[string]any, _ gDto.FilterGroup) error {
				fields = req

				return nil
			})

		res, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{
			EntityID: "bk-1",
			Type:     model.TypeBooking,
			Status:   lifecycle.PaymentPending,
			Amount:   ptr(int64(0)),
		})

		require.NoError(t, err)
		assert.Equal(t, "pay-1", res.ID)
		assert.Equal(t, int64(0), res.Amount)
		assert.Equal(t, lifecycle.PaymentPending, res.Status)
		assert.Equal(t, model.MethodCard, res.Method)
		assert.Equal(t, lifecycle.PaymentPending, fields[model.FieldStatus])
		assert.Equal(t, int64(0), fields[model.FieldAmount])
		assert.NotContains(t, fields, model.FieldMethod)
	})

	t.Run("looks up alternate ids and canonicalizes", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		var lookup gDto.FilterGroup

		mockRepo.EXPECT().
			GetTx(gomock.Any(), tx, capture(&lookup)).
			Return(model.Payment{ID: "pay-2", BookingID: "EVT-1A2B3C4D", Type: model.TypeEvent}, nil)
		mockRepo.EXPECT().UpdateTx(gomock.Any(), tx, gomock.Any(), gomock.Any()).Return(nil)

		res, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{
			EntityID: "doc-9",
			AltIDs:   []string{"EVT-1A2B3C4D", "doc-9", ""},
			Type:     model.TypeEvent,
			Status:   lifecycle.PaymentCompleted,
			Amount:   ptr(int64(20000)),
			Method:   ptr(model.MethodMpesa),
		})

		require.NoError(t, err)
		require.Len(t, lookup.Filters, 2)

		ids, ok := lookup.Filters[0].(gDto.Filter)
		require.True(t, ok)
		assert.Equal(t, []string{"doc-9", "EVT-1A2B3C4D"}, ids.Value)
		assert.Equal(t, "doc-9", res.BookingID)
		assert.Equal(t, "pay-2", res.ID)
		assert.Equal(t, model.MethodMpesa, res.Method)
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().GetTx(gomock.Any(), tx, gomock.Any()).Return(model.Payment{}, nil)
		mockRepo.EXPECT().
			InsertTx(gomock.Any(), tx, gomock.Any()).
			Return(&pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeUniqueViolation)})

		_, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{
			EntityID: "bk-1",
			Type:     model.TypeBooking,
			Status:   lifecycle.PaymentCompleted,
		})

		var f *failure.Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, http.StatusConflict, f.Code)
	})

	t.Run("lookup error", func(t *testing.T) {
		svc, mockRepo, _ := newService(t)

		mockRepo.EXPECT().GetTx(gomock.Any(), tx, gomock.Any()).Return(model.Payment{}, errors.New("database error"))

		_, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{EntityID: "bk-1", Type: model.TypeBooking})
		assert.Error(t, err)
	})

	t.Run("missing entity id", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.Reconcile(ctx, tx, dto.ReconcileRequest{Type: model.TypeBooking})
		assert.Error(t, err)
	})
}

func TestPaymentService_Sweep(t *testing.T) {
	subjects := []dto.Subject{
		{IDs: []string{"bk-1"}, Type: model.TypeBooking, Status: lifecycle.StatusApproved},
		{IDs: []string{"bk-2"}, Type: model.TypeBooking, Status: lifecycle.StatusCancelled},
	}

	drifted := []model.Payment{
		{ID: "pay-1", BookingID: "bk-1", Type: model.TypeBooking, Status: lifecycle.PaymentPending},
		{ID: "pay-2", BookingID: "bk-2", Type: model.TypeBooking, Status: lifecycle.PaymentCompleted},
	}

	settled := []model.Payment{
		{ID: "pay-1", BookingID: "bk-1", Type: model.TypeBooking, Status: lifecycle.PaymentCompleted},
		{ID: "pay-2", BookingID: "bk-2", Type: model.TypeBooking, Status: lifecycle.PaymentFailed},
	}

	svc, mockRepo, _ := newService(t)

	gomock.InOrder(
		mockRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(drifted, nil),
		mockRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2),
		mockRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(settled, nil),
	)

	changed, err := svc.Sweep(context.Background(), subjects)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	changed, err = svc.Sweep(context.Background(), subjects)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestPaymentService_Update(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.UpdatePaymentRequest
		setupMock func(repo *paymentMocks.MockPayment)
		wantErr   bool
	}{
		{
			name: "successful update",
			req:  dto.UpdatePaymentRequest{Method: model.MethodCash},
			setupMock: func(repo *paymentMocks.MockPayment) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "empty request",
			req:       dto.UpdatePaymentRequest{},
			setupMock: func(_ *paymentMocks.MockPayment) {},
			wantErr:   true,
		},
		{
			name: "payment not found",
			req:  dto.UpdatePaymentRequest{Status: lifecycle.PaymentFailed.String()},
			setupMock: func(repo *paymentMocks.MockPayment) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _ := newService(t)
			tt.setupMock(mockRepo)

			err := svc.Update(context.Background(), tt.req, "pay-1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPaymentService_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc, mockRepo, mockCache := newService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)

		_, err := svc.Get(context.Background(), "missing")
		assert.Error(t, err)
	})

	t.Run("cache miss reads from db", func(t *testing.T) {
		svc, mockRepo, mockCache := newService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{ID: "pay-1", BookingID: "bk-1", Type: model.TypeBooking, Amount: 100}, nil)

		res, err := svc.Get(context.Background(), "pay-1")
		require.NoError(t, err)
		assert.Equal(t, "pay-1", res.ID)
		assert.Equal(t, int64(100), res.Amount)
	})
}

func TestPaymentService_ExportCSV(t *testing.T) {
	svc, mockRepo, _ := newService(t)

	date := time.Date(2025, 1, 3, 9, 30, 0, 0, timezone.GetLocation())

	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Payment{
			{BookingID: "bk-1", Amount: 5000, Method: model.MethodCard, Status: lifecycle.PaymentCompleted, Date: date},
			{BookingID: "evt-1", Amount: 0, Method: "", Status: lifecycle.PaymentFailed, Date: date},
		}, nil)

	var buf bytes.Buffer

	require.NoError(t, svc.ExportCSV(context.Background(), &buf, gDto.FilterGroup{}))

	want := "Booking ID,Amount,Method,Status,Date\n" +
		"bk-1,5000,card,completed,03/01/2025\n" +
		"evt-1,0,,failed,03/01/2025\n"
	assert.Equal(t, want, buf.String())
}

func TestPlanSweep(t *testing.T) {
	tests := []struct {
		name     string
		status   lifecycle.Status
		current  lifecycle.PaymentStatus
		wantTo   lifecycle.PaymentStatus
		wantNone bool
	}{
		{name: "approved pending", status: lifecycle.StatusApproved, current: lifecycle.PaymentPending, wantTo: lifecycle.PaymentCompleted},
		{name: "approved failed", status: lifecycle.StatusApproved, current: lifecycle.PaymentFailed, wantTo: lifecycle.PaymentCompleted},
		{name: "approved completed", status: lifecycle.StatusApproved, current: lifecycle.PaymentCompleted, wantNone: true},
		{name: "checked-out pending", status: lifecycle.StatusCheckedOut, current: lifecycle.PaymentPending, wantTo: lifecycle.PaymentCompleted},
		{name: "rejected completed", status: lifecycle.StatusRejected, current: lifecycle.PaymentCompleted, wantTo: lifecycle.PaymentFailed},
		{name: "cancelled pending", status: lifecycle.StatusCancelled, current: lifecycle.PaymentPending, wantTo: lifecycle.PaymentFailed},
		{name: "cancelled failed", status: lifecycle.StatusCancelled, current: lifecycle.PaymentFailed, wantNone: true},
		{name: "pending untouched", status: lifecycle.StatusPending, current: lifecycle.PaymentCompleted, wantNone: true},
		{name: "checked-in untouched", status: lifecycle.StatusCheckedIn, current: lifecycle.PaymentPending, wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subjects := []dto.Subject{{IDs: []string{"e1"}, Type: model.TypeBooking, Status: tt.status}}
			payments := []model.Payment{{ID: "p1", BookingID: "e1", Type: model.TypeBooking, Status: tt.current}}

			got := service.PlanSweep(subjects, payments)
			if tt.wantNone {
				assert.Empty(t, got)

				return
			}

			require.Len(t, got, 1)
			assert.Equal(t, dto.Correction{PaymentID: "p1", From: tt.current, To: tt.wantTo}, got[0])
		})
	}

	t.Run("type and alternate ids must match", func(t *testing.T) {
		subjects := []dto.Subject{{IDs: []string{"doc-1", "EVT-1"}, Type: model.TypeEvent, Status: lifecycle.StatusApproved}}
		payments := []model.Payment{
			{ID: "p1", BookingID: "EVT-1", Type: model.TypeEvent, Status: lifecycle.PaymentPending},
			{ID: "p2", BookingID: "doc-1", Type: model.TypeBooking, Status: lifecycle.PaymentPending},
			{ID: "p3", BookingID: "other", Type: model.TypeEvent, Status: lifecycle.PaymentPending},
		}

		got := service.PlanSweep(subjects, payments)
		require.Len(t, got, 1)
		assert.Equal(t, "p1", got[0].PaymentID)
	})
}
