package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	eventMocks "lodge/internal/domains/event/mocks"
	"lodge/internal/domains/event/model"
	"lodge/internal/domains/event/model/dto"
	"lodge/internal/domains/event/service"
	paymentMocks "lodge/internal/domains/payment/mocks"
	paymentModel "lodge/internal/domains/payment/model"
	paymentDto "lodge/internal/domains/payment/model/dto"
	venueMocks "lodge/internal/domains/venue/mocks"
	venueModel "lodge/internal/domains/venue/model"
	"lodge/internal/lifecycle"
	cacheMocks "lodge/shared/cache/mocks"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gModel "lodge/shared/model"
	repoMocks "lodge/shared/repository/mocks"
)

type fixture struct {
	svc        service.Event
	repo       *eventMocks.MockEvent
	venues     *venueMocks.MockVenue
	payment    *paymentMocks.MockPaymentService
	transactor *repoMocks.MockTransactor
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	cache := cacheMocks.NewMockRedisCache(ctrl)

	f := fixture{
		repo:       eventMocks.NewMockEvent(ctrl),
		venues:     venueMocks.NewMockVenue(ctrl),
		payment:    paymentMocks.NewMockPaymentService(ctrl),
		transactor: repoMocks.NewMockTransactor(ctrl),
	}

	cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.venues, f.payment, f.transactor, cfg, cache, mocks.NewOtel())

	return f
}

func (f fixture) runTx() *gomock.Call {
	return f.transactor.EXPECT().
		WithTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
			return fn(nil)
		})
}

func (f fixture) expectTransition(event model.Event, fields *map[string]any, reconcile *paymentDto.ReconcileRequest) {
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(event, nil)
	f.repo.EXPECT().AppendHistory(gomock.Any(), event.ID, gomock.Any()).Return(nil)
	f.runTx()
	f.repo.EXPECT().
		UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, req map[string]any, _ gDto.FilterGroup) error {
			*fields = req

			return nil
		})
	f.payment.EXPECT().
		Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, req paymentDto.ReconcileRequest) (paymentModel.Payment, error) {
			*reconcile = req

			return paymentModel.Payment{ID: "pay-1"}, nil
		})
}

func assertFailureCode(t *testing.T, err error, code int) {
	t.Helper()

	var f *failure.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, code, f.Code)
}

func pendingEvent() model.Event {
	return model.Event{
		ID:        "doc-9",
		EventCode: "EVT-1A2B3C4D",
		Venue:     "Baobab Hall",
		Date:      "2030-05-01",
		Status:    lifecycle.StatusPending,
		Package:   gModel.NewJSONB(&model.PackageRef{Name: "Full Day", Price: 150000}),
		Amount:    150000,
	}
}

func TestEventService_Create(t *testing.T) {
	venue := venueModel.Venue{
		ID:       "venue-1",
		Name:     "Baobab Hall",
		Packages: gModel.NewJSONB([]venueModel.Package{{Name: "Full Day", Price: 150000, Duration: "8h"}}),
	}

	t.Run("quotes the package price", func(t *testing.T) {
		f := newFixture(t)

		var inserted model.Event

		f.venues.EXPECT().Get(gomock.Any(), gomock.Any()).Return(venue, nil)
		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, event model.Event) error {
				inserted = event

				return nil
			})

		res, err := f.svc.Create(context.Background(), dto.CreateEventRequest{
			CustomerName:  "Amina",
			CustomerEmail: "amina@example.com",
			Venue:         "Baobab Hall",
			Date:          "01/05/2030",
			Guests:        80,
			Package:       "full day",
		})
		require.NoError(t, err)
		assert.Equal(t, "2030-05-01", inserted.Date)
		assert.Equal(t, "venue-1", inserted.VenueID)
		assert.Equal(t, int64(150000), inserted.Amount)
		assert.Regexp(t, `^EVT-[0-9A-F]{8}$`, inserted.EventCode)
		assert.Equal(t, lifecycle.StatusPending, inserted.Status)
		assert.Equal(t, "01/05/2030", res.DisplayDate)
		assert.Equal(t, []lifecycle.Action{lifecycle.ActionApprove, lifecycle.ActionReject}, res.Actions)
	})

	t.Run("unknown venue", func(t *testing.T) {
		f := newFixture(t)

		f.venues.EXPECT().Get(gomock.Any(), gomock.Any()).Return(venueModel.Venue{}, nil)

		_, err := f.svc.Create(context.Background(), dto.CreateEventRequest{Venue: "Nowhere", Date: "2030-05-01"})
		assertFailureCode(t, err, http.StatusBadRequest)
	})

	t.Run("unknown package", func(t *testing.T) {
		f := newFixture(t)

		f.venues.EXPECT().Get(gomock.Any(), gomock.Any()).Return(venue, nil)

		_, err := f.svc.Create(context.Background(), dto.CreateEventRequest{Venue: "Baobab Hall", Date: "2030-05-01", Package: "Weekend"})
		assertFailureCode(t, err, http.StatusBadRequest)
	})
}

func TestEventService_Reject(t *testing.T) {
	f := newFixture(t)

	var (
		fields    map[string]any
		reconcile paymentDto.ReconcileRequest
	)

	f.expectTransition(pendingEvent(), &fields, &reconcile)

	require.NoError(t, f.svc.Reject(context.Background(), "EVT-1A2B3C4D", dto.NoteRequest{Note: "date taken"}))

	assert.Equal(t, lifecycle.StatusRejected, fields[model.FieldStatus])
	assert.Equal(t, "doc-9", reconcile.EntityID)
	assert.Equal(t, []string{"EVT-1A2B3C4D"}, reconcile.AltIDs)
	assert.Equal(t, paymentModel.TypeEvent, reconcile.Type)
	assert.Equal(t, lifecycle.PaymentFailed, reconcile.Status)
	assert.Nil(t, reconcile.Amount)
	assert.Zero(t, reconcile.ToModel("admin").Amount)
}

func TestEventService_Approve(t *testing.T) {
	t.Run("charges the package price", func(t *testing.T) {
		f := newFixture(t)

		var (
			fields    map[string]any
			reconcile paymentDto.ReconcileRequest
		)

		f.expectTransition(pendingEvent(), &fields, &reconcile)

		require.NoError(t, f.svc.Approve(context.Background(), "doc-9", dto.ApproveEventRequest{Method: paymentModel.MethodMpesa}))

		assert.Equal(t, lifecycle.StatusApproved, fields[model.FieldStatus])
		assert.Equal(t, int64(150000), fields[model.FieldAmount])
		require.NotNil(t, reconcile.Amount)
		assert.Equal(t, int64(150000), *reconcile.Amount)
		require.NotNil(t, reconcile.Method)
		assert.Equal(t, paymentModel.MethodMpesa, *reconcile.Method)
		assert.Equal(t, lifecycle.PaymentCompleted, reconcile.Status)
	})

	t.Run("explicit amount wins", func(t *testing.T) {
		f := newFixture(t)

		var (
			fields    map[string]any
			reconcile paymentDto.ReconcileRequest
		)

		amount := int64(120000)

		f.expectTransition(pendingEvent(), &fields, &reconcile)

		require.NoError(t, f.svc.Approve(context.Background(), "doc-9", dto.ApproveEventRequest{Amount: &amount}))

		assert.Equal(t, int64(120000), fields[model.FieldAmount])
		assert.Equal(t, int64(120000), *reconcile.Amount)
		assert.Nil(t, reconcile.Method)
	})

	t.Run("already approved", func(t *testing.T) {
		f := newFixture(t)

		event := pendingEvent()
		event.Status = lifecycle.StatusApproved

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(event, nil)

		err := f.svc.Approve(context.Background(), "doc-9", dto.ApproveEventRequest{})
		assertFailureCode(t, err, http.StatusConflict)
	})
}

func TestEventService_Unapprove(t *testing.T) {
	f := newFixture(t)

	var (
		fields    map[string]any
		reconcile paymentDto.ReconcileRequest
	)

	event := pendingEvent()
	event.Status = lifecycle.StatusApproved

	f.expectTransition(event, &fields, &reconcile)

	require.NoError(t, f.svc.Unapprove(context.Background(), "doc-9", dto.NoteRequest{}))

	assert.Equal(t, lifecycle.StatusPending, fields[model.FieldStatus])
	assert.Equal(t, int64(0), fields[model.FieldAmount])
	assert.Equal(t, lifecycle.PaymentPending, reconcile.Status)
	require.NotNil(t, reconcile.Amount)
	assert.Equal(t, int64(0), *reconcile.Amount)
}

func TestEventService_HistoryFailureIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingEvent(), nil)
	f.repo.EXPECT().AppendHistory(gomock.Any(), "doc-9", gomock.Any()).Return(errors.New("jsonb append failed"))
	f.runTx()
	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.payment.EXPECT().Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).Return(paymentModel.Payment{}, nil)

	assert.NoError(t, f.svc.Reject(context.Background(), "doc-9", dto.NoteRequest{}))
}

func TestEventService_FailedTransitionWritesNoHistory(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingEvent(), nil)
	f.runTx()
	f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.payment.EXPECT().
		Reconcile(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(paymentModel.Payment{}, errors.New("db down"))
	f.repo.EXPECT().AppendHistory(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	assert.Error(t, f.svc.Reject(context.Background(), "doc-9", dto.NoteRequest{}))
}

func TestEventService_Delete(t *testing.T) {
	t.Run("cascades to the payment under both ids", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingEvent(), nil)
		f.runTx()
		f.repo.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.payment.EXPECT().RemoveFor(gomock.Any(), gomock.Any(), []string{"doc-9", "EVT-1A2B3C4D"}, paymentModel.TypeEvent).Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), "doc-9"))
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Event{}, nil)

		assertFailureCode(t, f.svc.Delete(context.Background(), "nope"), http.StatusNotFound)
	})
}
