package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	s3Mocks "lodge/infras/s3/mocks"
	venueMocks "lodge/internal/domains/venue/mocks"
	"lodge/internal/domains/venue/model"
	"lodge/internal/domains/venue/model/dto"
	"lodge/internal/domains/venue/service"
	cacheMocks "lodge/shared/cache/mocks"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	gModel "lodge/shared/model"
)

func hall() model.Venue {
	return model.Venue{
		ID:       "venue-1",
		Name:     "Baobab Hall",
		Capacity: gModel.NewJSONB(model.Capacity{Theatre: 200, Classroom: 120, UShape: 40, Boardroom: 30}),
		Hours:    gModel.NewJSONB(model.Hours{Open: "08:00", Close: "22:00"}),
		Packages: gModel.NewJSONB([]model.Package{{Name: "Full Day", Price: 150000, Duration: "8h"}}),
		Images:   pq.StringArray{"https://cdn/venue/a.png", "https://cdn/venue/b.png"},
		Active:   true,
	}
}

func TestVenueService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := venueMocks.NewMockVenue(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel(), mockS3)

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	tests := []struct {
		name      string
		req       dto.CreateVenueRequest
		setupMock func()
		wantCode  int
		wantErr   bool
	}{
		{
			name: "successful creation",
			req: dto.CreateVenueRequest{
				Name:     "Baobab Hall",
				Capacity: dto.CapacityRequest{Theatre: 200},
				Packages: []dto.PackageRequest{{Name: "Half Day", Price: 90000, PaymentURL: "https://pay.example.com/half"}},
			},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, venue model.Venue) error {
						assert.Equal(t, 200, venue.Capacity.V.Largest())
						assert.Equal(t, "https://pay.example.com/half", venue.Packages.V[0].PaymentURL)
						assert.True(t, venue.Active)

						return nil
					})
			},
		},
		{
			name: "duplicate name",
			req:  dto.CreateVenueRequest{Name: "Baobab Hall"},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name: "repository error",
			req:  dto.CreateVenueRequest{Name: "Baobab Hall"},
			setupMock: func() {
				mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.Create(ctx, tt.req)

			time.Sleep(10 * time.Millisecond)

			if !tt.wantErr {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)

			if tt.wantCode != 0 {
				var f *failure.Failure
				require.ErrorAs(t, err, &f)
				assert.Equal(t, tt.wantCode, f.Code)
			}
		})
	}
}

func TestVenueService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := venueMocks.NewMockVenue(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel(), s3Mocks.NewMockS3(ctrl))

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	t.Run("found", func(t *testing.T) {
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hall(), nil)

		res, err := svc.Get(context.Background(), "venue-1")
		require.NoError(t, err)
		assert.Equal(t, 200, res.MaxGuests)
		assert.Equal(t, "22:00", res.Hours.Close)
		assert.Len(t, res.Packages, 1)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Venue{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		var f *failure.Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, http.StatusNotFound, f.Code)
	})
}

func TestVenueService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := venueMocks.NewMockVenue(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel(), mockS3)

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	t.Run("replaces images and drops the old ones", func(t *testing.T) {
		var fields map[string]any

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hall(), nil)
		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req map[string]any, _ gDto.FilterGroup) error {
				fields = req

				return nil
			})
		mockS3.EXPECT().Delete(gomock.Any(), "https://cdn/venue/a.png").Return(nil)

		err := svc.Update(context.Background(), dto.UpdateVenueRequest{
			Hours:  &dto.HoursRequest{Open: "09:00", Close: "23:00"},
			Images: []string{"https://cdn/venue/b.png", "https://cdn/venue/c.png"},
		}, "venue-1")
		require.NoError(t, err)

		assert.Equal(t, gModel.NewJSONB(model.Hours{Open: "09:00", Close: "23:00"}), fields[model.FieldHours])
		assert.Equal(t, pq.StringArray{"https://cdn/venue/b.png", "https://cdn/venue/c.png"}, fields[model.FieldImages])
		assert.NotContains(t, fields, model.FieldName)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("empty request", func(t *testing.T) {
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hall(), nil)

		err := svc.Update(context.Background(), dto.UpdateVenueRequest{}, "venue-1")
		assert.Error(t, err)
	})
}

func TestVenueService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := venueMocks.NewMockVenue(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel(), mockS3)

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hall(), nil)
	mockRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
	mockS3.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	require.NoError(t, svc.Delete(context.Background(), "venue-1"))

	time.Sleep(10 * time.Millisecond)
}

func TestVenueService_DeleteImages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockS3 := s3Mocks.NewMockS3(ctrl)
	svc := service.New(venueMocks.NewMockVenue(ctrl), &config.Config{}, cacheMocks.NewMockRedisCache(ctrl), mocks.NewOtel(), mockS3)

	mockS3.EXPECT().Delete(gomock.Any(), "https://cdn/venue/a.png").Return(nil)
	mockS3.EXPECT().Delete(gomock.Any(), "https://cdn/venue/b.png").Return(errors.New("denied"))

	err := svc.DeleteImages(context.Background(), dto.DeleteImagesRequest{
		ImageURLs: []string{"https://cdn/venue/a.png", "https://cdn/venue/b.png"},
	})
	assert.ErrorIs(t, err, service.ErrDeleteImages)
}

func TestVenue_Package(t *testing.T) {
	pkg, ok := hall().Package(" full day ")
	require.True(t, ok)
	assert.Equal(t, int64(150000), pkg.Price)

	_, ok = hall().Package("Weekend")
	assert.False(t, ok)
}
