package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/otel/mocks"
	sessionMocks "lodge/internal/domains/session/mocks"
	userMocks "lodge/internal/domains/user/mocks"
	"lodge/internal/domains/user/model"
	"lodge/internal/domains/user/model/dto"
	"lodge/internal/domains/user/service"
	"lodge/shared/cache"
	cacheMocks "lodge/shared/cache/mocks"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/password"
)

type fixture struct {
	repo     *userMocks.MockUser
	sessions *sessionMocks.MockProvider
	cache    *cacheMocks.MockRedisCache
	svc      service.User
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		repo:     userMocks.NewMockUser(ctrl),
		sessions: sessionMocks.NewMockProvider(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.sessions, cfg, f.cache, mocks.NewOtel())

	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func withUser(id string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, id)
}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateUserRequest
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "staff by default",
			req:  dto.CreateUserRequest{Email: " Front.Desk@Lodge.test ", Password: "s3cret-pass"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, user model.User) error {
						assert.Equal(t, "front.desk@lodge.test", user.Email)
						assert.Equal(t, constant.RoleStaff, user.Role)
						assert.Equal(t, "admin-1", user.CreatedBy)
						assert.True(t, user.Active)
						assert.NoError(t, password.Verify("s3cret-pass", user.Password))

						return nil
					})
			},
		},
		{
			name: "email taken",
			req:  dto.CreateUserRequest{Email: "admin@lodge.test", Password: "s3cret-pass", Role: constant.RoleAdmin},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: http.StatusConflict,
			wantErr:  true,
		},
		{
			name: "insert fails",
			req:  dto.CreateUserRequest{Email: "admin@lodge.test", Password: "s3cret-pass"},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.Create(withUser("admin-1"), tt.req)
			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestUserService_Get(t *testing.T) {
	f := newFixture(t)
	lastLogin := time.Date(2030, time.January, 1, 9, 30, 0, 0, time.UTC)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).Times(2)
	f.repo.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.User{ID: "user-1", Email: "admin@lodge.test", Role: constant.RoleAdmin, LastLogin: &lastLogin, Active: true}, nil)

	res, err := f.svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.ID)
	assert.NotEmpty(t, res.LastLogin)

	f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.User{}, nil)

	_, err = f.svc.Get(context.Background(), "ghost")
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))

	time.Sleep(10 * time.Millisecond)
}

func TestUserService_Update(t *testing.T) {
	role := constant.RoleStaff
	active := false

	tests := []struct {
		name      string
		req       dto.UpdateUserRequest
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "demotion invalidates the session",
			req:  dto.UpdateUserRequest{Role: &role, Active: &active},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, constant.RoleStaff, fields[model.FieldRole])
						assert.Equal(t, false, fields[model.FieldActive])
						assert.Equal(t, "admin-1", fields[constant.FieldModifiedBy])

						return nil
					})
				f.sessions.EXPECT().Invalidate(gomock.Any(), "user-2").Return(nil)
			},
		},
		{
			name: "session invalidation failure is not fatal",
			req:  dto.UpdateUserRequest{Role: &role},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.sessions.EXPECT().Invalidate(gomock.Any(), "user-2").Return(errors.New("redis down"))
			},
		},
		{
			name:      "empty request",
			req:       dto.UpdateUserRequest{},
			setupMock: func(f fixture) {},
			wantCode:  http.StatusBadRequest,
			wantErr:   true,
		},
		{
			name: "not found",
			req:  dto.UpdateUserRequest{Role: &role},
			setupMock: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: http.StatusNotFound,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.Update(withUser("admin-1"), tt.req, "user-2")
			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	t.Run("own account", func(t *testing.T) {
		f := newFixture(t)

		err := f.svc.Delete(withUser("admin-1"), "admin-1")
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("deleted", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
		f.sessions.EXPECT().Invalidate(gomock.Any(), "user-2").Return(nil)

		assert.NoError(t, f.svc.Delete(withUser("admin-1"), "user-2"))
		time.Sleep(10 * time.Millisecond)
	})
}
