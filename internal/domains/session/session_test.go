package session_test

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
	"lodge/internal/domains/session"
	userMocks "lodge/internal/domains/user/mocks"
	userModel "lodge/internal/domains/user/model"
	"lodge/shared/cache"
	cacheMocks "lodge/shared/cache/mocks"
	"lodge/shared/constant"
	"lodge/shared/failure"
)

func TestProvider_Init(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Session.TTL = 900

	provider := session.New(mockUsers, mockCache, cfg, mocks.NewOtel())

	tests := []struct {
		name      string
		userID    string
		setupMock func()
		want      session.Session
		wantCode  int
		wantErr   bool
	}{
		{
			name:   "cache hit",
			userID: "user-1",
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), "session:user-1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, value any) error {
						*value.(*session.Session) = session.Session{UserID: "user-1", Role: constant.RoleAdmin, Active: true}

						return nil
					})
			},
			want: session.Session{UserID: "user-1", Role: constant.RoleAdmin, Active: true},
		},
		{
			name:   "cache miss loads the account",
			userID: "user-2",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), "session:user-2", gomock.Any()).Return(cache.Nil)
				mockUsers.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(userModel.User{ID: "user-2", Email: "staff@lodge.test", Role: constant.RoleStaff, Active: true}, nil)
				mockCache.EXPECT().Save(gomock.Any(), "session:user-2", gomock.Any(), 900).Return(nil)
			},
			want: session.Session{UserID: "user-2", Email: "staff@lodge.test", Role: constant.RoleStaff, Active: true},
		},
		{
			name:   "unknown account",
			userID: "ghost",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				mockUsers.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusUnauthorized,
			wantErr:  true,
		},
		{
			name:      "empty user id",
			userID:    "",
			setupMock: func() {},
			wantCode:  http.StatusUnauthorized,
			wantErr:   true,
		},
		{
			name:   "store error",
			userID: "user-3",
			setupMock: func() {
				mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				mockUsers.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			got, err := provider.Init(context.Background(), tt.userID)
			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProvider_IsAdmin(t *testing.T) {
	tests := []struct {
		name    string
		session session.Session
		want    bool
	}{
		{name: "admin", session: session.Session{Role: constant.RoleAdmin, Active: true}, want: true},
		{name: "superadmin", session: session.Session{Role: constant.RoleSuperAdmin, Active: true}, want: true},
		{name: "staff", session: session.Session{Role: constant.RoleStaff, Active: true}, want: false},
		{name: "deactivated admin", session: session.Session{Role: constant.RoleAdmin}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockCache := cacheMocks.NewMockRedisCache(ctrl)

			provider := session.New(userMocks.NewMockUser(ctrl), mockCache, &config.Config{}, mocks.NewOtel())

			mockCache.EXPECT().
				Get(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, value any) error {
					*value.(*session.Session) = tt.session

					return nil
				}).
				Times(2)

			got, err := provider.IsAdmin(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			role, err := provider.Role(context.Background(), "user-1")
			require.NoError(t, err)

			if tt.session.Active {
				assert.Equal(t, tt.session.Role, role)
			} else {
				assert.Empty(t, role)
			}
		})
	}
}

func TestProvider_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	provider := session.New(userMocks.NewMockUser(ctrl), mockCache, &config.Config{}, mocks.NewOtel())

	mockCache.EXPECT().Delete(gomock.Any(), "session:user-1").Return(nil)
	assert.NoError(t, provider.Invalidate(context.Background(), "user-1"))

	mockCache.EXPECT().Delete(gomock.Any(), "session:user-1").Return(errors.New("redis down"))
	assert.Error(t, provider.Invalidate(context.Background(), "user-1"))
}
