package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"lodge/config"
	"lodge/infras/jwt"
	jwtMocks "lodge/infras/jwt/mocks"
	"lodge/infras/otel/mocks"
	"lodge/internal/domains/auth/model/dto"
	"lodge/internal/domains/auth/service"
	"lodge/internal/domains/session"
	sessionMocks "lodge/internal/domains/session/mocks"
	userMocks "lodge/internal/domains/user/mocks"
	userModel "lodge/internal/domains/user/model"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/failure"
	"lodge/shared/password"
)

// bcrypt of "password"
const passwordHash = "$2a$10$92IXUNpkjO0rOQ5byMi.Ye4oKoEa3Ro9llC/.og/at2.uheWG/igi"

type fixture struct {
	t        *testing.T
	users    *userMocks.MockUser
	sessions *sessionMocks.MockProvider
	jwt      *jwtMocks.MockJWT
	svc      service.Auth
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		t:        t,
		users:    userMocks.NewMockUser(ctrl),
		sessions: sessionMocks.NewMockProvider(ctrl),
		jwt:      jwtMocks.NewMockJWT(ctrl),
	}

	f.svc = service.New(f.users, f.sessions, &config.Config{}, mocks.NewOtel(), f.jwt)

	return f
}

func admin() userModel.User {
	return userModel.User{
		ID:       "user-1",
		Email:    "admin@lodge.test",
		Password: passwordHash,
		Role:     constant.RoleAdmin,
		Active:   true,
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Run("first account", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
		f.users.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user userModel.User) error {
				assert.Equal(t, constant.RoleSuperAdmin, user.Role)
				assert.NoError(t, password.Verify("correct-horse", user.Password))

				return nil
			})

		assert.NoError(t, f.svc.Register(context.Background(), dto.RegisterRequest{Email: "owner@lodge.test", Password: "correct-horse"}))
	})

	t.Run("closed once an account exists", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)

		err := f.svc.Register(context.Background(), dto.RegisterRequest{Email: "owner@lodge.test", Password: "correct-horse"})
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.LoginRequest
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "successful login",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(admin(), nil)
				f.jwt.EXPECT().
					GenerateTokenPair(gomock.Any(), "user-1", "admin@lodge.test", constant.RoleAdmin).
					Return(&jwt.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}, nil)
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.sessions.EXPECT().Invalidate(gomock.Any(), "user-1").Return(nil)
			},
		},
		{
			name: "last login failure does not block",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(admin(), nil)
				f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&jwt.TokenPair{AccessToken: "access"}, nil)
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
				f.sessions.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "low cost hash is upgraded",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				cheap, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
				require.NoError(f.t, err)

				user := admin()
				user.Password = string(cheap)

				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&jwt.TokenPair{AccessToken: "access"}, nil)
				f.users.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				f.users.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						hashed, ok := fields["password"].(string)
						require.True(f.t, ok)
						assert.False(f.t, password.NeedsRehash(hashed))

						return nil
					})
				f.sessions.EXPECT().Invalidate(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "unknown email",
			req:  dto.LoginRequest{Email: "nobody@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusUnauthorized,
			wantErr:  true,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "guess"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(admin(), nil)
			},
			wantCode: http.StatusUnauthorized,
			wantErr:  true,
		},
		{
			name: "deactivated",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				user := admin()
				user.Active = false

				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
			},
			wantCode: http.StatusForbidden,
			wantErr:  true,
		},
		{
			name: "store error",
			req:  dto.LoginRequest{Email: "admin@lodge.test", Password: "password"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("db down"))
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Login(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "access", res.AccessToken)
			assert.Equal(t, "user-1", res.User.ID)
			assert.NotEmpty(t, res.User.LastLogin)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "active account",
			setupMock: func(f fixture) {
				f.jwt.EXPECT().
					RefreshTokens(gomock.Any(), "refresh").
					Return(&jwt.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, &jwt.Claims{UserID: "user-1"}, nil)
				f.sessions.EXPECT().Init(gomock.Any(), "user-1").Return(session.Session{UserID: "user-1", Active: true}, nil)
			},
		},
		{
			name: "invalid token",
			setupMock: func(f fixture) {
				f.jwt.EXPECT().RefreshTokens(gomock.Any(), "refresh").Return(nil, nil, jwt.ErrExpiredToken)
			},
			wantCode: http.StatusUnauthorized,
			wantErr:  true,
		},
		{
			name: "deactivated since issue",
			setupMock: func(f fixture) {
				f.jwt.EXPECT().
					RefreshTokens(gomock.Any(), "refresh").
					Return(&jwt.TokenPair{}, &jwt.Claims{UserID: "user-1"}, nil)
				f.sessions.EXPECT().Init(gomock.Any(), "user-1").Return(session.Session{UserID: "user-1"}, nil)
			},
			wantCode: http.StatusForbidden,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "refresh"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "new-access", res.AccessToken)
			assert.Equal(t, "new-refresh", res.RefreshToken)
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

	tests := []struct {
		name      string
		ctx       context.Context
		req       dto.ChangePasswordRequest
		setupMock func(f fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "changed",
			ctx:  ctx,
			req:  dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "correct-horse"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(admin(), nil)
				f.users.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						hash, _ := fields[userModel.FieldPassword].(string)
						assert.NoError(t, password.Verify("correct-horse", hash))
						assert.Equal(t, "user-1", fields[constant.FieldModifiedBy])

						return nil
					})
			},
		},
		{
			name: "wrong current password",
			ctx:  ctx,
			req:  dto.ChangePasswordRequest{CurrentPassword: "guess", NewPassword: "correct-horse"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(admin(), nil)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  true,
		},
		{
			name:      "no user in context",
			ctx:       context.Background(),
			req:       dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "correct-horse"},
			setupMock: func(f fixture) {},
			wantCode:  http.StatusUnauthorized,
			wantErr:   true,
		},
		{
			name: "account gone",
			ctx:  ctx,
			req:  dto.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "correct-horse"},
			setupMock: func(f fixture) {
				f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: http.StatusNotFound,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			err := f.svc.ChangePassword(tt.ctx, tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

	f.sessions.EXPECT().
		Init(gomock.Any(), "user-1").
		Return(session.Session{UserID: "user-1", Email: "admin@lodge.test", Role: constant.RoleAdmin, Active: true}, nil)

	res, err := f.svc.Me(ctx)
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)
	assert.Equal(t, constant.RoleAdmin, res.Role)
}
