package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/infras/jwt"
	jwtMocks "lodge/infras/jwt/mocks"
	otelMocks "lodge/infras/otel/mocks"
	"lodge/internal/domains/session"
	sessionMocks "lodge/internal/domains/session/mocks"
	"lodge/permissions"
	"lodge/shared/constant"
	"lodge/transport/http/middleware"
)

const apiKey = "internal-key"

type authFixture struct {
	jwt      *jwtMocks.MockJWT
	sessions *sessionMocks.MockProvider
	router   chi.Router
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.App.APIKey = apiKey

	perms := permissions.Get()
	require.NotNil(t, perms)

	f := authFixture{
		jwt:      jwtMocks.NewMockJWT(ctrl),
		sessions: sessionMocks.NewMockProvider(ctrl),
	}

	authRole := middleware.NewAuthRoleMiddleware(f.jwt, f.sessions, otelMocks.NewOtel(), perms, cfg)

	echoRole := func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(role))
	}

	router := chi.NewRouter()
	router.Route("/v1", func(group chi.Router) {
		group.Use(authRole.APIKey, authRole.Auth, authRole.RBAC)

		group.Route("/rooms", func(rooms chi.Router) {
			rooms.Get("/", echoRole)
			rooms.Post("/", echoRole)
		})

		group.Route("/bookings", func(bookings chi.Router) {
			bookings.Post("/{id}/approve", echoRole)
			bookings.Post("/{id}/check-in", echoRole)
		})

		group.Get("/auth/me", echoRole)
	})

	f.router = router

	return f
}

func (f authFixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)

	return recorder
}

func (f authFixture) signedIn(role string, active bool) {
	f.jwt.EXPECT().
		ValidateToken(gomock.Any(), "token", jwt.AccessToken).
		Return(&jwt.Claims{UserID: "user-1", Email: "desk@lodge.test", TokenID: "tok-1"}, nil)
	f.sessions.EXPECT().
		Init(gomock.Any(), "user-1").
		Return(session.Session{UserID: "user-1", Email: "desk@lodge.test", Role: role, Active: active}, nil)
}

var bearer = map[string]string{"Authorization": "Bearer token"}

func TestAuthRole(t *testing.T) {
	t.Run("public route needs no token", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.do(http.MethodGet, "/v1/rooms", nil)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.do(http.MethodPost, "/v1/rooms", nil)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().ValidateToken(gomock.Any(), "token", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)

		recorder := f.do(http.MethodPost, "/v1/rooms", bearer)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Token has expired")
	})

	t.Run("role comes from the live session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.signedIn(constant.RoleAdmin, true)

		recorder := f.do(http.MethodPost, "/v1/bookings/bkg-1/approve", bearer)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, constant.RoleAdmin, recorder.Body.String())
	})

	t.Run("staff cannot approve", func(t *testing.T) {
		f := newAuthFixture(t)
		f.signedIn(constant.RoleStaff, true)

		recorder := f.do(http.MethodPost, "/v1/bookings/bkg-1/approve", bearer)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("staff can check in", func(t *testing.T) {
		f := newAuthFixture(t)
		f.signedIn(constant.RoleStaff, true)

		recorder := f.do(http.MethodPost, "/v1/bookings/bkg-1/check-in", bearer)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("disabled account", func(t *testing.T) {
		f := newAuthFixture(t)
		f.signedIn(constant.RoleAdmin, false)

		recorder := f.do(http.MethodGet, "/v1/auth/me", bearer)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("session lookup failure", func(t *testing.T) {
		f := newAuthFixture(t)

		f.jwt.EXPECT().
			ValidateToken(gomock.Any(), "token", jwt.AccessToken).
			Return(&jwt.Claims{UserID: "user-1", Email: "desk@lodge.test"}, nil)
		f.sessions.EXPECT().Init(gomock.Any(), "user-1").Return(session.Session{}, errors.New("redis down"))

		recorder := f.do(http.MethodGet, "/v1/auth/me", bearer)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("api key acts as superadmin", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.do(http.MethodPost, "/v1/bookings/bkg-1/approve", map[string]string{"X-API-Key": apiKey})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, constant.RoleSuperAdmin, recorder.Body.String())
	})

	t.Run("wrong api key", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.do(http.MethodPost, "/v1/bookings/bkg-1/approve", map[string]string{"X-API-Key": "guess"})

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
