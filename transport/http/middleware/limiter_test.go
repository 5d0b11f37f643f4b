package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"lodge/config"
	"lodge/shared/cache"
	cacheMocks "lodge/shared/cache/mocks"
)

func limited(t *testing.T, maxRequests int) (*appMiddleware, *cacheMocks.MockRedisCache) {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = true
	cfg.App.RateLimiter.MaxRequests = maxRequests
	cfg.App.RateLimiter.WindowSeconds = 60

	store := cacheMocks.NewMockRedisCache(gomock.NewController(t))

	return &appMiddleware{config: cfg, cache: store}, store
}

func serve(a *appMiddleware) (*httptest.ResponseRecorder, *bool) {
	called := false
	handler := a.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
	request.RemoteAddr = "10.0.0.7:51234"

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	return recorder, &called
}

func TestRateLimit(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		a := &appMiddleware{config: &config.Config{}}

		recorder, called := serve(a)

		assert.True(t, *called)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("first request in window", func(t *testing.T) {
		a, store := limited(t, 3)

		store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		store.EXPECT().
			Save(gomock.Any(), gomock.Any(), 1, gomock.Any()).
			DoAndReturn(func(_ context.Context, key string, _ any, duration int) error {
				assert.True(t, strings.HasPrefix(key, "limiter:10.0.0.7:"))
				assert.Positive(t, duration)
				assert.LessOrEqual(t, duration, 60)

				return nil
			})

		recorder, called := serve(a)

		assert.True(t, *called)
		assert.Equal(t, "3", recorder.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "2", recorder.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("over the limit", func(t *testing.T) {
		a, store := limited(t, 3)

		store.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				*value.(*int) = 3

				return nil
			})

		recorder, called := serve(a)

		assert.False(t, *called)
		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
	})

	t.Run("cache down lets the request through", func(t *testing.T) {
		a, store := limited(t, 3)

		store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		recorder, called := serve(a)

		assert.True(t, *called)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	a := &appMiddleware{}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.168.1.4:8080"
	assert.Equal(t, "192.168.1.4", a.getClientIP(request))

	request.Header.Set("X-Real-IP", " 172.16.0.2 ")
	assert.Equal(t, "172.16.0.2", a.getClientIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", a.getClientIP(request))
}
