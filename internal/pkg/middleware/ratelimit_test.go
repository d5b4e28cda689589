package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"impar/internal/pkg/cache"
	"impar/internal/pkg/middleware"
)

// MockCache é o mock da interface cache.Client.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) GetInt(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Incr(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type testCtxKey string

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// TestRateLimiter_FirstRequestPasses a primeira requisição de um IP inicia o
// contador e passa.
func TestRateLimiter_FirstRequestPasses(t *testing.T) {
	cacheClient := new(MockCache)
	cacheClient.On("GetInt", mock.Anything, "rate-limit:192.0.2.1").Return(0, cache.ErrCacheMiss)
	cacheClient.On("Set", mock.Anything, "rate-limit:192.0.2.1", 1, time.Minute).Return(nil)

	limiter := middleware.RateLimiter(cacheClient, 10, time.Minute)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	rec := httptest.NewRecorder()

	limiter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	cacheClient.AssertExpectations(t)
}

// TestRateLimiter_BlocksOverLimit contador no limite devolve 429 sem incrementar.
func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	cacheClient := new(MockCache)
	cacheClient.On("GetInt", mock.Anything, "rate-limit:192.0.2.1").Return(10, nil)

	limiter := middleware.RateLimiter(cacheClient, 10, time.Minute)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	rec := httptest.NewRecorder()

	limiter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	cacheClient.AssertNotCalled(t, "Incr", mock.Anything, mock.Anything)
}

// TestRateLimiter_UsesRequestContext as chamadas ao cache correm no contexto
// da requisição, não num contexto solto.
func TestRateLimiter_UsesRequestContext(t *testing.T) {
	cacheClient := new(MockCache)

	var seen context.Context
	cacheClient.On("GetInt", mock.Anything, "rate-limit:192.0.2.1").
		Run(func(args mock.Arguments) { seen = args.Get(0).(context.Context) }).
		Return(3, nil)
	cacheClient.On("Incr", mock.Anything, "rate-limit:192.0.2.1").Return(nil)

	limiter := middleware.RateLimiter(cacheClient, 10, time.Minute)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	req = req.WithContext(context.WithValue(req.Context(), testCtxKey("marker"), "presente"))
	rec := httptest.NewRecorder()

	limiter.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, "presente", seen.Value(testCtxKey("marker")))
	}
}
