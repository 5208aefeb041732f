package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/auth"
	"github.com/zvrva/transferbooking/internal/domain"
	"github.com/zvrva/transferbooking/internal/ratelimit"
	"github.com/zvrva/transferbooking/internal/service/booking"
)

type stubUseCase struct{}

func (stubUseCase) Submit(ctx context.Context, input booking.SubmitInput) (*booking.SubmitResult, error) {
	return nil, &domain.ValidationError{Fields: map[string]string{"customer_name": "customer name is required"}}
}

func (stubUseCase) Decide(ctx context.Context, tokenValue string, kind domain.DecisionKind) (*booking.DecisionResult, error) {
	return nil, domain.ErrTokenNotFound
}

type stubKV struct{}

func (stubKV) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (stubKV) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{RateLimit: config.RateLimitConfig{Limit: 100, WindowSeconds: 60}}
	authenticator := auth.New(config.AuthConfig{Mode: auth.ModeSecret, Secret: "api-secret"}, log)
	limiter := ratelimit.NewLimiter(stubKV{}, log)

	return NewRouter(cfg, stubUseCase{}, authenticator, limiter, log)
}

func TestNewRouter_MethodNotAllowed(t *testing.T) {
	router := testRouter()

	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/booking"},
		{"PUT", "/booking"},
		{"POST", "/health"},
		{"POST", "/accept/token123"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Contains(t, w.Body.String(), "method not allowed")
		})
	}
}

func TestNewRouter_Health(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRouter_DecisionRoutesSkipAuth(t *testing.T) {
	router := testRouter()

	// No credential header; the decision route must still reach the service.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/accept/unknown-token", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
