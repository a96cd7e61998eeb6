package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/courseloop-backend/pkg/config"
)

func testRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{
		Secret:            "test-secret-test-secret",
		Issuer:            "courseloop-test",
		ExpirationMinutes: 15,
	}
	return NewRouter(Params{
		Config:          cfg,
		MetricsGatherer: prometheus.NewRegistry(),
	})
}

func TestRouterHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-CourseLoop-Env"))
}

func TestRouterMetricsExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/courses/00000000-0000-0000-0000-000000000001/enroll"},
		{http.MethodGet, "/api/v1/enrollments"},
		{http.MethodPost, "/api/v1/learning/lessons/00000000-0000-0000-0000-000000000001/complete"},
		{http.MethodGet, "/api/v1/learning/courses/00000000-0000-0000-0000-000000000001/progress"},
	}
	router := testRouter()

	for _, tc := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestRouterVNPayIPNAlwaysAnswers200(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/vnpay/ipn?vnp_TxnRef=X", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "99", ack["RspCode"])
}

func TestRouterUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
