package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRoutes(t *testing.T) {
	t.Parallel()

	t.Run("등록된 엔드포인트가 응답한다", func(t *testing.T) {
		t.Parallel()

		registry := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricebot_test_total",
			Help: "테스트용 카운터",
		})
		require.NoError(t, registry.Register(counter))
		counter.Inc()

		e := newHTTPServer(false)
		setupRoutes(e, NewHandler(&fakeProductReader{}, &fakeHealthChecker{}), registry)

		testCases := []struct {
			name   string
			target string
		}{
			{name: "헬스체크", target: "/healthz"},
			{name: "상품 목록", target: "/api/v1/products"},
			{name: "메트릭", target: "/metrics"},
		}

		for _, tc := range testCases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, tc.target, nil)
				rec := httptest.NewRecorder()
				e.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusOK, rec.Code)
			})
		}
	})

	t.Run("메트릭 엔드포인트는 등록된 메트릭을 노출한다", func(t *testing.T) {
		t.Parallel()

		registry := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricebot_cycles_total",
			Help: "테스트용 카운터",
		})
		require.NoError(t, registry.Register(counter))
		counter.Inc()

		e := newHTTPServer(false)
		setupRoutes(e, NewHandler(&fakeProductReader{}, &fakeHealthChecker{}), registry)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pricebot_cycles_total 1")
	})

	t.Run("Gatherer가 없으면 메트릭 엔드포인트를 등록하지 않는다", func(t *testing.T) {
		t.Parallel()

		e := newHTTPServer(false)
		setupRoutes(e, NewHandler(&fakeProductReader{}, &fakeHealthChecker{}), nil)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
