package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeProductReader 고정된 상품 목록을 반환하는 contract.ProductReader 구현체입니다.
type fakeProductReader struct {
	products []contract.TrackedProduct
}

func (f *fakeProductReader) TrackedProducts() []contract.TrackedProduct {
	return f.products
}

// fakeHealthChecker 지정된 에러를 반환하는 contract.NotificationHealthChecker 구현체입니다.
type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) Health() error {
	return f.err
}

func doRequest(t *testing.T, handler *Handler, method, target string, route func(e *echo.Echo, h *Handler)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	route(e, handler)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()

	t.Run("정상 상태에서는 200을 반환한다", func(t *testing.T) {
		t.Parallel()

		handler := NewHandler(&fakeProductReader{}, &fakeHealthChecker{})

		rec := doRequest(t, handler, http.MethodGet, "/healthz", func(e *echo.Echo, h *Handler) {
			e.GET("/healthz", h.Healthz)
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
	})

	t.Run("알림 서비스가 비정상이면 503을 반환한다", func(t *testing.T) {
		t.Parallel()

		handler := NewHandler(&fakeProductReader{}, &fakeHealthChecker{err: assert.AnError})

		rec := doRequest(t, handler, http.MethodGet, "/healthz", func(e *echo.Echo, h *Handler) {
			e.GET("/healthz", h.Healthz)
		})

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unavailable", gjson.Get(rec.Body.String(), "status").String())
		assert.NotEmpty(t, gjson.Get(rec.Body.String(), "reason").String())
	})

	t.Run("HealthChecker가 없으면 200을 반환한다", func(t *testing.T) {
		t.Parallel()

		handler := NewHandler(&fakeProductReader{}, nil)

		rec := doRequest(t, handler, http.MethodGet, "/healthz", func(e *echo.Echo, h *Handler) {
			e.GET("/healthz", h.Healthz)
		})

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestProductsHandler(t *testing.T) {
	t.Parallel()

	t.Run("추적 중인 상품 목록을 반환한다", func(t *testing.T) {
		t.Parallel()

		checkedAt := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		reader := &fakeProductReader{
			products: []contract.TrackedProduct{
				{
					URL: "https://www.bcc.nl/product/123456",
					Product: &contract.Product{
						Title: "Koelkast",
						Price: 499.99,
						EAN:   "8710103951330",
					},
					OutOfStock: false,
					CheckedAt:  checkedAt,
				},
				{
					URL:        "https://www.bcc.nl/product/654321",
					OutOfStock: true,
				},
			},
		}

		handler := NewHandler(reader, &fakeHealthChecker{})

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/products", func(e *echo.Echo, h *Handler) {
			e.GET("/api/v1/products", h.Products)
		})

		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Equal(t, int64(2), gjson.Get(body, "count").Int())
		assert.Equal(t, "Koelkast", gjson.Get(body, "products.0.product.title").String())
		assert.Equal(t, 499.99, gjson.Get(body, "products.0.product.price").Float())
		assert.False(t, gjson.Get(body, "products.0.out_of_stock").Bool())
		assert.True(t, gjson.Get(body, "products.1.out_of_stock").Bool())
		assert.False(t, gjson.Get(body, "products.1.product").Exists())
	})

	t.Run("추적 중인 상품이 없으면 빈 배열을 반환한다", func(t *testing.T) {
		t.Parallel()

		handler := NewHandler(&fakeProductReader{}, &fakeHealthChecker{})

		rec := doRequest(t, handler, http.MethodGet, "/api/v1/products", func(e *echo.Echo, h *Handler) {
			e.GET("/api/v1/products", h.Products)
		})

		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Equal(t, int64(0), gjson.Get(body, "count").Int())
		assert.True(t, gjson.Get(body, "products").IsArray())
	})
}
