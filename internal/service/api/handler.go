package api

import (
	"net/http"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/labstack/echo/v4"
)

// Handler 상태 조회 API의 핸들러입니다.
type Handler struct {
	productReader contract.ProductReader
	healthChecker contract.NotificationHealthChecker
}

// NewHandler 새로운 Handler 인스턴스를 생성합니다.
func NewHandler(productReader contract.ProductReader, healthChecker contract.NotificationHealthChecker) *Handler {
	return &Handler{
		productReader: productReader,
		healthChecker: healthChecker,
	}
}

// healthResponse 헬스체크 응답 본문입니다.
type healthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// productsResponse 추적 상품 목록 응답 본문입니다.
type productsResponse struct {
	Count    int                       `json:"count"`
	Products []contract.TrackedProduct `json:"products"`
}

// Healthz 애플리케이션의 상태를 반환합니다.
// 알림 서비스가 동작하지 않는 경우 503을 반환하여 외부 모니터링이 이상을 감지할 수 있게 합니다.
func (h *Handler) Healthz(c echo.Context) error {
	if h.healthChecker != nil {
		if err := h.healthChecker.Health(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthResponse{
				Status: "unavailable",
				Reason: err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// Products 추적 중인 모든 상품의 현재 상태를 반환합니다.
func (h *Handler) Products(c echo.Context) error {
	products := h.productReader.TrackedProducts()
	if products == nil {
		products = []contract.TrackedProduct{}
	}

	return c.JSON(http.StatusOK, productsResponse{
		Count:    len(products),
		Products: products,
	})
}
