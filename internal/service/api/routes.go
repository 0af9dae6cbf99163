package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes API 엔드포인트를 Echo 인스턴스에 등록합니다.
func setupRoutes(e *echo.Echo, handler *Handler, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Healthz)

	v1 := e.Group("/api/v1")
	v1.GET("/products", handler.Products)

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
