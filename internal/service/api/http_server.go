package api

import (
	"time"

	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// defaultReadHeaderTimeout 요청 헤더 읽기 제한 시간
	defaultReadHeaderTimeout = 5 * time.Second

	// defaultReadTimeout 요청 본문 읽기 제한 시간
	defaultReadTimeout = 10 * time.Second

	// defaultWriteTimeout 응답 쓰기 제한 시간
	defaultWriteTimeout = 30 * time.Second

	// defaultIdleTimeout Keep-Alive 연결 유휴 제한 시간
	defaultIdleTimeout = 60 * time.Second
)

// newHTTPServer 공통 미들웨어가 적용된 Echo 인스턴스를 생성합니다.
//
// 라우트 설정은 포함되지 않으며, 반환된 Echo 인스턴스에 별도로 설정해야 합니다.
func newHTTPServer(debug bool) *echo.Echo {
	e := echo.New()

	e.Debug = debug
	e.HideBanner = true
	e.HidePort = true

	// 보안 및 리소스 관리를 위한 HTTP 서버 타임아웃 설정
	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	// 미들웨어 적용 (순서 중요: Panic 복구가 가장 먼저)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())

	return e
}

// requestLogger HTTP 요청/응답을 애플리케이션 로거로 기록하는 미들웨어를 반환합니다.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			applog.WithComponentAndFields(component, applog.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"remote_ip":  v.RemoteIP,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}).Info("HTTP 요청 처리됨")
			return nil
		},
	})
}
