// Package api 추적 상태 조회용 REST API 서버의 생명주기를 관리합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/config"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const component = "api.service"

// shutdownTimeout Graceful Shutdown 시 최대 대기 시간
const shutdownTimeout = 5 * time.Second

// Service 상태 조회용 REST API 서버 서비스입니다.
//
// 다음 엔드포인트를 제공합니다:
//   - GET /healthz         애플리케이션 헬스체크
//   - GET /api/v1/products 추적 중인 상품 목록 조회
//   - GET /metrics         Prometheus 메트릭
type Service struct {
	appConfig *config.AppConfig

	productReader contract.ProductReader
	healthChecker contract.NotificationHealthChecker

	notificationSender contract.NotificationSender

	// metricsGatherer /metrics 엔드포인트가 노출할 메트릭 소스입니다. nil이면 엔드포인트를 등록하지 않습니다.
	metricsGatherer prometheus.Gatherer

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 API 서비스 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, productReader contract.ProductReader, healthChecker contract.NotificationHealthChecker, notificationSender contract.NotificationSender, metricsGatherer prometheus.Gatherer) *Service {
	return &Service{
		appConfig: appConfig,

		productReader: productReader,
		healthChecker: healthChecker,

		notificationSender: notificationSender,

		metricsGatherer: metricsGatherer,

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// Start API 서버를 시작합니다.
// 설정에서 API가 비활성화되어 있으면 아무 일도 하지 않고 정상 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("API 서비스 시작중...")

	if !s.appConfig.API.Enabled {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Info("API 서비스가 설정에서 비활성화되어 있어 시작하지 않습니다")
		return nil
	}

	if s.productReader == nil {
		defer serviceStopWG.Done()
		return ErrProductReaderNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("API 서비스가 이미 시작됨!!!")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"listen_port": s.appConfig.API.ListenPort,
	}).Info("API 서비스 시작됨")

	return nil
}

// runServiceLoop 서버 설정, HTTP 서버 시작, Shutdown 대기를 순차적으로 수행합니다.
func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := newHTTPServer(s.appConfig.Debug)
	setupRoutes(e, NewHandler(s.productReader, s.healthChecker), s.metricsGatherer)

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// startHTTPServer HTTP 서버를 시작합니다. 서버가 종료될 때까지 블로킹됩니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	applog.WithComponentAndFields(component, applog.Fields{
		"listen_port": s.appConfig.API.ListenPort,
	}).Debug("HTTP 서버 시작중...")

	s.handleServerError(e.Start(fmt.Sprintf(":%d", s.appConfig.API.ListenPort)))
}

// handleServerError HTTP 서버 종료 시 반환된 에러를 처리합니다.
//
// http.ErrServerClosed는 Graceful Shutdown의 정상 경로이므로 로그만 남기고,
// 그 외의 에러(포트 바인딩 실패 등)는 관리자에게 알림을 전송합니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(component).Info("HTTP 서버 중지됨")
		return
	}

	message := "API 서버 실행 중 예상치 못한 에러가 발생하였습니다"
	applog.WithComponentAndFields(component, applog.Fields{
		"listen_port": s.appConfig.API.ListenPort,
		"error":       err,
	}).Error(message)

	if s.notificationSender != nil {
		if notifyErr := s.notificationSender.NotifyDefaultWithError(fmt.Sprintf("%s: %v", message, err)); notifyErr != nil {
			applog.WithComponent(component).WithError(notifyErr).Error("API 서버 에러 알림 발송이 실패하였습니다")
		}
	}
}

// waitForShutdown 종료 신호를 대기하고 Graceful Shutdown을 수행합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("API 서비스 중지중...")

	case <-httpServerDone:
		// HTTP 서버가 예기치 않게 종료됨 (포트 바인딩 실패 등)
		applog.WithComponent(component).Error("HTTP 서버가 예기치 않게 종료되어 API 서비스를 중지합니다")

		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 Shutdown 중 에러가 발생하였습니다")
	}

	<-httpServerDone

	s.cleanup()
}

// cleanup 서비스 종료 후 상태를 정리합니다.
func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("API 서비스 중지됨")
}
