// Package notification 여러 알림 채널(텔레그램, 디스코드)을 통합 관리하고
// 알림 발송 요청을 적절한 채널로 라우팅하는 서비스를 제공합니다.
package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/darkkaiser/pricebot-server/internal/config"
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/internal/pkg/mark"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier/discord"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier/telegram"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	log "github.com/sirupsen/logrus"
)

const component = "notification.service"

// NotifierFactory 설정으로부터 Notifier 목록을 생성하는 함수 타입입니다.
// 테스트에서 실제 외부 API 연결 없이 가짜 Notifier를 주입할 수 있도록 분리되었습니다.
type NotifierFactory func(appConfig *config.AppConfig) ([]notifier.Notifier, error)

// 컴파일 타임 인터페이스 구현 검증
var (
	_ contract.NotificationSender        = (*Service)(nil)
	_ contract.NotificationHealthChecker = (*Service)(nil)
)

// Service 알림 발송 서비스입니다.
//
// 설정에 정의된 모든 Notifier를 생성하여 각각 독립된 고루틴에서 실행하고,
// 클라이언트의 발송 요청을 NotifierID에 따라 해당 채널로 라우팅합니다.
type Service struct {
	appConfig *config.AppConfig

	notifiers       []notifier.Notifier
	defaultNotifier notifier.Notifier

	notifierFactory NotifierFactory

	// notifiersStopWG 모든 하위 Notifier의 종료를 대기하는 WaitGroup
	notifiersStopWG *sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Notification 서비스를 생성합니다.
func NewService(appConfig *config.AppConfig) *Service {
	return &Service{
		appConfig: appConfig,

		defaultNotifier: nil,

		notifierFactory: createNotifiers,

		notifiersStopWG: &sync.WaitGroup{},

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// SetNotifierFactory Notifier 생성 함수를 교체합니다. 테스트 용도로 사용합니다.
func (s *Service) SetNotifierFactory(factory NotifierFactory) {
	s.notifierFactory = factory
}

// createNotifiers 설정 파일에 정의된 모든 알림 채널의 Notifier를 생성합니다.
func createNotifiers(appConfig *config.AppConfig) ([]notifier.Notifier, error) {
	var notifiers []notifier.Notifier

	for _, cfg := range appConfig.Notifiers.Telegrams {
		n, err := telegram.New(cfg)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}

	for _, cfg := range appConfig.Notifiers.Discords {
		notifiers = append(notifiers, discord.New(cfg))
	}

	return notifiers, nil
}

// Start 알림 서비스를 시작하여 등록된 Notifier들을 활성화합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Notification 서비스 시작중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("Notification 서비스가 이미 시작됨!!!")
		return nil
	}

	// 1. Notifier들을 초기화 및 실행
	notifiers, err := s.notifierFactory(s.appConfig)
	if err != nil {
		defer serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.Internal, "Notifier 초기화 중 에러가 발생했습니다")
	}

	defaultNotifierID := contract.NotifierID(s.appConfig.Notifiers.DefaultNotifierID)

	for _, n := range notifiers {
		s.notifiers = append(s.notifiers, n)

		if n.ID() == defaultNotifierID {
			s.defaultNotifier = n
		}

		s.notifiersStopWG.Add(1)

		go func(n notifier.Notifier) {
			defer s.notifiersStopWG.Done()
			n.Run(serviceStopCtx)
		}(n)

		applog.WithComponentAndFields(component, log.Fields{
			"notifier_id": n.ID(),
		}).Debug("Notifier가 Notification 서비스에 등록됨")
	}

	// 2. 기본 Notifier 존재 여부 확인
	if s.defaultNotifier == nil {
		defer serviceStopWG.Done()
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 NotifierID('%s')를 찾을 수 없습니다", s.appConfig.Notifiers.DefaultNotifierID))
	}

	// 3. 서비스 종료 감시 루틴 실행
	go s.waitForShutdown(serviceStopCtx, serviceStopWG)

	s.running = true

	applog.WithComponent(component).Info("Notification 서비스 시작됨")

	return nil
}

// waitForShutdown 서비스의 종료 신호를 감지하고 리소스를 안전하게 정리합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	<-serviceStopCtx.Done()

	applog.WithComponent(component).Info("Notification 서비스 중지중...")

	// 등록된 모든 Notifier의 고루틴 작업이 완료(종료)될 때까지 대기합니다.
	s.notifiersStopWG.Wait()

	s.runningMu.Lock()
	s.running = false
	s.notifiers = nil
	s.defaultNotifier = nil
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("Notification 서비스 중지됨")
}

// Notify 지정된 Notifier를 통해 알림 메시지를 발송합니다.
//
// 등록되지 않은 NotifierID가 요청된 경우, 발송 실패 사실을 기본 채널로
// 에러 알림을 보내어 관리자가 설정 오류를 인지할 수 있게 합니다.
func (s *Service) Notify(notifierID contract.NotifierID, message string) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		applog.WithComponentAndFields(component, log.Fields{
			"notifier_id": notifierID,
		}).Warn("Notification 서비스가 실행 중이 아니어서 메시지를 전송할 수 없습니다")
		return ErrServiceNotRunning
	}

	for _, n := range s.notifiers {
		if n.ID() == notifierID {
			return n.Notify(message)
		}
	}

	m := fmt.Sprintf("알 수 없는 Notifier('%s')입니다. 알림메시지 발송이 실패하였습니다.(Message:%s)", notifierID, message)

	applog.WithComponentAndFields(component, log.Fields{
		"notifier_id": notifierID,
	}).Error(m)

	if err := s.defaultNotifier.Notify(mark.Alert.String() + " " + m); err != nil {
		applog.WithComponent(component).WithError(err).Error("기본 채널로의 에러 알림 발송이 실패하였습니다")
	}

	return ErrNotifierNotFound
}

// NotifyDefault 시스템 기본 알림 채널로 알림 메시지를 발송합니다.
func (s *Service) NotifyDefault(message string) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.defaultNotifier == nil {
		applog.WithComponent(component).Warn("Notification 서비스가 중지된 상태여서 메시지를 전송할 수 없습니다")
		return ErrServiceNotRunning
	}

	return s.defaultNotifier.Notify(message)
}

// NotifyDefaultWithError 시스템 기본 알림 채널로 "에러" 알림 메시지를 발송합니다.
// 시스템 오류 등 관리자의 주의가 필요한 상황에서 사용합니다.
func (s *Service) NotifyDefaultWithError(message string) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.defaultNotifier == nil {
		applog.WithComponent(component).Warn("Notification 서비스가 중지된 상태여서 에러 메시지를 전송할 수 없습니다")
		return ErrServiceNotRunning
	}

	return s.defaultNotifier.Notify(mark.Alert.String() + " " + message)
}

// SupportsHTML 해당 Notifier가 HTML 포맷을 지원하는지 확인합니다.
func (s *Service) SupportsHTML(notifierID contract.NotifierID) bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	for _, n := range s.notifiers {
		if n.ID() == notifierID {
			return n.SupportsHTML()
		}
	}

	return false
}

// Health 서비스가 정상적으로 실행 중인지 확인합니다.
func (s *Service) Health() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return ErrServiceNotRunning
	}

	return nil
}
