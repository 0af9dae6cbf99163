// Package scheduler 설정된 주기에 맞춰 가격 확인 사이클을 자동으로 실행하는 서비스를 제공합니다.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/darkkaiser/pricebot-server/internal/config"
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/pkg/cronx"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// Scheduler 설정 파일에 정의된 주기(TimeSpec)에 맞춰 가격 확인 사이클을 실행하는 서비스입니다.
type Scheduler struct {
	trackerConfig config.TrackerConfig

	cron *cron.Cron

	// cycleRunner 가격 확인 사이클 실행을 요청하는 인터페이스입니다.
	cycleRunner contract.CycleRunner

	// notificationSender 스케줄러 자체 오류를 관리자에게 알리기 위한 인터페이스입니다.
	notificationSender contract.NotificationSender

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(trackerConfig config.TrackerConfig, cycleRunner contract.CycleRunner, notificationSender contract.NotificationSender) *Scheduler {
	return &Scheduler{
		trackerConfig: trackerConfig,

		cycleRunner: cycleRunner,

		notificationSender: notificationSender,
	}
}

// Start 스케줄러를 시작하고 가격 확인 사이클을 Cron 엔진에 등록합니다.
//
// RunOnStart 설정이 켜져 있으면 첫 스케줄을 기다리지 않고 즉시 1회 실행합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Scheduler 서비스 시작중...")

	if s.cycleRunner == nil {
		serviceStopWG.Done()
		return ErrCycleRunnerNotInitialized
	}
	if s.notificationSender == nil {
		serviceStopWG.Done()
		return ErrNotificationSenderNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 시작됨!!!")
		return nil
	}

	// Cron 엔진 초기화
	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: Panic 발생 시 복구하여 엔진 전체가 중단되지 않도록 함
	// - SkipIfStillRunning: 이전 사이클이 끝나지 않았으면 다음 실행을 건너뜀
	s.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	runCycle := func() {
		// 사이클은 서비스 생명주기 컨텍스트에 묶어, 종료 시그널 수신 시
		// URL 순회 도중이라도 빠르게 중단될 수 있도록 한다.
		s.cycleRunner.RunCycle(serviceStopCtx)
	}

	if _, err := s.cron.AddFunc(s.trackerConfig.TimeSpec, runCycle); err != nil {
		serviceStopWG.Done()

		s.cron = nil

		message := fmt.Sprintf("스케줄 등록 실패: 잘못된 Cron 표현식입니다 (TimeSpec: '%s')", s.trackerConfig.TimeSpec)
		s.logAndNotifyError(message, err)

		return apperrors.Wrap(err, apperrors.InvalidInput, message)
	}

	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec":    s.trackerConfig.TimeSpec,
		"run_on_start": s.trackerConfig.RunOnStart,
	}).Info("Scheduler 서비스 시작됨")

	if s.trackerConfig.RunOnStart {
		applog.WithComponent(component).Info("시작 직후 1회 가격 확인 사이클을 실행합니다")
		go runCycle()
	}

	// 종료 신호 대기
	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 안전하게 중지합니다.
// 실행 중인 사이클이 있으면 완료될 때까지 대기합니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("Scheduler 서비스 중지중...")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 중지됨")
}

// logAndNotifyError 스케줄러 실행 중 발생한 오류를 로깅하고 관리자에게 알림을 전송합니다.
func (s *Scheduler) logAndNotifyError(message string, err error) {
	fields := applog.Fields{
		"time_spec": s.trackerConfig.TimeSpec,
	}
	if err != nil {
		fields["error"] = err

		message = fmt.Sprintf("%s: %v", message, err)
	}

	applog.WithComponentAndFields(component, fields).Error(message)

	if notifyErr := s.notificationSender.NotifyDefaultWithError(message); notifyErr != nil {
		applog.WithComponent(component).WithError(notifyErr).Error("스케줄러 오류 알림 발송이 실패하였습니다")
	}
}
