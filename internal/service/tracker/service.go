package tracker

import (
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/pricebot-server/internal/config"
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/bcc"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/fetcher"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/kieskeurig"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/scraper"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
)

// Service 가격 추적기를 애플리케이션 생명주기에 연결하는 서비스입니다.
//
// 실제 사이클 실행은 Scheduler 서비스가 contract.CycleRunner 인터페이스를 통해
// 요청하며, API 서비스는 contract.ProductReader 인터페이스를 통해 추적 상태를 읽습니다.
type Service struct {
	appConfig *config.AppConfig

	sender contract.NotificationSender

	watchlistLoader WatchlistLoader

	tracker *Tracker
	metrics *Metrics

	running   bool
	runningMu sync.Mutex
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var (
	_ contract.CycleRunner   = (*Service)(nil)
	_ contract.ProductReader = (*Service)(nil)
)

// NewService 가격 추적 서비스를 생성합니다.
func NewService(appConfig *config.AppConfig, sender contract.NotificationSender) *Service {
	return &Service{
		appConfig: appConfig,

		sender: sender,

		watchlistLoader: &JSONWatchlistLoader{FilePath: appConfig.Tracker.WatchlistFile},

		metrics: NewMetrics(),

		running:   false,
		runningMu: sync.Mutex{},
	}
}

// SetWatchlistLoader 추적 대상 URL 목록 로더를 교체합니다. 테스트에서 사용합니다.
func (s *Service) SetWatchlistLoader(loader WatchlistLoader) {
	s.watchlistLoader = loader
}

// Start 추적 대상 URL 목록을 로드하고 가격 추적기를 초기화합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("Tracker 서비스 시작중...")

	if s.sender == nil {
		defer serviceStopWG.Done()
		return apperrors.New(apperrors.Internal, "NotificationSender 객체가 초기화되지 않았습니다")
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("Tracker 서비스가 이미 시작됨!!!")
		return nil
	}

	urls, err := s.watchlistLoader.Load()
	if err != nil {
		defer serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.Internal, "추적 대상 URL 목록 로드 중 에러가 발생했습니다")
	}
	if len(urls) == 0 {
		applog.WithComponent(component).Warn("추적 대상 URL이 없습니다. 사이클은 실행되지만 확인할 상품이 없습니다.")
	}

	f := fetcher.New(fetcher.Config{
		Timeout:    s.appConfig.Fetch.FetchTimeout(),
		MaxRetries: s.appConfig.Fetch.MaxRetries,
		RetryDelay: s.appConfig.Fetch.FetchRetryDelay(),
		UserAgents: userAgents(s.appConfig),
	})

	var crossRef CrossReferencer
	if s.appConfig.Tracker.Kieskeurig.Enabled {
		crossRef = kieskeurig.NewClient(f)
	}

	s.tracker = New(
		urls,
		&documentFetcher{fetcher: f},
		bcc.NewExtractor(),
		crossRef,
		s.sender,
		contract.NotifierID(s.appConfig.Tracker.PriceDropNotifierID),
		contract.NotifierID(s.appConfig.Tracker.OutOfStockNotifierID),
		s.metrics,
	)

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()

		applog.WithComponent(component).Info("Tracker 서비스 중지됨")
	}()

	s.running = true

	applog.WithComponent(component).Infof("Tracker 서비스 시작됨 (추적 대상 URL: %d개)", len(urls))

	return nil
}

// RunCycle 가격 확인 사이클을 1회 수행합니다.
func (s *Service) RunCycle(ctx context.Context) {
	s.runningMu.Lock()
	tracker := s.tracker
	running := s.running
	s.runningMu.Unlock()

	if !running || tracker == nil {
		applog.WithComponent(component).Warn("Tracker 서비스가 시작되지 않아 가격 확인 사이클을 수행할 수 없습니다.")
		return
	}

	tracker.RunCycle(ctx)
}

// TrackedProducts 현재 추적 중인 모든 URL의 상태 스냅샷을 반환합니다.
func (s *Service) TrackedProducts() []contract.TrackedProduct {
	s.runningMu.Lock()
	tracker := s.tracker
	s.runningMu.Unlock()

	if tracker == nil {
		return nil
	}

	return tracker.TrackedProducts()
}

// Metrics 추적 지표 컬렉터를 반환합니다. API 서비스의 /metrics 엔드포인트에서 사용합니다.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// userAgents 설정에 User-Agent가 지정된 경우 이를 단일 항목 목록으로 반환합니다.
// 지정되지 않은 경우 nil을 반환하여 fetcher의 기본 User-Agent 목록을 사용합니다.
func userAgents(appConfig *config.AppConfig) []string {
	if appConfig.Fetch.UserAgent == "" {
		return nil
	}
	return []string{appConfig.Fetch.UserAgent}
}

// documentFetcher scraper 패키지의 문서 로딩 기능을 DocumentFetcher 계약에 맞춰 감싼 어댑터입니다.
type documentFetcher struct {
	fetcher fetcher.Fetcher
}

func (d *documentFetcher) FetchHTMLDocument(ctx context.Context, url string) (*goquery.Document, error) {
	return scraper.FetchHTMLDocument(ctx, d.fetcher, url)
}
