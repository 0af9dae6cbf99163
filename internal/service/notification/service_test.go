package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/config"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultNotifierID   = contract.NotifierID("main-channel")
	secondaryNotifierID = contract.NotifierID("out-of-stock-channel")
)

// fakeNotifier Notify 호출을 기록하는 notifier.Notifier 구현체입니다.
type fakeNotifier struct {
	id           contract.NotifierID
	supportsHTML bool

	mu       sync.Mutex
	messages []string
}

var _ notifier.Notifier = (*fakeNotifier)(nil)

func (f *fakeNotifier) ID() contract.NotifierID {
	return f.id
}

func (f *fakeNotifier) Run(ctx context.Context) {
	<-ctx.Done()
}

func (f *fakeNotifier) Notify(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) SupportsHTML() bool {
	return f.supportsHTML
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func newTestAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Notifiers: config.NotifierConfig{
			DefaultNotifierID: string(defaultNotifierID),
		},
	}
}

// startTestService 가짜 Notifier들이 주입된 서비스의 구동을 돕는 헬퍼입니다.
// 반환된 cancel/wg는 서비스 종료에 사용합니다.
func startTestService(t *testing.T, notifiers ...notifier.Notifier) (*Service, context.CancelFunc, *sync.WaitGroup) {
	t.Helper()

	s := NewService(newTestAppConfig())
	s.SetNotifierFactory(func(appConfig *config.AppConfig) ([]notifier.Notifier, error) {
		return notifiers, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)

	require.NoError(t, s.Start(ctx, wg))

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return s, cancel, wg
}

func TestServiceStartAndStop(t *testing.T) {
	t.Parallel()

	s, cancel, wg := startTestService(t, &fakeNotifier{id: defaultNotifierID})

	assert.NoError(t, s.Health())

	cancel()
	wg.Wait()

	assert.ErrorIs(t, s.Health(), ErrServiceNotRunning)
}

func TestServiceStartFailsWithoutDefaultNotifier(t *testing.T) {
	t.Parallel()

	s := NewService(newTestAppConfig())
	s.SetNotifierFactory(func(appConfig *config.AppConfig) ([]notifier.Notifier, error) {
		return []notifier.Notifier{&fakeNotifier{id: secondaryNotifierID}}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := &sync.WaitGroup{}
	wg.Add(1)

	err := s.Start(ctx, wg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "기본 NotifierID")

	cancel()
	wg.Wait()
}

func TestServiceStartFailsWhenFactoryFails(t *testing.T) {
	t.Parallel()

	s := NewService(newTestAppConfig())
	s.SetNotifierFactory(func(appConfig *config.AppConfig) ([]notifier.Notifier, error) {
		return nil, assert.AnError
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg := &sync.WaitGroup{}
	wg.Add(1)

	require.Error(t, s.Start(ctx, wg))

	wg.Wait()
}

func TestServiceDuplicateStartIsIgnored(t *testing.T) {
	t.Parallel()

	s, cancel, wg := startTestService(t, &fakeNotifier{id: defaultNotifierID})

	wg.Add(1)
	assert.NoError(t, s.Start(context.Background(), wg))

	cancel()
	wg.Wait()
}

func TestServiceNotifyRoutesByNotifierID(t *testing.T) {
	t.Parallel()

	main := &fakeNotifier{id: defaultNotifierID}
	secondary := &fakeNotifier{id: secondaryNotifierID}

	s, _, _ := startTestService(t, main, secondary)

	require.NoError(t, s.Notify(secondaryNotifierID, "품절 채널로 가는 알림"))
	require.NoError(t, s.NotifyDefault("기본 채널로 가는 알림"))

	assert.Equal(t, []string{"품절 채널로 가는 알림"}, secondary.sent())
	assert.Equal(t, []string{"기본 채널로 가는 알림"}, main.sent())
}

func TestServiceNotifyUnknownNotifierFallsBackToDefault(t *testing.T) {
	t.Parallel()

	main := &fakeNotifier{id: defaultNotifierID}

	s, _, _ := startTestService(t, main)

	err := s.Notify("no-such-channel", "길 잃은 알림")
	assert.ErrorIs(t, err, ErrNotifierNotFound)

	// 발송 실패 사실이 기본 채널로 에러 알림으로 전달되어야 한다.
	msgs := main.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "no-such-channel")
}

func TestServiceNotifyDefaultWithErrorMarksMessage(t *testing.T) {
	t.Parallel()

	main := &fakeNotifier{id: defaultNotifierID}

	s, _, _ := startTestService(t, main)

	require.NoError(t, s.NotifyDefaultWithError("추적 작업이 실패하였습니다"))

	msgs := main.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "🚨")
	assert.Contains(t, msgs[0], "추적 작업이 실패하였습니다")
}

func TestServiceNotifyBeforeStartFails(t *testing.T) {
	t.Parallel()

	s := NewService(newTestAppConfig())

	assert.ErrorIs(t, s.Notify(defaultNotifierID, "시작 전의 알림"), ErrServiceNotRunning)
	assert.ErrorIs(t, s.NotifyDefault("시작 전의 알림"), ErrServiceNotRunning)
	assert.ErrorIs(t, s.NotifyDefaultWithError("시작 전의 알림"), ErrServiceNotRunning)
}

func TestServiceSupportsHTML(t *testing.T) {
	t.Parallel()

	s, _, _ := startTestService(t,
		&fakeNotifier{id: defaultNotifierID, supportsHTML: true},
		&fakeNotifier{id: secondaryNotifierID, supportsHTML: false},
	)

	assert.True(t, s.SupportsHTML(defaultNotifierID))
	assert.False(t, s.SupportsHTML(secondaryNotifierID))
	assert.False(t, s.SupportsHTML("no-such-channel"))
}

func TestServiceStopWaitsForNotifiers(t *testing.T) {
	t.Parallel()

	s, cancel, wg := startTestService(t, &fakeNotifier{id: defaultNotifierID})

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("서비스 종료가 Notifier 종료를 기다리지 않았습니다")
	}

	assert.ErrorIs(t, s.Health(), ErrServiceNotRunning)
}
