package notifier

import (
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
)

const (
	// defaultBufferSize 발송 대기열의 기본 크기입니다.
	// 추적 사이클 1회에서 발생할 수 있는 알림 수를 충분히 수용하는 크기입니다.
	defaultBufferSize = 100

	// defaultEnqueueTimeout 대기열이 가득 찼을 때 빈 공간이 생기기를 기다려줄 최대 시간입니다.
	// 이 시간이 지나도 공간이 생기지 않으면 해당 요청은 드롭됩니다.
	defaultEnqueueTimeout = 2 * time.Second

	// drainTimeout 종료 시 대기열에 남은 메시지를 발송하기 위해 허용하는 최대 시간입니다.
	drainTimeout = 30 * time.Second
)

// Base 모든 Notifier 구현체가 임베딩하여 사용하는 공통 기반 구조체입니다.
//
// "알림을 큐에 넣고 관리하는 책임"을 Base가 담당하므로, 구체 구현체는
// "실제로 외부 API를 호출하는 책임"에만 집중할 수 있습니다.
type Base struct {
	id contract.NotifierID

	supportsHTML bool

	enqueueTimeout time.Duration

	// messageC 알림 발송 요청을 버퍼링하는 내부 큐입니다.
	// 요청자는 즉시 리턴받고, 발송 워커는 자신의 속도에 맞춰 메시지를 꺼내갑니다.
	messageC chan string

	mu sync.RWMutex

	// closed Close() 호출 이후 새로운 알림 요청을 거부하기 위한 상태 플래그입니다.
	closed bool

	// done 종료 이벤트를 대기 중인 고루틴들에게 전파하기 위한 신호 채널입니다.
	done chan struct{}
}

// NewBase 새로운 Base 인스턴스를 생성합니다.
func NewBase(id contract.NotifierID, supportsHTML bool) *Base {
	return &Base{
		id: id,

		supportsHTML: supportsHTML,

		enqueueTimeout: defaultEnqueueTimeout,

		messageC: make(chan string, defaultBufferSize),

		done: make(chan struct{}),
	}
}

// ID Notifier 인스턴스의 고유 식별자를 반환합니다.
func (b *Base) ID() contract.NotifierID {
	return b.id
}

// SupportsHTML 알림 채널이 HTML 스타일의 메시지 포맷팅을 지원하는지 여부를 반환합니다.
func (b *Base) SupportsHTML() bool {
	return b.supportsHTML
}

// Enqueue 알림 메시지를 발송 대기열에 등록합니다.
//
// 실제 발송은 수행하지 않으므로 빠르게 반환됩니다. 대기열이 가득 찬 경우
// enqueueTimeout만큼 대기한 뒤에도 공간이 없으면 ErrQueueFull을 반환합니다.
func (b *Base) Enqueue(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	// 채널 전송은 블로킹될 수 있으므로, 필요한 멤버만 로컬로 복사한 뒤 락을 즉시 해제한다.
	messageC := b.messageC
	done := b.done
	enqueueTimeout := b.enqueueTimeout
	b.mu.RUnlock()

	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()

	select {
	case messageC <- message:
		return nil

	case <-done:
		return ErrClosed

	case <-timer.C:
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": b.id,
		}).Warn("알림 요청 거부: 발송 대기열 용량 초과")
		return ErrQueueFull
	}
}

// Close Notifier의 운영을 중단합니다. 이후의 Enqueue 요청은 거부됩니다.
//
// messageC는 명시적으로 닫지 않습니다. 다중 프로듀서 환경에서 닫힌 채널로의
// 전송에 의한 패닉을 방지하기 위한 것으로, 남은 메시지는 Drain 로직이 처리하거나
// GC가 수거합니다.
func (b *Base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// Done 종료 상태를 감지할 수 있는 읽기 전용 채널을 반환합니다.
func (b *Base) Done() <-chan struct{} {
	return b.done
}

// MessageC 발송 워커가 메시지를 꺼내가는 읽기 전용 채널을 반환합니다.
func (b *Base) MessageC() <-chan string {
	return b.messageC
}

// DrainTimeout 종료 시 잔여 메시지 배출에 허용되는 최대 시간을 반환합니다.
func (b *Base) DrainTimeout() time.Duration {
	return drainTimeout
}
