// Package notifier 알림 채널 구현체들의 공통 기반(비동기 발송 큐)을 제공합니다.
package notifier

import (
	"context"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
)

const component = "notification.notifier"

// Notifier 다양한 알림 채널(텔레그램, 디스코드 등)을 추상화한 인터페이스입니다.
type Notifier interface {
	// ID Notifier 인스턴스의 고유 식별자를 반환합니다.
	ID() contract.NotifierID

	// Run 알림 발송을 처리하는 백그라운드 워커를 실행합니다.
	// 이 메서드는 블로킹되며, 큐에 쌓인 알림 요청을 하나씩 꺼내어 실제로 전송합니다.
	// Context가 취소되면 큐에 남은 메시지를 배출(Drain)한 뒤 반환됩니다.
	Run(ctx context.Context)

	// Notify 알림 발송 요청을 내부 큐에 등록하고 즉시 반환합니다.
	// 실제 전송은 Run()이 실행 중인 고루틴에서 비동기로 처리됩니다.
	Notify(message string) error

	// SupportsHTML 알림 채널이 HTML 스타일의 메시지 포맷팅을 지원하는지 여부를 반환합니다.
	SupportsHTML() bool
}
