// Package discord 디스코드 웹훅을 통한 알림 채널 구현을 제공합니다.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/config"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	"golang.org/x/time/rate"
)

const component = "notification.discord"

const (
	// requestTimeout 웹훅 호출의 타임아웃입니다.
	requestTimeout = 10 * time.Second

	// sendRateInterval 웹훅 호출 간 최소 간격입니다.
	// Discord 웹훅의 속도 제한(초당 수 건)에 여유있게 맞춘 값입니다.
	sendRateInterval = 500 * time.Millisecond
)

// webhookPayload 디스코드 웹훅 요청 본문입니다.
type webhookPayload struct {
	Content string `json:"content"`
}

// Notifier 디스코드 웹훅 알림 채널입니다.
type Notifier struct {
	*notifier.Base

	webhookURL string

	client *http.Client

	limiter *rate.Limiter
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ notifier.Notifier = (*Notifier)(nil)

// New 설정 정보로 디스코드 웹훅 알림 채널을 생성합니다.
func New(cfg config.DiscordConfig) *Notifier {
	return &Notifier{
		Base: notifier.NewBase(contract.NotifierID(cfg.ID), false),

		webhookURL: cfg.WebhookURL,

		client: &http.Client{Timeout: requestTimeout},

		limiter: rate.NewLimiter(rate.Every(sendRateInterval), 1),
	}
}

// Notify 알림 메시지를 발송 대기열에 등록합니다.
func (n *Notifier) Notify(message string) error {
	return n.Enqueue(message)
}

// Run 발송 워커를 실행합니다. ctx가 취소되면 대기열에 남은 메시지를
// 배출(Drain)한 뒤 반환됩니다.
func (n *Notifier) Run(ctx context.Context) {
	defer n.Close()

	for {
		select {
		case message := <-n.MessageC():
			n.send(ctx, message)

		case <-ctx.Done():
			n.drain()
			return

		case <-n.Done():
			return
		}
	}
}

// send 디스코드 웹훅을 호출하여 메시지를 전송합니다.
// 전송 실패는 로그로만 기록됩니다. 재시도는 하지 않습니다.
func (n *Notifier) send(ctx context.Context, message string) {
	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	body, err := json.Marshal(webhookPayload{Content: message})
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
		}).Errorf("웹훅 요청 본문 생성이 실패하였습니다. (error: %v)", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
		}).Errorf("웹훅 요청 생성이 실패하였습니다. (error: %v)", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"webhook_url": applog.MaskSensitiveData(n.webhookURL),
		}).Errorf("디스코드 웹훅 호출이 실패하였습니다. (error: %v)", err)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	// Discord는 성공 시 204 No Content를 반환한다.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"status_code": resp.StatusCode,
		}).Error("디스코드 웹훅 호출이 실패 응답을 반환하였습니다.")
	}
}

// drain 종료 시 대기열에 남은 메시지를 제한 시간 내에서 최대한 발송합니다.
func (n *Notifier) drain() {
	drainCtx, cancel := context.WithTimeout(context.Background(), n.DrainTimeout())
	defer cancel()

	for {
		select {
		case message := <-n.MessageC():
			n.send(drainCtx, message)

		case <-drainCtx.Done():
			return

		default:
			return
		}
	}
}
