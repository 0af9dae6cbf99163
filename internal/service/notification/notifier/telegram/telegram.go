// Package telegram 텔레그램 봇 API를 통한 알림 채널 구현을 제공합니다.
package telegram

import (
	"context"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/config"
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/notification/notifier"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const component = "notification.telegram"

// sendRateLimit 텔레그램 API 호출 속도 제한입니다.
// Telegram Bot API는 동일 채팅방 기준 초당 1건 수준의 발송을 권장합니다.
var sendRateLimit = rate.Every(time.Second)

// messageSender 텔레그램 메시지 발송 기능의 최소 계약입니다.
// *tgbotapi.BotAPI가 이를 만족하며, 테스트에서는 mock으로 대체합니다.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier 텔레그램 알림 채널입니다.
type Notifier struct {
	*notifier.Base

	client messageSender
	chatID int64

	limiter *rate.Limiter
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ notifier.Notifier = (*Notifier)(nil)

// New 설정 정보로 텔레그램 알림 채널을 생성합니다.
// 봇 토큰 검증을 위해 텔레그램 서버와 통신하므로 네트워크 연결이 필요합니다.
func New(cfg config.TelegramConfig) (*Notifier, error) {
	client, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.Unavailable, "텔레그램 봇(token:%s) 연결이 실패하였습니다", applog.MaskSensitiveData(cfg.BotToken))
	}

	return newWithSender(contract.NotifierID(cfg.ID), client, cfg.ChatID), nil
}

// newWithSender 주입된 messageSender로 텔레그램 알림 채널을 생성합니다. 테스트에서 사용합니다.
func newWithSender(id contract.NotifierID, client messageSender, chatID int64) *Notifier {
	return &Notifier{
		Base: notifier.NewBase(id, true),

		client: client,
		chatID: chatID,

		limiter: rate.NewLimiter(sendRateLimit, 1),
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

// send 텔레그램 API를 호출하여 메시지를 전송합니다.
// 전송 실패는 로그로만 기록됩니다. 재시도는 하지 않습니다.
func (n *Notifier) send(ctx context.Context, message string) {
	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.DisableWebPagePreview = true

	if _, err := n.client.Send(msg); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.ID(),
			"chat_id":     n.chatID,
		}).Errorf("텔레그램 메시지 전송이 실패하였습니다. (error: %v)", err)
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
