package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testNotifierID = contract.NotifierID("telegram-test")
	testChatID     = int64(123456789)
)

// fakeSender 전송된 메시지를 기록하는 messageSender 구현체입니다.
type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}

	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]tgbotapi.MessageConfig, len(f.messages))
	copy(out, f.messages)
	return out
}

func newTestNotifier(sender *fakeSender) *Notifier {
	n := newWithSender(testNotifierID, sender, testChatID)
	// 테스트에서는 발송 속도 제한으로 인한 대기를 없앤다.
	n.limiter = rate.NewLimiter(rate.Inf, 1)
	return n
}

func waitForMessages(t *testing.T, sender *fakeSender, count int) []tgbotapi.MessageConfig {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := sender.sent(); len(msgs) >= count {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("%d건의 메시지 전송을 기다리다 타임아웃되었습니다", count)
	return nil
}

func TestNotifierProperties(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(&fakeSender{})

	assert.Equal(t, testNotifierID, n.ID())
	assert.True(t, n.SupportsHTML())
}

func TestNotifierSendsQueuedMessages(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	n := newTestNotifier(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.Run(ctx)
	}()

	require.NoError(t, n.Notify("첫 번째 알림"))
	require.NoError(t, n.Notify("두 번째 알림"))

	msgs := waitForMessages(t, sender, 2)

	assert.Equal(t, "첫 번째 알림", msgs[0].Text)
	assert.Equal(t, "두 번째 알림", msgs[1].Text)
	assert.Equal(t, testChatID, msgs[0].ChatID)
	assert.True(t, msgs[0].DisableWebPagePreview)

	cancel()
	wg.Wait()
}

func TestNotifierDrainsQueueOnShutdown(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	n := newTestNotifier(sender)

	// Run 실행 전에 등록된 메시지는 종료 시 Drain 단계에서 발송되어야 한다.
	require.NoError(t, n.Notify("배출되어야 하는 알림"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.Run(ctx)

	msgs := sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "배출되어야 하는 알림", msgs[0].Text)
}

func TestNotifierRejectsNotifyAfterShutdown(t *testing.T) {
	t.Parallel()

	n := newTestNotifier(&fakeSender{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n.Run(ctx)

	assert.Error(t, n.Notify("종료 이후의 알림"))
}

func TestNotifierContinuesAfterSendFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: assert.AnError}
	n := newTestNotifier(sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.Run(ctx)
	}()

	require.NoError(t, n.Notify("실패하는 알림"))
	require.NoError(t, n.Notify("이어지는 알림"))

	// 전송 실패는 로그로만 기록되고 워커는 계속 동작해야 한다.
	msgs := waitForMessages(t, sender, 2)
	assert.Equal(t, "이어지는 알림", msgs[1].Text)

	cancel()
	wg.Wait()
}
