package notifier

import (
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
)

var (
	// ErrClosed Notifier가 이미 종료되어 더 이상 알림 요청을 수락할 수 없을 때 반환하는 에러입니다.
	ErrClosed = apperrors.New(apperrors.Unavailable, "Notifier가 종료되어 알림을 보낼 수 없습니다")

	// ErrQueueFull 발송 대기열이 가득 차서 알림 요청이 드롭되었을 때 반환하는 에러입니다.
	ErrQueueFull = apperrors.New(apperrors.Unavailable, "발송 대기열이 가득 차서 알림 요청이 거부되었습니다")

	// ErrEmptyMessage 빈 메시지로 알림 발송이 요청되었을 때 반환하는 에러입니다.
	ErrEmptyMessage = apperrors.New(apperrors.InvalidInput, "알림 메시지가 비어있습니다")
)
