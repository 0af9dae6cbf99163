package notification

import (
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
)

var (
	// ErrServiceNotRunning 서비스가 실행 중이 아니어서 알림 요청을 처리할 수 없을 때 반환하는 에러입니다.
	ErrServiceNotRunning = apperrors.New(apperrors.Unavailable, "Notification 서비스가 실행 중이 아니어서 알림을 보낼 수 없습니다")

	// ErrNotifierNotFound 설정에 등록되지 않은 알림 채널 ID가 요청되었을 때 반환하는 에러입니다.
	ErrNotifierNotFound = apperrors.New(apperrors.NotFound, "등록되지 않은 알림 채널입니다. 설정 파일을 확인해 주세요")
)
