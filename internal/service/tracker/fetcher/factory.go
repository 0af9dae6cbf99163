package fetcher

import (
	"time"
)

// Config Fetcher 체인 구성에 필요한 설정값입니다.
type Config struct {
	// Timeout 단일 요청의 타임아웃 (0: 기본값 30초)
	Timeout time.Duration

	// MaxRetries 요청 실패 시 최대 재시도 횟수
	MaxRetries int

	// RetryDelay 재시도 대기 시간의 시작값 (0: 기본값 1초)
	RetryDelay time.Duration

	// RequestsPerSecond 대상 사이트에 대한 초당 요청 수 제한 (0: 기본값)
	RequestsPerSecond float64

	// UserAgents 요청에 주입할 User-Agent 목록 (빈 목록: 기본 목록에서 랜덤 선택)
	UserAgents []string
}

// New 설정에 따라 전체 미들웨어 체인이 조립된 Fetcher를 생성합니다.
//
// 체인 구조 (바깥 → 안):
//
//	UserAgent → Retry → RateLimit → StatusCode → HTTP
//
// User-Agent 주입을 재시도보다 상위에 두어 재시도 시에도 동일한 User-Agent가 유지되고,
// 속도 제한을 재시도보다 하위에 두어 재시도 요청 각각이 속도 제한을 준수하도록 합니다.
func New(cfg Config) Fetcher {
	var f Fetcher = NewHTTPFetcher(cfg.Timeout)
	f = NewStatusCodeFetcher(f)
	f = NewRateLimitFetcher(f, cfg.RequestsPerSecond)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.RetryDelay)
	f = NewUserAgentFetcher(f, cfg.UserAgents)
	return f
}
