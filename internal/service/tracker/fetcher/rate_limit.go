package fetcher

import (
	"net/http"

	"golang.org/x/time/rate"
)

const (
	// defaultRequestsPerSecond 대상 사이트에 대한 기본 요청 속도 제한입니다.
	// 추적 대상 쇼핑몰에 부담을 주지 않도록 보수적으로 설정합니다.
	defaultRequestsPerSecond = 2

	// defaultBurst 순간적으로 허용되는 최대 요청 수입니다.
	defaultBurst = 1
)

// RateLimitFetcher 대상 서버에 대한 요청 속도를 제한하는 미들웨어입니다.
// 토큰이 확보될 때까지 대기하며, 대기 중 컨텍스트가 취소되면 즉시 에러를 반환합니다.
type RateLimitFetcher struct {
	delegate Fetcher
	limiter  *rate.Limiter
}

var _ Fetcher = (*RateLimitFetcher)(nil)

// NewRateLimitFetcher 새로운 RateLimitFetcher 인스턴스를 생성합니다.
// requestsPerSecond가 0 이하이면 기본값을 사용합니다.
func NewRateLimitFetcher(delegate Fetcher, requestsPerSecond float64) *RateLimitFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	return &RateLimitFetcher{
		delegate: delegate,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), defaultBurst),
	}
}

// Do 요청 속도 제한을 준수하며 HTTP 요청을 수행합니다.
func (f *RateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := f.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return f.delegate.Do(req)
}
