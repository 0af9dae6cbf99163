package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	applog "github.com/darkkaiser/pricebot-server/pkg/log"
)

const (
	// maxAllowedRetries 허용 가능한 최대 재시도 횟수입니다.
	maxAllowedRetries = 10

	// defaultMinRetryDelay 재시도 대기 시간의 기본 시작값입니다.
	defaultMinRetryDelay = 1 * time.Second

	// defaultMaxRetryDelay 지수 백오프 증가 시의 상한선입니다.
	defaultMaxRetryDelay = 30 * time.Second
)

// RetryFetcher HTTP 요청 실패 시 자동으로 재시도를 수행하는 미들웨어입니다.
//
//   - 지수 백오프(Exponential Backoff): 재시도 간격을 지수적으로 증가시켜 서버 부하를 분산
//   - Full Jitter: 무작위 지연을 추가하여 동시 다발적인 재시도로 인한 부하 집중 방지
//   - 컨텍스트 취소 감지: 대기 중 컨텍스트가 취소되면 즉시 재시도 중단
//
// 재시도 대상:
//   - 네트워크 오류 (타임아웃, 연결 실패 등)
//   - 5xx 서버 에러, 429 Too Many Requests, 408 Request Timeout
//
// 재시도 제외:
//   - 컨텍스트 취소 (context.Canceled, context.DeadlineExceeded)
//   - 그 외 4xx 클라이언트 에러 (404 등 재시도해도 결과가 달라지지 않는 에러)
type RetryFetcher struct {
	delegate Fetcher

	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher 인스턴스를 생성합니다.
// maxRetries는 0~10 사이로, 대기 시간은 기본 범위 내로 정규화됩니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay time.Duration) *RetryFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > maxAllowedRetries {
		maxRetries = maxAllowedRetries
	}
	if minRetryDelay <= 0 {
		minRetryDelay = defaultMinRetryDelay
	}

	maxRetryDelay := defaultMaxRetryDelay
	if minRetryDelay > maxRetryDelay {
		maxRetryDelay = minRetryDelay
	}

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

// Do HTTP 요청을 수행하며, 실패 시 설정된 정책에 따라 자동으로 재시도합니다.
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for i := 0; i <= f.maxRetries; i++ {
		if i > 0 {
			// 지수 백오프 계산: minRetryDelay * 2^(i-1), 상한선 초과 시 제한
			delay := f.minRetryDelay * time.Duration(1<<(i-1))
			if delay > f.maxRetryDelay {
				delay = f.maxRetryDelay
			}

			// Full Jitter: 0 ~ delay 사이의 값을 무작위로 선택
			if delay > 0 {
				delay = time.Duration(rand.Int64N(int64(delay) + 1))
			}

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}

			applog.WithComponentAndFields("fetcher", applog.Fields{
				"url":     req.URL.String(),
				"attempt": i,
				"error":   lastErr,
			}).Debug("페이지 요청 재시도")
		}

		resp, err := f.delegate.Do(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// isRetryable 에러가 일시적인 장애로 간주되어 재시도할 가치가 있는지 판단합니다.
func isRetryable(err error) bool {
	// 컨텍스트 취소는 호출자의 의도이므로 재시도하지 않는다
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode >= 500:
			return true
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return true
		case statusErr.StatusCode == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}

	// 그 외(네트워크 오류 등)는 일시적 장애로 간주한다
	return true
}
