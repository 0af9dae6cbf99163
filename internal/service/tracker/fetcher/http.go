package fetcher

import (
	"math/rand/v2"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// defaultUserAgents 웹 스크래핑 시 차단을 회피하기 위해 사용되는 일반적인 User-Agent 목록입니다.
var defaultUserAgents = []string{
	// Chrome 120 - Windows 10/11 (64비트)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome 120 - macOS Catalina (10.15.7)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Firefox 121 - Windows 10/11 (64비트)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// HTTPFetcher 타임아웃이 설정된 실제 HTTP 요청 수행 구현체입니다.
// 체인의 가장 안쪽에 위치합니다.
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher 지정된 타임아웃 설정이 포함된 새로운 HTTPFetcher 인스턴스를 생성합니다.
// timeout이 0 이하이면 기본값(30초)을 사용합니다.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Do HTTP 요청을 실행합니다.
func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}

// UserAgentFetcher HTTP 요청에 User-Agent를 주입하는 미들웨어입니다.
//
//   - 요청에 User-Agent가 없을 경우에만 랜덤으로 선택하여 주입합니다.
//   - 요청에 User-Agent가 있을 경우에는 수정하지 않고 그대로 전달합니다.
type UserAgentFetcher struct {
	delegate Fetcher

	// userAgents 랜덤으로 선택할 User-Agent 문자열 목록입니다. (빈 목록: 기본 목록 사용)
	userAgents []string
}

var _ Fetcher = (*UserAgentFetcher)(nil)

// NewUserAgentFetcher 새로운 UserAgentFetcher 인스턴스를 생성합니다.
func NewUserAgentFetcher(delegate Fetcher, userAgents []string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:   delegate,
		userAgents: userAgents,
	}
}

// Do HTTP 요청을 수행하며, 필요한 경우 User-Agent를 랜덤으로 선택하여 주입합니다.
// 재시도 시에도 동일한 User-Agent를 유지하려면 이 미들웨어를 RetryFetcher보다 상위에 배치해야 합니다.
func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	// 이미 User-Agent가 설정되어 있다면 수정 없이 그대로 전달한다
	if req.Header.Get("User-Agent") != "" {
		return f.delegate.Do(req)
	}

	uas := f.userAgents
	if len(uas) == 0 {
		uas = defaultUserAgents
	}

	// 원본 요청을 보호하기 위해 복제본에 주입한다
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", uas[rand.IntN(len(uas))])

	return f.delegate.Do(clonedReq)
}
