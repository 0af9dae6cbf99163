// Package fetcher 상품 페이지 요청에 사용되는 HTTP 클라이언트 계층을 제공합니다.
//
// 각 기능(User-Agent 주입, 재시도, 요청 속도 제한, 상태 코드 검사)은
// Fetcher 인터페이스를 구현하는 미들웨어로 분리되어 있으며,
// New 함수가 이들을 하나의 체인으로 조립합니다.
package fetcher

import (
	"context"
	"net/http"
)

// Fetcher HTTP 요청을 수행하는 인터페이스
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 HTTP GET 요청을 전송합니다.
// Fetcher 인터페이스의 구현체가 공통으로 사용할 수 있는 헬퍼 함수입니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.Do(req)
}
