package fetcher

import (
	"fmt"
	"io"
	"net/http"
)

// HTTPStatusError HTTP 요청 실패 시 상태 코드와 응답 정보를 포함하는 구조화된 에러입니다.
//
// 호출자는 errors.As를 통해 상태 코드별 처리를 할 수 있습니다.
//
//	var statusErr *fetcher.HTTPStatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
//	    // 판매 종료된 상품 페이지 처리
//	}
type HTTPStatusError struct {
	// StatusCode 서버가 반환한 HTTP 상태 코드입니다.
	StatusCode int

	// Status HTTP 상태 코드에 대응하는 텍스트 설명입니다. 예: "404 Not Found"
	Status string

	// URL 요청을 보낸 대상 URL입니다.
	URL string

	// Header 서버가 반환한 HTTP 응답 헤더입니다. (Retry-After 확인 등에 사용)
	Header http.Header
}

// Error 표준 error 인터페이스를 구현합니다.
func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += fmt.Sprintf(" URL: %s", e.URL)
	}
	return msg
}

// StatusCodeFetcher HTTP 응답 상태 코드를 확인하고, 허용된 코드가 아니면 에러로 처리하는 미들웨어입니다.
// 기본적으로 200 OK만 허용합니다.
type StatusCodeFetcher struct {
	delegate        Fetcher
	allowedStatuses []int
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher 새로운 StatusCodeFetcher 인스턴스를 생성합니다.
func NewStatusCodeFetcher(delegate Fetcher, allowedStatuses ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate:        delegate,
		allowedStatuses: allowedStatuses,
	}
}

// Do HTTP 요청을 수행하고 응답 상태 코드를 검사합니다.
// 허용되지 않은 상태 코드인 경우, 커넥션 누수 방지를 위해 바디를 닫고 HTTPStatusError를 반환합니다.
func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		return resp, err
	}

	if !f.isAllowed(resp.StatusCode) {
		statusErr := &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.String(),
			Header:     resp.Header,
		}
		drainAndCloseBody(resp.Body)
		return nil, statusErr
	}

	return resp, nil
}

func (f *StatusCodeFetcher) isAllowed(statusCode int) bool {
	if len(f.allowedStatuses) == 0 {
		return statusCode == http.StatusOK
	}
	for _, allowed := range f.allowedStatuses {
		if statusCode == allowed {
			return true
		}
	}
	return false
}

// drainAndCloseBody 커넥션 재사용을 위해 응답 바디를 비우고 닫습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	// 남은 데이터가 많으면 커넥션 재사용을 포기하는 것이 더 저렴하다
	_, _ = io.CopyN(io.Discard, body, 4096)
	_ = body.Close()
}
