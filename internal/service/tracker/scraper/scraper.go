// Package scraper HTML 페이지를 가져와 goquery 문서로 변환하는 기능을 제공합니다.
package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/fetcher"
	"golang.org/x/net/html/charset"
)

// FetchHTMLDocument 지정된 URL로 HTTP 요청을 보내 HTML 문서를 가져오고, goquery.Document로 파싱합니다.
// 응답 헤더의 Content-Type을 분석하여, 비 UTF-8 인코딩 페이지도 자동으로 UTF-8로 변환하여 처리합니다.
func FetchHTMLDocument(ctx context.Context, f fetcher.Fetcher, url string) (*goquery.Document, error) {
	resp, err := fetcher.Get(ctx, f, url)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("HTML 페이지(%s) 요청 중 네트워크 또는 클라이언트 에러가 발생했습니다.", url))
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	// Content-Type 헤더를 기반으로 인코딩을 UTF-8로 변환
	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("페이지(%s)의 인코딩 변환이 실패하였습니다.", url))
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("불러온 페이지(%s)의 데이터 파싱이 실패하였습니다.", url))
	}

	return doc, nil
}

// FetchHTMLSelection 지정된 URL의 HTML 문서에서 CSS 선택자(selector)에 해당하는 요소를 찾습니다.
// 선택된 요소가 없으면 에러를 반환하여, 변경된 웹 페이지 구조를 조기에 감지할 수 있도록 돕습니다.
func FetchHTMLSelection(ctx context.Context, f fetcher.Fetcher, url string, selector string) (*goquery.Selection, error) {
	doc, err := FetchHTMLDocument(ctx, f, url)
	if err != nil {
		return nil, err
	}

	sel := doc.Find(selector)
	if sel.Length() <= 0 {
		return nil, apperrors.Newf(apperrors.NotFound, "페이지(%s)에서 요소('%s')를 찾을 수 없습니다. 웹 페이지의 구조가 변경되었을 수 있습니다.", url, selector)
	}

	return sel, nil
}
