// Package kieskeurig 가격 비교 사이트(kieskeurig.nl)에서 EAN 기준 최저가를 조회하는 기능을 제공합니다.
package kieskeurig

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/fetcher"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/scraper"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
)

const (
	// searchURLPrefix EAN 검색 URL의 접두사.
	// '%24'(달러 기호)를 검색어 앞에 붙이면 검색 결과가 정확히 일치하는 상품 1건으로 제한됩니다.
	searchURLPrefix = "https://www.kieskeurig.nl/search?q=%24"

	// priceSelector 검색 결과 상품 타일의 가격 요소 CSS 선택자
	priceSelector = "div.product-tile__price strong"

	// errorMessageSelector 검색 결과가 없을 때 표시되는 안내 영역의 CSS 선택자
	errorMessageSelector = "div[class*='error-message']"
)

const component = "tracker.kieskeurig"

// Client kieskeurig.nl 검색 페이지를 통해 최저가를 조회하는 클라이언트입니다.
type Client struct {
	fetcher fetcher.Fetcher
}

// NewClient 최저가 조회 클라이언트를 생성합니다.
func NewClient(f fetcher.Fetcher) *Client {
	return &Client{fetcher: f}
}

// LowestPriceText 지정된 EAN으로 검색하여 타 판매처 최저가의 원본 가격 문자열을 반환합니다.
//
// 검색 결과가 없거나, 페이지 구조가 예상과 다르거나, 네트워크 오류가 발생한 경우
// false를 반환합니다. 비교 가격 조회는 부가 정보이므로 모든 실패는 에러가 아닌
// "비교 가격 없음"으로 강등 처리되며, 로그로만 기록됩니다.
func (c *Client) LowestPriceText(ctx context.Context, ean string) (string, bool) {
	url := searchURLPrefix + ean

	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"ean": ean}).Debugf("비교 가격 검색 페이지를 가져오지 못했습니다. 비교 가격 없이 진행합니다. (error: %v)", err)
		return "", false
	}

	// 검색 결과 없음 안내가 표시된 페이지는 조회 실패로 처리한다.
	if errSel := doc.Find(errorMessageSelector).First(); errSel.Length() > 0 {
		if html, err := errSel.Html(); err == nil && strings.TrimSpace(html) != "" {
			return "", false
		}
	}

	priceSel := doc.Find(priceSelector).First()
	if priceSel.Length() == 0 {
		return "", false
	}

	priceText := strings.TrimSpace(priceSel.Text())
	if priceText == "" {
		return "", false
	}

	return priceText, true
}

func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	return scraper.FetchHTMLDocument(ctx, c.fetcher, url)
}
