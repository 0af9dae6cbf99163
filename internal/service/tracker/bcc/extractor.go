// Package bcc bcc.nl 상품 페이지의 마크업에서 상품 필드를 추출하는 기능을 제공합니다.
package bcc

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/pricebot-server/pkg/strutil"
)

const (
	// titleSelector 상품명 요소의 CSS 선택자
	titleSelector = "h1#page_title"

	// priceSelector 판매 가격 요소의 CSS 선택자
	priceSelector = "section[class*='productoffer'] span[class*='priceblock__price--salesprice']"

	// srOnlySelector 가격 요소 내부에 포함된 스크린 리더 전용 장식 요소의 CSS 선택자.
	// 가격 텍스트를 읽기 전에 제거해야 올바른 가격 문자열을 얻을 수 있습니다.
	srOnlySelector = "span.sr-only"

	// discontinuedMarker 단종된 상품의 가격 영역에 표시되는 안내 문구.
	// 이 문구가 발견되면 가격 요소가 존재하더라도 품절(단종)로 판정합니다.
	discontinuedMarker = "Dit product is uit het assortiment"
)

// Extractor bcc.nl 상품 페이지용 필드 추출기입니다. 상태를 가지지 않으며,
// 여러 고루틴에서 동시에 사용해도 안전합니다.
type Extractor struct{}

// NewExtractor bcc.nl 필드 추출기를 생성합니다.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// PriceText 상품 페이지에서 판매 가격 요소의 정제된 텍스트를 추출합니다.
//
// 다음의 경우 가격을 찾지 못한 것(false)으로 판정합니다.
//   - 가격 요소가 마크업에 존재하지 않는 경우
//   - 가격 요소의 텍스트에 단종 안내 문구가 포함된 경우
func (e *Extractor) PriceText(doc *goquery.Document) (string, bool) {
	sel := doc.Find(priceSelector).First()
	if sel.Length() == 0 {
		return "", false
	}
	if strutil.ContainsFold(sel.Text(), discontinuedMarker) {
		return "", false
	}

	// 가격 요소 내부의 스크린 리더 전용 텍스트를 제거한 뒤 가격을 읽는다.
	sel.Find(srOnlySelector).Remove()

	return strings.TrimSpace(sel.Text()), true
}

// Title 상품 페이지에서 상품명을 추출합니다. 요소가 없으면 빈 문자열을 반환합니다.
func (e *Extractor) Title(doc *goquery.Document) string {
	return strutil.NormalizeSpaces(doc.Find(titleSelector).First().Text())
}

// EAN 상품 사양 테이블에서 국제 상품 번호(EAN)를 추출합니다.
//
// 사양 테이블의 행 중 헤더 셀에 "EAN"이 포함된 행을 찾아 해당 행의 데이터 셀
// 값을 반환합니다. 존재하지 않으면 빈 문자열을 반환합니다.
func (e *Extractor) EAN(doc *goquery.Document) string {
	var ean string

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Find("th").Text(), "EAN") {
			return true
		}
		ean = strings.TrimSpace(row.Find("td").First().Text())
		return false
	})

	return ean
}
