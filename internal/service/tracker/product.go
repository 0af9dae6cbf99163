package tracker

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/pricebot-server/pkg/strutil"
)

// internalNumberLength 알림 메시지에 포함되는 내부 상품 번호의 길이입니다.
// 내부 상품 번호는 상품 페이지 URL의 마지막 6자리로부터 유도됩니다.
const internalNumberLength = 6

// internalNumber 상품 페이지 URL에서 운영자 참조용 내부 상품 번호를 유도합니다.
// URL이 6자보다 짧은 경우 URL 전체를 사용합니다.
func internalNumber(url string) string {
	return strutil.TailRunes(url, internalNumberLength)
}

// DocumentFetcher 상품 페이지를 가져와 goquery 문서로 변환하는 기능 계약입니다.
type DocumentFetcher interface {
	FetchHTMLDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// FieldExtractor 특정 사이트의 상품 페이지 문서에서 상품 필드를 추출하는 기능 계약입니다.
// 사이트별 CSS 선택자와 마크업 규칙은 각 구현체에 캡슐화되며, 추적 로직은
// 이 인터페이스만을 통해 문서를 해석합니다.
type FieldExtractor interface {
	// PriceText 가격 요소의 정제된 텍스트를 반환합니다.
	// 가격 요소가 존재하지 않거나 단종 문구가 포함된 경우 false를 반환하며,
	// 이는 추적 로직에서 품절 신호로 해석됩니다.
	PriceText(doc *goquery.Document) (string, bool)

	// Title 상품명을 반환합니다. 추출에 실패하면 빈 문자열을 반환합니다.
	Title(doc *goquery.Document) string

	// EAN 국제 상품 번호를 반환합니다. 존재하지 않으면 빈 문자열을 반환합니다.
	EAN(doc *goquery.Document) string
}

// CrossReferencer 상품 식별자(EAN)를 기준으로 타 판매처의 최저가를 조회하는 기능 계약입니다.
type CrossReferencer interface {
	// LowestPriceText 조회된 최저가의 원본 가격 문자열을 반환합니다.
	// 조회 결과가 없거나 조회에 실패한 경우 false를 반환하며, 이는 에러가 아닌
	// "비교 가격 없음"으로 처리됩니다.
	LowestPriceText(ctx context.Context, ean string) (string, bool)
}
