package tracker

import (
	"fmt"
	"strings"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// euroPrinter 네덜란드 로캘(천 단위 마침표, 소수점 쉼표)로 숫자를 렌더링합니다.
var euroPrinter = message.NewPrinter(language.Dutch)

// renderEuro 가격을 대상 사이트와 동일한 네덜란드 표기("€1.234,56")로 렌더링합니다.
func renderEuro(price float64) string {
	return "€" + euroPrinter.Sprint(number.Decimal(price, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// renderPriceDrop 가격 인하 알림 메시지를 생성합니다.
func renderPriceDrop(url, internalNumber string, prev, current contract.Product, crossRefPrice *float64) string {
	var sb strings.Builder
	sb.Grow(256)

	fmt.Fprintf(&sb, "Price of '%s' has dropped from %s to %s!\n", current.Title, renderEuro(prev.Price), renderEuro(current.Price))
	fmt.Fprintf(&sb, "URL: %s\n", url)
	fmt.Fprintf(&sb, "Internal number: %s\n", internalNumber)
	if crossRefPrice != nil {
		fmt.Fprintf(&sb, "Lowest price elsewhere: %s", renderEuro(*crossRefPrice))
	}

	return sb.String()
}

// renderOutOfStock 품절/단종 의심 알림 메시지를 생성합니다.
func renderOutOfStock(url, internalNumber string) string {
	var sb strings.Builder
	sb.Grow(128)

	fmt.Fprintf(&sb, "Couldn't find price information on the page: %s\n", url)
	fmt.Fprintf(&sb, "Internal number: %s\n", internalNumber)

	return sb.String()
}

// renderCurrentPrice 가격 변동이 없거나 최초 관측된 상품의 현황 메시지를 생성합니다.
// 이 메시지는 운영자 로그로만 기록되며, 외부 채널로는 발송되지 않습니다.
func renderCurrentPrice(current contract.Product, crossRefPrice *float64) string {
	var sb strings.Builder
	sb.Grow(128)

	fmt.Fprintf(&sb, "Current price of '%s' is %s", current.Title, renderEuro(current.Price))
	if crossRefPrice != nil {
		fmt.Fprintf(&sb, " (lowest price elsewhere: %s)", renderEuro(*crossRefPrice))
	}

	return sb.String()
}
