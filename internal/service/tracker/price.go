package tracker

import (
	"strconv"
	"strings"

	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
)

// ErrPriceNotParseable 페이지에서 추출한 가격 문자열을 숫자로 변환할 수 없을 때 반환되는 에러입니다.
var ErrPriceNotParseable = apperrors.New(apperrors.ParsingFailed, "가격 문자열을 숫자로 변환할 수 없습니다")

// ParsePrice 상품 페이지에서 추출한 원본 가격 문자열을 숫자로 변환합니다.
//
// 네덜란드 가격 표기 규칙(쉼표=소수점 구분자, 마침표=천 단위 구분자)을 따릅니다.
//  1. 숫자, 쉼표, 마침표를 제외한 모든 문자(통화 기호, 공백 등)를 제거합니다.
//  2. 마침표를 전부 제거합니다. (천 단위 구분자로 간주)
//  3. 가장 오른쪽의 쉼표를 마침표로 치환하여 소수점으로 해석합니다.
//
// 쉼표 없이 마침표만 포함된 입력은 마침표가 소수점이었더라도 천 단위 구분자로
// 처리됩니다. ("1.5" → 15) 이는 대상 사이트의 표기 규칙을 그대로 따른 동작입니다.
//
// 변환할 수 없는 입력에 대해서는 패닉 없이 ErrPriceNotParseable을 반환합니다.
func ParsePrice(raw string) (float64, error) {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			sb.WriteRune(r)
		}
	}

	cleaned := strings.ReplaceAll(sb.String(), ".", "")

	// 가장 오른쪽의 쉼표만 소수점으로 치환합니다. 쉼표가 둘 이상 남아있는
	// 비정상 입력은 이후 숫자 변환 단계에서 에러로 처리됩니다.
	if i := strings.LastIndex(cleaned, ","); i != -1 {
		cleaned = cleaned[:i] + "." + cleaned[i+1:]
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrPriceNotParseable
	}

	return price, nil
}
