// Package strutil은 문자열 처리를 위한 유틸리티 함수들을 제공합니다.
package strutil

import (
	"strings"
)

// NormalizeSpaces 문자열의 앞뒤 공백을 제거하고 연속된 공백을 하나로 축약합니다.
// 예: "  hello   world  " -> "hello world"
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

// SplitAndTrim 주어진 구분자로 문자열을 분리한 후, 각 항목의 앞뒤 공백을 제거하고 빈 문자열을 제외한 슬라이스를 반환합니다.
// 결과가 없거나 입력 문자열이 비어있는 경우 nil을 반환합니다.
// 예: "a, , b,c" (구분자 ",") -> ["a", "b", "c"]
func SplitAndTrim(s, sep string) []string {
	tokens := strings.Split(s, sep)
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			result = append(result, token)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ContainsFold 대소문자를 구분하지 않고 부분 문자열 포함 여부를 확인합니다.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	if len(substr) > len(s) {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// TailRunes 문자열의 마지막 n개 문자를 반환합니다.
// 문자열 길이가 n보다 짧으면 전체 문자열을 반환합니다.
func TailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
