package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"빈 문자열", "", ""},
		{"공백만 있는 문자열", "   \t\n  ", ""},
		{"앞뒤 공백 제거", "  hello  ", "hello"},
		{"연속 공백 축약", "hello   world", "hello world"},
		{"탭과 개행 포함", "Sony\tWH-1000XM5\n koptelefoon", "Sony WH-1000XM5 koptelefoon"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NormalizeSpaces(tc.input))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{"일반 분리", "a,b,c", ",", []string{"a", "b", "c"}},
		{"공백 및 빈 항목 제거", "a, , b,c", ",", []string{"a", "b", "c"}},
		{"빈 문자열은 nil 반환", "", ",", nil},
		{"구분자만 있는 문자열은 nil 반환", ",,,", ",", nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, SplitAndTrim(tc.input, tc.sep))
		})
	}
}

func TestContainsFold(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsFold("Dit product is uit het assortiment", "UIT HET ASSORTIMENT"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("kort", "veel te lange substring"))
	assert.False(t, ContainsFold("abc", "xyz"))
}

func TestTailRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		n        int
		expected string
	}{
		{"마지막 6자", "https://www.bcc.nl/p/sony-koptelefoon/123456", 6, "123456"},
		{"길이보다 긴 요청은 전체 반환", "123", 6, "123"},
		{"0 이하 요청은 빈 문자열", "abcdef", 0, ""},
		{"멀티바이트 문자 안전", "상품번호는123456", 6, "123456"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, TailRunes(tc.input, tc.n))
		})
	}
}
