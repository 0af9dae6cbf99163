package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 검증을 위한 정규식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

	// 디스코드 웹훅 URL 검증을 위한 정규식
	discordWebhookURLRegex = regexp.MustCompile(`^https://(discord|discordapp)\.com/api/webhooks/\d+/[a-zA-Z0-9_-]+$`)

	// 패키지 전역 Validator 인스턴스
	validate = newValidator()
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: WebhookURL) 대신 JSON 이름(예: webhook_url)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 커스텀 유효성 검사 함수 등록
	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("discord_webhook_url", validateDiscordWebhookURL); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'discord_webhook_url' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateTelegramBotToken 입력된 문자열이 유효한 텔레그램 봇 토큰 형식인지 검증합니다.
//
// 텔레그램 봇 토큰은 식별자(숫자)와 비밀키(문자열)가 콜론(:)으로 구분된 형태여야 합니다.
// 예: "123456789:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// validateDiscordWebhookURL 입력된 문자열이 유효한 디스코드 웹훅 URL 형식인지 검증합니다.
// 예: "https://discord.com/api/webhooks/123456789/AbCdEfGh..."
func validateDiscordWebhookURL(fl validator.FieldLevel) bool {
	return discordWebhookURLRegex.MatchString(fl.Field().String())
}

// validateStruct 구조체의 유효성을 검사하고, 사용자 친화적인 에러 메시지를 반환합니다.
func validateStruct(s interface{}, contextName string) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			// 첫 번째 에러만 상세히 보고
			firstErr := validationErrors[0]
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}
	return nil
}

// checkUniqueValues 슬라이스 내의 값이 모두 유일한지 검사합니다.
func checkUniqueValues(values []string, contextName string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, exists := seen[v]; exists {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s ID가 존재합니다: '%s'", contextName, v))
		}
		seen[v] = struct{}{}
	}
	return nil
}
