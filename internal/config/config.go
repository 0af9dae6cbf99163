// Package config 애플리케이션 설정의 로드와 유효성 검증을 담당합니다.
//
// 설정은 다음 우선순위로 병합됩니다. (높은 순위가 낮은 순위를 덮어씀)
//  1. 환경 변수 (접두사 PRICEBOT_, 이중 언더스코어(__)로 계층 표현)
//  2. JSON 설정 파일
//  3. 애플리케이션 기본값
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	"github.com/darkkaiser/pricebot-server/pkg/cronx"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "pricebot-server"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// ------------------------------------------------------------------------------------------------
	// 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultFetchTimeout 상품 페이지 요청의 타임아웃 기본값
	DefaultFetchTimeout = "30s"

	// DefaultMaxRetries 페이지 요청 실패 시 최대 재시도 횟수 기본값
	DefaultMaxRetries = 3

	// DefaultRetryDelay 재시도 사이의 대기 시간 기본값
	DefaultRetryDelay = "2s"

	// DefaultTimeSpec 가격 확인 주기 기본값 (1분 간격)
	DefaultTimeSpec = "@every 1m"

	// DefaultWatchlistFile 추적 대상 URL 목록 파일의 기본 경로
	DefaultWatchlistFile = "urls-to-track.json"

	// DefaultListenPort 상태 조회 API 서버의 기본 포트
	DefaultListenPort = 8080
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug     bool           `json:"debug"`
	Fetch     FetchConfig    `json:"fetch"`
	Tracker   TrackerConfig  `json:"tracker"`
	Notifiers NotifierConfig `json:"notifiers"`
	API       APIConfig      `json:"api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate() error {
	if err := c.Fetch.validate(); err != nil {
		return err
	}

	if err := c.Tracker.validate(); err != nil {
		return err
	}

	notifierIDs, err := c.Notifiers.validate()
	if err != nil {
		return err
	}

	// Tracker가 참조하는 알림 채널들의 존재 여부 확인
	if c.Tracker.PriceDropNotifierID != "" && !slices.Contains(notifierIDs, c.Tracker.PriceDropNotifierID) {
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("가격 인하 알림용 NotifierID('%s')가 정의된 Notifier 목록에 존재하지 않습니다", c.Tracker.PriceDropNotifierID))
	}
	if c.Tracker.OutOfStockNotifierID != "" && !slices.Contains(notifierIDs, c.Tracker.OutOfStockNotifierID) {
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("품절 알림용 NotifierID('%s')가 정의된 Notifier 목록에 존재하지 않습니다", c.Tracker.OutOfStockNotifierID))
	}

	if err := c.API.validate(); err != nil {
		return err
	}

	return nil
}

// FetchConfig 상품 페이지 요청 정책을 정의하는 설정 구조체
type FetchConfig struct {
	UserAgent  string `json:"user_agent"`
	Timeout    string `json:"timeout"`
	MaxRetries int    `json:"max_retries"`
	RetryDelay string `json:"retry_delay"`
}

func (c *FetchConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("페이지 요청 타임아웃(timeout) 설정이 올바르지 않습니다: '%s' (예: 30s)", c.Timeout))
	}
	if c.MaxRetries < 0 {
		return apperrors.Newf(apperrors.InvalidInput, "페이지 요청 재시도 횟수(max_retries)는 0 이상이어야 합니다: %d", c.MaxRetries)
	}
	if _, err := time.ParseDuration(c.RetryDelay); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("재시도 대기 시간(retry_delay) 설정이 올바르지 않습니다: '%s' (예: 1s, 500ms)", c.RetryDelay))
	}
	return nil
}

// FetchTimeout 파싱된 타임아웃 값을 반환합니다. validate()를 통과한 설정에서만 호출해야 합니다.
func (c *FetchConfig) FetchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// FetchRetryDelay 파싱된 재시도 대기 시간을 반환합니다. validate()를 통과한 설정에서만 호출해야 합니다.
func (c *FetchConfig) FetchRetryDelay() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// TrackerConfig 가격 추적 작업의 실행 주기와 대상을 정의하는 설정 구조체
type TrackerConfig struct {
	// WatchlistFile 추적 대상 URL 목록이 담긴 JSON 파일 경로
	WatchlistFile string `json:"watchlist_file" validate:"required"`

	// TimeSpec 가격 확인 주기 (6필드 Cron 표현식 또는 @every 형식)
	TimeSpec string `json:"time_spec" validate:"required"`

	// RunOnStart 서비스 시작 직후 1회 즉시 실행할지 여부
	RunOnStart bool `json:"run_on_start"`

	// PriceDropNotifierID 가격 인하 알림을 발송할 별도 채널 (빈 문자열: 기본 채널 사용)
	PriceDropNotifierID string `json:"price_drop_notifier_id"`

	// OutOfStockNotifierID 품절/단종 알림을 발송할 별도 채널 (빈 문자열: 기본 채널 사용)
	OutOfStockNotifierID string `json:"out_of_stock_notifier_id"`

	// Kieskeurig 가격 비교 사이트 조회 기능 설정
	Kieskeurig KieskeurigConfig `json:"kieskeurig"`
}

func (c *TrackerConfig) validate() error {
	if err := validateStruct(c, "Tracker"); err != nil {
		return err
	}

	if err := cronx.Validate(c.TimeSpec); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("가격 확인 주기(time_spec) 설정이 유효하지 않습니다: '%s'", c.TimeSpec))
	}

	return nil
}

// KieskeurigConfig 가격 비교 사이트(kieskeurig.nl) 조회 설정 구조체
type KieskeurigConfig struct {
	Enabled bool `json:"enabled"`
}

// NotifierConfig 텔레그램, 디스코드 등 다양한 알림 채널을 정의하는 설정 구조체
type NotifierConfig struct {
	DefaultNotifierID string           `json:"default_notifier_id"`
	Telegrams         []TelegramConfig `json:"telegrams"`
	Discords          []DiscordConfig  `json:"discords"`
}

func (c *NotifierConfig) validate() ([]string, error) {
	var notifierIDs []string

	for _, telegram := range c.Telegrams {
		if err := validateStruct(telegram, fmt.Sprintf("Telegram Notifier['%s']", telegram.ID)); err != nil {
			return nil, err
		}
		notifierIDs = append(notifierIDs, telegram.ID)
	}

	for _, discord := range c.Discords {
		if err := validateStruct(discord, fmt.Sprintf("Discord Notifier['%s']", discord.ID)); err != nil {
			return nil, err
		}
		notifierIDs = append(notifierIDs, discord.ID)
	}

	if len(notifierIDs) == 0 {
		return nil, apperrors.New(apperrors.InvalidInput, "알림 채널(notifiers)이 하나 이상 정의되어야 합니다")
	}

	// Notifier 중복 ID 검사
	if err := checkUniqueValues(notifierIDs, "Notifier"); err != nil {
		return nil, err
	}

	// 기본 Notifier ID 검사
	if !slices.Contains(notifierIDs, c.DefaultNotifierID) {
		return nil, apperrors.New(apperrors.NotFound, fmt.Sprintf("기본 NotifierID('%s')가 정의된 Notifier 목록에 존재하지 않습니다", c.DefaultNotifierID))
	}

	return notifierIDs, nil
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	ID       string `json:"id" validate:"required"`
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// DiscordConfig 디스코드 웹훅 URL 정보를 담는 설정 구조체
type DiscordConfig struct {
	ID         string `json:"id" validate:"required"`
	WebhookURL string `json:"webhook_url" validate:"required,discord_webhook_url"`
}

// APIConfig 상태 조회용 REST API 서버 설정 구조체
type APIConfig struct {
	Enabled    bool `json:"enabled"`
	ListenPort int  `json:"listen_port" validate:"min=1,max=65535"`
}

func (c *APIConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	return validateStruct(c, "API")
}

// VerifyRecommendations 서비스 운영의 안정성을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.API.Enabled && c.API.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.API.ListenPort))
	}

	return warnings
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	err := k.Load(confmap.Provider(map[string]interface{}{
		"fetch.timeout":          DefaultFetchTimeout,
		"fetch.max_retries":      DefaultMaxRetries,
		"fetch.retry_delay":      DefaultRetryDelay,
		"tracker.watchlist_file": DefaultWatchlistFile,
		"tracker.time_spec":      DefaultTimeSpec,
		"api.listen_port":        DefaultListenPort,
	}, "."), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: PRICEBOT_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: PRICEBOT_TRACKER__TIME_SPEC -> tracker.time_spec
	if err := k.Load(env.Provider("PRICEBOT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PRICEBOT_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
