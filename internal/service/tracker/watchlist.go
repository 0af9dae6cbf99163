package tracker

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/darkkaiser/pricebot-server/internal/pkg/errors"
	applog "github.com/darkkaiser/pricebot-server/pkg/log"
	"github.com/tidwall/gjson"
)

// WatchlistLoader 추적 대상 URL 목록을 외부 데이터 소스로부터 로드하는 추상 인터페이스입니다.
type WatchlistLoader interface {
	Load() ([]string, error)
}

// JSONWatchlistLoader 로컬 파일 시스템에 저장된 JSON 파일로부터 추적 대상 URL 목록을 로드하는 구현체입니다.
//
// 파일 형식:
//
//	{ "urls": [ "https://...", "https://..." ] }
type JSONWatchlistLoader struct {
	FilePath string
}

// Load 지정된 경로의 JSON 파일을 읽어 추적 대상 URL 목록을 로드합니다.
//
// 파일이 존재하지 않는 경우는 에러가 아닌 빈 목록으로 처리됩니다. 추적 대상이
// 없어도 서비스 자체는 정상 동작해야 하므로, 운영자 경고 로그만 남기고 계속 진행합니다.
func (l *JSONWatchlistLoader) Load() ([]string, error) {
	data, err := os.ReadFile(l.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			applog.WithComponent("tracker.watchlist").Warnf("추적 대상 URL 목록 파일(%s)이 존재하지 않습니다. 빈 목록으로 시작합니다.", l.FilePath)
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("추적 대상 URL 목록 파일(%s)을 읽는 중 오류가 발생했습니다", l.FilePath))
	}

	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("추적 대상 URL 목록 파일(%s)이 유효한 JSON 형식이 아닙니다", l.FilePath))
	}

	result := gjson.GetBytes(data, "urls")
	if !result.Exists() {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("추적 대상 URL 목록 파일(%s)에 'urls' 항목이 존재하지 않습니다", l.FilePath))
	}
	if !result.IsArray() {
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("추적 대상 URL 목록 파일(%s)의 'urls' 항목은 배열이어야 합니다", l.FilePath))
	}

	items := result.Array()
	urls := make([]string, 0, len(items))
	for _, item := range items {
		url := strings.TrimSpace(item.String())
		if url == "" {
			continue
		}
		urls = append(urls, url)
	}

	return urls, nil
}
