package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// hook 로그 레벨에 따라 로그를 여러 채널로 분배하는 Hook입니다.
//
// 단일 로그 이벤트를 중요도에 따라 라우팅합니다:
//   - Error 이상: Critical 및 Main 파일에 기록 (장애 격리)
//   - Info/Warn: Main 파일에 기록
//   - Debug/Trace: Verbose 파일에만 기록 (운영 로그 오염 방지)
//   - 콘솔이 활성화된 경우 모든 레벨을 표준 출력으로도 내보냅니다.
type hook struct {
	mainWriter     io.Writer // INFO / WARN / ERROR / FATAL / PANIC
	criticalWriter io.Writer // ERROR / FATAL / PANIC
	verboseWriter  io.Writer // DEBUG / TRACE
	consoleWriter  io.Writer // 모든 레벨 (표준 출력)

	formatter Formatter

	mu sync.RWMutex // 로그 기록(Read Lock)과 종료 처리(Write Lock) 간의 동시성 제어

	closed bool // true일 경우 모든 로그 기록 요청을 거부
}

// Levels 이 Hook이 수신할 로그 레벨의 집합을 반환합니다.
func (h *hook) Levels() []Level {
	return AllLevels
}

// Fire 발생한 로그 이벤트를 레벨에 따라 적절한 Writer로 분배하여 기록합니다.
func (h *hook) Fire(entry *Entry) error {
	// Read Lock으로 동시 로깅을 허용하되, 기록 중 Hook이 종료되지 않도록 보호한다
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	// 포맷팅은 한 번만 수행하여 재사용
	msg, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	var firstErr error

	// 0. Console Writer: 레벨 필터링 없이 모든 로그를 표준 출력으로 내보낸다.
	//    표준 출력 쓰기 실패가 전체 로깅 시스템에 영향을 주지 않도록 에러를 전파하지 않는다.
	if h.consoleWriter != nil {
		if _, err := h.consoleWriter.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] 표준 출력(Console) 쓰기 실패: %v\n", err)
		}
	}

	// 1. Critical Writer (Error 이상)
	//    쓰기에 실패하더라도 메인 로그 기록은 수행되어야 하므로 에러를 즉시 반환하지 않는다.
	if entry.Level <= ErrorLevel && h.criticalWriter != nil {
		if _, err := h.criticalWriter.Write(msg); err != nil {
			firstErr = err
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] Critical 로그 파일 쓰기 실패: %v\n", err)
		}
	}

	// 2. Verbose Writer (Debug/Trace)
	//    상세 로그는 메인 로그에 남기지 않으므로 여기서 함수를 종료한다.
	if entry.Level >= DebugLevel {
		if h.verboseWriter != nil {
			if _, err := h.verboseWriter.Write(msg); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] Verbose 로그 파일 쓰기 실패: %v\n", err)
			}
		}
		return firstErr
	}

	// 3. Main Writer (Info 이상)
	//    Critical Writer의 실패 여부와 관계없이 기록을 시도한다.
	if h.mainWriter != nil {
		if _, err := h.mainWriter.Write(msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] Main 로그 파일 쓰기 실패: %v\n", err)
		}
	}

	return firstErr
}

// Close Hook을 '종료' 상태로 전환하여 더 이상의 로그 기록을 차단합니다.
func (h *hook) Close() error {
	// Write Lock으로 현재 실행 중인 모든 로깅 작업이 완료될 때까지 대기한다
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	return nil
}
