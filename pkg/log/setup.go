package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// 생성되는 로그 파일의 기본 확장자
	fileExt = "log"

	// 기본 로그 로테이션 정책
	defaultMaxSizeMB  = 50 // 로그 파일 하나당 최대 크기 (단위: MB)
	defaultMaxBackups = 10 // 로테이션 된 로그 파일의 최대 보관 개수
)

var (
	// Setup() 함수의 중복 호출을 방지하기 위한 동기화 객체
	setupOnce sync.Once

	// 최초 초기화 시 생성된 Closer를 유지하여, Setup 재호출 시 동일한 인스턴스를 반환합니다.
	globalCloser io.Closer

	// 초기화 단계에서 발생한 에러를 보관합니다. 이후 Setup() 재호출 시에도 동일한 에러를 반환합니다.
	globalSetupErr error
)

// Setup 전역 로깅 시스템을 초기화하고 설정된 옵션에 따라 파일 출력을 구성합니다.
//
// 주의:
//   - 애플리케이션 시작 시점(main 함수 도입부)에 호출하는 것을 권장합니다.
//   - 반환된 Closer는 반드시 defer를 통해 리소스가 해제되도록 보장해야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setupInternal(opts)
	})

	return globalCloser, globalSetupErr
}

// setupInternal 실제 로깅 시스템 초기화 로직을 수행합니다.
// Setup()에서 sync.Once를 통해 단 한 번만 호출됩니다.
func setupInternal(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)

	logrus.SetReportCaller(opts.ReportCaller)

	// Logrus는 io.Discard라도 포맷팅을 수행하므로, 아무것도 안 하는 포맷터를 설정합니다.
	logrus.SetFormatter(&silentFormatter{})

	// 실제 파일/콘솔 출력에 사용할 TextFormatter (hook에서 사용)
	textFormatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if opts.CallerPathPrefix != "" {
				if cut, found := strings.CutPrefix(function, opts.CallerPathPrefix); found {
					function = "..." + cut
				}
			}
			return
		},
	}

	// 로그 저장 경로가 명시되지 않은 경우 실행 위치의 'logs' 디렉토리를 기본값으로 사용합니다.
	logDir := opts.Dir
	if logDir == "" {
		logDir = "logs"
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	// Logrus의 기본 출력(os.Stderr)은 비활성화하고 모든 로그 처리를 Hook에 위임합니다.
	logrus.SetOutput(io.Discard)

	var consoleWriter io.Writer
	if opts.EnableConsoleLog {
		consoleWriter = os.Stdout
	}

	// 초기화 실패 시 이미 생성된 리소스를 롤백하기 위해 추적한다
	var closers []io.Closer
	succeeded := false

	defer func() {
		if !succeeded {
			for _, c := range closers {
				if c != nil {
					_ = c.Close()
				}
			}
		}
	}()

	newRotator := func(fileName string) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, fileName),
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   false,
			LocalTime:  true,
		}
	}

	mainLogger := newRotator(fmt.Sprintf("%s.%s", opts.Name, fileExt))
	closers = append(closers, mainLogger)

	h := &hook{
		mainWriter: mainLogger,
		formatter:  textFormatter,
	}

	if opts.EnableCriticalLog {
		criticalLogger := newRotator(fmt.Sprintf("%s.critical.%s", opts.Name, fileExt))
		closers = append(closers, criticalLogger)
		h.criticalWriter = criticalLogger
	}

	if opts.EnableVerboseLog {
		verboseLogger := newRotator(fmt.Sprintf("%s.verbose.%s", opts.Name, fileExt))
		closers = append(closers, verboseLogger)
		h.verboseWriter = verboseLogger
	}

	if consoleWriter != nil {
		h.consoleWriter = consoleWriter
	}

	// 구성된 Hook을 등록하여 실제 로깅 라우팅 시스템을 활성화합니다.
	logrus.AddHook(h)

	succeeded = true

	c := &closer{
		closers: closers,
		hook:    h,
	}

	// Fatal 로그 발생 시(os.Exit 호출 직전) 버퍼에 남은 로그를 디스크에 쓰도록 핸들러를 등록합니다.
	logrus.RegisterExitHandler(func() {
		_ = c.Close()
	})

	return c, nil
}
