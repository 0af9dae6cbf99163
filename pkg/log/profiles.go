package log

// NewProductionOptions 운영(Production) 환경에 최적화된 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: InfoLevel,

		MaxAge:     30, // 30일 보관
		MaxSizeMB:  50, // 50MB 단위 로테이션
		MaxBackups: 10, // 최대 10개 백업 유지

		EnableCriticalLog: true,  // 장애 대응을 위한 중요 로그 격리
		EnableVerboseLog:  true,  // 문제 추적을 위한 상세 로그 분리
		EnableConsoleLog:  false, // 터미널 출력 비활성화

		ReportCaller:     true,
		CallerPathPrefix: "github.com/darkkaiser",
	}
}

// NewDevelopmentOptions 개발(Development) 환경에 최적화된 로그 설정을 반환합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: TraceLevel,

		MaxAge:     1,  // 가볍게 1일만 보관
		MaxSizeMB:  20, // 20MB 단위 로테이션
		MaxBackups: 3,  // 최대 3개 백업 유지

		EnableCriticalLog: false, // 개발 편의를 위한 로그 파일 통합
		EnableVerboseLog:  false, // 개발 편의를 위한 로그 파일 통합
		EnableConsoleLog:  true,  // 터미널 출력 활성화

		ReportCaller:     true,
		CallerPathPrefix: "github.com/darkkaiser",
	}
}
