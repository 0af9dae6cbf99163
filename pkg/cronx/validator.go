package cronx

// Validate 주어진 Cron 표현식이 애플리케이션 표준 형식(6필드 확장 형식)에 부합하는지 검증합니다.
// 유효하지 않은 경우 파서가 반환한 에러를 그대로 반환합니다.
func Validate(timeSpec string) error {
	_, err := StandardParser().Parse(timeSpec)
	return err
}
