// Package errors 애플리케이션 전용 에러 처리 시스템을 제공합니다.
//
// 표준 errors 패키지를 확장하여 타입 기반 에러 분류와 에러 체이닝을 지원합니다.
// 모든 에러는 ErrorType으로 분류되며, Wrap 함수를 통해 컨텍스트를 누적할 수 있습니다.
//
// 새 에러 생성:
//
//	err := errors.New(errors.NotFound, "상품 페이지를 찾을 수 없습니다")
//
// 에러 래핑 (컨텍스트 추가):
//
//	if err != nil {
//	    return errors.Wrap(err, errors.ParsingFailed, "가격 추출 실패")
//	}
//
// 에러 타입 검사:
//
//	if errors.Is(err, errors.NotFound) {
//	    // NotFound 타입 에러 처리
//	}
//
// ErrorType 선택 가이드:
//   - Internal: 내부 로직 오류 (버그로 간주)
//   - System: 시스템 또는 인프라 수준의 장애 (네트워크, 디스크 I/O 등)
//   - InvalidInput: 입력값 검증 실패 (잘못된 URL, 설정값 등)
//   - NotFound: 요청한 리소스를 찾을 수 없음 (페이지 요소 미존재 등)
//   - ExecutionFailed: 외부 프로세스 실행 실패 (페이지 요청 실패, 알림 발송 실패 등)
//   - ParsingFailed: 데이터 파싱 또는 형식 변환 실패 (HTML 구조 분석, 가격 문자열 변환 등)
//   - Timeout: 작업 시간 초과
//   - Unavailable: 서비스 일시적 사용 불가
package errors

import (
	"errors"
	"fmt"
	"io"
)

// AppError 애플리케이션에서 발생하는 모든 에러를 표준화하여 표현하는 구조체입니다.
type AppError struct {
	errType ErrorType // 에러의 종류
	message string    // 사용자에게 보여줄 메시지
	cause   error     // 이 에러가 발생하게 된 근본 원인 (에러 체이닝)
}

// Type 에러의 타입을 반환합니다.
func (e *AppError) Type() ErrorType {
	return e.errType
}

// Message 에러 메시지를 반환합니다.
func (e *AppError) Message() string {
	return e.message
}

// Error 표준 errors.Error 인터페이스를 구현합니다.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.errType, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.errType, e.message)
}

// Unwrap 표준 errors.Unwrap 인터페이스를 구현합니다.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Format fmt.Formatter 인터페이스를 구현합니다.
// %+v 사용 시 에러 체인을 단계별로 출력합니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "[%s] %s", e.errType, e.message)
			if e.cause != nil {
				fmt.Fprint(s, "\nCaused by:\n")
				if formatter, ok := e.cause.(fmt.Formatter); ok {
					formatter.Format(s, verb)
				} else {
					fmt.Fprintf(s, "\t%v", e.cause)
				}
			}
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// New 새로운 에러를 생성합니다.
func New(errType ErrorType, message string) error {
	return &AppError{
		errType: errType,
		message: message,
	}
}

// Newf 포맷 문자열을 사용하여 새로운 에러를 생성합니다.
func Newf(errType ErrorType, format string, args ...any) error {
	return &AppError{
		errType: errType,
		message: fmt.Sprintf(format, args...),
	}
}

// Wrap 기존 에러를 감싸서 새로운 에러를 생성합니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		errType: errType,
		message: message,
		cause:   err,
	}
}

// Wrapf 포맷 문자열을 사용하여 기존 에러를 감쌉니다.
func Wrapf(err error, errType ErrorType, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &AppError{
		errType: errType,
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Is 에러 체인에 특정 ErrorType이 포함되어 있는지 확인합니다.
func Is(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			if appErr.errType == errType {
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As 에러 체인에서 특정 타입의 에러를 찾아 대상 변수에 할당합니다.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// RootCause 에러가 발생한 가장 근본적인 원인 에러를 찾습니다.
func RootCause(err error) error {
	if err == nil {
		return nil
	}

	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}

// UnderlyingType 에러 체인에서 가장 안쪽에 있는 AppError의 ErrorType을 반환합니다.
//
// 외부 라이브러리 에러(context.DeadlineExceeded 등)를 AppError로 래핑한 경우에도
// 의도한 ErrorType을 올바르게 반환합니다. 체인에 AppError가 없으면 Unknown을 반환합니다.
func UnderlyingType(err error) ErrorType {
	var lastAppErrorType ErrorType = Unknown

	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			lastAppErrorType = appErr.errType
		}
		err = errors.Unwrap(err)
	}

	return lastAppErrorType
}
