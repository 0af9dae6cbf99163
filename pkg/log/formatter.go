package log

import "github.com/sirupsen/logrus"

// silentFormatter 아무런 동작도 하지 않는 포맷터입니다.
// Logrus는 출력이 io.Discard라도 포맷팅 연산을 수행하므로, 불필요한 연산을 막기 위해 사용합니다.
// (실제 포맷팅은 Hook에서 수행)
type silentFormatter struct{}

// Format 아무런 변환도 수행하지 않고 nil을 반환합니다.
func (f *silentFormatter) Format(_ *logrus.Entry) ([]byte, error) {
	return nil, nil
}
