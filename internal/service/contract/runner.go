package contract

import "context"

// CycleRunner 주기적으로 실행되는 가격 확인 사이클의 실행 계약입니다.
// Scheduler 서비스는 이 인터페이스를 통해 Tracker의 실행을 요청합니다.
type CycleRunner interface {
	// RunCycle 가격 확인 사이클(가격 확인 + 재입고 확인)을 1회 수행합니다.
	// 이전 사이클이 아직 실행 중인 경우의 중복 실행 방지는 호출자(스케줄러)가 담당합니다.
	RunCycle(ctx context.Context)
}
