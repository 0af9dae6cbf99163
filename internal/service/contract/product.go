package contract

import "time"

// Product 상품 페이지에서 추출한 핵심 정보의 스냅샷입니다.
type Product struct {
	Title string  `json:"title"` // 상품명
	Price float64 `json:"price"` // 판매 가격 (유로)
	EAN   string  `json:"ean"`   // 국제 상품 번호 (미존재 시 빈 문자열)
}

// TrackedProduct 추적 대상 URL의 현재 상태입니다.
// API 등 외부 조회용으로 사용됩니다.
type TrackedProduct struct {
	URL        string    `json:"url"`                   // 추적 대상 상품 페이지 URL
	Product    *Product  `json:"product,omitempty"`     // 마지막으로 관측된 상품 정보 (미관측 시 nil)
	OutOfStock bool      `json:"out_of_stock"`          // 품절 알림이 발송된 상태인지 여부
	CheckedAt  time.Time `json:"checked_at,omitempty"`  // 마지막 확인 시각
}

// ProductReader 추적 중인 상품 상태를 조회하는 인터페이스입니다.
// API 서비스는 이 인터페이스를 통해 Tracker의 내부 상태를 읽습니다.
type ProductReader interface {
	// TrackedProducts 현재 추적 중인 모든 URL의 상태 스냅샷을 반환합니다.
	TrackedProducts() []TrackedProduct
}
