// Package tracker 추적 대상 상품 페이지를 주기적으로 확인하여 가격 인하와
// 품절/재입고 상태 변화를 감지하는 핵심 상태 머신을 제공합니다.
package tracker

import (
	"context"
	"sync"
	"time"

	applog "github.com/darkkaiser/pricebot-server/pkg/log"

	"github.com/darkkaiser/pricebot-server/internal/service/contract"
)

const component = "tracker"

// Tracker 추적 대상 URL별 상태를 소유하고 1회 확인 사이클을 수행하는 가격 추적기입니다.
//
// 상태 변경은 확인 사이클을 수행하는 단일 고루틴에서만 일어납니다. 뮤텍스는
// API 서비스 등 외부 고루틴의 읽기 접근(TrackedProducts)을 보호하기 위한 것으로,
// 쓰기 경합은 설계상 존재하지 않습니다.
type Tracker struct {
	urls []string

	fetchDoc  DocumentFetcher
	extractor FieldExtractor
	crossRef  CrossReferencer // nil이면 비교 가격 조회 비활성화

	sender               contract.NotificationSender
	priceDropNotifierID  contract.NotifierID // 빈 문자열이면 기본 채널 사용
	outOfStockNotifierID contract.NotifierID // 빈 문자열이면 기본 채널 사용

	metrics *Metrics

	mu sync.RWMutex

	// lastKnown URL별로 마지막으로 관측된 상품 정보입니다.
	// 가격 관측에 성공할 때마다 통째로 덮어쓰며, 삭제되지 않습니다.
	lastKnown map[string]contract.Product

	// potentiallyOutOfStock 품절로 의심되어 재입고 확인 대상인 URL 집합입니다.
	potentiallyOutOfStock map[string]struct{}

	// outOfStockNotified 품절 알림이 이미 발송된 URL 집합입니다.
	// 재입고가 확인되기 전까지 동일 URL에 대한 중복 알림을 차단합니다.
	outOfStockNotified map[string]struct{}

	checkedAt map[string]time.Time
}

// New 가격 추적기를 생성합니다. 프로세스 수명 동안 하나의 인스턴스만 생성하여 사용합니다.
func New(urls []string, fetchDoc DocumentFetcher, extractor FieldExtractor, crossRef CrossReferencer, sender contract.NotificationSender, priceDropNotifierID, outOfStockNotifierID contract.NotifierID, metrics *Metrics) *Tracker {
	return &Tracker{
		urls:                  urls,
		fetchDoc:              fetchDoc,
		extractor:             extractor,
		crossRef:              crossRef,
		sender:                sender,
		priceDropNotifierID:   priceDropNotifierID,
		outOfStockNotifierID:  outOfStockNotifierID,
		metrics:               metrics,
		lastKnown:             make(map[string]contract.Product),
		potentiallyOutOfStock: make(map[string]struct{}),
		outOfStockNotified:    make(map[string]struct{}),
		checkedAt:             make(map[string]time.Time),
	}
}

// RunCycle 확인 사이클을 1회 수행합니다.
//
// 추적 대상 URL을 등록된 순서대로 순차 확인한 뒤, 품절 의심 URL의 재입고 여부를
// 확인합니다. URL 간 병렬 처리는 하지 않으며, 취소 여부는 URL 사이에서만 검사합니다.
// 진행 중인 개별 URL의 확인은 중단되지 않습니다.
func (t *Tracker) RunCycle(ctx context.Context) {
	applog.WithComponent(component).Debugf("가격 확인 사이클을 시작합니다. (추적 대상 URL: %d개)", len(t.urls))

	for _, url := range t.urls {
		if ctx.Err() != nil {
			applog.WithComponent(component).Info("서비스 중지 요청으로 가격 확인 사이클을 중단합니다.")
			return
		}
		t.pollOnce(ctx, url)
	}

	t.recheckOutOfStock(ctx)

	t.metrics.incCycles()
	applog.WithComponent(component).Debug("가격 확인 사이클이 완료되었습니다.")
}

// pollOnce 추적 대상 URL 1건의 현재 상태를 확인하고 상태 머신을 1단계 진행시킵니다.
func (t *Tracker) pollOnce(ctx context.Context, url string) {
	doc, err := t.fetchDoc.FetchHTMLDocument(ctx, url)
	if err != nil {
		// 네트워크/TLS 장애는 이번 사이클에 한해 해당 URL을 건너뛰는 것으로 처리한다.
		// 상태는 변경하지 않으며, 다음 사이클에서 다시 확인된다.
		t.metrics.incFetchFailures()
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Warnf("상품 페이지를 가져오지 못했습니다. 이번 사이클에서는 건너뜁니다. (error: %v)", err)
		return
	}

	priceText, found := t.extractor.PriceText(doc)
	if !found {
		t.handleOutOfStock(url)
		return
	}

	price, err := ParsePrice(priceText)
	if err != nil {
		t.metrics.incParseFailures()
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Warnf("가격 문자열('%s')을 숫자로 변환하지 못했습니다. 이번 사이클에서는 건너뜁니다.", priceText)
		return
	}

	product := contract.Product{
		Title: t.extractor.Title(doc),
		Price: price,
		EAN:   t.extractor.EAN(doc),
	}

	crossRefPrice := t.lookupCrossReference(ctx, product.EAN)

	t.compareAndStore(url, product, crossRefPrice)
}

// handleOutOfStock 가격 요소를 찾지 못한 URL에 대해 품절 상태 진입을 처리합니다.
// 품절 알림은 재입고가 확인되기 전까지 URL당 1회만 발송됩니다.
func (t *Tracker) handleOutOfStock(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkedAt[url] = time.Now()

	if _, notified := t.outOfStockNotified[url]; notified {
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Debug("품절 상태가 유지 중입니다. (알림 발송 완료 상태)")
		return
	}

	message := renderOutOfStock(url, internalNumber(url))
	applog.WithComponentAndFields(component, applog.Fields{"url": url}).Info(message)

	t.notify(t.outOfStockNotifierID, message)

	t.outOfStockNotified[url] = struct{}{}
	t.potentiallyOutOfStock[url] = struct{}{}
	t.metrics.incOutOfStock()
}

// lookupCrossReference EAN을 기준으로 타 판매처의 최저가를 조회합니다.
// EAN이 없거나 조회가 실패한 경우 nil을 반환하며, 이는 에러로 취급되지 않습니다.
func (t *Tracker) lookupCrossReference(ctx context.Context, ean string) *float64 {
	if t.crossRef == nil || ean == "" {
		return nil
	}

	raw, found := t.crossRef.LowestPriceText(ctx, ean)
	if !found {
		return nil
	}

	price, err := ParsePrice(raw)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"ean": ean}).Debugf("비교 가격 문자열('%s')을 숫자로 변환하지 못했습니다. 비교 가격 없이 진행합니다.", raw)
		return nil
	}

	return &price
}

// compareAndStore 새로 관측된 상품 정보를 마지막 관측 정보와 비교하여 가격 인하 알림
// 여부를 결정한 뒤, 관측 정보를 갱신합니다.
//
// 최초 관측과 가격 미인하 상태는 운영자 로그로만 기록됩니다. 서비스 기동 직후나
// 가격이 안정적인 상품에 대한 불필요한 알림을 피하기 위한 의도된 동작입니다.
func (t *Tracker) compareAndStore(url string, product contract.Product, crossRefPrice *float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, exists := t.lastKnown[url]

	switch {
	case !exists:
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Info(renderCurrentPrice(product, crossRefPrice))

	case product.Price < prev.Price:
		message := renderPriceDrop(url, internalNumber(url), prev, product, crossRefPrice)
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Info(message)

		t.notify(t.priceDropNotifierID, message)
		t.metrics.incPriceDrops()

	default:
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Info(renderCurrentPrice(product, crossRefPrice))
	}

	t.lastKnown[url] = product
	t.checkedAt[url] = time.Now()
}

// recheckOutOfStock 품절 의심 URL들을 다시 확인하여 재입고 여부를 판별합니다.
//
// 가격 요소가 다시 발견되면 품절 관련 상태를 해제하여, 이후 다시 품절되는 경우
// 새로운 알림이 발송될 수 있도록 합니다. 이 단계는 상품 정보를 갱신하지 않으며,
// 재입고 알림도 발송하지 않습니다.
func (t *Tracker) recheckOutOfStock(ctx context.Context) {
	// 순회 중 집합이 변경될 수 있으므로 스냅샷을 먼저 확보한다.
	t.mu.RLock()
	urls := make([]string, 0, len(t.potentiallyOutOfStock))
	for url := range t.potentiallyOutOfStock {
		urls = append(urls, url)
	}
	t.mu.RUnlock()

	for _, url := range urls {
		if ctx.Err() != nil {
			applog.WithComponent(component).Info("서비스 중지 요청으로 재입고 확인을 중단합니다.")
			return
		}

		doc, err := t.fetchDoc.FetchHTMLDocument(ctx, url)
		if err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"url": url}).Warnf("재입고 확인을 위한 상품 페이지를 가져오지 못했습니다. (error: %v)", err)
			continue
		}

		if _, found := t.extractor.PriceText(doc); !found {
			// 여전히 품절 상태. 상태를 변경하지 않으며 알림도 발송하지 않는다.
			continue
		}

		t.mu.Lock()
		delete(t.potentiallyOutOfStock, url)
		delete(t.outOfStockNotified, url)
		t.mu.Unlock()

		t.metrics.incRestocks()
		applog.WithComponentAndFields(component, applog.Fields{"url": url}).Info("재입고가 확인되었습니다. 다음 사이클부터 가격 추적을 재개합니다.")
	}
}

// notify 알림을 발송합니다. notifierID가 비어있으면 기본 채널로 발송합니다.
// 발송 실패는 추적 로직에 영향을 주지 않으며, 로그로만 기록됩니다.
func (t *Tracker) notify(notifierID contract.NotifierID, message string) {
	if t.sender == nil {
		return
	}

	var err error
	if notifierID == "" {
		err = t.sender.NotifyDefault(message)
	} else {
		err = t.sender.Notify(notifierID, message)
	}
	if err != nil {
		applog.WithComponent(component).Errorf("알림 발송 요청이 실패하였습니다. (error: %v)", err)
	}
}

// TrackedProducts 현재 추적 중인 모든 URL의 상태 스냅샷을 반환합니다.
func (t *Tracker) TrackedProducts() []contract.TrackedProduct {
	t.mu.RLock()
	defer t.mu.RUnlock()

	products := make([]contract.TrackedProduct, 0, len(t.urls))
	for _, url := range t.urls {
		tracked := contract.TrackedProduct{
			URL:       url,
			CheckedAt: t.checkedAt[url],
		}

		if product, exists := t.lastKnown[url]; exists {
			p := product
			tracked.Product = &p
		}

		if _, outOfStock := t.potentiallyOutOfStock[url]; outOfStock {
			tracked.OutOfStock = true
		}

		products = append(products, tracked)
	}

	return products
}
