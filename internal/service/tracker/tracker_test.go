package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/pricebot-server/internal/service/contract"
	"github.com/darkkaiser/pricebot-server/internal/service/tracker/bcc"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fixtures & Helpers
// -----------------------------------------------------------------------------

const (
	testURL  = "https://www.bcc.nl/product/espresso-machine/123456"
	testURL2 = "https://www.bcc.nl/product/wasmachine/654321"

	// defaultNotifierID recordingSender가 기본 채널 발송을 기록할 때 사용하는 식별자
	defaultNotifierID contract.NotifierID = "<default>"

	// outOfStockNotifierID 테스트에서 품절 알림 채널로 사용하는 식별자
	outOfStockNotifierID contract.NotifierID = "out-of-stock"
)

// productPage 가격 추적 대상 사이트의 상품 페이지 마크업을 생성합니다.
func productPage(title, price, ean string) string {
	return fmt.Sprintf(`<html><body>
		<h1 id="page_title">%s</h1>
		<section class="productoffer block">
			<span class="priceblock__price--salesprice"><span class="sr-only">Prijs</span>%s</span>
		</section>
		<table><tbody><tr><th>EAN</th><td>%s</td></tr></tbody></table>
	</body></html>`, title, price, ean)
}

// outOfStockPage 가격 요소가 존재하지 않는 상품 페이지 마크업을 생성합니다.
func outOfStockPage(title string) string {
	return fmt.Sprintf(`<html><body>
		<h1 id="page_title">%s</h1>
		<div class="stock-message">Tijdelijk uitverkocht</div>
	</body></html>`, title)
}

// fakeDocFetcher URL별로 준비된 마크업 또는 에러를 반환하는 테스트용 문서 로더입니다.
type fakeDocFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
}

func newFakeDocFetcher() *fakeDocFetcher {
	return &fakeDocFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (f *fakeDocFetcher) setPage(url, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, url)
	f.pages[url] = html
}

func (f *fakeDocFetcher) setError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, url)
	f.errs[url] = err
}

func (f *fakeDocFetcher) FetchHTMLDocument(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, exists := f.errs[url]; exists {
		return nil, err
	}
	html, exists := f.pages[url]
	if !exists {
		return nil, errors.New("페이지가 준비되지 않았습니다: " + url)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// recordingSender 발송 요청을 기록만 하는 테스트용 알림 발송기입니다.
type recordingSender struct {
	mu            sync.Mutex
	notifications []sentNotification
}

type sentNotification struct {
	NotifierID contract.NotifierID
	Message    string
}

func (s *recordingSender) Notify(notifierID contract.NotifierID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, sentNotification{NotifierID: notifierID, Message: message})
	return nil
}

func (s *recordingSender) NotifyDefault(message string) error {
	return s.Notify(defaultNotifierID, message)
}

func (s *recordingSender) NotifyDefaultWithError(message string) error {
	return s.Notify(defaultNotifierID, message)
}

func (s *recordingSender) SupportsHTML(contract.NotifierID) bool {
	return false
}

func (s *recordingSender) sent() []sentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentNotification(nil), s.notifications...)
}

func (s *recordingSender) sentTo(notifierID contract.NotifierID) []sentNotification {
	var filtered []sentNotification
	for _, n := range s.sent() {
		if n.NotifierID == notifierID {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

// fakeCrossRef EAN별로 준비된 가격 문자열을 반환하는 테스트용 비교 가격 조회기입니다.
type fakeCrossRef struct {
	mu     sync.Mutex
	prices map[string]string
	calls  int
}

func (c *fakeCrossRef) LowestPriceText(_ context.Context, ean string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	raw, exists := c.prices[ean]
	return raw, exists
}

func (c *fakeCrossRef) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// newTestTracker 테스트용 협력 객체들로 구성된 Tracker를 생성합니다.
func newTestTracker(urls []string, fetchDoc *fakeDocFetcher, crossRef CrossReferencer, sender contract.NotificationSender) *Tracker {
	return New(urls, fetchDoc, bcc.NewExtractor(), crossRef, sender, "", outOfStockNotifierID, NewMetrics())
}

// -----------------------------------------------------------------------------
// Unit Tests: 가격 비교 상태 머신
// -----------------------------------------------------------------------------

func TestTracker_FirstObservationIsSilent(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€1.234,56", "8712345678901"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())

	// 최초 관측은 외부 채널로 알림을 발송하지 않는다.
	assert.Empty(t, sender.sent())

	// 관측 정보는 저장되어야 한다.
	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Product)
	assert.Equal(t, "Espresso Machine", products[0].Product.Title)
	assert.InDelta(t, 1234.56, products[0].Product.Price, 0.0001)
	assert.Equal(t, "8712345678901", products[0].Product.EAN)
	assert.False(t, products[0].OutOfStock)
}

func TestTracker_PriceDropNotifiesExactlyOnce(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", "8712345678901"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())
	require.Empty(t, sender.sent())

	// 가격 인하 발생
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€90,00", "8712345678901"))
	tracker.RunCycle(context.Background())

	notifications := sender.sentTo(defaultNotifierID)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "has dropped from €100,00 to €90,00")
	assert.Contains(t, notifications[0].Message, testURL)
	assert.Contains(t, notifications[0].Message, "Internal number: 123456")

	// 관측 정보는 새 가격으로 갱신되어야 한다.
	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	assert.InDelta(t, 90.00, products[0].Product.Price, 0.0001)

	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.metrics.PriceDropsTotal))
}

func TestTracker_PriceDropUsesDedicatedChannelWhenConfigured(t *testing.T) {
	t.Parallel()

	const priceDropNotifierID = contract.NotifierID("price-drop")

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	sender := &recordingSender{}

	tracker := New([]string{testURL}, fetchDoc, bcc.NewExtractor(), nil, sender, priceDropNotifierID, outOfStockNotifierID, NewMetrics())
	tracker.RunCycle(context.Background())

	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€90,00", ""))
	tracker.RunCycle(context.Background())

	// 가격 인하 알림은 전용 채널로만 발송되어야 한다.
	require.Len(t, sender.sentTo(priceDropNotifierID), 1)
	assert.Empty(t, sender.sentTo(defaultNotifierID))
}

func TestTracker_NoNotificationWhenPriceDoesNotDrop(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		newPrice string
		expected float64
	}{
		{name: "가격 인상", newPrice: "€95,00", expected: 95.00},
		{name: "가격 동일", newPrice: "€90,00", expected: 90.00},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fetchDoc := newFakeDocFetcher()
			fetchDoc.setPage(testURL, productPage("Espresso Machine", "€90,00", ""))
			sender := &recordingSender{}

			tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
			tracker.RunCycle(context.Background())

			fetchDoc.setPage(testURL, productPage("Espresso Machine", tc.newPrice, ""))
			tracker.RunCycle(context.Background())

			assert.Empty(t, sender.sent())

			// 알림은 없지만 관측 정보는 갱신되어야 한다.
			products := tracker.TrackedProducts()
			require.Len(t, products, 1)
			assert.InDelta(t, tc.expected, products[0].Product.Price, 0.0001)
		})
	}
}

func TestTracker_OutOfStockNotificationIsDeduplicated(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, outOfStockPage("Espresso Machine"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)

	// 두 사이클 연속 품절 상태
	tracker.RunCycle(context.Background())
	tracker.RunCycle(context.Background())

	// 품절 알림은 정확히 1회만 발송되어야 한다.
	notifications := sender.sentTo(outOfStockNotifierID)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, testURL)
	assert.Contains(t, notifications[0].Message, "Internal number: 123456")

	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	assert.True(t, products[0].OutOfStock)

	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.metrics.OutOfStockTotal))
}

func TestTracker_DiscontinuedMarkerIsTreatedAsOutOfStock(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<h1 id="page_title">Espresso Machine</h1>
		<section class="productoffer">
			<span class="priceblock__price--salesprice">Dit product is uit het assortiment</span>
		</section>
	</body></html>`

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, page)
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())

	require.Len(t, sender.sentTo(outOfStockNotifierID), 1)
}

func TestTracker_RestockClearsDeduplication(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, outOfStockPage("Espresso Machine"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)

	// 1. 품절 감지 및 알림 발송
	tracker.RunCycle(context.Background())
	require.Len(t, sender.sentTo(outOfStockNotifierID), 1)

	// 2. 재입고: 사이클의 재확인 단계에서 품절 상태가 해제된다.
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	tracker.RunCycle(context.Background())

	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	assert.False(t, products[0].OutOfStock)
	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.metrics.RestocksTotal))

	// 3. 다시 품절: 새로운 품절 알림이 발송되어야 한다.
	fetchDoc.setPage(testURL, outOfStockPage("Espresso Machine"))
	tracker.RunCycle(context.Background())

	assert.Len(t, sender.sentTo(outOfStockNotifierID), 2)
}

func TestTracker_RecheckDoesNotBuildProductOrNotify(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, outOfStockPage("Espresso Machine"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.pollOnce(context.Background(), testURL)
	require.Len(t, sender.sent(), 1)

	// 재입고 확인 단계에서 가격이 발견되더라도 관측 정보를 만들지 않고,
	// 재입고 알림도 발송하지 않는다.
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	tracker.recheckOutOfStock(context.Background())

	assert.Len(t, sender.sent(), 1)

	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Product)
	assert.False(t, products[0].OutOfStock)
}

func TestTracker_RecheckIsIdempotentWhileStillOutOfStock(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, outOfStockPage("Espresso Machine"))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.pollOnce(context.Background(), testURL)

	// 품절 상태가 지속되는 동안 재확인을 반복해도 상태와 알림에 변화가 없어야 한다.
	for i := 0; i < 3; i++ {
		tracker.recheckOutOfStock(context.Background())
	}

	assert.Len(t, sender.sent(), 1)

	tracker.mu.RLock()
	defer tracker.mu.RUnlock()
	assert.Contains(t, tracker.potentiallyOutOfStock, testURL)
	assert.Contains(t, tracker.outOfStockNotified, testURL)
}

func TestTracker_CrossReferenceIsOptional(t *testing.T) {
	t.Parallel()

	t.Run("EAN이 없는 상품은 비교 가격을 조회하지 않는다", func(t *testing.T) {
		t.Parallel()

		fetchDoc := newFakeDocFetcher()
		fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
		sender := &recordingSender{}
		crossRef := &fakeCrossRef{prices: map[string]string{}}

		tracker := newTestTracker([]string{testURL}, fetchDoc, crossRef, sender)
		tracker.RunCycle(context.Background())

		assert.Zero(t, crossRef.callCount())

		// 비교 가격이 없어도 관측 정보는 정상적으로 저장된다.
		products := tracker.TrackedProducts()
		require.Len(t, products, 1)
		require.NotNil(t, products[0].Product)
	})

	t.Run("비교 가격 조회 실패는 가격 비교를 차단하지 않는다", func(t *testing.T) {
		t.Parallel()

		fetchDoc := newFakeDocFetcher()
		fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", "8712345678901"))
		sender := &recordingSender{}
		crossRef := &fakeCrossRef{prices: map[string]string{}} // 조회 결과 없음

		tracker := newTestTracker([]string{testURL}, fetchDoc, crossRef, sender)
		tracker.RunCycle(context.Background())

		assert.Equal(t, 1, crossRef.callCount())

		fetchDoc.setPage(testURL, productPage("Espresso Machine", "€90,00", "8712345678901"))
		tracker.RunCycle(context.Background())

		notifications := sender.sentTo(defaultNotifierID)
		require.Len(t, notifications, 1)
		assert.NotContains(t, notifications[0].Message, "Lowest price elsewhere")
	})

	t.Run("비교 가격이 조회되면 알림 메시지에 포함된다", func(t *testing.T) {
		t.Parallel()

		fetchDoc := newFakeDocFetcher()
		fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", "8712345678901"))
		sender := &recordingSender{}
		crossRef := &fakeCrossRef{prices: map[string]string{"8712345678901": "€85,50"}}

		tracker := newTestTracker([]string{testURL}, fetchDoc, crossRef, sender)
		tracker.RunCycle(context.Background())

		fetchDoc.setPage(testURL, productPage("Espresso Machine", "€90,00", "8712345678901"))
		tracker.RunCycle(context.Background())

		notifications := sender.sentTo(defaultNotifierID)
		require.Len(t, notifications, 1)
		assert.Contains(t, notifications[0].Message, "Lowest price elsewhere: €85,50")
	})
}

func TestTracker_FetchFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	fetchDoc.setPage(testURL2, productPage("Wasmachine", "€500,00", ""))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL, testURL2}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())

	// 첫 번째 URL에서 네트워크 장애 발생
	fetchDoc.setError(testURL, errors.New("tls: handshake failure"))
	fetchDoc.setPage(testURL2, productPage("Wasmachine", "€450,00", ""))
	tracker.RunCycle(context.Background())

	// 장애 URL의 상태는 유지되고, 다음 URL의 처리는 계속된다.
	products := tracker.TrackedProducts()
	require.Len(t, products, 2)
	assert.InDelta(t, 100.00, products[0].Product.Price, 0.0001)
	assert.InDelta(t, 450.00, products[1].Product.Price, 0.0001)

	// 두 번째 URL의 가격 인하 알림은 정상 발송된다.
	assert.Len(t, sender.sentTo(defaultNotifierID), 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.metrics.FetchFailuresTotal))
}

func TestTracker_ParseFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())

	// 가격 요소는 존재하지만 숫자로 변환할 수 없는 경우
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "binnenkort beschikbaar", ""))
	tracker.RunCycle(context.Background())

	// 변환 실패는 품절로 격상되지 않으며, 상태도 변경하지 않는다.
	assert.Empty(t, sender.sent())

	products := tracker.TrackedProducts()
	require.Len(t, products, 1)
	assert.InDelta(t, 100.00, products[0].Product.Price, 0.0001)
	assert.False(t, products[0].OutOfStock)

	assert.Equal(t, float64(1), testutil.ToFloat64(tracker.metrics.ParseFailuresTotal))
}

func TestTracker_CycleStopsBetweenURLsOnContextCancel(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	fetchDoc.setPage(testURL2, productPage("Wasmachine", "€500,00", ""))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL, testURL2}, fetchDoc, nil, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tracker.RunCycle(ctx)

	// 이미 취소된 컨텍스트로는 어떤 URL도 처리하지 않는다.
	for _, p := range tracker.TrackedProducts() {
		assert.Nil(t, p.Product)
	}
}

func TestTracker_CycleMetricIncreasesPerCycle(t *testing.T) {
	t.Parallel()

	fetchDoc := newFakeDocFetcher()
	fetchDoc.setPage(testURL, productPage("Espresso Machine", "€100,00", ""))
	sender := &recordingSender{}

	tracker := newTestTracker([]string{testURL}, fetchDoc, nil, sender)
	tracker.RunCycle(context.Background())
	tracker.RunCycle(context.Background())

	assert.Equal(t, float64(2), testutil.ToFloat64(tracker.metrics.CyclesTotal))
}

// -----------------------------------------------------------------------------
// Unit Tests: 내부 상품 번호
// -----------------------------------------------------------------------------

func TestInternalNumber(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "URL의 마지막 6자리", url: testURL, expected: "123456"},
		{name: "6자보다 짧은 URL은 전체 반환", url: "abc", expected: "abc"},
		{name: "빈 URL", url: "", expected: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, internalNumber(tc.url))
		})
	}
}
