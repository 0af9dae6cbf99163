package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 가격 추적 동작의 운영 지표를 수집하는 Prometheus 컬렉터 모음입니다.
// 자체 Registry를 소유하며, API 서비스는 이 Registry를 통해 /metrics 엔드포인트를 제공합니다.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal        prometheus.Counter
	PriceDropsTotal    prometheus.Counter
	OutOfStockTotal    prometheus.Counter
	RestocksTotal      prometheus.Counter
	FetchFailuresTotal prometheus.Counter
	ParseFailuresTotal prometheus.Counter
}

// NewMetrics 모든 지표를 생성하고 전용 Registry에 등록합니다.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_cycles_total",
		Help: "Total number of completed polling cycles.",
	})
	priceDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_price_drops_total",
		Help: "Total number of detected price drops.",
	})
	outOfStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_out_of_stock_total",
		Help: "Total number of out-of-stock notifications sent.",
	})
	restocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_restocks_total",
		Help: "Total number of confirmed restocks.",
	})
	fetchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_fetch_failures_total",
		Help: "Total number of product page fetch failures.",
	})
	parseFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricebot_parse_failures_total",
		Help: "Total number of price parse failures.",
	})

	registry.MustRegister(cycles, priceDrops, outOfStock, restocks, fetchFailures, parseFailures)

	return &Metrics{
		Registry:           registry,
		CyclesTotal:        cycles,
		PriceDropsTotal:    priceDrops,
		OutOfStockTotal:    outOfStock,
		RestocksTotal:      restocks,
		FetchFailuresTotal: fetchFailures,
		ParseFailuresTotal: parseFailures,
	}
}

// incCycles nil-safe 증가 헬퍼입니다. 지표 수집이 비활성화된 경우에도 호출부가 분기 없이 동작합니다.
func (m *Metrics) incCycles() {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
}

func (m *Metrics) incPriceDrops() {
	if m == nil {
		return
	}
	m.PriceDropsTotal.Inc()
}

func (m *Metrics) incOutOfStock() {
	if m == nil {
		return
	}
	m.OutOfStockTotal.Inc()
}

func (m *Metrics) incRestocks() {
	if m == nil {
		return
	}
	m.RestocksTotal.Inc()
}

func (m *Metrics) incFetchFailures() {
	if m == nil {
		return
	}
	m.FetchFailuresTotal.Inc()
}

func (m *Metrics) incParseFailures() {
	if m == nil {
		return
	}
	m.ParseFailuresTotal.Inc()
}
