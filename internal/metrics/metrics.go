// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 取り込みパイプラインやミドルウェアから利用する。
type MetricsCollector interface {
	RecordSourceFetchFailure()
	RecordItemSkipped()
	RecordSummarizeFallback()
	RecordArticleStored()
	RecordHTTPStatus(statusCode int)
	RecordIngestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sourceFetchFail   prometheus.Counter
	itemsSkipped      prometheus.Counter
	summarizeFallback prometheus.Counter
	articlesStored    prometheus.Counter
	httpStatus        *prometheus.CounterVec
	ingestLatency     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akhbar_source_fetch_fail_total",
			Help: "ニュースソース取得失敗の合計数",
		}),
		itemsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akhbar_ingest_items_skipped_total",
			Help: "品質ゲートで破棄された記事の合計数",
		}),
		summarizeFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akhbar_summarize_fallback_total",
			Help: "要約フォールバックが適用された記事の合計数",
		}),
		articlesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "akhbar_ingest_articles_stored_total",
			Help: "保存された記事の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "akhbar_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		ingestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "akhbar_ingest_latency_seconds",
			Help:    "取り込みパイプライン実行のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.sourceFetchFail,
		c.itemsSkipped,
		c.summarizeFallback,
		c.articlesStored,
		c.httpStatus,
		c.ingestLatency,
	)

	return c
}

// RecordSourceFetchFailure はニュースソース取得失敗を記録する。
func (c *Collector) RecordSourceFetchFailure() {
	c.sourceFetchFail.Inc()
}

// RecordItemSkipped は品質ゲートでの記事破棄を記録する。
func (c *Collector) RecordItemSkipped() {
	c.itemsSkipped.Inc()
}

// RecordSummarizeFallback は要約フォールバックの適用を記録する。
func (c *Collector) RecordSummarizeFallback() {
	c.summarizeFallback.Inc()
}

// RecordArticleStored は記事の保存を記録する。
func (c *Collector) RecordArticleStored() {
	c.articlesStored.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordIngestLatency は取り込みパイプラインのレイテンシを記録する。
func (c *Collector) RecordIngestLatency(duration time.Duration) {
	c.ingestLatency.Observe(duration.Seconds())
}

// SetupMetricsRoute は指定されたレジストリの/metricsハンドラーを返す。
func SetupMetricsRoute(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
