// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordAuthOutcome(outcome string)
	RecordSignup()
	RecordLogin(success bool)
	RecordReview(target string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	authOutcomes *prometheus.CounterVec
	signups      prometheus.Counter
	logins       *prometheus.CounterVec
	reviews      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyabroad_http_requests_total",
			Help: "ルート・メソッド・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studyabroad_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyabroad_auth_outcomes_total",
			Help: "トークン検証結果別の件数",
		}, []string{"outcome"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studyabroad_signups_total",
			Help: "サインアップ成功の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyabroad_logins_total",
			Help: "ログイン試行の結果別件数",
		}, []string{"result"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studyabroad_reviews_submitted_total",
			Help: "レビュー投稿数（大学・コース別）",
		}, []string{"target"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authOutcomes,
		c.signups,
		c.logins,
		c.reviews,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthOutcome はトークン検証結果（valid, expired, invalid, absent）を記録する。
func (c *Collector) RecordAuthOutcome(outcome string) {
	c.authOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSignup はサインアップ成功を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordReview はレビュー投稿を記録する。targetは"university"または"course"。
func (c *Collector) RecordReview(target string) {
	c.reviews.WithLabelValues(target).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// NewHTTPMiddleware はリクエスト件数と処理時間を記録するミドルウェアを返す。
// ラベルにはURLではなくchiのルートパターンを使い、カーディナリティを抑える。
func NewHTTPMiddleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			c.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopCollector) RecordAuthOutcome(string)                           {}
func (NopCollector) RecordSignup()                                      {}
func (NopCollector) RecordLogin(bool)                                   {}
func (NopCollector) RecordReview(string)                                {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
