package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "botdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	webhookUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botdesk",
			Name:      "webhook_updates_total",
			Help:      "Inbound Telegram updates by outcome.",
		},
		[]string{"result"},
	)

	telegramCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botdesk",
			Name:      "telegram_api_calls_total",
			Help:      "Outbound Bot API calls by method and outcome.",
		},
		[]string{"method", "result"},
	)

	auditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botdesk",
			Name:      "audit_writes_total",
			Help:      "Audit log writes by outcome.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, webhookUpdates, telegramCalls, auditWrites)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncWebhook(result string) {
	webhookUpdates.WithLabelValues(result).Inc()
}

func IncTelegramCall(method string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	telegramCalls.WithLabelValues(method, result).Inc()
}

func IncAuditWrite(result string) {
	auditWrites.WithLabelValues(result).Inc()
}
