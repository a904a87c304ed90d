package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "familyscore"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "handler_errors_total", Help: "Handler errors (5xx)",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})

	TasksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "tasks_completed_total", Help: "Tasks moved to completed",
	})
	ScoreIncreases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "score_increases_total", Help: "Score increases recorded",
	})
	FollowUpTasks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "followup_tasks_total", Help: "Punishment follow-up tasks created",
	})
	ScoreExchanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "score_exchanges_total", Help: "Score exchanges recorded",
	})
	ExchangesRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "score_exchanges_rejected_total", Help: "Exchanges refused for insufficient points",
	})
	AIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "ai_requests_total", Help: "LLM calls by outcome",
	}, []string{"kind", "outcome"})

	LedgerStudents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "ledger_students", Help: "Live students",
	})
	LedgerPointsAwarded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "ledger_points_awarded", Help: "Sum of live score increases",
	})
	LedgerPointsExchanged = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "ledger_points_exchanged", Help: "Sum of live score exchanges",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPDuration, HandlerErrors, DBPing,
		TasksCompleted, ScoreIncreases, FollowUpTasks, ScoreExchanges, ExchangesRejected, AIRequests,
		LedgerStudents, LedgerPointsAwarded, LedgerPointsExchanged,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
