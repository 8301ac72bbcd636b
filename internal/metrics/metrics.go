// Package metrics exposes the Prometheus collectors shared by the server and
// the notify worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roommates"

// Notification outcomes.
const (
	NotifySent   = "sent"
	NotifyFailed = "failed"
	NotifyQueued = "queued"
)

var (
	httpResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_time_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	expenseOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gastos",
			Name:      "operations_total",
		},
		[]string{"operation", "status"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emails_total",
		},
		[]string{"result"},
	)

	roommateCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "roommates",
	})

	expenseTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gastos",
		Name:      "monto_total",
	})
)

// ObserveExpenseOp counts one create, update or delete.
func ObserveExpenseOp(op string, err error) {
	expenseOps.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
}

// ObserveNotification counts one notification outcome.
func ObserveNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

// SetState records the current collection sizes.
func SetState(roommates int, total float64) {
	roommateCount.Set(float64(roommates))
	expenseTotal.Set(total)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records the response time of every request under its mux
// pattern. It must wrap the ServeMux directly, since the mux sets Pattern on
// the request value it receives.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpResponseTime.
			WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
