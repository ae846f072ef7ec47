package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finance_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})

	eventsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finance_events_added_total",
		Help: "Events recorded, by event type.",
	}, []string{"type"})

	expensesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finance_expenses_added_total",
		Help: "Expenses recorded, by category.",
	}, []string{"category"})

	rejectedSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finance_rejected_submissions_total",
		Help: "Form submissions rejected by validation, by form.",
	}, []string{"form"})

	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "finance_sessions_started_total",
		Help: "Ledger sessions created.",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records request durations labelled with the matched
// ServeMux pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
