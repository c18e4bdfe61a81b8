package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bamboowoods"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status writes by target status.",
		},
		[]string{"status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Booking emails by kind and result.",
		},
		[]string{"kind", "result"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_tasks_total",
			Help:      "Spreadsheet sync tasks by result.",
		},
		[]string{"result"},
	)

	reviewsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_requests_total",
			Help:      "Reviews proxy lookups by source (cache, upstream, error).",
		},
		[]string{"source"},
	)
)

// Register registers the collectors with the default registry. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingTransitions, notifications, syncTasks, reviewsRequests)
	})
}

func ObserveHTTP(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notifications.WithLabelValues(kind, result).Inc()
}

func IncSyncTask(result string) {
	syncTasks.WithLabelValues(result).Inc()
}

func IncReviews(source string) {
	reviewsRequests.WithLabelValues(source).Inc()
}
