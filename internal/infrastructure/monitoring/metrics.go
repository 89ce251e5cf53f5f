package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	BooksCreatedTotal        prometheus.Counter
	LoansCreatedTotal        prometheus.Counter
	LoansReturnedTotal       prometheus.Counter
	OverdueNotificationsSent prometheus.Counter
	OverdueSweepRunsTotal    *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_service_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		BooksCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_service_books_created_total",
				Help: "Total number of books successfully registered.",
			},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_service_loans_created_total",
				Help: "Total number of loans successfully created.",
			},
		),
		LoansReturnedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_service_loans_returned_total",
				Help: "Total number of loans marked as returned.",
			},
		),
		OverdueNotificationsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_service_overdue_notifications_sent_total",
				Help: "Total number of overdue reminder emails dispatched.",
			},
		),
		OverdueSweepRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_service_overdue_sweep_runs_total",
				Help: "Total number of overdue sweep job runs by outcome.",
			},
			[]string{"outcome"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordBookCreated() {
	Business.BooksCreatedTotal.Inc()
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordLoanReturned() {
	Business.LoansReturnedTotal.Inc()
}

func RecordOverdueNotifications(count int) {
	Business.OverdueNotificationsSent.Add(float64(count))
}

func RecordOverdueSweepRun(outcome string) {
	Business.OverdueSweepRunsTotal.WithLabelValues(outcome).Inc()
}
