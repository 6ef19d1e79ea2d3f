package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReadingsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utilitybot_readings_recorded_total",
			Help: "Meter readings submitted per kind and result",
		},
		[]string{"kind", "result"},
	)

	BillsCalculatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "utilitybot_bills_calculated_total",
			Help: "Total number of successfully calculated bills",
		},
	)

	BillFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utilitybot_bill_failures_total",
			Help: "Bill calculations that failed, per reason",
		},
		[]string{"reason"},
	)

	HeatingUnavailableTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "utilitybot_heating_unavailable_total",
			Help: "Bills produced without a heating line item",
		},
	)

	ExternalRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "utilitybot_external_request_duration_seconds",
			Help:    "Duration of calls to external providers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "result"},
	)

	UpdatesHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utilitybot_updates_handled_total",
			Help: "Telegram updates handled per event kind",
		},
		[]string{"event"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "utilitybot_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "utilitybot_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utilitybot_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

// ObserveExternal записывает длительность вызова внешнего сервиса
func ObserveExternal(provider string, startedAt time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ExternalRequestDurationSeconds.WithLabelValues(provider, result).Observe(time.Since(startedAt).Seconds())
}

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}

// NewMux отдаёт /metrics и /health
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}
