// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umt_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umt_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	rpcFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umt_rpc_failures_total",
		Help: "RPC failures recorded to the error log, by title",
	}, []string{"title"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "umt_scheduler_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})

	membersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umt_members_created_total",
		Help: "Total number of members registered",
	})

	cardsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umt_cards_expired_total",
		Help: "Total number of membership cards moved to Expired",
	})

	backupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "umt_backups_created_total",
		Help: "Total number of database backups written",
	})
)

// ObserveRequest records one served HTTP request
func ObserveRequest(method, route, status string, start time.Time) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// IncRPCFailure counts an RPC failure
func IncRPCFailure(title string) {
	rpcFailures.WithLabelValues(title).Inc()
}

// IncJobRun counts a scheduler job run
func IncJobRun(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}

// IncMemberCreated counts a registered member
func IncMemberCreated() {
	membersCreated.Inc()
}

// AddCardsExpired counts cards moved to Expired
func AddCardsExpired(n int) {
	cardsExpired.Add(float64(n))
}

// IncBackupCreated counts a written backup
func IncBackupCreated() {
	backupsCreated.Inc()
}
