package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var EvaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "fleet_compliance_evaluation_duration_seconds",
	Help:    "Duration of compliance evaluations in seconds",
	Buckets: prometheus.DefBuckets,
}, []string{"scope"})

var UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleet_compliance_upstream_calls_total",
	Help: "Outbound calls by operation and outcome",
}, []string{"operation", "outcome"})

var ServersClassified = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleet_compliance_servers_classified_total",
	Help: "Classified servers by region and outcome",
}, []string{"region", "outcome"})
