// Package metrics exposes the relay's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for each Generate call.
const (
	OutcomeSuccess        = "success"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeInvalidRequest = "invalid_request"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "genrelay_build_info",
			Help: "Build information for genrelay",
		},
		[]string{"date", "sha", "version"},
	)

	generateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_generate_requests_total",
			Help: "Generate calls by relay mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genrelay_upstream_request_duration_seconds",
			Help:    "Latency of calls to the upstream completion endpoint",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	upstreamStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_upstream_responses_total",
			Help: "Upstream HTTP responses by status code",
		},
		[]string{"code"},
	)

	tokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_tokens_total",
			Help: "Tokens reported in upstream usage, by kind",
		},
		[]string{"kind"},
	)

	transcriptRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genrelay_transcript_records_total",
			Help: "Console exchanges appended to the transcript store",
		},
		[]string{"backend"},
	)
)

// Register adds all collectors to r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, generateRequests, upstreamDuration, upstreamStatus, tokens, transcriptRecords)
}

// SetBuildInfo sets the build info gauge.
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordGenerate counts one Generate call.
func RecordGenerate(mode, outcome string) {
	generateRequests.WithLabelValues(mode, outcome).Inc()
}

// ObserveUpstream records the latency of one upstream call.
func ObserveUpstream(outcome string, d time.Duration) {
	upstreamDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordUpstreamStatus counts an HTTP status returned by the upstream.
func RecordUpstreamStatus(code string) {
	upstreamStatus.WithLabelValues(code).Inc()
}

// RecordTokens adds n tokens of the given kind (prompt, completion, total).
func RecordTokens(kind string, n float64) {
	if n > 0 {
		tokens.WithLabelValues(kind).Add(n)
	}
}

// RecordTranscriptAppend counts a record written to a transcript backend.
func RecordTranscriptAppend(backend string) {
	transcriptRecords.WithLabelValues(backend).Inc()
}
