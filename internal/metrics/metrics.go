// Package metrics holds the Prometheus collectors shared by the tool server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// toolInvocations counts guarded tool calls by terminal state.
	// Labels: tool, state (completed, timed_out, cancelled, rejected)
	toolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repolens",
		Subsystem: "tool",
		Name:      "invocations_total",
		Help:      "Total tool calls by tool and terminal state",
	}, []string{"tool", "state"})

	// toolQueryResults counts per-query outcomes.
	// Labels: tool, status (hasResults, empty, error)
	toolQueryResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repolens",
		Subsystem: "tool",
		Name:      "query_results_total",
		Help:      "Total per-query results by tool and status",
	}, []string{"tool", "status"})

	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "repolens",
		Subsystem: "tool",
		Name:      "duration_seconds",
		Help:      "Wall time of guarded tool calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"tool"})

	// githubRequests counts outbound GitHub API calls.
	// Labels: endpoint, code (HTTP status or "error")
	githubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repolens",
		Subsystem: "github",
		Name:      "requests_total",
		Help:      "Total GitHub API requests by endpoint and response code",
	}, []string{"endpoint", "code"})

	// registryRequests counts outbound package registry calls.
	registryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repolens",
		Subsystem: "registry",
		Name:      "requests_total",
		Help:      "Total package registry requests by ecosystem and response code",
	}, []string{"ecosystem", "code"})

	// cacheLookups counts response cache lookups.
	// Labels: result (hit, miss, expired, error)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repolens",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by result",
	}, []string{"result"})
)

// RecordTool records one finished tool call.
func RecordTool(tool, state string, d time.Duration) {
	toolInvocations.WithLabelValues(tool, state).Inc()
	toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordQueryResults adds n results with the given status.
func RecordQueryResults(tool, status string, n int) {
	if n <= 0 {
		return
	}
	toolQueryResults.WithLabelValues(tool, status).Add(float64(n))
}

// RecordGitHubRequest records an outbound GitHub call. A zero code means the
// request failed before a response arrived.
func RecordGitHubRequest(endpoint string, code int) {
	githubRequests.WithLabelValues(endpoint, codeLabel(code)).Inc()
}

// RecordRegistryRequest records an outbound package registry call.
func RecordRegistryRequest(ecosystem string, code int) {
	registryRequests.WithLabelValues(ecosystem, codeLabel(code)).Inc()
}

// RecordCacheLookup records a response cache lookup.
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func codeLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
