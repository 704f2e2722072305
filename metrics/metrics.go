// Package metrics defines the ambient HTTP-request metrics exposed at
// /metrics, grounded on the teacher's metrics package (a package-level
// docker/go-metrics Namespace registered with prometheus's default
// registry) and notifications/metrics.go's labeled-counter usage. This
// is deliberately request/latency metrics only — package-download
// metrics are a spec.md §1 non-goal.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docker/go-metrics"
)

// NamespacePrefix is the namespace every metric below is registered under.
const NamespacePrefix = "quartermaster"

// HTTPNamespace is the prometheus namespace for ambient HTTP request
// metrics, registered with the default prometheus registry at init time
// the way the teacher's metrics package registers its namespaces.
var HTTPNamespace = metrics.NewNamespace(NamespacePrefix, "http", nil)

var (
	requestsTotal  = HTTPNamespace.NewLabeledCounter("requests_total", "The number of HTTP requests handled", "method", "route", "code")
	requestLatency = HTTPNamespace.NewLabeledTimer("request_duration_seconds", "The latency of HTTP requests", "method", "route")
)

func init() {
	metrics.Register(HTTPNamespace)
}

// statusRecorder wraps a ResponseWriter to capture the status code
// written, mirroring the teacher's singleStatusResponseWriter (registry/handlers/app.go)
// but only recording, never suppressing, repeated writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.status == 0 {
		sr.status = status
	}
	sr.ResponseWriter.WriteHeader(status)
}

// Instrument wraps next so every request increments requestsTotal and
// observes requestLatency, labeled by method, route pattern, and status
// code.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(sr, r)

		requestLatency.WithValues(r.Method, route).UpdateSince(start)
		if sr.status == 0 {
			sr.status = http.StatusOK
		}
		requestsTotal.WithValues(r.Method, route, strconv.Itoa(sr.status)).Inc(1)
	})
}
