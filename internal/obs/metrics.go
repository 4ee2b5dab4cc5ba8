package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "procura_ready",
		Help: "1 when the service accepts traffic.",
	})
)

// Award engine metrics
var (
	AwardsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procura_awards_created_total",
		Help: "Awards committed by the allocator.",
	})
	AwardConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procura_award_conflicts_total",
		Help: "Award batches rejected because a line was already awarded.",
	})
	PurchaseOrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procura_purchase_orders_created_total",
		Help: "Draft purchase orders derived from awards.",
	})
	PurchaseOrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procura_purchase_orders_cancelled_total",
		Help: "Purchase orders cancelled together with their awards.",
	})
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more
// than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration, ready,
			AwardsCreated, AwardConflicts, PurchaseOrdersCreated, PurchaseOrdersCancelled,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// unmatchedRoute labels requests that no route handled.
const unmatchedRoute = "unmatched"

// RouteLabel returns the chi route template that served r, such as
// /v1/rfqs/{rfqID}/awards. Requests outside a chi router or not matched by
// any route share one label so the series count stays bounded.
func RouteLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" && p != "/*" {
		return p
	}
	return unmatchedRoute
}

// Instrument records RPS, latency and in-flight requests. It must run as
// chi middleware so the matched route is known once next returns.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := RouteLabel(r)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
