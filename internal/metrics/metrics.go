// Package metrics exposes sill's client-side Prometheus metrics.
//
// Metrics collected:
//   - sill_api_requests_total: API requests by endpoint and status code
//   - sill_api_request_duration_seconds: API request latency by endpoint
//   - sill_feed_stale_responses_total: listing responses discarded as stale
//   - sill_uploads_total: upload attempts by result
//   - sill_api_up: 1 while the health poller sees the API as healthy
//
// When a metrics address is configured, Serve publishes them at /metrics next
// to a /healthz probe.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sill"

// Recorder owns a private registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	stale    prometheus.Counter
	uploads  *prometheus.CounterVec
	up       prometheus.Gauge
}

// New returns a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total Windows API requests by endpoint and status code",
		}, []string{"endpoint", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Windows API request latency in seconds",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		stale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_stale_responses_total",
			Help:      "Listing responses discarded because a newer request was issued",
		}),
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by result",
		}, []string{"result"}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_up",
			Help:      "Whether the last health poll succeeded",
		}),
	}
}

// ObserveRequest records one API call. A zero status means no response.
func (r *Recorder) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.requests.WithLabelValues(endpoint, code).Inc()
	r.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// StaleResponse counts a discarded listing response.
func (r *Recorder) StaleResponse() {
	if r == nil {
		return
	}
	r.stale.Inc()
}

// Upload counts an upload attempt.
func (r *Recorder) Upload(err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.uploads.WithLabelValues(result).Inc()
}

// SetUp records the health poll outcome.
func (r *Recorder) SetUp(healthy bool) {
	if r == nil {
		return
	}
	if healthy {
		r.up.Set(1)
	} else {
		r.up.Set(0)
	}
}

// Handler returns the router serving /metrics and /healthz.
func (r *Recorder) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	return router
}

// Serve listens on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	return r.serve(ctx, ln, logger)
}

func (r *Recorder) serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Info("metrics endpoint listening", "addr", ln.Addr().String())
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
