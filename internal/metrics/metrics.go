package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts API calls by endpoint and outcome.
type Recorder struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweetstat",
		Name:      "api_calls_total",
		Help:      "Twitter API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(calls)
	return &Recorder{registry: reg, calls: calls}
}

// Hook matches ClientConfig.MetricsHook.
func (r *Recorder) Hook(endpoint string, success, rateLimited bool) {
	r.calls.WithLabelValues(endpoint, outcome(success, rateLimited)).Inc()
}

func outcome(success, rateLimited bool) string {
	switch {
	case success:
		return "success"
	case rateLimited:
		return "rate_limited"
	}
	return "error"
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("metrics listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server failed", slog.Any("error", err))
		}
	}()
}
