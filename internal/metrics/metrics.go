// Package metrics exposes Prometheus instrumentation for discovery, polling
// and persistence. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/j-veylop/omni-quota/internal/logger"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "omniquota"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// ProbeAttempts counts endpoint requests by scheme and result
	ProbeAttempts *prometheus.CounterVec
	// PollCycles counts completed poll cycles by result
	PollCycles *prometheus.CounterVec
	// ValidationRejections counts rejected account candidates by reason code
	ValidationRejections *prometheus.CounterVec
	// AccountsRegistered tracks the registry size
	AccountsRegistered prometheus.Gauge
	// ModelQuota tracks remaining quota percentage per account and model
	ModelQuota *prometheus.GaugeVec
	// PersistenceErrors counts failed store writes by key
	PersistenceErrors *prometheus.CounterVec
	// registry is the custom registry for this metrics instance
	registry *prometheus.Registry
}

// New creates and registers all Prometheus metrics
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ProbeAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_attempts_total",
				Help:      "Total number of language server requests",
			},
			[]string{"scheme", "result"},
		),
		PollCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Total number of poll cycles",
			},
			[]string{"result"},
		),
		ValidationRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_rejections_total",
				Help:      "Total number of rejected account candidates",
			},
			[]string{"reason"},
		),
		AccountsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "accounts_registered",
				Help:      "Number of registered accounts",
			},
		),
		ModelQuota: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_quota_percent",
				Help:      "Remaining quota percentage",
			},
			[]string{"account", "model"},
		),
		PersistenceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_errors_total",
				Help:      "Total number of failed store writes",
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(
		m.ProbeAttempts,
		m.PollCycles,
		m.ValidationRejections,
		m.AccountsRegistered,
		m.ModelQuota,
		m.PersistenceErrors,
	)

	return m
}

// Handler returns a Prometheus handler for these metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordProbe records one request attempt.
func (m *Metrics) RecordProbe(scheme, result string) {
	if m == nil {
		return
	}
	m.ProbeAttempts.WithLabelValues(scheme, result).Inc()
}

// RecordCycle records a finished poll cycle.
func (m *Metrics) RecordCycle(result string) {
	if m == nil {
		return
	}
	m.PollCycles.WithLabelValues(result).Inc()
}

// RecordRejection records a validation rejection by reason code.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.ValidationRejections.WithLabelValues(reason).Inc()
}

// SetAccounts sets the registry size.
func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.AccountsRegistered.Set(float64(n))
}

// SetModelQuota records the remaining percentage for a model.
func (m *Metrics) SetModelQuota(account, model string, percent int) {
	if m == nil {
		return
	}
	m.ModelQuota.WithLabelValues(account, model).Set(float64(percent))
}

// ForgetAccount drops every model gauge of account.
func (m *Metrics) ForgetAccount(account string) {
	if m == nil {
		return
	}
	m.ModelQuota.DeletePartialMatch(prometheus.Labels{"account": account})
}

// RecordPersistenceError records a failed write for key.
func (m *Metrics) RecordPersistenceError(key string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(key).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	logger.Info("Serving metrics", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
