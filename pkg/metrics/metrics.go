// Package metrics provides Prometheus metrics for schema compilation.
package metrics

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ddlc/pkg/arena"
	"ddlc/pkg/compiler"
	"ddlc/pkg/ddl"
)

// Collector holds all Prometheus metrics for ddlc.
type Collector struct {
	// Compile metrics
	CompilesTotal   *prometheus.CounterVec
	CompileDuration prometheus.Histogram
	DefinitionBytes prometheus.Gauge
	Aggregates      prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Watch metrics
	WatchEvents prometheus.Counter
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CompilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ddlc",
				Name:      "compiles_total",
				Help:      "Total number of compilations by outcome",
			},
			[]string{"outcome"},
		),
		CompileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ddlc",
				Name:      "compile_duration_seconds",
				Help:      "Compilation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		DefinitionBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ddlc",
				Name:      "definition_bytes",
				Help:      "Size of the last successfully compiled definition",
			},
		),
		Aggregates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ddlc",
				Name:      "aggregates",
				Help:      "Aggregates in the last successfully compiled definition",
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ddlc",
				Name:      "cache_lookups_total",
				Help:      "Blob cache lookups by result",
			},
			[]string{"result"},
		),
		WatchEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ddlc",
				Name:      "watch_events_total",
				Help:      "File system events that triggered a recompile",
			},
		),
	}
}

// ObserveCompile records one compilation. def is ignored when err is set.
func (c *Collector) ObserveCompile(elapsed time.Duration, def ddl.Definition, err error) {
	c.CompilesTotal.WithLabelValues(Outcome(err)).Inc()
	c.CompileDuration.Observe(elapsed.Seconds())
	if err == nil {
		c.DefinitionBytes.Set(float64(def.TotalSize()))
		c.Aggregates.Set(float64(def.NumAggregates()))
	}
}

// ObserveCache records a cache lookup.
func (c *Collector) ObserveCache(hit bool) {
	if hit {
		c.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.CacheLookups.WithLabelValues("miss").Inc()
}

// Outcome names the result of a compilation for the outcome label:
// "ok", the snake-cased diagnostic kind, "out_of_memory" or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, arena.ErrOutOfMemory) {
		return "out_of_memory"
	}
	var cerr *compiler.Error
	if errors.As(err, &cerr) && cerr.Kind != nil {
		return strings.ReplaceAll(cerr.Kind.Error(), " ", "_")
	}
	return "error"
}

// Handler serves the metrics gathered by g on path, plus a /healthz probe.
func Handler(g prometheus.Gatherer, path string) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
