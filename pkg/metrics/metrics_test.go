package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ddlc/pkg/arena"
	"ddlc/pkg/compiler"
	"ddlc/pkg/ddl"
	"ddlc/pkg/metrics"
)

func compileDef(t *testing.T, src string) (ddl.Definition, error) {
	t.Helper()
	return compiler.Compile(arena.NewLinear(1<<16), arena.NewLinear(1<<16), []byte(src), compiler.Options{})
}

func TestObserveCompile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	def, err := compileDef(t, "select A { x; }\nstruct S { A a; }\n")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	m.ObserveCompile(3*time.Millisecond, def, nil)
	_, err = compileDef(t, "struct S { Missing m; }")
	m.ObserveCompile(time.Millisecond, ddl.Definition{}, err)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	got := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			name := f.GetName()
			for _, l := range metric.GetLabel() {
				name += "/" + l.GetValue()
			}
			switch {
			case metric.Counter != nil:
				got[name] = metric.GetCounter().GetValue()
			case metric.Gauge != nil:
				got[name] = metric.GetGauge().GetValue()
			case metric.Histogram != nil:
				got[name] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	expected := map[string]float64{
		"ddlc_compiles_total/ok":                 1,
		"ddlc_compiles_total/unknown_identifier": 1,
		"ddlc_compile_duration_seconds":          2,
		"ddlc_aggregates":                        2,
		"ddlc_definition_bytes":                  float64(def.TotalSize()),
	}
	for name, want := range expected {
		if got[name] != want {
			t.Errorf("%s: expected %v, got %v", name, want, got[name])
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Nil", nil, "ok"},
		{"Diagnostic", &compiler.Error{Kind: compiler.ErrSyntax}, "syntax_error"},
		{"Out Of Memory", fmt.Errorf("compile: %w", arena.ErrOutOfMemory), "out_of_memory"},
		{"Other", errors.New("disk full"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metrics.Outcome(tt.err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.WatchEvents.Inc()

	srv := httptest.NewServer(metrics.Handler(reg, "/metrics"))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		`ddlc_cache_lookups_total{result="hit"} 1`,
		`ddlc_cache_lookups_total{result="miss"} 2`,
		"ddlc_watch_events_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in:\n%s", want, body)
		}
	}

	resp, err = srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
