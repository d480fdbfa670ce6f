package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTraceBuiltinSource(t *testing.T) {
	var out bytes.Buffer
	if err := trace(&out, nil, traceOptions{source: true, tokens: true, pointers: true}); err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Source:\n",
		"Tokens (",
		"SELECT",
		"Definition (",
		"2 aggregates",
		"struct Point",
		"Pointers (",
		" -> 0x",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in trace:\n%s", want, got)
		}
	}
}

func TestTraceSkipsStages(t *testing.T) {
	var out bytes.Buffer
	if err := trace(&out, nil, traceOptions{}); err != nil {
		t.Fatalf("trace failed: %v", err)
	}
	got := out.String()
	if strings.Contains(got, "Tokens (") || strings.Contains(got, "Pointers (") || strings.Contains(got, "Source:") {
		t.Errorf("expected only the definition, got:\n%s", got)
	}
}

func TestTraceReportsErrors(t *testing.T) {
	var out bytes.Buffer
	err := trace(&out, []string{"testdata/missing.ddl"}, traceOptions{})
	if err == nil || !strings.Contains(err.Error(), "preprocess error") {
		t.Errorf("expected a preprocess error, got %v", err)
	}
}
