package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ddlc/pkg/ddl"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
}

func TestPreprocessIncludeAndDefine(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.ddl":   "#include \"common.ddl\"\n#define SIZE 4\nstruct S, description(\"SIZE\") { Color c; int32[SIZE] v; }\n",
		"common.ddl": "select Color { red; }\n",
	})
	main := filepath.Join(dir, "main.ddl")

	unit, err := PreprocessFile(main, nil)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	if len(unit.Files) != 2 {
		t.Fatalf("expected 2 files, got %v", unit.Files)
	}
	if filepath.Base(unit.Files[1]) != "common.ddl" {
		t.Errorf("expected common.ddl second, got %s", unit.Files[1])
	}
	src := string(unit.Source)
	if !strings.Contains(src, "int32[4] v") {
		t.Errorf("expected SIZE to be replaced, got:\n%s", src)
	}
	if !strings.Contains(src, `description("SIZE")`) {
		t.Errorf("expected string literals to be left alone, got:\n%s", src)
	}

	d := mustCompileUnit(t, unit)
	st := mustStruct(t, d, "S")
	if got := mustField(t, st, "v").Count(); got != 4 {
		t.Errorf("expected 4 elements, got %d", got)
	}
	if st.Description() != "SIZE" {
		t.Errorf("expected description SIZE, got %q", st.Description())
	}
}

func mustCompileUnit(t *testing.T, unit Unit) ddl.Definition {
	t.Helper()
	d, err := compileSource(t, string(unit.Source), Options{})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return d
}

func TestPreprocessLineMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.ddl":       "// header\n#include \"inc/types.ddl\"\nstruct S { Missing m; }\n",
		"inc/types.ddl":  "select A { x; }\n\nstruct Bad { Nope n; }\n",
		"other/good.ddl": "select B { y; }\n",
	})

	unit, err := PreprocessFile(filepath.Join(dir, "main.ddl"), nil)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	_, err = compileSource(t, string(unit.Source), Options{})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.File != "inc/types.ddl" || e.Line != 3 {
		t.Errorf("expected inc/types.ddl:3, got %s:%d", e.File, e.Line)
	}

	writeFiles(t, dir, map[string]string{
		"inc/types.ddl": "select A { x; }\n",
	})
	unit, err = PreprocessFile(filepath.Join(dir, "main.ddl"), nil)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	_, err = compileSource(t, string(unit.Source), Options{})
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if filepath.Base(e.File) != "main.ddl" || e.Line != 3 {
		t.Errorf("expected main.ddl:3, got %s:%d", e.File, e.Line)
	}
}

func TestPreprocessIncludeOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.ddl":   "#include \"a.ddl\"\n#include \"b.ddl\"\n#include \"a.ddl\"\n",
		"a.ddl":      "select A { x; }\n",
		"b.ddl":      "#include \"a.ddl\"\nstruct B { A a; }\n",
		"unused.ddl": "",
	})
	unit, err := PreprocessFile(filepath.Join(dir, "main.ddl"), nil)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	if len(unit.Files) != 3 {
		t.Errorf("expected 3 files, got %v", unit.Files)
	}
	d := mustCompileUnit(t, unit)
	if d.NumAggregates() != 2 {
		t.Errorf("expected 2 aggregates, got %d", d.NumAggregates())
	}
}

func TestPreprocessIncludePaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/main.ddl":   "#include \"lib.ddl\"\nstruct S { L l; }\n",
		"vendor/lib.ddl": "select L { a; }\n",
	})
	main := filepath.Join(dir, "src", "main.ddl")

	if _, err := PreprocessFile(main, nil); !errors.Is(err, ErrPreprocess) {
		t.Fatalf("expected ErrPreprocess without include paths, got %v", err)
	}
	unit, err := PreprocessFile(main, []string{filepath.Join(dir, "vendor")})
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	mustCompileUnit(t, unit)
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		msg   string
		line  int
	}{
		{
			name:  "Circular Include",
			files: map[string]string{"main.ddl": "#include \"a.ddl\"\n", "a.ddl": "#include \"b.ddl\"\n", "b.ddl": "\n#include \"a.ddl\"\n"},
			msg:   "circular include",
			line:  2,
		},
		{
			name:  "Self Include",
			files: map[string]string{"main.ddl": "select A { x; }\n#include \"main.ddl\"\n"},
			msg:   "circular include",
			line:  2,
		},
		{
			name:  "Missing File",
			files: map[string]string{"main.ddl": "\n\n#include \"nope.ddl\"\n"},
			msg:   "not found",
			line:  3,
		},
		{
			name:  "Unknown Directive",
			files: map[string]string{"main.ddl": "#pragma once\n"},
			msg:   "unknown directive #pragma",
			line:  1,
		},
		{
			name:  "Unquoted Include",
			files: map[string]string{"main.ddl": "#include <a.ddl>\n"},
			msg:   "invalid include",
			line:  1,
		},
		{
			name:  "Bad Define",
			files: map[string]string{"main.ddl": "#define 1X 2\n"},
			msg:   "invalid #define",
			line:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			_, err := PreprocessFile(filepath.Join(dir, "main.ddl"), nil)
			if !errors.Is(err, ErrPreprocess) {
				t.Fatalf("expected ErrPreprocess, got %v", err)
			}
			var e *Error
			errors.As(err, &e)
			if !strings.Contains(e.Msg, tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, e.Msg)
			}
			if e.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, e.Line)
			}
		})
	}
}

func TestPreprocessSource(t *testing.T) {
	pp := &Preprocessor{}
	unit, err := pp.Source([]byte("#define T int64\nstruct S { T big; }\n"), "")
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	if len(unit.Files) != 0 {
		t.Errorf("expected no files for anonymous source, got %v", unit.Files)
	}
	d := mustCompileUnit(t, unit)
	if got := mustField(t, mustStruct(t, d, "S"), "big").Type().String(); got != "int64" {
		t.Errorf("expected int64, got %s", got)
	}
}
