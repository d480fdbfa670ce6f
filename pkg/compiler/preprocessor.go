package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Unit is preprocessed source ready for Compile.
type Unit struct {
	Source []byte
	// Files lists every file read, the main file first.
	Files []string
}

// Preprocessor expands `#include "file"` and object-like `#define NAME text`
// directives. The output carries `# N "file"` line markers so that
// diagnostics point at the original file and line.
type Preprocessor struct {
	// IncludePaths are searched, in order, for includes not found next to
	// the including file.
	IncludePaths []string
	// ReadFile loads a file. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	defines map[string]string
	done    map[string]bool
	files   []string
}

// PreprocessFile reads and expands the file at path.
func PreprocessFile(path string, includePaths []string) (Unit, error) {
	pp := &Preprocessor{IncludePaths: includePaths}
	return pp.File(path)
}

// Preprocess expands src. file names src in diagnostics and anchors
// relative includes; it may be empty.
func Preprocess(src []byte, file string, includePaths []string) (Unit, error) {
	pp := &Preprocessor{IncludePaths: includePaths}
	return pp.Source(src, file)
}

func (pp *Preprocessor) reset() {
	pp.defines = make(map[string]string)
	pp.done = make(map[string]bool)
	pp.files = nil
	if pp.ReadFile == nil {
		pp.ReadFile = os.ReadFile
	}
}

// File reads and expands the file at path.
func (pp *Preprocessor) File(path string) (Unit, error) {
	pp.reset()
	abs, err := filepath.Abs(path)
	if err != nil {
		return Unit{}, err
	}
	src, err := pp.ReadFile(abs)
	if err != nil {
		return Unit{}, err
	}
	return pp.run(src, path, abs)
}

// Source expands src as if read from file.
func (pp *Preprocessor) Source(src []byte, file string) (Unit, error) {
	pp.reset()
	abs := ""
	if file != "" {
		var err error
		if abs, err = filepath.Abs(file); err != nil {
			return Unit{}, err
		}
	}
	return pp.run(src, file, abs)
}

func (pp *Preprocessor) run(src []byte, name, abs string) (Unit, error) {
	var out strings.Builder
	stack := map[string]bool{}
	if abs != "" {
		pp.done[abs] = true
		stack[abs] = true
		pp.files = append(pp.files, abs)
	}
	if err := pp.expand(&out, string(src), name, abs, stack); err != nil {
		return Unit{}, err
	}
	return Unit{Source: []byte(out.String()), Files: pp.files}, nil
}

func (pp *Preprocessor) errorf(file string, line int, text, format string, args ...any) error {
	return &Error{
		Kind:   ErrPreprocess,
		File:   file,
		Line:   line,
		Msg:    fmt.Sprintf(format, args...),
		Source: strings.TrimSpace(text),
	}
}

// expand writes the expansion of src, read from name, to out. stack holds
// the absolute paths of the files currently being expanded.
func (pp *Preprocessor) expand(out *strings.Builder, src, name, abs string, stack map[string]bool) error {
	fmt.Fprintf(out, "# 1 %q\n", name)
	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			out.WriteString(pp.applyDefines(line))
			out.WriteByte('\n')
			continue
		}

		directive, rest, _ := strings.Cut(strings.TrimSpace(trimmed[1:]), " ")
		rest = strings.TrimSpace(rest)
		switch directive {
		case "define":
			macro, body, _ := strings.Cut(rest, " ")
			if macro == "" || !isIdentifier(macro) {
				return pp.errorf(name, lineNo, line, "invalid #define")
			}
			pp.defines[macro] = pp.applyDefines(strings.TrimSpace(body))
			out.WriteByte('\n')
		case "include":
			target, ok := quoted(rest)
			if !ok {
				return pp.errorf(name, lineNo, line, "invalid include directive, expected #include \"file\"")
			}
			path, err := pp.resolve(target, abs)
			if err != nil {
				return pp.errorf(name, lineNo, line, "%v", err)
			}
			if stack[path] {
				return pp.errorf(name, lineNo, line, "circular include of %q", target)
			}
			if pp.done[path] {
				out.WriteByte('\n')
				continue
			}
			pp.done[path] = true
			pp.files = append(pp.files, path)
			content, err := pp.ReadFile(path)
			if err != nil {
				return pp.errorf(name, lineNo, line, "cannot read %q: %v", target, err)
			}
			stack[path] = true
			err = pp.expand(out, string(content), displayName(target, path), path, stack)
			delete(stack, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# %d %q\n", lineNo+1, name)
		default:
			return pp.errorf(name, lineNo, line, "unknown directive #%s", directive)
		}
	}
	return nil
}

// resolve finds an included file: next to the including file first, then
// in each include path.
func (pp *Preprocessor) resolve(target, from string) (string, error) {
	if filepath.IsAbs(target) {
		return filepath.Clean(target), nil
	}
	var dirs []string
	if from != "" {
		dirs = append(dirs, filepath.Dir(from))
	} else {
		dirs = append(dirs, ".")
	}
	dirs = append(dirs, pp.IncludePaths...)
	for _, dir := range dirs {
		candidate, err := filepath.Abs(filepath.Join(dir, target))
		if err != nil {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("include file %q not found", target)
}

func displayName(target, path string) string {
	if filepath.IsAbs(target) {
		return path
	}
	return filepath.ToSlash(target)
}

func quoted(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", false
	}
	return s[1 : end+1], true
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isLetter(c) && (i == 0 || !isDigit(c)) {
			return false
		}
	}
	return s != ""
}

// applyDefines replaces macro names with their bodies on identifier
// boundaries, leaving string literals and comments untouched.
func (pp *Preprocessor) applyDefines(input string) string {
	if len(pp.defines) == 0 {
		return input
	}
	var sb strings.Builder
	n := len(input)
	for i := 0; i < n; {
		c := input[i]
		switch {
		case c == '"':
			start := i
			i++
			for i < n && input[i] != '"' {
				if input[i] == '\\' {
					i++
				}
				i++
			}
			if i < n {
				i++
			}
			sb.WriteString(input[start:min(i, n)])
		case c == '/' && i+1 < n && input[i+1] == '/':
			sb.WriteString(input[i:])
			i = n
		case isLetter(c):
			start := i
			for i < n && (isLetter(input[i]) || isDigit(input[i])) {
				i++
			}
			word := input[start:i]
			if body, ok := pp.defines[word]; ok {
				sb.WriteString(body)
			} else {
				sb.WriteString(word)
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}
