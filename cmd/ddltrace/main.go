// Command ddltrace prints every stage of a schema compilation: the
// preprocessed source, its tokens, the compiled definition and the pointer
// slots that make the blob relocatable.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ddlc/pkg/arena"
	"ddlc/pkg/compiler"
	"ddlc/pkg/ddl"
)

const testSource = `select Color { red; green, default; blue; }
struct Point { float32 x; float32 y; Color color; }
`

type traceOptions struct {
	includePaths []string
	source       bool
	tokens       bool
	pointers     bool
}

func main() {
	if err := newTraceCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTraceCmd() *cobra.Command {
	var opts traceOptions
	cmd := &cobra.Command{
		Use:           "ddltrace [file.ddl]",
		Short:         "Trace the stages of a schema compilation",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return trace(cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.includePaths, "include", "I", nil, "additional include directory (repeatable)")
	cmd.Flags().BoolVar(&opts.source, "source", true, "print the preprocessed source")
	cmd.Flags().BoolVar(&opts.tokens, "tokens", true, "print the token stream")
	cmd.Flags().BoolVar(&opts.pointers, "pointers", true, "print the pointer slots")
	return cmd
}

func trace(w io.Writer, args []string, opts traceOptions) error {
	// Preprocess
	var (
		unit compiler.Unit
		err  error
	)
	if len(args) == 0 {
		unit, err = compiler.Preprocess([]byte(testSource), "", opts.includePaths)
	} else {
		unit, err = compiler.PreprocessFile(args[0], opts.includePaths)
	}
	if err != nil {
		return fmt.Errorf("preprocess error: %w", err)
	}
	if opts.source {
		fmt.Fprintf(w, "Source:\n%s\n", unit.Source)
	}

	// Lex
	tokens, err := compiler.Tokenize(unit.Source, false)
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	if opts.tokens {
		fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			fmt.Fprintln(w, " ", tok)
		}
		fmt.Fprintln(w)
	}

	// Compile
	d, err := compiler.Compile(arena.NewLinear(16<<20), arena.NewLinear(16<<20), unit.Source, compiler.Options{})
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	fmt.Fprintf(w, "Definition (%d bytes, %d aggregates)\n", d.TotalSize(), d.NumAggregates())
	if err := ddl.Dump(w, d); err != nil {
		return err
	}
	fmt.Fprintln(w)

	// Relocation
	if opts.pointers {
		blob := d.Bytes()
		slots, err := ddl.Pointers(blob)
		if err != nil {
			return fmt.Errorf("verify error: %w", err)
		}
		fmt.Fprintf(w, "Pointers (%d)\n", len(slots))
		for _, slot := range slots {
			rel := int32(binary.LittleEndian.Uint32(blob[slot:]))
			fmt.Fprintf(w, "  0x%06x %+8d -> 0x%06x\n", slot, rel, int64(slot)+int64(rel))
		}
	}
	return nil
}
