// Command ddlc compiles DDL schemas into relocatable definition blobs.
package main

import (
	"fmt"
	"os"
)

// Set via ldflags at build time
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
