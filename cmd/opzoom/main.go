// Command opzoom rebuilds the cross-layer timeline of MIO operations.
package main

import (
	"os"

	"github.com/tebeka/atexit"

	"github.com/roach88/opzoom/internal/cli"
)

func main() {
	// atexit runs the registered handlers (metrics flush) before exiting.
	atexit.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
