// Package buildinfo carries version data injected with -ldflags -X.
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Commit  = "N/A"
	Date    = "N/A"
)

func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
