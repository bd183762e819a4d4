// ABOUTME: Shared output helpers for CLI commands
// ABOUTME: Commands print through stdout so tests can capture them
package cli

import (
	"io"
	"os"
	"text/tabwriter"
)

var stdout io.Writer = os.Stdout

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
