package main

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const DEFAULT_RULE_WIDTH = 40

// separator returns a horizontal rule as wide as the terminal behind w, up to
// 80 columns.
func separator(w io.Writer) string {
	width := DEFAULT_RULE_WIDTH
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = min(cols, 80)
		}
	}
	return strings.Repeat("=", width)
}
