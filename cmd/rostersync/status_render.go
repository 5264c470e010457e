package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
)

func statusLabel(passed bool, colorize bool) string {
	label, color := "FAIL", ansiRed
	if passed {
		label, color = "OK", ansiGreen
	}
	if !colorize {
		return label
	}
	return color + label + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	return isTerminal(writer)
}

// isInteractive reports whether r is a terminal a prompt can be shown on.
func isInteractive(r io.Reader) bool {
	return isTerminal(r)
}

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
