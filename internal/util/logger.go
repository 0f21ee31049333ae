package util

import (
	"fmt"
	"os"
)

// Logger prints diagnostics to stderr when Verbose is set.
type Logger struct {
	Verbose bool
}

// Printf writes a formatted diagnostic line if l.Verbose is set.
func (l Logger) Printf(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
