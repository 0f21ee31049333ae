package util

import (
	"fmt"
	"strings"
)

// Writer buffers emitted assembly text in a strings.Builder. riscy's
// emitter runs single threaded over one already-assembled text unit,
// so String returns the buffer directly rather than routing it through
// a worker-to-listener channel.
type Writer struct {
	sb strings.Builder
}

// Write appends a formatted line's worth of raw text.
func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

// Ins0 writes a bare zero-operand instruction.
func (w *Writer) Ins0(op string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\n", op))
}

// Ins1 writes a one-operand instruction.
func (w *Writer) Ins1(op, a string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, a))
}

// Ins2 writes a two-operand instruction.
func (w *Writer) Ins2(op, a, b string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, a, b))
}

// Ins3 writes a three-operand instruction.
func (w *Writer) Ins3(op, a, b, c string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %s\n", op, a, b, c))
}

// Label writes a one-line label.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("\n%s:\n", name))
}

// Directive writes an assembler directive line.
func (w *Writer) Directive(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf("\t%s\n", fmt.Sprintf(format, args...)))
}

// String returns the buffered text.
func (w *Writer) String() string { return w.sb.String() }
