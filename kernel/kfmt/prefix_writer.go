package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line. The kernel subsystems use it to tag
// their output (e.g. "[gdt] ").
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	// midLine is set once the prefix for the current line has been sent.
	midLine bool
}

// Write forwards p to the sink, emitting the prefix before the first byte of
// every line. The returned count excludes the injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			w.Sink.Write(w.Prefix)
			w.midLine = true
		}

		chunk := p
		if eol := bytes.IndexByte(p, '\n'); eol != -1 {
			chunk = p[:eol+1]
		}

		n, err := w.Sink.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}

		if chunk[len(chunk)-1] == '\n' {
			w.midLine = false
		}
		p = p[len(chunk):]
	}

	return written, nil
}
