package run

import (
	"bytes"
	"io"
)

// prefixWriter tags every line of the build tool's stderr with the tool
// name so its diagnostics stay distinguishable from the sweep report.
type prefixWriter struct {
	w      io.Writer
	prefix []byte
	inLine bool // last write ended mid-line
}

func newPrefixWriterString(w io.Writer, prefix string) *prefixWriter {
	return &prefixWriter{w: w, prefix: []byte(prefix)}
}

func (pw *prefixWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		if !pw.inLine {
			if _, err = pw.w.Write(pw.prefix); err != nil {
				return n, err
			}
		}
		line := p
		if nl := bytes.IndexByte(p, '\n'); nl >= 0 {
			line, p = p[:nl+1], p[nl+1:]
			pw.inLine = false
		} else {
			p = nil
			pw.inLine = true
		}
		m, err := pw.w.Write(line)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
