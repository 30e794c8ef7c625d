package sweep

import (
	"fmt"
	"io"
	"os"
	"time"

	"git.fractalqb.de/fractalqb/sllm/v3"
	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// WriteTracer writes the run trace line by line to W, messages formatted
// with sllm templates.
type WriteTracer struct {
	W   io.Writer
	Log sweepcore.TraceLog
}

var _ sweepcore.Tracer = (*WriteTracer)(nil)

func DefaultTracer() *WriteTracer {
	return &WriteTracer{W: os.Stderr, Log: sweepcore.TraceWarn}
}

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = sweepcore.TraceWarn
	case "info", "i":
		tr.Log = sweepcore.TraceWarn | sweepcore.TraceInfo
	case "debug", "d":
		tr.Log = sweepcore.TraceWarn | sweepcore.TraceInfo | sweepcore.TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

func (tr *WriteTracer) Debug(t *sweepcore.Trace, msg string, args ...any) {
	if tr.Log&sweepcore.TraceDebug == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%s\t  DEBUG ", t)
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Info(t *sweepcore.Trace, msg string, args ...any) {
	if tr.Log&(sweepcore.TraceInfo|sweepcore.TraceDebug) == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%s\t  INFO  ", t)
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) Warn(t *sweepcore.Trace, msg string, args ...any) {
	if tr.Log&(sweepcore.TraceWarn|sweepcore.TraceInfo|sweepcore.TraceDebug) == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%s\t  WARN  ", t)
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr *WriteTracer) StartPhase(t *sweepcore.Trace, p sweepcore.Phase) {
	if tr.logInfo() {
		fmt.Fprintf(tr.W, "%s\t{ %s\n", t, p)
	}
}

func (tr *WriteTracer) DonePhase(t *sweepcore.Trace, p sweepcore.Phase, dt time.Duration) {
	if tr.logInfo() {
		fmt.Fprintf(tr.W, "%s\t} %s took %s\n", t, p, dt)
	}
}

func (tr *WriteTracer) SkipRecord(t *sweepcore.Trace, dir string, reason error) {
	tr.Warn(t, "skip `record`: `reason`", `record`, dir, `reason`, reason.Error())
}

func (tr *WriteTracer) UnresolvableUnit(t *sweepcore.Trace, id sweepcore.UnitID) {
	tr.Warn(t, "no record for `unit`", `unit`, id.String())
}

func (tr *WriteTracer) CycleUnit(t *sweepcore.Trace, id sweepcore.UnitID) {
	tr.Warn(t, "keeping cycle member `unit`", `unit`, id.String())
}

func (tr *WriteTracer) UnknownEntry(t *sweepcore.Trace, e sweepcore.DiskEntry) {
	tr.Debug(t, "unrecognized `entry` left untouched", `entry`, e.Path)
}

func (tr *WriteTracer) RemoveEntry(t *sweepcore.Trace, e sweepcore.DiskEntry) {
	if tr.logInfo() {
		fmt.Fprintf(tr.W, "%s\t- %s\n", t, e.Path)
	}
}

func (tr *WriteTracer) EntryFailed(t *sweepcore.Trace, e sweepcore.DiskEntry, err error) {
	tr.Warn(t, "cannot remove `entry`: `error`", `entry`, e.Path, `error`, err.Error())
}

func (tr *WriteTracer) logInfo() bool {
	return tr.Log&(sweepcore.TraceInfo|sweepcore.TraceDebug) != 0
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 1 {
		k, ok := as[0].(string)
		if !ok {
			return buf, fmt.Errorf("illegal key type %T", as[0])
		}
		if k == n {
			return sllm.AppendArg(buf, as[1]), nil
		}
		as = as[2:]
	}
	return buf, fmt.Errorf("no key '%s'", n)
}
