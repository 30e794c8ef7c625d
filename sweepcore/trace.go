package sweepcore

import (
	"context"
	"fmt"
	"time"
)

// Phase is the whole-run state. Transitions are strictly forward; any fatal
// error before Sweeping aborts the run with the filesystem untouched.
type Phase int

const (
	Collecting Phase = iota + 1
	Resolving
	Scanning
	Planning
	Sweeping
	Done
)

func (p Phase) String() string {
	switch p {
	case Collecting:
		return "collecting"
	case Resolving:
		return "resolving"
	case Scanning:
		return "scanning"
	case Planning:
		return "planning"
	case Sweeping:
		return "sweeping"
	case Done:
		return "done"
	}
	return fmt.Sprintf("!Phase(%d)", int(p))
}

type TraceLog int

var DefaultTraceLog TraceLog = TraceWarn

const (
	TraceWarn TraceLog = (1 << iota)
	TraceInfo
	TraceDebug
)

type TracerCommon interface {
	Debug(t *Trace, msg string, args ...any)
	Info(t *Trace, msg string, args ...any)
	Warn(t *Trace, msg string, args ...any)

	StartPhase(t *Trace, p Phase)
	DonePhase(t *Trace, p Phase, dt time.Duration)
}

// ResolveTracer gets the recoverable events of the Collecting and Resolving
// phases: none of them aborts the run, all of them keep artefacts alive
// rather than freeing them.
type ResolveTracer interface {
	// SkipRecord reports a fingerprint record that failed structural
	// parsing and is excluded from resolution.
	SkipRecord(t *Trace, dir string, reason error)

	// UnresolvableUnit reports a referenced identity without a record.
	UnresolvableUnit(t *Trace, id UnitID)

	// CycleUnit reports a unit on a dependency cycle. Cycles are metadata
	// corruption; the member stays live.
	CycleUnit(t *Trace, id UnitID)
}

// SweepTracer gets the per-entry events of the Scanning and Sweeping phases.
type SweepTracer interface {
	// UnknownEntry reports an on-disk entry outside every known directory
	// convention. Such entries are left untouched.
	UnknownEntry(t *Trace, e DiskEntry)

	// RemoveEntry is called before each removal attempt.
	RemoveEntry(t *Trace, e DiskEntry)

	// EntryFailed reports a removal that failed and was skipped over.
	EntryFailed(t *Trace, e DiskEntry, err error)
}

type Tracer interface {
	TracerCommon
	ResolveTracer
	SweepTracer
}

// NopTracer discards every event.
type NopTracer struct{}

var _ Tracer = NopTracer{}

func (NopTracer) Debug(*Trace, string, ...any)           {}
func (NopTracer) Info(*Trace, string, ...any)            {}
func (NopTracer) Warn(*Trace, string, ...any)            {}
func (NopTracer) StartPhase(*Trace, Phase)               {}
func (NopTracer) DonePhase(*Trace, Phase, time.Duration) {}
func (NopTracer) SkipRecord(*Trace, string, error)       {}
func (NopTracer) UnresolvableUnit(*Trace, UnitID)        {}
func (NopTracer) CycleUnit(*Trace, UnitID)               {}
func (NopTracer) UnknownEntry(*Trace, DiskEntry)         {}
func (NopTracer) RemoveEntry(*Trace, DiskEntry)          {}
func (NopTracer) EntryFailed(*Trace, DiskEntry, error)   {}

// Trace carries the tracer and the run context through all phases. The zero
// Trace is not usable, see [NewTrace].
type Trace struct {
	root *traceRoot
	ph   Phase
}

type traceRoot struct {
	ctx context.Context
	tr  Tracer
}

func NewTrace(ctx context.Context, tr Tracer) *Trace {
	return &Trace{root: &traceRoot{ctx: ctx, tr: tr}}
}

func (t *Trace) Ctx() context.Context { return t.root.ctx }

func (t *Trace) Phase() Phase { return t.ph }

func (t *Trace) String() string {
	if t.ph == 0 {
		return "<run>"
	}
	return fmt.Sprintf("<run:%s>", t.ph)
}

func (t *Trace) Debug(msg string, args ...any) { t.root.tr.Debug(t, msg, args...) }
func (t *Trace) Info(msg string, args ...any)  { t.root.tr.Info(t, msg, args...) }
func (t *Trace) Warn(msg string, args ...any)  { t.root.tr.Warn(t, msg, args...) }

// BeginPhase enters phase p and returns the trace to run it under. Phases
// must be entered in declaration order.
func (t *Trace) BeginPhase(p Phase) *Trace {
	if p <= t.ph {
		panic(fmt.Sprintf("phase %s after %s", p, t.ph))
	}
	pt := &Trace{root: t.root, ph: p}
	t.root.tr.StartPhase(pt, p)
	return pt
}

func (t *Trace) EndPhase(start time.Time) {
	t.root.tr.DonePhase(t, t.ph, time.Since(start))
}

func (t *Trace) skipRecord(dir string, reason error) { t.root.tr.SkipRecord(t, dir, reason) }
func (t *Trace) unresolvableUnit(id UnitID)          { t.root.tr.UnresolvableUnit(t, id) }
func (t *Trace) cycleUnit(id UnitID)                 { t.root.tr.CycleUnit(t, id) }
func (t *Trace) unknownEntry(e DiskEntry)            { t.root.tr.UnknownEntry(t, e) }
func (t *Trace) removeEntry(e DiskEntry)             { t.root.tr.RemoveEntry(t, e) }
func (t *Trace) entryFailed(e DiskEntry, err error)  { t.root.tr.EntryFailed(t, e, err) }

// SkipRecord forwards to the tracer from outside the package, e.g. from the
// fingerprint store reader.
func (t *Trace) SkipRecord(dir string, reason error) { t.skipRecord(dir, reason) }

// UnknownEntry forwards to the tracer from outside the package, e.g. from
// the output directory scanner.
func (t *Trace) UnknownEntry(e DiskEntry) { t.unknownEntry(e) }
