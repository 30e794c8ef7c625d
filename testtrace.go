package sweep

import (
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

type TestTracer struct{ t *testing.T }

var _ sweepcore.Tracer = TestTracer{}

func (tr TestTracer) Debug(t *sweepcore.Trace, msg string, args ...any) {
	tr.t.Logf("sweep-DEBUG: %s %v", msg, args)
}

func (tr TestTracer) Info(t *sweepcore.Trace, msg string, args ...any) {
	tr.t.Logf("sweep-INFO: %s %v", msg, args)
}

func (tr TestTracer) Warn(t *sweepcore.Trace, msg string, args ...any) {
	tr.t.Logf("sweep-WARN: %s %v", msg, args)
}

func (tr TestTracer) StartPhase(t *sweepcore.Trace, p sweepcore.Phase) {
	tr.t.Logf("sweep-StartPhase: %s", p)
}

func (tr TestTracer) DonePhase(t *sweepcore.Trace, p sweepcore.Phase, dt time.Duration) {
	tr.t.Logf("sweep-DonePhase: %s %s", p, dt)
}

func (tr TestTracer) SkipRecord(t *sweepcore.Trace, dir string, reason error) {
	tr.t.Logf("sweep-SkipRecord: %s: %s", dir, reason)
}

func (tr TestTracer) UnresolvableUnit(t *sweepcore.Trace, id sweepcore.UnitID) {
	tr.t.Logf("sweep-UnresolvableUnit: %s", id)
}

func (tr TestTracer) CycleUnit(t *sweepcore.Trace, id sweepcore.UnitID) {
	tr.t.Logf("sweep-CycleUnit: %s", id)
}

func (tr TestTracer) UnknownEntry(t *sweepcore.Trace, e sweepcore.DiskEntry) {
	tr.t.Logf("sweep-UnknownEntry: %s", e.Path)
}

func (tr TestTracer) RemoveEntry(t *sweepcore.Trace, e sweepcore.DiskEntry) {
	tr.t.Logf("sweep-RemoveEntry: %s", e.Path)
}

func (tr TestTracer) EntryFailed(t *sweepcore.Trace, e sweepcore.DiskEntry, err error) {
	tr.t.Logf("sweep-EntryFailed: %s: %s", e.Path, err)
}
