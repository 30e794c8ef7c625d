package sweepcore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Sweeper applies a [DeletionPlan]. It is the only component that mutates
// the filesystem. One failing entry never aborts the sweep: the entry is
// skipped, counted and will be rediscovered by the next run.
type Sweeper struct {
	// Root is the output root all plan paths are relative to.
	Root string

	// DryRun plans and reports but does not remove.
	DryRun bool

	// remove hook for fault-injection tests; nil means os.Remove
	remove func(string) error
}

func (sw *Sweeper) rm(abs string) error {
	if sw.remove != nil {
		return sw.remove(abs)
	}
	return os.Remove(abs)
}

// Sweep removes the planned entries in plan order. Cancellation via the
// trace context is honoured between entries only; an entry is either fully
// removed or untouched. The counters on rep are valid even when Sweep
// returns early with the context's error.
func (sw *Sweeper) Sweep(t *Trace, plan *DeletionPlan, rep *Report) error {
	done := t.Ctx().Done()
	for _, e := range plan.Entries {
		select {
		case <-done:
			return t.Ctx().Err()
		default:
		}
		t.removeEntry(e)
		if sw.DryRun {
			continue
		}
		abs := filepath.Join(sw.Root, filepath.FromSlash(e.Path))
		size := uint64(e.Size)
		if err := sw.rm(abs); err != nil {
			switch {
			case errors.Is(err, fs.ErrNotExist):
				// vanished concurrently, nothing left to reclaim
				rep.Skipped++
				t.Debug("`entry` already gone", `entry`, e.Path)
			default:
				rep.Failed++
				t.entryFailed(e, err)
			}
			continue
		}
		rep.Removed++
		rep.BytesReclaimed += size
	}
	return nil
}
