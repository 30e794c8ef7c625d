package sweep

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"git.fractalqb.de/fractalqb/sweep/cargo"
	"git.fractalqb.de/fractalqb/sweep/outfs"
	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// GC runs the whole pipeline over one output root. The output root is
// explicit configuration – no component reads an ambient path.
type GC struct {
	// Root is the build output root, e.g. "target".
	Root string

	// Plans are the imported unit graphs of every invocation whose
	// artefacts must survive. An artefact live for any of them is kept.
	Plans []*sweepcore.Plan

	// DryRun plans and reports without mutating the filesystem.
	DryRun bool

	// Workers sizes the fingerprint parser pool; < 1 means one per CPU.
	Workers int

	// Keep marks additional on-disk entries as untouchable.
	Keep outfs.Filter

	Log *slog.Logger
}

func (gc *GC) log() *slog.Logger {
	if gc.Log == nil {
		return slog.Default()
	}
	return gc.Log
}

// Run drives Collecting → Resolving → Scanning → Planning → Sweeping. Any
// error before Sweeping aborts with the filesystem untouched; the returned
// report is valid either way, with Reached telling how far the run got.
func (gc *GC) Run(t *sweepcore.Trace) (*sweepcore.Report, error) {
	rep := new(sweepcore.Report)
	gc.log().Debug("sweep `root` with `plans`",
		slog.String("root", gc.Root),
		slog.Int("plans", len(gc.Plans)),
	)

	pt := t.BeginPhase(sweepcore.Collecting)
	rep.Reached = sweepcore.Collecting
	start := time.Now()
	rd := cargo.StoreReader{Root: gc.Root, Bees: gc.Workers}
	recs, read, skipped, err := rd.Read(pt)
	if err != nil {
		return rep, err
	}
	rep.RecordsRead, rep.RecordsSkipped = read, len(skipped)
	pt.EndPhase(start)

	pt = t.BeginPhase(sweepcore.Resolving)
	rep.Reached = sweepcore.Resolving
	start = time.Now()
	live := sweepcore.Resolve(recs, gc.Plans, pt)
	rep.UnitsLive = live.NumUnits()
	rep.UnitsUnresolved = live.NumUnresolvable()
	pt.EndPhase(start)

	pt = t.BeginPhase(sweepcore.Scanning)
	rep.Reached = sweepcore.Scanning
	start = time.Now()
	sc := outfs.Scanner{Root: gc.Root, Keep: gc.Keep}
	tree, err := sc.Scan(pt)
	if err != nil {
		return rep, err
	}
	rep.EntriesScanned = len(tree.Entries)
	for _, e := range tree.Entries {
		if e.Class == sweepcore.ClassUnknown {
			rep.UnknownEntries++
		}
	}
	// A record that failed parsing describes a unit of unknown liveness.
	// Its record dir and every entry its stem ties to it stay untouched;
	// the next run sees either a repaired record or a stale one.
	for _, rec := range skipped {
		live.AddDir(rec)
		prof, ok := strings.CutSuffix(path.Dir(rec), "/.fingerprint")
		if !ok {
			continue
		}
		for _, kin := range outfs.RecordKin(tree.Entries, prof, path.Base(rec)) {
			pt.Debug("keep `entry` of unparsed `record`", `entry`, kin, `record`, rec)
			live.AddDir(kin)
		}
	}
	// Profiles no plan was imported for get the newest-session heuristic:
	// without a unit graph there is no proof which incremental session the
	// next build reuses, so the newest one per dependency survives.
	for _, prof := range tree.Profiles {
		if gc.planned(prof) {
			continue
		}
		for _, keep := range outfs.NewestPerDep(tree.Entries, prof) {
			live.AddDir(keep)
		}
	}
	pt.EndPhase(start)

	pt = t.BeginPhase(sweepcore.Planning)
	rep.Reached = sweepcore.Planning
	start = time.Now()
	plan := sweepcore.NewDeletionPlan(live, tree.Entries)
	rep.Planned = plan.Len()
	pt.EndPhase(start)

	pt = t.BeginPhase(sweepcore.Sweeping)
	rep.Reached = sweepcore.Sweeping
	start = time.Now()
	sw := sweepcore.Sweeper{Root: gc.Root, DryRun: gc.DryRun}
	if err := sw.Sweep(pt, plan, rep); err != nil {
		return rep, err
	}
	pt.EndPhase(start)

	rep.Reached = sweepcore.Done
	gc.log().Info("sweep done: `report`", slog.String("report", rep.String()))
	return rep, nil
}

// planned tells whether any plan covers the profile directory dir, which is
// "profile" for host builds and "platform/profile" otherwise.
func (gc *GC) planned(dir string) bool {
	for _, p := range gc.Plans {
		for _, e := range p.Entries {
			d := e.ID.Profile
			if e.ID.Platform != "" {
				d = e.ID.Platform + "/" + e.ID.Profile
			}
			if d == dir {
				return true
			}
		}
	}
	return false
}
