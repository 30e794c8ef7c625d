package sweepcore

import (
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// UnitID is the stable key of one compiled unit: the join key between
// fingerprint records and build-plan entries. Two units with equal content
// hashes but different IDs are different units – identity, not hash, decides
// liveness.
type UnitID struct {
	Name    string
	Version string

	// Kind of the unit's target: "lib", "bin", "test", "example",
	// "build-script", …
	Kind string

	// Profile the unit was compiled under, e.g. "debug" or "release".
	Profile string

	// Platform is the target triple; empty for host builds.
	Platform string

	// Features is the hash of the unit's resolved feature set.
	Features string
}

func (id UnitID) IsZero() bool { return id == UnitID{} }

func (id UnitID) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s v%s %s/%s", id.Name, id.Version, id.Kind, id.Profile)
	if id.Platform != "" {
		sb.WriteByte('/')
		sb.WriteString(id.Platform)
	}
	if id.Features != "" {
		sb.WriteString(" #")
		sb.WriteString(id.Features)
	}
	return sb.String()
}

// UnitRecord is one currently-present fingerprint-store entry. The store is
// append/overwrite, not versioned, so a Records map holds exactly one record
// per identity and no history.
type UnitRecord struct {
	ID          UnitID
	Fingerprint string

	// Dir is the record's own directory below the output root, using slash
	// separated relative paths like all paths in this package.
	Dir string

	// Outputs are the declared output files of the unit: the compiled
	// artefact plus auxiliary files.
	Outputs []string

	// Incremental names the unit's incremental compilation cache directory,
	// if it has one.
	Incremental string

	Deps []UnitID
}

type Records map[UnitID]*UnitRecord

// PlanEntry is one unit of a build invocation's unit graph. Requested marks
// units the invocation asked for directly; all others are the build tool's
// own transitive listing, retained verbatim.
type PlanEntry struct {
	ID        UnitID
	Requested bool
}

// Plan is the imported unit graph of one build invocation.
type Plan struct {
	Label   string
	Entries []PlanEntry
}

// EntryClass tags an on-disk entry by the directory-structure convention it
// was found under. Only the first three classes may ever be deleted.
type EntryClass int

const (
	ClassUnknown EntryClass = iota
	ClassFingerprint
	ClassArtifact
	ClassIncremental
)

func (c EntryClass) Deletable() bool { return c != ClassUnknown }

func (c EntryClass) String() string {
	switch c {
	case ClassUnknown:
		return "unknown"
	case ClassFingerprint:
		return "fingerprint"
	case ClassArtifact:
		return "artifact"
	case ClassIncremental:
		return "incremental"
	}
	return fmt.Sprintf("!EntryClass(%d)", int(c))
}

// DiskEntry is one path actually present under the output root. Ephemeral:
// recomputed on every run, never persisted.
type DiskEntry struct {
	Path  string // slash separated, relative to the output root
	Dir   bool
	Size  int64 // 0 for directories
	Mod   int64 // unix nanos of last modification
	Class EntryClass
}

func (e DiskEntry) Depth() int { return pathDepth(e.Path) }

func pathDepth(p string) int {
	if p == "" || p == "." {
		return 0
	}
	return strings.Count(p, "/") + 1
}

func parentPath(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// DeletionPlan lists the entries to remove, deepest paths first so that a
// directory is never visited before all of its children.
type DeletionPlan struct {
	Entries []DiskEntry
}

func (p *DeletionPlan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Report collects the counters of one run. It is valid, with zeroes, at any
// point of a partially failed run.
type Report struct {
	RecordsRead    int
	RecordsSkipped int

	UnitsLive       int
	UnitsUnresolved int

	EntriesScanned int
	UnknownEntries int

	Planned int
	Removed int
	Skipped int
	Failed  int

	BytesReclaimed uint64

	// Reached is the last phase that was entered.
	Reached Phase
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"%d/%d records read/skipped, %d units live (%d unresolvable), "+
			"%d entries scanned, %d planned, %d removed, %d skipped, %d failed, %s reclaimed",
		r.RecordsRead, r.RecordsSkipped,
		r.UnitsLive, r.UnitsUnresolved,
		r.EntriesScanned,
		r.Planned, r.Removed, r.Skipped, r.Failed,
		humanize.Bytes(r.BytesReclaimed),
	)
}

// Clean reports whether the sweep finished without skipping or failing any
// planned entry.
func (r *Report) Clean() bool { return r.Skipped == 0 && r.Failed == 0 }
