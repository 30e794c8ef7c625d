package sweepcore

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// LiveSet is the resolver's result: the identities that must survive the
// sweep and the union of their declared paths. Every live path belongs to a
// live record and every live record contributes all of its paths – no
// orphans in either direction.
type LiveSet struct {
	units        map[UnitID]bool
	unresolvable map[UnitID]bool
	files        map[string]bool
	dirs         map[string]bool // live with their whole subtree
}

func newLiveSet() *LiveSet {
	return &LiveSet{
		units:        make(map[UnitID]bool),
		unresolvable: make(map[UnitID]bool),
		files:        make(map[string]bool),
		dirs:         make(map[string]bool),
	}
}

func (ls *LiveSet) HasUnit(id UnitID) bool { return ls.units[id] }

// Unresolvable reports whether id was referenced but had no record. Such an
// identity is never live, but nothing is deleted on its account either.
func (ls *LiveSet) Unresolvable(id UnitID) bool { return ls.unresolvable[id] }

// HasPath reports whether the slash separated root-relative path p must
// survive, either directly or because it lies below a live directory.
func (ls *LiveSet) HasPath(p string) bool {
	if ls.files[p] || ls.dirs[p] {
		return true
	}
	for d := parentPath(p); d != ""; d = parentPath(d) {
		if ls.dirs[d] {
			return true
		}
	}
	return false
}

// AddDir marks dir and its whole subtree live. The planner relies on this
// for bookkeeping directories that no single record declares file by file.
func (ls *LiveSet) AddDir(dir string) { ls.dirs[dir] = true }

func (ls *LiveSet) NumUnits() int { return len(ls.units) }

func (ls *LiveSet) NumUnresolvable() int { return len(ls.unresolvable) }

// Paths returns the exact live paths, sorted, directories marked with a
// trailing slash. Meant for reporting and tests.
func (ls *LiveSet) Paths() []string {
	res := make([]string, 0, len(ls.files)+len(ls.dirs))
	for p := range ls.files {
		res = append(res, p)
	}
	for p := range ls.dirs {
		res = append(res, p+"/")
	}
	sort.Strings(res)
	return res
}

func (ls *LiveSet) addRecord(rec *UnitRecord) {
	ls.units[rec.ID] = true
	if rec.Dir != "" {
		ls.dirs[rec.Dir] = true
	}
	if rec.Incremental != "" {
		ls.dirs[rec.Incremental] = true
	}
	for _, out := range rec.Outputs {
		ls.files[out] = true
		if di := depInfoPath(out); di != "" {
			ls.files[di] = true
		}
	}
}

// depInfoPath returns the dep-info sibling of an output path: same stem,
// ".d" extension. The build tool rewrites dep-info in place, so it is kept
// whenever its output is kept.
func depInfoPath(out string) string {
	dot := strings.LastIndexByte(out, '.')
	slash := strings.LastIndexByte(out, '/')
	if dot <= slash+1 { // no extension: a linked binary
		return out + ".d"
	}
	if out[dot:] == ".d" {
		return ""
	}
	return out[:dot] + ".d"
}

// Resolve computes the union live set over all plans: an artefact live for
// any requested invocation survives. Identities without a record are
// unresolvable – excluded from the live set but never taken as permission
// to delete. Dependency cycles cannot occur in sane metadata; if one does,
// the members are kept live and reported, since keeping a possibly-stale
// artefact is safe while deleting a possibly-live one is not.
func Resolve(recs Records, plans []*Plan, t *Trace) *LiveSet {
	ls := newLiveSet()

	var work []UnitID
	seen := make(map[UnitID]bool)
	push := func(id UnitID) {
		if !seen[id] {
			seen[id] = true
			work = append(work, id)
		}
	}
	for _, plan := range plans {
		for _, e := range plan.Entries {
			push(e.ID)
		}
	}

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		rec := recs[id]
		if rec == nil {
			ls.unresolvable[id] = true
			t.unresolvableUnit(id)
			continue
		}
		ls.addRecord(rec)
		for _, dep := range rec.Deps {
			push(dep)
		}
	}

	reportCycles(recs, ls, t)
	return ls
}

// reportCycles scans the resolved subgraph for back edges. The work-list in
// [Resolve] cannot loop, so this is pure diagnostics for corrupt metadata.
func reportCycles(recs Records, ls *LiveSet, t *Trace) {
	ids := make([]UnitID, 0, len(ls.units))
	for id := range ls.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	idx := make(map[UnitID]uint, len(ids))
	for i, id := range ids {
		idx[id] = uint(i)
	}

	gray := bitset.New(uint(len(ids)))
	done := bitset.New(uint(len(ids)))
	type frame struct {
		u    uint
		next int
	}
	for u := range ids {
		if done.Test(uint(u)) {
			continue
		}
		stack := []frame{{u: uint(u)}}
		gray.Set(uint(u))
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			deps := recs[ids[f.u]].Deps
			if f.next >= len(deps) {
				gray.Clear(f.u)
				done.Set(f.u)
				stack = stack[:len(stack)-1]
				continue
			}
			dep := deps[f.next]
			f.next++
			d, ok := idx[dep]
			if !ok || done.Test(d) {
				continue
			}
			if gray.Test(d) {
				t.Warn("dependency cycle at `unit` via `dep`",
					`unit`, ids[f.u].String(),
					`dep`, dep.String(),
				)
				t.cycleUnit(ids[f.u])
				t.cycleUnit(dep)
				continue
			}
			gray.Set(d)
			stack = append(stack, frame{u: d})
		}
	}
}
