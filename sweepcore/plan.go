package sweepcore

import "sort"

// NewDeletionPlan diffs what is on disk against what must survive. An entry
// is planned iff its class is deletable, its path is not live and – for
// directories – every descendant is itself planned. A directory with one
// surviving descendant stays, however stale the rest of its content is.
// Entries come out deepest first, so no directory precedes its children.
//
// The plan never mutates anything; only [Sweeper] touches the filesystem.
func NewDeletionPlan(live *LiveSet, disk []DiskEntry) *DeletionPlan {
	byDepth := make([]DiskEntry, len(disk))
	copy(byDepth, disk)
	sort.Slice(byDepth, func(i, j int) bool {
		di, dj := byDepth[i].Depth(), byDepth[j].Depth()
		if di != dj {
			return di > dj
		}
		return byDepth[i].Path < byDepth[j].Path
	})

	// Walking deepest first, a directory's children are decided before the
	// directory itself. keep[dir] poisons every ancestor.
	keep := make(map[string]bool)
	plan := new(DeletionPlan)
	for _, e := range byDepth {
		del := e.Class.Deletable() && !live.HasPath(e.Path)
		if e.Dir && keep[e.Path] {
			del = false
		}
		if del {
			plan.Entries = append(plan.Entries, e)
		} else {
			for d := e.Path; d != ""; d = parentPath(d) {
				if keep[d] {
					break
				}
				keep[d] = true
			}
		}
	}
	return plan
}
