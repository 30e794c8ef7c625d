package sweepcore

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func entry(p string, dir bool, class EntryClass) DiskEntry {
	return DiskEntry{Path: p, Dir: dir, Class: class}
}

func TestPlan_staleOnly(t *testing.T) {
	ls := newLiveSet()
	ls.files["debug/deps/liba.rlib"] = true
	disk := []DiskEntry{
		entry("debug", true, ClassUnknown),
		entry("debug/deps", true, ClassArtifact),
		entry("debug/deps/liba.rlib", false, ClassArtifact),
		entry("debug/deps/libstale.rlib", false, ClassArtifact),
	}
	plan := NewDeletionPlan(ls, disk)
	if plan.Len() != 1 {
		t.Fatalf("planned %d entries", plan.Len())
	}
	if p := plan.Entries[0].Path; p != "debug/deps/libstale.rlib" {
		t.Errorf("planned %s", p)
	}
}

func TestPlan_dirConservatism(t *testing.T) {
	// one live file keeps the directory, however stale the rest is
	ls := newLiveSet()
	ls.files["debug/incremental/a-h2/s.o"] = true
	disk := []DiskEntry{
		entry("debug/incremental", true, ClassIncremental),
		entry("debug/incremental/a-h2", true, ClassIncremental),
		entry("debug/incremental/a-h2/s.o", false, ClassIncremental),
		entry("debug/incremental/a-h2/stale.o", false, ClassIncremental),
	}
	plan := NewDeletionPlan(ls, disk)
	if plan.Len() != 1 {
		t.Fatalf("planned %d entries", plan.Len())
	}
	if p := plan.Entries[0].Path; p != "debug/incremental/a-h2/stale.o" {
		t.Errorf("planned %s", p)
	}
}

func TestPlan_emptyStaleDirChain(t *testing.T) {
	ls := newLiveSet()
	disk := []DiskEntry{
		entry("debug/incremental", true, ClassIncremental),
		entry("debug/incremental/a-h1", true, ClassIncremental),
		entry("debug/incremental/a-h1/s.o", false, ClassIncremental),
	}
	plan := NewDeletionPlan(ls, disk)
	if plan.Len() != 3 {
		t.Fatalf("planned %d entries", plan.Len())
	}
	// deepest first: no directory before its children
	for i, e := range plan.Entries {
		for _, later := range plan.Entries[i+1:] {
			if strings.HasPrefix(later.Path, e.Path+"/") {
				t.Errorf("%s planned before child %s", e.Path, later.Path)
			}
		}
	}
}

func TestPlan_unknownNeverPlanned(t *testing.T) {
	ls := newLiveSet()
	disk := []DiskEntry{
		entry("doc", true, ClassUnknown),
		entry("doc/index.html", false, ClassUnknown),
		entry("debug/.cargo-lock", false, ClassUnknown),
	}
	if plan := NewDeletionPlan(ls, disk); plan.Len() != 0 {
		t.Errorf("planned %d unknown entries", plan.Len())
	}
}

func TestPlan_unknownChildKeepsDir(t *testing.T) {
	ls := newLiveSet()
	disk := []DiskEntry{
		entry("debug/deps", true, ClassArtifact),
		entry("debug/deps/stale.rlib", false, ClassArtifact),
		entry("debug/deps/NOTES.txt", false, ClassUnknown),
	}
	plan := NewDeletionPlan(ls, disk)
	if plan.Len() != 1 {
		t.Fatalf("planned %d entries", plan.Len())
	}
	if p := plan.Entries[0].Path; p != "debug/deps/stale.rlib" {
		t.Errorf("planned %s", p)
	}
}

// Safety property over generated stores, plans and trees: the plan never
// contains a live path, and every planned directory has all its on-disk
// descendants planned too.
func TestPlan_safetyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(4711))
	for round := 0; round < 100; round++ {
		recs := make(Records)
		var all []UnitID
		for i := 0; i < 1+rng.Intn(20); i++ {
			uid := UnitID{
				Name:    string(rune('a' + i%26)),
				Version: "0.1.0",
				Kind:    "lib",
				Profile: []string{"debug", "release"}[rng.Intn(2)],
			}
			if _, ok := recs[uid]; ok {
				continue
			}
			r := rec(uid)
			for _, d := range all { // edges only to earlier units: acyclic
				if rng.Intn(3) == 0 {
					r.Deps = append(r.Deps, d)
				}
			}
			recs[uid] = r
			all = append(all, uid)
		}
		var p Plan
		for _, uid := range all {
			if rng.Intn(2) == 0 {
				p.Entries = append(p.Entries, PlanEntry{ID: uid, Requested: true})
			}
		}
		tr := NewTrace(context.Background(), NopTracer{})
		ls := Resolve(recs, []*Plan{&p}, tr)

		var disk []DiskEntry
		onDisk := make(map[string]bool)
		addPath := func(p string, dir bool, class EntryClass) {
			for d := parentPath(p); d != ""; d = parentPath(d) {
				if !onDisk[d] {
					onDisk[d] = true
					disk = append(disk, entry(d, true, classifyTestPath(d)))
				}
			}
			if !onDisk[p] {
				onDisk[p] = true
				disk = append(disk, entry(p, dir, class))
			}
		}
		for _, r := range recs {
			addPath(r.Dir+"/lib.json", false, ClassFingerprint)
			for _, out := range r.Outputs {
				addPath(out, false, ClassArtifact)
			}
		}
		for i := 0; i < rng.Intn(10); i++ {
			prof := []string{"debug", "release"}[rng.Intn(2)]
			addPath(prof+"/deps/extra"+string(rune('0'+i))+".rlib", false, ClassArtifact)
		}

		plan := NewDeletionPlan(ls, disk)
		planned := make(map[string]bool)
		for _, e := range plan.Entries {
			planned[e.Path] = true
		}
		for _, e := range plan.Entries {
			require.Falsef(t, ls.HasPath(e.Path), "round %d: live %s planned", round, e.Path)
			if !e.Dir {
				continue
			}
			for _, d := range disk {
				if strings.HasPrefix(d.Path, e.Path+"/") {
					require.Truef(t, planned[d.Path],
						"round %d: dir %s planned, descendant %s not", round, e.Path, d.Path)
				}
			}
		}
	}
}

func classifyTestPath(p string) EntryClass {
	switch {
	case p == "debug" || p == "release":
		return ClassUnknown
	case strings.Contains(p, "/.fingerprint"):
		return ClassFingerprint
	case strings.Contains(p, "/deps"):
		return ClassArtifact
	}
	return ClassUnknown
}
