package outfs

import (
	"sort"
	"testing"

	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

func TestSplitStem(t *testing.T) {
	for stem, want := range map[string][2]string{
		"serde-1f2e3d4c": {"serde", "1f2e3d4c"},
		"my-crate-55aa":  {"my-crate", "55aa"},
		"plainname":      {"", ""},
		"-1f2e3d4c":      {"", ""},
		"trailingdash-":  {"", ""},
	} {
		name, hash, ok := SplitStem(stem)
		if wantOk := want[0] != ""; ok != wantOk {
			t.Errorf("%s: ok=%t", stem, ok)
		} else if name != want[0] || hash != want[1] {
			t.Errorf("%s: split to %q / %q", stem, name, hash)
		}
	}
}

func incr(path string, mod int64) sweepcore.DiskEntry {
	return sweepcore.DiskEntry{
		Path:  path,
		Dir:   true,
		Mod:   mod,
		Class: sweepcore.ClassIncremental,
	}
}

func TestNewestPerDep(t *testing.T) {
	entries := []sweepcore.DiskEntry{
		incr("debug/incremental/app-h1", 100),
		incr("debug/incremental/app-h2", 300),
		incr("debug/incremental/app-h3", 200),
		incr("debug/incremental/lib-h4", 50),
		incr("debug/incremental/app-h2/s-abc-working", 400), // session content, not a session dir
		incr("release/incremental/app-h9", 900),             // other profile
		{Path: "debug/incremental/noise", Dir: true, Mod: 999, Class: sweepcore.ClassIncremental},
	}
	keep := NewestPerDep(entries, "debug")
	sort.Strings(keep)
	want := []string{"debug/incremental/app-h2", "debug/incremental/lib-h4"}
	if len(keep) != len(want) {
		t.Fatalf("keep: %v", keep)
	}
	for i := range want {
		if keep[i] != want[i] {
			t.Errorf("keep[%d]=%s, want %s", i, keep[i], want[i])
		}
	}
}

func TestRecordKin(t *testing.T) {
	file := func(p string) sweepcore.DiskEntry {
		return sweepcore.DiskEntry{Path: p, Class: sweepcore.ClassArtifact}
	}
	dir := func(p string, class sweepcore.EntryClass) sweepcore.DiskEntry {
		return sweepcore.DiskEntry{Path: p, Dir: true, Class: class}
	}
	entries := []sweepcore.DiskEntry{
		file("debug/deps/libhalf-dddd.rlib"),
		file("debug/deps/libhalf-dddd.d"),
		file("debug/deps/libother-eeee.rlib"),
		dir("debug/build/half-dddd", sweepcore.ClassArtifact),
		file("debug/build/half-dddd/output"), // covered by its parent
		dir("debug/incremental/half-h7", sweepcore.ClassIncremental),
		dir("debug/incremental/other-h8", sweepcore.ClassIncremental),
		dir("debug/deps", sweepcore.ClassArtifact), // section dir itself
		file("release/deps/libhalf-dddd.rlib"),     // other profile
	}
	kin := RecordKin(entries, "debug", "half-dddd")
	sort.Strings(kin)
	want := []string{
		"debug/build/half-dddd",
		"debug/deps/libhalf-dddd.d",
		"debug/deps/libhalf-dddd.rlib",
		"debug/incremental/half-h7",
	}
	if len(kin) != len(want) {
		t.Fatalf("kin: %v", kin)
	}
	for i := range want {
		if kin[i] != want[i] {
			t.Errorf("kin[%d]=%s, want %s", i, kin[i], want[i])
		}
	}
}

func TestRecordKin_badStem(t *testing.T) {
	entries := []sweepcore.DiskEntry{
		{Path: "debug/deps/libhalf-dddd.rlib", Class: sweepcore.ClassArtifact},
	}
	if kin := RecordKin(entries, "debug", "nodash"); kin != nil {
		t.Errorf("kin of unsplittable stem: %v", kin)
	}
}

func TestNewestPerDep_emptyProfile(t *testing.T) {
	if keep := NewestPerDep(nil, "debug"); len(keep) != 0 {
		t.Errorf("keep from nothing: %v", keep)
	}
}
