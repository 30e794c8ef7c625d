package outfs

import (
	"strings"

	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// SplitStem splits the build tool's "name-hash" naming of output stems and
// incremental session directories. The hash never contains a dash, the name
// may.
func SplitStem(stem string) (name, hash string, ok bool) {
	i := strings.LastIndexByte(stem, '-')
	if i <= 0 || i+1 >= len(stem) {
		return "", "", false
	}
	return stem[:i], stem[i+1:], true
}

// RecordKin selects the entries of one profile that the "name-hash" naming
// ties to the fingerprint record stem recStem: outputs and build dirs carry
// the record's hash in their own stem, incremental sessions carry the name
// with a session hash of their own. Used to keep everything belonging to a
// record that could not be parsed – its unit may well be live.
func RecordKin(entries []sweepcore.DiskEntry, profile, recStem string) (keep []string) {
	name, hash, ok := SplitStem(recStem)
	if !ok {
		return nil
	}
	prefix := profile + "/"
	for _, e := range entries {
		rest, inProfile := strings.CutPrefix(e.Path, prefix)
		if !inProfile {
			continue
		}
		section, child, _ := strings.Cut(rest, "/")
		if child == "" || strings.ContainsRune(child, '/') {
			continue // a section dir itself, or below a direct child
		}
		if section == incrementalDir {
			if n, _, ok := SplitStem(child); ok && n == name {
				keep = append(keep, e.Path)
			}
			continue
		}
		if !artifactDirs[section] {
			continue
		}
		stem := child
		if i := strings.LastIndexByte(stem, '.'); i > 0 {
			stem = stem[:i]
		}
		if _, h, ok := SplitStem(stem); ok && h == hash {
			keep = append(keep, e.Path)
		}
	}
	return keep
}

// NewestPerDep selects, among the incremental session directories of one
// profile, the most recently modified one per dependency name. Successive
// builds leave one stale session per recompilation behind; when no plan was
// imported for the profile there is no proof which session the next build
// will reuse, so the newest one of each dependency is kept.
func NewestPerDep(entries []sweepcore.DiskEntry, profile string) (keep []string) {
	prefix := profile + "/" + incrementalDir + "/"
	type newest struct {
		path string
		mod  int64
	}
	latest := make(map[string]newest)
	for _, e := range entries {
		if !e.Dir || !strings.HasPrefix(e.Path, prefix) {
			continue
		}
		rest := e.Path[len(prefix):]
		if strings.ContainsRune(rest, '/') {
			continue // below a session dir
		}
		name, _, ok := SplitStem(rest)
		if !ok {
			continue
		}
		if l, ok := latest[name]; !ok || e.Mod > l.mod {
			latest[name] = newest{path: e.Path, mod: e.Mod}
		}
	}
	for _, l := range latest {
		keep = append(keep, l.path)
	}
	return keep
}
