// Package outfs enumerates and classifies the build output root. It tags
// every entry by directory-structure convention only – it never parses
// files it does not own – and it never mutates anything.
package outfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// Section names below a profile directory. Everything else in a profile
// directory stays unclassified and therefore untouched.
const (
	fingerprintDir = ".fingerprint"
	incrementalDir = "incremental"
)

var artifactDirs = map[string]bool{
	"deps":     true,
	"build":    true,
	"examples": true,
}

// bookkeeping files the build tool maintains itself; scanned as unknown so
// the sweep never touches them.
var bookkeeping Filter = All{IsDir(false), Any{
	NameMatch(".cargo-lock"),
	NameMatch("CACHEDIR.TAG"),
	NameMatch(".rustc_info.json"),
}}

// Scanner takes a best-effort snapshot of the output root. A build running
// concurrently is expected, not exceptional: entries may appear or vanish
// while scanning, the sweep executor's per-entry fault isolation covers the
// difference.
type Scanner struct {
	// Root is the output root. The scanner owns the meaning of its
	// subtrees, not the directory itself.
	Root string

	// Keep marks additional entries, by filter, as unknown so that they
	// survive any sweep.
	Keep Filter
}

// Tree is one scan snapshot.
type Tree struct {
	// Entries holds every path below the root, root-relative with slash
	// separators, in walk order (parents before children).
	Entries []sweepcore.DiskEntry

	// Profiles are the discovered profile directories, e.g. "debug" or
	// "thumbv7em-none-eabi/release".
	Profiles []string
}

// ProfileDirs discovers profile directories: a directory directly below the
// root – or one level deeper, below a target-triple directory – that owns a
// .fingerprint child.
func ProfileDirs(root string) (dirs []string, err error) {
	top, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("output root: %w", err)
	}
	for _, e := range top {
		if !e.IsDir() {
			continue
		}
		if isProfileDir(filepath.Join(root, e.Name())) {
			dirs = append(dirs, e.Name())
			continue
		}
		sub, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		for _, s := range sub {
			if s.IsDir() && isProfileDir(filepath.Join(root, e.Name(), s.Name())) {
				dirs = append(dirs, e.Name()+"/"+s.Name())
			}
		}
	}
	return dirs, nil
}

func isProfileDir(dir string) bool {
	st, err := os.Stat(filepath.Join(dir, fingerprintDir))
	return err == nil && st.IsDir()
}

// Scan walks the whole root. I/O errors on the root itself are fatal;
// unreadable entries below it are warned about and classified unknown, so
// nothing above them can be removed.
func (s *Scanner) Scan(t *sweepcore.Trace) (*Tree, error) {
	profiles, err := ProfileDirs(s.Root)
	if err != nil {
		return nil, err
	}
	tree := &Tree{Profiles: profiles}
	err = filepath.WalkDir(s.Root, func(p string, e fs.DirEntry, err error) error {
		rel, rerr := filepath.Rel(s.Root, p)
		if rerr != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)
		if err != nil {
			t.Warn("cannot scan `entry`: `error`", `entry`, rel, `error`, err)
			tree.add(sweepcore.DiskEntry{Path: rel, Dir: true, Class: sweepcore.ClassUnknown}, t)
			return nil
		}
		de := sweepcore.DiskEntry{Path: rel, Dir: e.IsDir()}
		if info, ierr := e.Info(); ierr != nil {
			t.Warn("cannot stat `entry`: `error`", `entry`, rel, `error`, ierr)
			tree.add(de, t) // zero class: unknown, kept
			return nil
		} else {
			if !de.Dir {
				de.Size = info.Size()
			}
			de.Mod = info.ModTime().UnixNano()
		}
		if s.Keep != nil {
			if ok, kerr := s.Keep.Ok(rel, e); kerr == nil && ok {
				tree.add(de, t)
				return nil
			}
		}
		if ok, berr := bookkeeping.Ok(rel, e); berr == nil && ok {
			tree.add(de, t)
			return nil
		}
		de.Class = classify(rel, de.Dir, profiles)
		tree.add(de, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan output root: %w", err)
	}
	return tree, nil
}

func (tr *Tree) add(e sweepcore.DiskEntry, t *sweepcore.Trace) {
	tr.Entries = append(tr.Entries, e)
	if e.Class == sweepcore.ClassUnknown {
		t.UnknownEntry(e)
	}
}

// classify maps a root-relative path to its entry class. Entries outside
// every profile directory, profile directories themselves and unrecognized
// sections stay unknown.
func classify(rel string, dir bool, profiles []string) sweepcore.EntryClass {
	for _, p := range profiles {
		if rel == p {
			return sweepcore.ClassUnknown
		}
		if !strings.HasPrefix(rel, p+"/") {
			continue
		}
		rest := rel[len(p)+1:]
		section, _, nested := strings.Cut(rest, "/")
		switch section {
		case fingerprintDir:
			return sweepcore.ClassFingerprint
		case incrementalDir:
			return sweepcore.ClassIncremental
		}
		if artifactDirs[section] {
			return sweepcore.ClassArtifact
		}
		if !nested && !dir {
			// plain file directly in the profile dir: a linked binary,
			// its dep-info or similar top-level output
			return sweepcore.ClassArtifact
		}
		return sweepcore.ClassUnknown
	}
	return sweepcore.ClassUnknown
}
