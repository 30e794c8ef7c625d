package outfs

import (
	"io/fs"
	"path/filepath"
)

// Filter decides whether a scanned entry matches. The scanner uses filters
// to exempt entries from classification: a matched entry scans as unknown
// and the sweep never touches it. Path is root-relative with slash
// separators.
type Filter interface {
	Ok(path string, entry fs.DirEntry) (bool, error)
}

type FilterFunc func(string, fs.DirEntry) (bool, error)

func (ff FilterFunc) Ok(p string, e fs.DirEntry) (bool, error) {
	return ff(p, e)
}

// IsDir matches directories (true) or non-directories (false).
type IsDir bool

func (d IsDir) Ok(_ string, e fs.DirEntry) (bool, error) {
	return e.IsDir() == bool(d), nil
}

// NameMatch matches the entry's base name against a [filepath.Match]
// pattern, e.g. "*.log". This is what the CLI's keep globs compile to.
type NameMatch string

func (p NameMatch) Ok(_ string, e fs.DirEntry) (bool, error) {
	return filepath.Match(string(p), e.Name())
}

func Not(f Filter) Filter {
	return FilterFunc(func(p string, e fs.DirEntry) (bool, error) {
		ok, err := f.Ok(p, e)
		return !ok, err
	})
}

// All matches when every filter matches; empty All matches everything.
type All []Filter

func (fs All) Ok(p string, e fs.DirEntry) (bool, error) {
	for _, f := range fs {
		if ok, err := f.Ok(p, e); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// Any matches when at least one filter matches; empty Any matches nothing.
type Any []Filter

func (fs Any) Ok(p string, e fs.DirEntry) (bool, error) {
	for _, f := range fs {
		if ok, err := f.Ok(p, e); err != nil {
			return ok, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}
