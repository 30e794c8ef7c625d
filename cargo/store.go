// Package cargo adapts the build tool's on-disk metadata – fingerprint
// records and unit-graph documents – to the sweep engine's model. It is
// strictly read-only.
package cargo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"git.fractalqb.de/fractalqb/sweep/outfs"
	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// recordDoc is the JSON document of one fingerprint record. Unknown fields
// of newer build-tool versions are ignored by construction.
type recordDoc struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Kind        string     `json:"kind"`
	Profile     string     `json:"profile"`
	Platform    string     `json:"platform"`
	Features    string     `json:"features"`
	Fingerprint string     `json:"fingerprint"`
	Outputs     []string   `json:"outputs"`
	Incremental string     `json:"incremental"`
	Deps        []depIdDoc `json:"deps"`
}

type depIdDoc struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Kind     string `json:"kind"`
	Profile  string `json:"profile"`
	Platform string `json:"platform"`
	Features string `json:"features"`
}

func (d *depIdDoc) id() (sweepcore.UnitID, error) {
	if d.Name == "" || d.Version == "" || d.Kind == "" || d.Profile == "" {
		return sweepcore.UnitID{}, errors.New("incomplete dependency identity")
	}
	return sweepcore.UnitID{
		Name:     d.Name,
		Version:  d.Version,
		Kind:     d.Kind,
		Profile:  d.Profile,
		Platform: d.Platform,
		Features: d.Features,
	}, nil
}

// StoreReader reads every currently-present fingerprint record below the
// output root. Individually malformed or half-written records – a build may
// be running concurrently – are skipped and reported; only the root being
// unreadable is fatal.
type StoreReader struct {
	Root string

	// Bees is the number of concurrent record parsers; values < 1 select
	// one per CPU.
	Bees int
}

type job struct {
	dir string // absolute record dir
	rel string // root-relative record dir
	rec *sweepcore.UnitRecord
	err error
}

type hive struct {
	bees    int
	size    atomic.Int32
	sched   chan *job
	respond chan *job
}

func (h *hive) start() {
	if h.bees < 1 {
		h.bees = runtime.NumCPU()
	}
	h.sched = make(chan *job)
	h.respond = make(chan *job)
	for i := 0; i < h.bees; i++ {
		h.size.Add(1)
		go h.bee()
	}
}

func (h *hive) bee() {
	for job := range h.sched {
		job.rec, job.err = readRecord(job.dir, job.rel)
		h.respond <- job
	}
	if h.size.Add(-1) == 0 {
		close(h.respond)
	}
}

// Read parses the store into one record per identity. The store is
// append/overwrite: when two record directories resolve to the same
// identity only one of them can be current, so the later parse wins and
// the count of read records still counts both. Skipped holds the
// root-relative record dirs that failed structural parsing; their units are
// of unknown liveness, so the caller must keep everything tied to them.
func (rd *StoreReader) Read(t *sweepcore.Trace) (recs sweepcore.Records, read int, skipped []string, err error) {
	profiles, err := outfs.ProfileDirs(rd.Root)
	if err != nil {
		return nil, 0, nil, err
	}
	var dirs []string // root-relative record dirs
	for _, p := range profiles {
		fpDir := filepath.Join(rd.Root, filepath.FromSlash(p), ".fingerprint")
		ls, err := os.ReadDir(fpDir)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("fingerprint store: %w", err)
		}
		for _, e := range ls {
			if e.IsDir() {
				dirs = append(dirs, path.Join(p, ".fingerprint", e.Name()))
			}
		}
	}

	h := hive{bees: rd.Bees}
	h.start()
	go func() {
		for _, rel := range dirs {
			h.sched <- &job{
				dir: filepath.Join(rd.Root, filepath.FromSlash(rel)),
				rel: rel,
			}
		}
		close(h.sched)
	}()

	recs = make(sweepcore.Records)
	for job := range h.respond {
		if job.err != nil {
			skipped = append(skipped, job.rel)
			t.SkipRecord(job.rel, job.err)
			continue
		}
		read++
		recs[job.rec.ID] = job.rec
	}
	return recs, read, skipped, nil
}

// readRecord parses the single JSON document of one record directory.
func readRecord(dir, rel string) (*sweepcore.UnitRecord, error) {
	ls, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var docFile string
	for _, e := range ls {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			docFile = e.Name()
			break
		}
	}
	if docFile == "" {
		return nil, errors.New("no record document")
	}
	raw, err := os.ReadFile(filepath.Join(dir, docFile))
	if err != nil {
		return nil, err
	}
	var doc recordDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("record document %s: %w", docFile, err)
	}
	if doc.Name == "" || doc.Version == "" || doc.Kind == "" ||
		doc.Profile == "" || doc.Fingerprint == "" {
		return nil, fmt.Errorf("record document %s: incomplete identity", docFile)
	}
	rec := &sweepcore.UnitRecord{
		ID: sweepcore.UnitID{
			Name:     doc.Name,
			Version:  doc.Version,
			Kind:     doc.Kind,
			Profile:  doc.Profile,
			Platform: doc.Platform,
			Features: doc.Features,
		},
		Fingerprint: doc.Fingerprint,
		Dir:         rel,
		Incremental: doc.Incremental,
	}
	for _, out := range doc.Outputs {
		rec.Outputs = append(rec.Outputs, path.Clean(filepath.ToSlash(out)))
	}
	for i := range doc.Deps {
		id, err := doc.Deps[i].id()
		if err != nil {
			return nil, fmt.Errorf("record document %s: %w", docFile, err)
		}
		rec.Deps = append(rec.Deps, id)
	}
	return rec, nil
}
