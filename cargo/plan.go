package cargo

import (
	"encoding/json"
	"fmt"
	"io"

	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// graphDoc is the unit-graph document of one build invocation. The build
// tool lists the full transitive unit set itself, including build-time-only
// helper units; the importer keeps that listing verbatim instead of
// re-deriving it. Unknown fields are ignored, absent mandatory fields fail
// the whole invocation.
type graphDoc struct {
	Version int       `json:"version"`
	Units   []unitDoc `json:"units"`
	Roots   []int     `json:"roots"`
}

type unitDoc struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Kind         string    `json:"kind"`
	Profile      string    `json:"profile"`
	Platform     string    `json:"platform"`
	Features     string    `json:"features"`
	Dependencies *[]depRef `json:"dependencies"`
}

type depRef struct {
	Index *int `json:"index"`
}

// ReadPlan imports the unit graph of one invocation. Any structural defect
// is fatal for this invocation: a plan with silently missing units would
// turn still-needed artifacts into sweep candidates.
func ReadPlan(r io.Reader, label string) (*sweepcore.Plan, error) {
	var doc graphDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unit graph %s: %w", label, err)
	}
	if doc.Version < 1 {
		return nil, fmt.Errorf("unit graph %s: missing version", label)
	}
	if len(doc.Units) == 0 {
		return nil, fmt.Errorf("unit graph %s: no units", label)
	}
	plan := &sweepcore.Plan{Label: label}
	for i, u := range doc.Units {
		if u.Name == "" || u.Version == "" || u.Kind == "" || u.Profile == "" {
			return nil, fmt.Errorf("unit graph %s: unit %d: incomplete identity", label, i)
		}
		if u.Dependencies == nil {
			return nil, fmt.Errorf("unit graph %s: unit %d: missing dependency list", label, i)
		}
		for _, d := range *u.Dependencies {
			if d.Index == nil || *d.Index < 0 || *d.Index >= len(doc.Units) {
				return nil, fmt.Errorf("unit graph %s: unit %d: invalid dependency index", label, i)
			}
		}
		plan.Entries = append(plan.Entries, sweepcore.PlanEntry{
			ID: sweepcore.UnitID{
				Name:     u.Name,
				Version:  u.Version,
				Kind:     u.Kind,
				Profile:  u.Profile,
				Platform: u.Platform,
				Features: u.Features,
			},
		})
	}
	for _, r := range doc.Roots {
		if r < 0 || r >= len(plan.Entries) {
			return nil, fmt.Errorf("unit graph %s: invalid root index %d", label, r)
		}
		plan.Entries[r].Requested = true
	}
	return plan, nil
}
