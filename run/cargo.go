// Package run is the subprocess collaborator of the sweep engine: it
// invokes the build tool to emit the unit graph of one invocation and hands
// the stream to the importer. The engine itself never shells out.
package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"git.fractalqb.de/fractalqb/sweep/cargo"
	"git.fractalqb.de/fractalqb/sweep/sweepcore"
)

// Invocation describes one build-tool run to import a plan from. The zero
// value imports the default profile of the workspace in the current
// directory with the "cargo" tool.
type Invocation struct {
	Tool    string // build tool executable, default "cargo"
	Dir     string // workspace directory
	Profile string
	Args    []string // pass-through flags: --features, --target, …

	Log *slog.Logger
}

func (inv *Invocation) tool() string {
	if inv.Tool == "" {
		return "cargo"
	}
	return inv.Tool
}

func (inv *Invocation) Label() string {
	if inv.Profile == "" {
		return "default"
	}
	return inv.Profile
}

// Import runs the build tool and parses its unit-graph output. A non-zero
// exit or malformed output fails this invocation as a whole; stderr of the
// tool is passed through w line by line, prefixed with the tool name.
func (inv *Invocation) Import(ctx context.Context, w io.Writer) (*sweepcore.Plan, error) {
	log := inv.Log
	if log == nil {
		log = slog.Default()
	}
	args := []string{"build", "--unit-graph"}
	if inv.Profile != "" {
		args = append(args, "--profile", inv.Profile)
	}
	args = append(args, inv.Args...)
	cmd := exec.CommandContext(ctx, inv.tool(), args...)
	cmd.Dir = inv.Dir
	cmd.Stderr = newPrefixWriterString(w, inv.tool()+": ")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	log.Debug("exec `cmd` in `dir`",
		slog.String("cmd", inv.tool()+" "+strings.Join(args, " ")),
		slog.String("dir", cmd.Dir),
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", inv.tool(), err)
	}
	plan, perr := cargo.ReadPlan(out, inv.Label())
	io.Copy(io.Discard, out) // unblock the tool before Wait, even on success
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", inv.tool(), err)
	}
	return plan, perr
}
