package run

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

// fakeTool writes a shell script that plays the build tool: it emits the
// given unit graph on stdout, then trailer, and diag on stderr.
func fakeTool(t *testing.T, graph, trailer, diag string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	tool := filepath.Join(t.TempDir(), "fakecargo")
	script := "#!/bin/sh\ncat <<'EOF'\n" + graph + "\n" + trailer + "\nEOF\n"
	if diag != "" {
		script += "echo '" + diag + "' >&2\n"
	}
	if err := os.WriteFile(tool, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return tool
}

const fakeGraph = `{"version":1,"units":[{"name":"app","version":"0.1.0",` +
	`"kind":"bin","profile":"debug","dependencies":[]}],"roots":[0]}`

func TestInvocation_import(t *testing.T) {
	tool := fakeTool(t, fakeGraph, "", "Finished dev profile")
	var errOut bytes.Buffer
	inv := Invocation{Tool: tool, Profile: "debug"}

	plan := testerr.Shall1(inv.Import(context.Background(), &errOut)).BeNil(t)
	if plan.Label != "debug" {
		t.Errorf("label %s", plan.Label)
	}
	if len(plan.Entries) != 1 || !plan.Entries[0].Requested {
		t.Errorf("entries: %+v", plan.Entries)
	}
	if s := errOut.String(); !strings.HasPrefix(s, tool+": Finished") {
		t.Errorf("stderr not prefixed: %q", s)
	}
}

// The tool may emit data past the unit-graph document. It must be drained
// even on a successful parse or Wait deadlocks on a full pipe.
func TestInvocation_trailingOutput(t *testing.T) {
	trailer := strings.Repeat("x", 1<<20)
	tool := fakeTool(t, fakeGraph, trailer, "")
	inv := Invocation{Tool: tool}

	plan := testerr.Shall1(inv.Import(context.Background(), os.Stderr)).BeNil(t)
	if len(plan.Entries) != 1 {
		t.Errorf("entries: %+v", plan.Entries)
	}
}

func TestInvocation_toolFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	tool := filepath.Join(t.TempDir(), "fakecargo")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 101\n"), 0755); err != nil {
		t.Fatal(err)
	}
	inv := Invocation{Tool: tool}
	if _, err := inv.Import(context.Background(), os.Stderr); err == nil {
		t.Error("failing tool imported a plan")
	}
}
