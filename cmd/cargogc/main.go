// Command cargogc reclaims stale artifacts from a cargo target directory
// while keeping everything the next incremental build of the requested
// profiles will reuse.
package main

import (
	"fmt"
	"os"

	"git.fractalqb.de/fractalqb/qblog"
	"git.fractalqb.de/fractalqb/sweep"
	"git.fractalqb.de/fractalqb/sweep/cargo"
	"git.fractalqb.de/fractalqb/sweep/outfs"
	"git.fractalqb.de/fractalqb/sweep/run"
	"git.fractalqb.de/fractalqb/sweep/sweepcore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Exit codes: 0 all planned entries removed, 1 aborted before sweeping,
// 3 completed but some entries were skipped or failed.
const (
	exitFatal      = 1
	exitIncomplete = 3
)

var (
	log = qblog.New(&qblog.DefaultConfig)

	workDir   string
	root      string
	profiles  []string
	planFiles []string
	tool      string
	dryRun    bool
	workers   int
	keepGlobs []string
	traceFlag string

	tracer = sweep.DefaultTracer()
)

var rootCmd = &cobra.Command{
	Use:   "cargogc [-- build tool args...]",
	Short: "Garbage-collect stale artifacts from a cargo target directory",
	Long: `cargogc imports the unit graph of every requested profile, resolves the
set of artifacts those builds will reuse and deletes everything else below
the target directory. Entries it does not recognize are reported and left
untouched. Without metadata for a profile, nothing of it is deleted that
cannot be proven stale.`,
	SilenceUsage: true,
	RunE:         gcRun,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&workDir, "directory", "C", "", "workspace directory to run the build tool in")
	f.StringVar(&root, "root", "", "output root (default $CARGO_TARGET_DIR or ./target)")
	f.StringArrayVarP(&profiles, "profile", "p", nil, "profile to keep live; repeatable (default: debug)")
	f.StringArrayVar(&planFiles, "plan-file", nil, "read a unit-graph document instead of running the build tool")
	f.StringVar(&tool, "tool", "cargo", "build tool executable")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "plan and report only, delete nothing")
	f.IntVarP(&workers, "jobs", "j", 0, "parallel record parsers (0: one per CPU)")
	f.StringArrayVar(&keepGlobs, "keep", nil, "extra name globs to keep, e.g. '*.log'")
	f.StringVar(&traceFlag, "trace", "", "trace level: off, warn, info, debug")
}

func gcRun(cmd *cobra.Command, args []string) error {
	if err := tracer.ParseLogFlag(traceFlag); err != nil {
		return err
	}
	if root == "" {
		if root = os.Getenv("CARGO_TARGET_DIR"); root == "" {
			root = "target"
		}
	}

	plans, err := importPlans(cmd, args)
	if err != nil {
		return err
	}

	gc := sweep.GC{
		Root:    root,
		Plans:   plans,
		DryRun:  dryRun,
		Workers: workers,
		Keep:    keepFilter(),
		Log:     log.Logger,
	}
	t := sweepcore.NewTrace(cmd.Context(), tracer)
	rep, err := gc.Run(t)
	fmt.Fprintln(cmd.OutOrStdout(), rep)
	if err != nil {
		return err
	}
	if !rep.Clean() {
		os.Exit(exitIncomplete)
	}
	return nil
}

func importPlans(cmd *cobra.Command, args []string) (plans []*sweepcore.Plan, err error) {
	for _, pf := range planFiles {
		f, err := os.Open(pf)
		if err != nil {
			return nil, err
		}
		plan, perr := cargo.ReadPlan(f, pf)
		f.Close()
		if perr != nil {
			return nil, perr
		}
		plans = append(plans, plan)
	}
	if len(planFiles) > 0 && len(profiles) == 0 {
		return plans, nil
	}
	if len(profiles) == 0 {
		profiles = []string{"debug"}
	}
	for _, prof := range profiles {
		inv := run.Invocation{
			Tool:    tool,
			Dir:     workDir,
			Profile: prof,
			Args:    args,
			Log:     log.Logger,
		}
		plan, err := inv.Import(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func keepFilter() outfs.Filter {
	if len(keepGlobs) == 0 {
		return nil
	}
	var fs outfs.Any
	for _, g := range keepGlobs {
		fs = append(fs, outfs.NameMatch(g))
	}
	return fs
}

func main() {
	godotenv.Load() // optional .env, e.g. for CARGO_TARGET_DIR
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(exitFatal)
	}
}
