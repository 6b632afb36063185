package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/nofaults/internal/nofaults"
	"github.com/nvandessel/nofaults/internal/seed"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitOK           = 0
	exitTargetExists = 1
	exitFailure      = 2
)

const targetExistsMessage = "Folder already exist. Exiting program to not overwrite existing directory."

// newSeedSource is replaced in tests.
var newSeedSource = func() seed.Source { return seed.Crypto{} }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return exitCode(rootCmd.Execute(), stdout, stderr)
}

// exitCode maps err to an exit code. The existing-target message goes to
// stdout, other errors to stderr.
func exitCode(err error, stdout, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, nofaults.ErrTargetExists):
		fmt.Fprintln(stdout, targetExistsMessage)
		return exitTargetExists
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return exitFailure
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nofaults",
		Short: "Create a no-faults variant of a UCERF3-ETAS simulation",
		Long: `nofaults clones a configured UCERF3-ETAS run directory into a new
directory set up for a gridded-only ("no faults") run.

The engine jar, job script, plot inputs and plot script are copied,
config.json is rewritten (POISSON model, rate scale 1.0, gridded only,
fresh random seed) and the job scripts are pointed at the new config.
The target directory must not exist.

Examples:
  nofaults --sim_dir $SCRATCH/etas/ridgecrest --nofaults_dir $SCRATCH/etas/ridgecrest-nf
  nofaults --sim_dir run --nofaults_dir run-nf --nodes 64 --run_time 12:00:00 --queue debug`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runConvert,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Settings file (default: ~/.nofaults/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides settings)")

	addConvertFlags(rootCmd)

	rootCmd.AddCommand(
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
