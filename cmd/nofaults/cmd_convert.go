package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nvandessel/nofaults/internal/config"
	"github.com/nvandessel/nofaults/internal/logging"
	"github.com/nvandessel/nofaults/internal/nofaults"
)

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().String("sim_dir", "", "Directory of the previously configured u3etas simulation")
	cmd.Flags().String("nofaults_dir", "", "Path for the new no-faults simulation (must not exist)")
	cmd.Flags().Int("nodes", 0, "Number of nodes for the simulation (default: keep original)")
	cmd.Flags().String("run_time", "", "Run time for the simulation (default: keep original)")
	cmd.Flags().String("queue", "", "Queue for the simulation and plot jobs (default: keep original)")

	_ = cmd.MarkFlagRequired("sim_dir")
	_ = cmd.MarkFlagRequired("nofaults_dir")
}

// optionsFromFlags builds conversion options from parsed flags.
func optionsFromFlags(flags *pflag.FlagSet) (nofaults.Options, error) {
	simDir, _ := flags.GetString("sim_dir")
	noFaultsDir, _ := flags.GetString("nofaults_dir")
	nodes, _ := flags.GetInt("nodes")
	runTime, _ := flags.GetString("run_time")
	queue, _ := flags.GetString("queue")

	if flags.Changed("nodes") && nodes <= 0 {
		return nofaults.Options{}, fmt.Errorf("--nodes must be a positive integer, got %d", nodes)
	}

	return nofaults.Options{
		SimDir:      simDir,
		NoFaultsDir: noFaultsDir,
		Nodes:       nodes,
		RunTime:     runTime,
		Queue:       queue,
	}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	settingsPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	jsonOut, _ := cmd.Flags().GetBool("json")

	opts, err := optionsFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		settings.Logging.Level = logLevel
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger := logging.NewLogger(settings.Logging.Level, cmd.ErrOrStderr())
	converter := nofaults.NewConverter(settings, newSeedSource(), logger)

	result, err := converter.Run(opts)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, r *nofaults.Result) {
	fmt.Fprintf(w, "Created no-faults simulation: %s\n", r.TargetDir)
	fmt.Fprintf(w, "  Name:   %s\n", r.Config.SimulationName)
	fmt.Fprintf(w, "  Config: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "  Seed:   %d\n", r.Config.Seed)
	fmt.Fprintf(w, "  Staged: %s\n", strings.Join(r.Staged, ", "))

	names := make([]string, 0, len(r.PatchedLines))
	for name := range r.PatchedLines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  Patched %s: %d line(s)\n", name, r.PatchedLines[name])
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
}
