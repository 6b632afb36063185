// Package nofaults converts a configured UCERF3-ETAS run directory into a
// gridded-only ("no faults") run directory.
//
// The conversion is a fixed sequence: create the target directory, stage the
// supporting files, rewrite config.json, then patch the staged job scripts.
// Nothing in the source directory is modified. A failure part way leaves
// the target directory as it is for the operator to inspect.
package nofaults

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nvandessel/nofaults/internal/config"
	"github.com/nvandessel/nofaults/internal/fsutil"
	"github.com/nvandessel/nofaults/internal/jobscript"
	"github.com/nvandessel/nofaults/internal/logging"
	"github.com/nvandessel/nofaults/internal/pathutil"
	"github.com/nvandessel/nofaults/internal/seed"
	"github.com/nvandessel/nofaults/internal/simconfig"
)

// ErrTargetExists is returned when the target directory is already present.
var ErrTargetExists = errors.New("target directory already exists")

// Options describe one conversion.
type Options struct {
	// SimDir is the source run directory. $VAR references are expanded.
	SimDir string

	// NoFaultsDir is the directory to create. $VAR references are expanded
	// for filesystem access; the unexpanded string is what gets written
	// into config.json and the job scripts.
	NoFaultsDir string

	// Nodes overrides the node count of the simulation script when > 0.
	Nodes int

	// RunTime overrides the run time of the simulation script when set.
	// It is passed through to the scheduler unchecked.
	RunTime string

	// Queue overrides the partition of both scripts when set.
	Queue string
}

// Validate checks for missing required options.
func (o Options) Validate() error {
	if o.SimDir == "" {
		return errors.New("simulation directory is required")
	}
	if o.NoFaultsDir == "" {
		return errors.New("no-faults directory is required")
	}
	if o.Nodes < 0 {
		return fmt.Errorf("node count must be positive, got %d", o.Nodes)
	}
	return nil
}

// Result reports what a conversion did.
type Result struct {
	TargetDir     string             `json:"target_dir"`
	ConfigPath    string             `json:"config_path"`
	Config        *simconfig.Summary `json:"config"`
	Staged        []string           `json:"staged"`
	EngineArchive bool               `json:"engine_archive"`
	PlotScript    bool               `json:"plot_script"`
	PatchedLines  map[string]int     `json:"patched_lines"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// Converter runs conversions with fixed settings.
type Converter struct {
	settings *config.Settings
	seeds    seed.Source
	logger   *slog.Logger
}

// NewConverter returns a Converter. A nil seeds uses seed.Crypto and a nil
// logger discards output.
func NewConverter(settings *config.Settings, seeds seed.Source, logger *slog.Logger) *Converter {
	if settings == nil {
		settings = config.Default()
	}
	if seeds == nil {
		seeds = seed.Crypto{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Converter{settings: settings, seeds: seeds, logger: logger}
}

// run holds the resolved paths of one conversion.
type run struct {
	opts   Options
	simDir string
	target string
	result *Result
}

// Run performs the conversion described by opts.
func (c *Converter) Run(opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		opts:   opts,
		simDir: pathutil.ExpandEnv(opts.SimDir),
		target: pathutil.ExpandEnv(opts.NoFaultsDir),
		result: &Result{
			TargetDir:    opts.NoFaultsDir,
			ConfigPath:   pathutil.JoinRaw(opts.NoFaultsDir, c.settings.Files.Config),
			PatchedLines: make(map[string]int),
		},
	}

	if err := c.prepare(r); err != nil {
		return nil, err
	}
	if err := c.stage(r); err != nil {
		return r.result, err
	}
	if err := c.writeConfig(r); err != nil {
		return r.result, err
	}
	if err := c.patchScripts(r); err != nil {
		return r.result, err
	}

	c.logger.Info("no-faults run directory ready",
		"target", r.target,
		"simulation", r.result.Config.SimulationName,
		"seed", r.result.Config.Seed,
	)
	return r.result, nil
}

// prepare creates the target directory. Its parent must exist.
func (c *Converter) prepare(r *run) error {
	if err := os.Mkdir(r.target, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrTargetExists, r.target)
		}
		return fmt.Errorf("creating target directory: %w", err)
	}
	c.logger.Debug("created target directory", "path", pathutil.RedactPath(r.target))
	return nil
}

// stage copies the engine jar, the job script, the plot inputs and the plot
// script, in that order.
func (c *Converter) stage(r *run) error {
	files := c.settings.Files
	src := func(name string) string { return filepath.Join(r.simDir, name) }
	dst := func(name string) string { return filepath.Join(r.target, name) }

	// The jar is optional: without it the cluster's jar on the search path is used.
	err := fsutil.CopyFile(src(files.EngineArchive), dst(files.EngineArchive))
	switch {
	case err == nil:
		r.staged(files.EngineArchive)
		r.result.EngineArchive = true
	case errors.Is(err, fs.ErrNotExist):
		msg := fmt.Sprintf("unable to find %s, defaulting to jar on path", files.EngineArchive)
		c.logger.Warn(msg)
		r.result.Warnings = append(r.result.Warnings, msg)
	default:
		return fmt.Errorf("copying %s: %w", files.EngineArchive, err)
	}

	if err := fsutil.CopyFile(src(files.JobScript), dst(files.JobScript)); err != nil {
		return fmt.Errorf("copying %s: %w", files.JobScript, err)
	}
	r.staged(files.JobScript)

	if err := fsutil.CopyTree(src(files.PlotInputs), dst(files.PlotInputs)); err != nil {
		return fmt.Errorf("copying %s: %w", files.PlotInputs, err)
	}
	r.staged(files.PlotInputs)

	hasPlot, err := fsutil.Exists(src(files.PlotScript))
	if err != nil {
		return fmt.Errorf("checking %s: %w", files.PlotScript, err)
	}
	if hasPlot {
		if err := fsutil.CopyFile(src(files.PlotScript), dst(files.PlotScript)); err != nil {
			return fmt.Errorf("copying %s: %w", files.PlotScript, err)
		}
		r.staged(files.PlotScript)
		r.result.PlotScript = true
	}

	for _, name := range r.result.Staged {
		c.logger.Debug("staged", "file", name)
	}
	return nil
}

func (r *run) staged(name string) {
	r.result.Staged = append(r.result.Staged, name)
}

// writeConfig writes the no-faults config.json into the target directory.
func (c *Converter) writeConfig(r *run) error {
	s, err := c.seeds.Seed()
	if err != nil {
		return fmt.Errorf("generating random seed: %w", err)
	}

	name := c.settings.Files.Config
	summary, err := simconfig.Convert(
		filepath.Join(r.simDir, name),
		filepath.Join(r.target, name),
		simconfig.Params{OutputDir: r.opts.NoFaultsDir, Seed: s},
	)
	if err != nil {
		return err
	}
	r.result.Config = summary
	c.logger.Debug("wrote config", "file", name, "seed", s, "previous_seed", summary.PreviousSeed)
	return nil
}

// patchScripts rewrites the staged job scripts in the target directory.
func (c *Converter) patchScripts(r *run) error {
	keys := jobscript.Keys{
		ConfEnvKey:     c.settings.Script.ConfEnvKey,
		NodesDirective: c.settings.Script.NodesDirective,
		TimeDirective:  c.settings.Script.TimeDirective,
		QueueDirective: c.settings.Script.QueueDirective,
	}
	overrides := jobscript.Overrides{
		Nodes:   r.opts.Nodes,
		RunTime: r.opts.RunTime,
		Queue:   r.opts.Queue,
	}

	files := c.settings.Files
	if err := c.patch(r, files.JobScript, jobscript.PrimaryRules(keys, r.result.ConfigPath, overrides)); err != nil {
		return err
	}
	if r.result.PlotScript {
		if err := c.patch(r, files.PlotScript, jobscript.PlotRules(keys, r.result.ConfigPath, overrides)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) patch(r *run, name string, rules jobscript.Rules) error {
	changes, err := jobscript.PatchFile(filepath.Join(r.target, name), rules)
	if err != nil {
		return fmt.Errorf("patching %s: %w", name, err)
	}
	r.result.PatchedLines[name] = len(changes)
	for _, ch := range changes {
		c.logger.Log(context.Background(), logging.LevelTrace, "rewrote line",
			"file", name, "line", ch.Number, "old", ch.Old, "new", ch.New)
	}
	c.logger.Debug("patched job script", "file", name, "lines", len(changes))
	return nil
}
