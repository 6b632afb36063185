// Package config provides unified settings loading for nofaults.
// It supports loading from YAML or TOML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/nofaults/internal/constants"
	"github.com/nvandessel/nofaults/internal/logging"
)

// Settings contains all nofaults settings.
type Settings struct {
	// Files names the artifacts of a run directory.
	Files FileSettings `json:"files" yaml:"files" toml:"files"`

	// Script names the job script keys that get rewritten.
	Script ScriptSettings `json:"script" yaml:"script" toml:"script"`

	// Logging contains settings for operational logging.
	Logging LoggingSettings `json:"logging" yaml:"logging" toml:"logging"`
}

// FileSettings names the files of a run directory. The same names are used
// in the source and the target directory.
type FileSettings struct {
	Config        string `json:"config" yaml:"config" toml:"config" env:"NOFAULTS_CONFIG_FILE"`
	JobScript     string `json:"job_script" yaml:"job_script" toml:"job_script" env:"NOFAULTS_JOB_SCRIPT"`
	EngineArchive string `json:"engine_archive" yaml:"engine_archive" toml:"engine_archive" env:"NOFAULTS_ENGINE_ARCHIVE"`
	PlotInputs    string `json:"plot_inputs" yaml:"plot_inputs" toml:"plot_inputs" env:"NOFAULTS_PLOT_INPUTS"`
	PlotScript    string `json:"plot_script" yaml:"plot_script" toml:"plot_script" env:"NOFAULTS_PLOT_SCRIPT"`
}

// ScriptSettings holds the line prefixes matched in job scripts.
type ScriptSettings struct {
	// ConfEnvKey is the variable assigned the config path, e.g. ETAS_CONF_JSON.
	ConfEnvKey string `json:"conf_env_key" yaml:"conf_env_key" toml:"conf_env_key" env:"NOFAULTS_CONF_ENV_KEY"`

	NodesDirective string `json:"nodes_directive" yaml:"nodes_directive" toml:"nodes_directive" env:"NOFAULTS_NODES_DIRECTIVE"`
	TimeDirective  string `json:"time_directive" yaml:"time_directive" toml:"time_directive" env:"NOFAULTS_TIME_DIRECTIVE"`
	QueueDirective string `json:"queue_directive" yaml:"queue_directive" toml:"queue_directive" env:"NOFAULTS_QUEUE_DIRECTIVE"`
}

// LoggingSettings configures logging.
type LoggingSettings struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "trace" additionally logs every rewritten job script line.
	Level string `json:"level" yaml:"level" toml:"level" env:"NOFAULTS_LOG_LEVEL"`
}

// Default returns Settings matching the standard UCERF3-ETAS run layout.
func Default() *Settings {
	return &Settings{
		Files: FileSettings{
			Config:        constants.ConfigFile,
			JobScript:     constants.JobScript,
			EngineArchive: constants.EngineArchive,
			PlotInputs:    constants.PlotInputsDir,
			PlotScript:    constants.PlotScript,
		},
		Script: ScriptSettings{
			ConfEnvKey:     constants.ConfEnvKey,
			NodesDirective: constants.NodesDirective,
			TimeDirective:  constants.TimeDirective,
			QueueDirective: constants.QueueDirective,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// DefaultPath returns the per-user settings file (~/.nofaults/config.yaml).
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".nofaults", "config.yaml"), nil
}

// Load loads settings from path, or from the default location when path is
// empty, then applies environment variable overrides.
// Order: defaults -> settings file -> environment variables
//
// An explicit path must exist. A missing default file is not an error.
func Load(path string) (*Settings, error) {
	settings := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}

	if path != "" {
		fileSettings, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading settings file: %w", err)
		}
		settings = fileSettings
	}

	if err := applyEnvOverrides(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// LoadFromFile loads settings from a specific file. Files ending in .toml are
// decoded as TOML, anything else as YAML. Keys absent from the file keep
// their defaults.
func LoadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	settings := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing settings file: %w", err)
		}
		return settings, nil
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	return settings, nil
}

// Validate checks that the settings are usable.
func (s *Settings) Validate() error {
	files := map[string]string{
		"files.config":         s.Files.Config,
		"files.job_script":     s.Files.JobScript,
		"files.engine_archive": s.Files.EngineArchive,
		"files.plot_inputs":    s.Files.PlotInputs,
		"files.plot_script":    s.Files.PlotScript,
	}
	for key, name := range files {
		if name == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
		if filepath.Base(name) != name {
			return fmt.Errorf("%s must be a plain file name, got %q", key, name)
		}
	}

	prefixes := map[string]string{
		"script.conf_env_key":    s.Script.ConfEnvKey,
		"script.nodes_directive": s.Script.NodesDirective,
		"script.time_directive":  s.Script.TimeDirective,
		"script.queue_directive": s.Script.QueueDirective,
	}
	for key, prefix := range prefixes {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	if !logging.ValidLevel(s.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %s, or empty for default)",
			s.Logging.Level, strings.Join(logging.Levels, ", "))
	}

	return nil
}

// applyEnvOverrides applies NOFAULTS_* environment variables to settings.
// Unset variables leave the current value in place.
func applyEnvOverrides(settings *Settings) error {
	if err := env.Parse(settings); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
