package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/nofaults/internal/config"
	"github.com/nvandessel/nofaults/internal/fsutil"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect nofaults settings",
		Long: `View the effective nofaults settings or write a default settings file.

Settings are read from ~/.nofaults/config.yaml (or --config) and
NOFAULTS_* environment variables.

Examples:
  nofaults config list                      # Show all settings
  nofaults config get files.job_script      # Get a specific setting
  nofaults config init                      # Write ~/.nofaults/config.yaml`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

// settingValues flattens settings into dotted keys.
func settingValues(s *config.Settings) map[string]string {
	return map[string]string{
		"files.config":           s.Files.Config,
		"files.job_script":       s.Files.JobScript,
		"files.engine_archive":   s.Files.EngineArchive,
		"files.plot_inputs":      s.Files.PlotInputs,
		"files.plot_script":      s.Files.PlotScript,
		"script.conf_env_key":    s.Script.ConfEnvKey,
		"script.nodes_directive": s.Script.NodesDirective,
		"script.time_directive":  s.Script.TimeDirective,
		"script.queue_directive": s.Script.QueueDirective,
		"logging.level":          s.Logging.Level,
	}
}

func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(settings)
			}

			values := settingValues(settings)
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%-24s %q\n", k+":", values[k])
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			value, found := settingValues(settings)[key]
			if !found {
				return fmt.Errorf("unknown setting: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path, _ := cmd.Flags().GetString("config")

			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			exists, err := fsutil.Exists(path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("settings file already exists: %s (use --force to overwrite)", path)
			}

			if err := saveSettings(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing settings file")
	return cmd
}

// marshalSettings encodes s as TOML for .toml paths and YAML otherwise.
func marshalSettings(path string, s *config.Settings) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(s); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(s)
}

// saveSettings writes settings to path.
func saveSettings(path string, s *config.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := marshalSettings(path, s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := fsutil.WriteFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
