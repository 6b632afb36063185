package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/go-homedir"

	"github.com/nvandessel/nofaults/internal/config"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() {
		homedir.DisableCache = false
		homedir.Reset()
	})
	return home
}

func TestConfigList(t *testing.T) {
	isolateHome(t)
	t.Setenv("NOFAULTS_QUEUE_DIRECTIVE", "#SBATCH --partition")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "list"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr: %s", code, exitOK, stderr.String())
	}

	want := map[string]string{
		"files.job_script":       "etas_sim_mpj.slurm",
		"script.queue_directive": "#SBATCH --partition",
		"logging.level":          "info",
	}
	for key, value := range want {
		line := fmt.Sprintf("%-24s %q\n", key+":", value)
		if !strings.Contains(stdout.String(), line) {
			t.Errorf("output missing %q:\n%s", line, stdout.String())
		}
	}
}

func TestConfigList_JSON(t *testing.T) {
	isolateHome(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "list", "--json"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr: %s", code, exitOK, stderr.String())
	}

	var got config.Settings
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if diff := cmp.Diff(*config.Default(), got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigGet(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "known key",
			args:     []string{"config", "get", "script.conf_env_key"},
			wantCode: exitOK,
			wantOut:  "script.conf_env_key = ETAS_CONF_JSON\n",
		},
		{
			name:     "json",
			args:     []string{"config", "get", "files.plot_script", "--json"},
			wantCode: exitOK,
			wantOut:  `{"key":"files.plot_script","value":"plot_results.slurm"}` + "\n",
		},
		{
			name:     "unknown key",
			args:     []string{"config", "get", "llm.provider"},
			wantCode: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateHome(t)

			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.wantCode {
				t.Fatalf("run() = %d, want %d; stderr: %s", code, tt.wantCode, stderr.String())
			}
			if tt.wantOut != "" && stdout.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", stdout.String(), tt.wantOut)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, ".nofaults", "config.yaml")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "init"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr: %s", code, exitOK, stderr.String())
	}

	got, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if diff := cmp.Diff(config.Default(), got); diff != "" {
		t.Errorf("written settings mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// A second init refuses to overwrite.
	stderr.Reset()
	if code := run([]string{"config", "init"}, &stdout, &stderr); code != exitFailure {
		t.Fatalf("second run() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stderr.String(), "already exists") {
		t.Errorf("stderr = %q, want it to mention the existing file", stderr.String())
	}

	if code := run([]string{"config", "init", "--force"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("forced run() = %d, want %d", code, exitOK)
	}
}

func TestConfigInit_TOML(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "settings", "nofaults.toml")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"config", "init", "--config", path}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr: %s", code, exitOK, stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "[files]") {
		t.Errorf("expected TOML tables, got:\n%s", data)
	}

	got, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if diff := cmp.Diff(config.Default(), got); diff != "" {
		t.Errorf("written settings mismatch (-want +got):\n%s", diff)
	}
}
