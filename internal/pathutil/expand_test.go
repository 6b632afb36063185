package pathutil

import (
	"path/filepath"
	"testing"
)

func TestExpandWith(t *testing.T) {
	env := map[string]string{
		"SCRATCH": "/scratch/u1",
		"RUN":     "etas-2024",
		"EMPTY":   "",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no references", "/data/run", "/data/run"},
		{"bare reference", "$SCRATCH/run", "/scratch/u1/run"},
		{"braced reference", "${SCRATCH}/run", "/scratch/u1/run"},
		{"two references", "$SCRATCH/$RUN", "/scratch/u1/etas-2024"},
		{"braced glued to text", "${RUN}_nofaults", "etas-2024_nofaults"},
		{"unset bare kept", "$NOPE/run", "$NOPE/run"},
		{"unset braced kept", "${NOPE}/run", "${NOPE}/run"},
		{"set but empty", "$EMPTY/run", "/run"},
		{"lone dollar", "cost$/run", "cost$/run"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandWith(tt.input, lookup)
			if got != tt.want {
				t.Errorf("ExpandWith(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("NOFAULTS_TEST_ROOT", "/tmp/etas")

	got := ExpandEnv("$NOFAULTS_TEST_ROOT/nofaults")
	if got != "/tmp/etas/nofaults" {
		t.Errorf("ExpandEnv() = %q, want %q", got, "/tmp/etas/nofaults")
	}
}

func TestJoinRaw(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"plain", "/runs/nofaults", "/runs/nofaults" + sep + "config.json"},
		{"trailing separator", "/runs/nofaults" + sep, "/runs/nofaults" + sep + "config.json"},
		{"unexpanded", "$SCRATCH/nofaults", "$SCRATCH/nofaults" + sep + "config.json"},
		{"dot segments kept", "./a/../b", "./a/../b" + sep + "config.json"},
		{"empty dir", "", "config.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JoinRaw(tt.dir, "config.json")
			if got != tt.want {
				t.Errorf("JoinRaw(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"simple", "/scratch/user/runs/nofaults", ".../runs/nofaults"},
		{"deep", "/a/b/c/d/e.txt", ".../d/e.txt"},
		{"root file", "/file.txt", "file.txt"},
		{"relative", "dir/file.txt", ".../dir/file.txt"},
		{"just filename", "file.txt", "file.txt"},
		{"trailing slash cleaned", "/home/user/runs/", ".../user/runs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactPath(tt.input)
			if got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
