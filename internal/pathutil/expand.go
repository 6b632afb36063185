// Package pathutil provides path expansion utilities for run directory arguments.
package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// envRef matches $NAME and ${NAME} references.
var envRef = regexp.MustCompile(`\$(\w+|\{[^}]*\})`)

// ExpandEnv replaces $NAME and ${NAME} references in path with values from
// the process environment. References to unset variables are left as written,
// so "$SCRATCH/run" stays "$SCRATCH/run" when SCRATCH is not set.
func ExpandEnv(path string) string {
	return ExpandWith(path, os.LookupEnv)
}

// ExpandWith is ExpandEnv with a custom lookup function.
func ExpandWith(path string, lookup func(string) (string, bool)) string {
	if !strings.Contains(path, "$") {
		return path
	}
	return envRef.ReplaceAllStringFunc(path, func(ref string) string {
		name := strings.TrimPrefix(ref, "$")
		if strings.HasPrefix(name, "{") {
			name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")
		}
		if v, ok := lookup(name); ok {
			return v
		}
		return ref
	})
}

// JoinRaw appends name to dir without cleaning dir, so the result keeps the
// caller's spelling of the directory. A single separator is inserted unless
// dir already ends with one.
//
// JoinRaw("$SCRATCH/nofaults/", "config.json") returns "$SCRATCH/nofaults/config.json".
func JoinRaw(dir, name string) string {
	if dir == "" {
		return name
	}
	if os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// RedactPath reduces a full path to .../<parent>/<basename> for log messages.
// For example, "/scratch/user/runs/nofaults" becomes ".../runs/nofaults".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}
