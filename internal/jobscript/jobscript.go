// Package jobscript rewrites SLURM submission scripts by literal line prefix.
//
// Scripts are treated as opaque bytes: a line is only ever replaced whole,
// and every other line is written back exactly as read, terminator included.
package jobscript

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/nvandessel/nofaults/internal/fsutil"
)

// Rule replaces any line beginning with Prefix by Line.
type Rule struct {
	Prefix string
	Line   string
}

// Rules are tried in order; the first matching prefix wins.
type Rules []Rule

// Match returns the first rule whose prefix starts line.
func (rs Rules) Match(line []byte) (Rule, bool) {
	for _, r := range rs {
		if bytes.HasPrefix(line, []byte(r.Prefix)) {
			return r, true
		}
	}
	return Rule{}, false
}

// Keys are the line prefixes a script is matched against.
type Keys struct {
	ConfEnvKey     string
	NodesDirective string
	TimeDirective  string
	QueueDirective string
}

// Overrides are optional scheduler values. Zero values leave the matching
// directive untouched.
type Overrides struct {
	Nodes   int
	RunTime string
	Queue   string
}

// PrimaryRules returns the rules for the simulation script: the config path
// is always rewritten, and node count, run time and queue when set.
func PrimaryRules(k Keys, confPath string, o Overrides) Rules {
	rules := Rules{confRule(k, confPath)}
	if o.Nodes > 0 {
		rules = append(rules, directive(k.NodesDirective, strconv.Itoa(o.Nodes)))
	}
	if o.RunTime != "" {
		rules = append(rules, directive(k.TimeDirective, o.RunTime))
	}
	if o.Queue != "" {
		rules = append(rules, directive(k.QueueDirective, o.Queue))
	}
	return rules
}

// PlotRules returns the rules for the plotting script. Node count and run
// time are never changed there.
func PlotRules(k Keys, confPath string, o Overrides) Rules {
	rules := Rules{confRule(k, confPath)}
	if o.Queue != "" {
		rules = append(rules, directive(k.QueueDirective, o.Queue))
	}
	return rules
}

func confRule(k Keys, confPath string) Rule {
	return Rule{Prefix: k.ConfEnvKey, Line: k.ConfEnvKey + "=" + confPath}
}

func directive(prefix, value string) Rule {
	return Rule{Prefix: prefix, Line: prefix + " " + value}
}

// Change records one replaced line.
type Change struct {
	// Number is the 1-based line number.
	Number int
	Old    string
	New    string
}

// Patch applies rules to every line of script. Replaced lines keep the
// original terminator ("\n" or "\r\n"); a replaced final line without one
// gains "\n".
func Patch(script []byte, rules Rules) ([]byte, []Change) {
	out := make([]byte, 0, len(script))
	var changes []Change

	for n := 1; len(script) > 0; n++ {
		var line []byte
		if i := bytes.IndexByte(script, '\n'); i >= 0 {
			line, script = script[:i+1], script[i+1:]
		} else {
			line, script = script, nil
		}

		content, eol := splitEOL(line)
		r, ok := rules.Match(content)
		if !ok {
			out = append(out, line...)
			continue
		}
		if eol == "" {
			eol = "\n"
		}
		out = append(out, r.Line...)
		out = append(out, eol...)
		changes = append(changes, Change{Number: n, Old: string(content), New: r.Line})
	}
	return out, changes
}

func splitEOL(line []byte) ([]byte, string) {
	if bytes.HasSuffix(line, []byte("\r\n")) {
		return line[:len(line)-2], "\r\n"
	}
	if bytes.HasSuffix(line, []byte("\n")) {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// PatchFile rewrites the script at path in place. The whole file is read,
// patched in memory and replaced atomically with its mode preserved.
func PatchFile(path string, rules Rules) ([]Change, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job script: %w", err)
	}

	out, changes := Patch(data, rules)
	if err := fsutil.WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing job script: %w", err)
	}
	return changes, nil
}
