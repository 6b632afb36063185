// Package simconfig rewrites a UCERF3-ETAS config.json into its no-faults
// variant. Fields are edited in place in the raw document, so unknown keys,
// key order and number literals survive untouched.
package simconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/nvandessel/nofaults/internal/constants"
	"github.com/nvandessel/nofaults/internal/fsutil"
)

// Config document keys rewritten for a no-faults run.
const (
	KeySimulationName     = "simulationName"
	KeyOutputDir          = "outputDir"
	KeyProbModel          = "probModel"
	KeyTotRateScaleFactor = "totRateScaleFactor"
	KeyRandomSeed         = "randomSeed"
	KeyGriddedOnly        = "griddedOnly"
)

// rewrittenKeys are the keys Transform sets.
var rewrittenKeys = []string{
	KeySimulationName,
	KeyOutputDir,
	KeyProbModel,
	KeyTotRateScaleFactor,
	KeyRandomSeed,
	KeyGriddedOnly,
}

// ErrMalformedConfig is returned when the source document is not a JSON
// object with a string simulationName.
var ErrMalformedConfig = errors.New("malformed simulation config")

// prettyOptions reindents with two spaces and keeps arrays one element per
// line. Keys are not sorted.
var prettyOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Params are the run-specific values written into the document.
type Params struct {
	// OutputDir is stored verbatim as outputDir.
	OutputDir string

	// Seed is stored as randomSeed.
	Seed uint64
}

// Summary describes a transformed document.
type Summary struct {
	SimulationName string `json:"simulation_name"`
	PreviousSeed   string `json:"previous_seed,omitempty"`
	Seed           uint64 `json:"random_seed"`
}

// Transform returns the no-faults version of the config document data.
func Transform(data []byte, p Params) ([]byte, *Summary, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: invalid JSON", ErrMalformedConfig)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("%w: top-level value is not an object", ErrMalformedConfig)
	}
	data = collapseKeys(data, doc, rewrittenKeys)
	doc = gjson.ParseBytes(data)

	name := doc.Get(gjson.Escape(KeySimulationName))
	if name.Type != gjson.String {
		return nil, nil, fmt.Errorf("%w: %s missing or not a string", ErrMalformedConfig, KeySimulationName)
	}

	summary := &Summary{
		SimulationName: name.String() + constants.NameSuffix,
		Seed:           p.Seed,
	}
	if prev := doc.Get(gjson.Escape(KeyRandomSeed)); prev.Exists() {
		summary.PreviousSeed = prev.Raw
	}

	e := editor{doc: data}
	e.set(KeySimulationName, summary.SimulationName)
	e.set(KeyOutputDir, p.OutputDir)
	e.set(KeyProbModel, constants.ProbModel)
	e.setRaw(KeyTotRateScaleFactor, constants.RateScaleFactor)
	e.setRaw(KeyRandomSeed, strconv.FormatUint(p.Seed, 10))
	e.set(KeyGriddedOnly, true)
	if e.err != nil {
		return nil, nil, e.err
	}

	return pretty.PrettyOptions(e.doc, prettyOptions), summary, nil
}

// Convert reads the config at src, transforms it and writes the result to
// dst in a single atomic replace.
func Convert(src, dst string, p Params) (*Summary, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	out, summary, err := Transform(data, p)
	if err != nil {
		return nil, fmt.Errorf("transforming %s: %w", src, err)
	}

	if err := fsutil.WriteFileAtomic(dst, out, fs.FileMode(constants.ConfigFileMode)); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}
	return summary, nil
}

// collapseKeys rebuilds the top-level object of data so each of keys occurs
// once, at its first position, holding its last value. That is what a
// last-wins decoder sees, and gjson and sjson only reach the first copy.
// data is returned unchanged when no key repeats.
func collapseKeys(data []byte, doc gjson.Result, keys []string) []byte {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	last := make(map[string]string)
	seen := make(map[string]int)
	doc.ForEach(func(k, v gjson.Result) bool {
		if name := k.String(); want[name] {
			seen[name]++
			last[name] = v.Raw
		}
		return true
	})

	dup := false
	for _, n := range seen {
		if n > 1 {
			dup = true
		}
	}
	if !dup {
		return data
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]bool)
	doc.ForEach(func(k, v gjson.Result) bool {
		name := k.String()
		raw := v.Raw
		if want[name] {
			if written[name] {
				return true
			}
			written[name] = true
			raw = last[name]
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.WriteString(k.Raw)
		buf.WriteByte(':')
		buf.WriteString(raw)
		return true
	})
	buf.WriteByte('}')
	return buf.Bytes()
}

// editor applies sjson edits and keeps the first error.
type editor struct {
	doc []byte
	err error
}

func (e *editor) set(key string, value any) {
	if e.err != nil {
		return
	}
	doc, err := sjson.SetBytes(e.doc, gjson.Escape(key), value)
	if err != nil {
		e.err = fmt.Errorf("setting %s: %w", key, err)
		return
	}
	e.doc = doc
}

func (e *editor) setRaw(key, raw string) {
	if e.err != nil {
		return
	}
	doc, err := sjson.SetRawBytes(e.doc, gjson.Escape(key), []byte(raw))
	if err != nil {
		e.err = fmt.Errorf("setting %s: %w", key, err)
		return
	}
	e.doc = doc
}
