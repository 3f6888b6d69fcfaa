package fhsweep

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Scenario holds the simulator's input description as an open document.
// The simulator owns the schema, so only the keys a sweep names are touched
// and everything else is carried through unchanged.
type Scenario struct {
	// Source is the file the document was read from, empty if built from bytes
	Source string

	// Dict is the decoded document. Objects are map[string]any, arrays []any,
	// JSON numbers json.Number
	Dict map[string]any
}

// isYAMLPath reports whether serialization to filename should use yaml
func isYAMLPath(filename string) bool {
	pathExt := path.Ext(filename)
	return pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
}

// ReadScenario deserializes a byte slice holding a scenario description.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadScenario(filename string, useYAML bool, dict []byte) (*Scenario, error) {
	var err error

	// if the dict slice of bytes is empty we get them from the file whose name is an argument
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	doc := make(map[string]any)

	if useYAML {
		err = yaml.Unmarshal(dict, &doc)
	} else {
		// numbers stay json.Number so integer fields are written back as integers
		dec := json.NewDecoder(bytes.NewReader(dict))
		dec.UseNumber()
		err = dec.Decode(&doc)
	}

	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", filename, err)
	}

	return &Scenario{Source: filename, Dict: doc}, nil
}

// WriteToFile stores the scenario to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (scn *Scenario) WriteToFile(filename string) error {
	var bytes []byte
	var merr error

	if isYAMLPath(filename) {
		bytes, merr = yaml.Marshal(plainNumbers(scn.Dict))
	} else {
		bytes, merr = json.MarshalIndent(scn.Dict, "", "\t")
	}

	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// plainNumbers copies v with json.Number values turned into int64 or float64,
// which yaml would otherwise quote as strings
func plainNumbers(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(tv))
		for key, val := range tv {
			cp[key] = plainNumbers(val)
		}
		return cp
	case []any:
		cp := make([]any, len(tv))
		for idx, val := range tv {
			cp[idx] = plainNumbers(val)
		}
		return cp
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	default:
		return v
	}
}

// Clone returns a deep copy, so that one baseline can be mutated once per run
func (scn *Scenario) Clone() *Scenario {
	return &Scenario{Source: scn.Source, Dict: cloneValue(scn.Dict).(map[string]any)}
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(tv))
		for key, val := range tv {
			cp[key] = cloneValue(val)
		}
		return cp
	case []any:
		cp := make([]any, len(tv))
		for idx, val := range tv {
			cp[idx] = cloneValue(val)
		}
		return cp
	default:
		return v
	}
}

// SplitKeyPath breaks a dotted key path into its segments.  Empty segments are errors.
func SplitKeyPath(keyPath string) ([]string, error) {
	if len(keyPath) == 0 {
		return nil, errors.New("empty key path")
	}
	segs := strings.Split(keyPath, ".")
	for _, seg := range segs {
		if len(seg) == 0 {
			return nil, fmt.Errorf("key path %q has an empty segment", keyPath)
		}
	}
	return segs, nil
}

// Get returns the value found at keyPath. Wildcards are not allowed here.
func (scn *Scenario) Get(keyPath string) (any, error) {
	segs, err := SplitKeyPath(keyPath)
	if err != nil {
		return nil, err
	}

	var node any = scn.Dict
	for _, seg := range segs {
		if seg == "*" {
			return nil, fmt.Errorf("get %s: wildcard not permitted", keyPath)
		}
		node, err = childOf(node, seg)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", keyPath, err)
		}
	}
	return node, nil
}

// GetFloat returns the numeric value at keyPath
func (scn *Scenario) GetFloat(keyPath string) (float64, error) {
	v, err := scn.Get(keyPath)
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// Set writes value at every leaf addressed by keyPath and returns how many were written.
// A missing key in the last position is created; anything missing on the way is an error.
func (scn *Scenario) Set(keyPath string, value any) (int, error) {
	segs, err := SplitKeyPath(keyPath)
	if err != nil {
		return 0, err
	}
	n, err := setPath(scn.Dict, segs, value)
	if err != nil {
		return n, fmt.Errorf("set %s: %w", keyPath, err)
	}
	return n, nil
}

// childOf steps one segment down from node
func childOf(node any, seg string) (any, error) {
	switch tn := node.(type) {
	case map[string]any:
		child, present := tn[seg]
		if !present {
			return nil, fmt.Errorf("key %q not present", seg)
		}
		return child, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, fmt.Errorf("segment %q does not index an array", seg)
		}
		if idx < 0 || idx >= len(tn) {
			return nil, fmt.Errorf("index %d out of range [0,%d)", idx, len(tn))
		}
		return tn[idx], nil
	default:
		return nil, fmt.Errorf("segment %q steps into a scalar", seg)
	}
}

func setPath(node any, segs []string, value any) (int, error) {
	seg := segs[0]
	last := len(segs) == 1

	switch tn := node.(type) {
	case map[string]any:
		if seg == "*" {
			total := 0
			for key := range tn {
				if last {
					tn[key] = value
					total += 1
					continue
				}
				n, err := setPath(tn[key], segs[1:], value)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		}
		if last {
			tn[seg] = value
			return 1, nil
		}
		child, present := tn[seg]
		if !present {
			return 0, fmt.Errorf("key %q not present", seg)
		}
		return setPath(child, segs[1:], value)

	case []any:
		if seg == "*" {
			total := 0
			for idx := range tn {
				if last {
					tn[idx] = value
					total += 1
					continue
				}
				n, err := setPath(tn[idx], segs[1:], value)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		}
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return 0, fmt.Errorf("segment %q does not index an array", seg)
		}
		if idx < 0 || idx >= len(tn) {
			return 0, fmt.Errorf("index %d out of range [0,%d)", idx, len(tn))
		}
		if last {
			tn[idx] = value
			return 1, nil
		}
		return setPath(tn[idx], segs[1:], value)

	default:
		return 0, fmt.Errorf("segment %q steps into a scalar", seg)
	}
}

func toFloat(v any) (float64, error) {
	switch tv := v.(type) {
	case json.Number:
		return tv.Float64()
	case float64:
		return tv, nil
	case float32:
		return float64(tv), nil
	case int:
		return float64(tv), nil
	case int64:
		return float64(tv), nil
	case string:
		return strconv.ParseFloat(tv, 64)
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

// ReportErrs transforms a list of errors and transforms the non-nil ones into a single error
// with comma-separated report of all the constituent errors, and returns it.
func ReportErrs(errs []error) error {
	errMsg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			errMsg = append(errMsg, err.Error())
		}
	}
	if len(errMsg) == 0 {
		return nil
	}

	return errors.New(strings.Join(errMsg, ","))
}

// CheckDirectories probes the file system for the existence
// of every directory listed.  Returns a boolean
// indicating whether all dirs are valid, and returns an aggregated error
// if any checks failed.
func CheckDirectories(dirs []string) (bool, error) {
	failures := []string{}

	for _, dir := range dirs {
		if len(dir) == 0 {
			continue
		}

		info, err := os.Stat(dir)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s not reachable", dir))
			continue
		}
		if !info.IsDir() {
			failures = append(failures, fmt.Sprintf("%s not a directory", dir))
		}
	}
	if len(failures) == 0 {
		return true, nil
	}

	return false, errors.New(strings.Join(failures, ","))
}

// CheckReadableFiles probes the file system to ensure that every
// one of the argument filenames exists and is readable
func CheckReadableFiles(names []string) (bool, error) {
	return CheckFiles(names, true)
}

// CheckOutputFiles probes the file system to ensure that every
// argument filename can be written.
func CheckOutputFiles(names []string) (bool, error) {
	return CheckFiles(names, false)
}

// CheckFiles probes the file system for permitted access to all the
// argument filenames, optionally checking also for the existence
// of those files for the purposes of reading them.
func CheckFiles(names []string, checkExistence bool) (bool, error) {
	errs := make([]error, 0)

	for _, name := range names {
		if len(name) == 0 {
			continue
		}

		// the directory holding the file has to be there
		directory := filepath.Dir(name)
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, err)
		}

		if checkExistence {
			if _, err := os.Stat(name); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) == 0 {
		return true, nil
	}

	return false, ReportErrs(errs)
}
