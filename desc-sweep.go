package fhsweep

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// A SweepParameter names one scenario key and the value a run writes there.
//   - Key is a dotted path into the scenario, e.g. "BHFeatures.0.Rate" or
//     "Hl5Agreggration.*.Sites.*.CellFeatures.*.URatenum"
//   - Value is string-encoded
//   - Type forces the encoding written to the scenario. Empty means infer
type SweepParameter struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// ParamTypes lists the values permitted in SweepParameter.Type
var ParamTypes = []string{"", "int", "float", "bool", "string"}

// CreateSweepParameter is a constructor.  Completely fills in the struct with the [SweepParameter] attributes.
func CreateSweepParameter(key, value, typ string) *SweepParameter {
	return &SweepParameter{Key: key, Value: value, Type: typ}
}

// FloatParam builds a parameter holding a float, formatted the way the sweep
// folder names expect (always with a fractional part).
func FloatParam(key string, v float64) SweepParameter {
	return SweepParameter{Key: key, Value: FormatFloat(v), Type: "float"}
}

// IntParam builds a parameter holding an integer
func IntParam(key string, v int) SweepParameter {
	return SweepParameter{Key: key, Value: strconv.Itoa(v), Type: "int"}
}

// BoolParam builds a parameter holding a boolean
func BoolParam(key string, v bool) SweepParameter {
	return SweepParameter{Key: key, Value: strconv.FormatBool(v), Type: "bool"}
}

// StringParam builds a parameter holding a string, never re-interpreted as a number
func StringParam(key, v string) SweepParameter {
	return SweepParameter{Key: key, Value: v, Type: "string"}
}

// FormatFloat writes v with the fewest digits that represent it exactly,
// keeping a ".0" on integral values
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !math.IsInf(v, 0) && !math.IsNaN(v) && !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Typed returns the parameter value converted to what is written into the scenario
func (sp *SweepParameter) Typed() (any, error) {
	switch sp.Type {
	case "int":
		return strconv.Atoi(sp.Value)
	case "float":
		return strconv.ParseFloat(sp.Value, 64)
	case "bool":
		return strconv.ParseBool(sp.Value)
	case "string":
		return sp.Value, nil
	case "":
		return inferValue(sp.Value), nil
	}
	return nil, fmt.Errorf("parameter %s has unrecognized type %q", sp.Key, sp.Type)
}

// inferValue takes a string and determines whether it is an integer, floating point,
// boolean, or a string
func inferValue(v string) any {
	// try conversion to int
	ivalue, ierr := strconv.Atoi(v)
	if ierr == nil {
		return ivalue
	}

	// failing that, try conversion to float
	fvalue, ferr := strconv.ParseFloat(v, 64)
	if ferr == nil {
		return fvalue
	}

	if v == "true" || v == "True" {
		return true
	}
	if v == "false" || v == "False" {
		return false
	}

	return v
}

// ValidateParameter returns an error if the key, type and value don't
// make sense taken together within a SweepParameter.
func ValidateParameter(key, value, typ string) error {
	if !slices.Contains(ParamTypes, typ) {
		return fmt.Errorf("parameter %s has unrecognized type %q", key, typ)
	}

	if _, err := SplitKeyPath(key); err != nil {
		return err
	}

	sp := SweepParameter{Key: key, Value: value, Type: typ}
	if _, err := sp.Typed(); err != nil {
		return fmt.Errorf("parameter %s value %q is not a %s: %w", key, value, typ, err)
	}

	return nil
}

// keyRank orders parameters so that broader keys are applied first:
// wildcards, then array-indexed keys, then plain keys
func keyRank(key string) int {
	segs := strings.Split(key, ".")
	if slices.Contains(segs, "*") {
		return 0
	}
	for _, seg := range segs {
		if _, err := strconv.Atoi(seg); err == nil {
			return 1
		}
	}
	return 2
}

// reorderSweepParams returns a copy of pL ordered by keyRank. Within a rank the
// given order is kept, so a later parameter on the same key wins.
func reorderSweepParams(pL []SweepParameter) []SweepParameter {
	ordered := make([]SweepParameter, len(pL))
	copy(ordered, pL)
	sort.SliceStable(ordered, func(i, j int) bool {
		return keyRank(ordered[i].Key) < keyRank(ordered[j].Key)
	})
	return ordered
}

// A SweepCfg structure holds the SweepParameters for one named group, e.g. a queue profile
// or the mutations of a single run
type SweepCfg struct {
	// Name is an identifier for the group, used as the key when stored in a SweepCfgDict
	Name string `json:"name" yaml:"name"`

	// Parameters lists the mutations, applied in rank order
	Parameters []SweepParameter `json:"parameters" yaml:"parameters"`
}

// CreateSweepCfg is a constructor. Saves the offered Name and initializes the slice of SweepParameters.
func CreateSweepCfg(name string) *SweepCfg {
	return &SweepCfg{Name: name, Parameters: make([]SweepParameter, 0)}
}

// AddSweepParameter appends an already-built parameter without validation
func (swcfg *SweepCfg) AddSweepParameter(sp *SweepParameter) {
	swcfg.Parameters = append(swcfg.Parameters, *sp)
}

// AddParameter accepts the three values in a SweepParameter, creates one, and adds to the SweepCfg's list.
// Returns an error if the parameter is not validated.
func (swcfg *SweepCfg) AddParameter(key, value, typ string) error {
	err := ValidateParameter(key, value, typ)
	if err != nil {
		return err
	}

	swcfg.Parameters = append(swcfg.Parameters, *CreateSweepParameter(key, value, typ))
	return nil
}

// ApplyParameters writes pL into scn, broader keys first. Every parameter is attempted and
// the failures are reported together.
func ApplyParameters(scn *Scenario, pL []SweepParameter) error {
	errs := []error{}
	for _, sp := range reorderSweepParams(pL) {
		value, err := sp.Typed()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if f, ok := value.(float64); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
			// keep the ".0" of integral floats in the written scenario
			value = json.Number(FormatFloat(f))
		}
		if _, err := scn.Set(sp.Key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return ReportErrs(errs)
}

// WriteToFile stores the SweepCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (swcfg *SweepCfg) WriteToFile(filename string) error {
	return writeDesc(filename, *swcfg)
}

// ReadSweepCfg deserializes a byte slice holding a representation of a SweepCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadSweepCfg(filename string, useYAML bool, dict []byte) (*SweepCfg, error) {
	example := SweepCfg{}
	if err := readDesc(filename, useYAML, dict, &example); err != nil {
		return nil, err
	}
	return &example, nil
}

// A SweepCfgDict is a dictionary that holds [SweepCfg] objects in a map indexed by their Name.
type SweepCfgDict struct {
	DictName string              `json:"dictname" yaml:"dictname"`
	Cfgs     map[string]SweepCfg `json:"cfgs" yaml:"cfgs"`
}

// CreateSweepCfgDict is a constructor.  Saves a name for the dictionary, and initializes the map of SweepCfg objects
func CreateSweepCfgDict(name string) *SweepCfgDict {
	scd := new(SweepCfgDict)
	scd.DictName = name
	scd.Cfgs = make(map[string]SweepCfg)

	return scd
}

// AddSweepCfg adds the offered SweepCfg to the dictionary, optionally returning
// an error if a SweepCfg with the same Name is already saved.
func (scd *SweepCfgDict) AddSweepCfg(sc *SweepCfg, overwrite bool) error {
	if scd.Cfgs == nil {
		scd.Cfgs = make(map[string]SweepCfg)
	}
	if !overwrite {
		_, present := scd.Cfgs[sc.Name]
		if present {
			return fmt.Errorf("attempt to overwrite SweepCfg %s", sc.Name)
		}
	}
	scd.Cfgs[sc.Name] = *sc

	return nil
}

// RecoverSweepCfg returns a SweepCfg from the dictionary, with name equal to the input parameter.
// It returns also a flag denoting whether the identified SweepCfg has an entry in the dictionary.
func (scd *SweepCfgDict) RecoverSweepCfg(name string) (*SweepCfg, bool) {
	sc, present := scd.Cfgs[name]
	if present {
		return &sc, true
	}

	return nil, false
}

// WriteToFile stores the SweepCfgDict struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (scd *SweepCfgDict) WriteToFile(filename string) error {
	return writeDesc(filename, *scd)
}

// ReadSweepCfgDict deserializes a byte slice holding a representation of a SweepCfgDict struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadSweepCfgDict(filename string, useYAML bool, dict []byte) (*SweepCfgDict, error) {
	example := SweepCfgDict{}
	if err := readDesc(filename, useYAML, dict, &example); err != nil {
		return nil, err
	}
	if example.Cfgs == nil {
		example.Cfgs = make(map[string]SweepCfg)
	}
	return &example, nil
}

// writeDesc serializes desc to filename, yaml or json by extension
func writeDesc(filename string, desc any) error {
	var bytes []byte
	var merr error

	if isYAMLPath(filename) {
		bytes, merr = yaml.Marshal(desc)
	} else {
		bytes, merr = json.MarshalIndent(desc, "", "\t")
	}
	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// readDesc deserializes dict (or the file's contents when dict is empty) into target
func readDesc(filename string, useYAML bool, dict []byte, target any) error {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return err
		}
	}

	if useYAML {
		err = yaml.Unmarshal(dict, target)
	} else {
		err = json.Unmarshal(dict, target)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}
