package fhsweep

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// scenario keys read by the WRR and marker queue discs
const (
	KeyMapQueue    = "MapQueue"
	KeyWeights     = "Weights"
	KeyMarkingPort = "Marking_Port"
)

// A QueueProfile is the hierarchical-QoS setup of the bottleneck:
// DSCP to WRR queue mapping, the WRR quantum of each queue, and the UDP port to DSCP marking.
type QueueProfile struct {
	Name        string `json:"name" yaml:"name"`
	MapQueue    string `json:"mapqueue" yaml:"mapqueue"`
	Weights     string `json:"weights" yaml:"weights"`
	MarkingPort string `json:"markingport" yaml:"markingport"`
}

// QueueMap is the decoded form of a QueueProfile
type QueueMap struct {
	DSCPToQueue map[int]int
	Weights     []int
	PortToDSCP  map[int]int
}

// parsePairs decodes a whitespace separated list of integer pairs
func parsePairs(field, s string) ([][2]int, error) {
	tokens := strings.Fields(s)
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%s %q has an odd number of values", field, s)
	}
	pairs := make([][2]int, 0, len(tokens)/2)
	for idx := 0; idx < len(tokens); idx += 2 {
		a, aerr := strconv.Atoi(tokens[idx])
		b, berr := strconv.Atoi(tokens[idx+1])
		if aerr != nil || berr != nil {
			return nil, fmt.Errorf("%s %q holds a non-integer value", field, s)
		}
		pairs = append(pairs, [2]int{a, b})
	}
	return pairs, nil
}

// ParseQueueProfile decodes and checks the three strings of a profile.
// All problems found are reported together.
func ParseQueueProfile(qp QueueProfile) (*QueueMap, error) {
	errs := []error{}
	qm := &QueueMap{DSCPToQueue: make(map[int]int), PortToDSCP: make(map[int]int)}

	for _, tok := range strings.Fields(qp.Weights) {
		w, err := strconv.Atoi(tok)
		if err != nil {
			errs = append(errs, fmt.Errorf("weight %q is not an integer", tok))
			continue
		}
		if w <= 0 {
			errs = append(errs, fmt.Errorf("weight %d is not positive", w))
			continue
		}
		qm.Weights = append(qm.Weights, w)
	}
	if len(qm.Weights) == 0 {
		errs = append(errs, fmt.Errorf("profile %s has no weights", qp.Name))
	}

	pairs, err := parsePairs(KeyMapQueue, qp.MapQueue)
	errs = append(errs, err)
	for _, pr := range pairs {
		dscp, queue := pr[0], pr[1]
		if dscp < 0 || dscp > 63 {
			errs = append(errs, fmt.Errorf("dscp %d out of range", dscp))
		}
		if queue < 0 || queue >= len(qm.Weights) {
			errs = append(errs, fmt.Errorf("dscp %d maps to queue %d but only %d weights are given", dscp, queue, len(qm.Weights)))
		}
		qm.DSCPToQueue[dscp] = queue
	}
	// a weight whose queue no dscp reaches is a typo in one of the two lists
	if err == nil {
		queues := qm.Queues()
		for idx := range qm.Weights {
			if !slices.Contains(queues, idx) {
				errs = append(errs, fmt.Errorf("queue %d has a weight but no dscp maps to it", idx))
			}
		}
	}

	pairs, err = parsePairs(KeyMarkingPort, qp.MarkingPort)
	errs = append(errs, err)
	for _, pr := range pairs {
		port, dscp := pr[0], pr[1]
		if port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range", port))
		}
		if dscp < 0 || dscp > 63 {
			errs = append(errs, fmt.Errorf("port %d marked with dscp %d out of range", port, dscp))
		}
		qm.PortToDSCP[port] = dscp
	}

	if rerr := ReportErrs(errs); rerr != nil {
		return nil, fmt.Errorf("queue profile %s: %w", qp.Name, rerr)
	}
	return qm, nil
}

// Queues lists the distinct queue indices the DSCP map uses, ascending
func (qm *QueueMap) Queues() []int {
	queues := []int{}
	for _, q := range qm.DSCPToQueue {
		if !slices.Contains(queues, q) {
			queues = append(queues, q)
		}
	}
	slices.Sort(queues)
	return queues
}

// Parameters turns the profile into the scenario mutations that select it
func (qp QueueProfile) Parameters() []SweepParameter {
	return []SweepParameter{
		StringParam(KeyMapQueue, qp.MapQueue),
		StringParam(KeyWeights, qp.Weights),
		StringParam(KeyMarkingPort, qp.MarkingPort),
	}
}

// SweepCfg stores the profile as a named parameter group
func (qp QueueProfile) SweepCfg() *SweepCfg {
	sc := CreateSweepCfg(qp.Name)
	for _, sp := range qp.Parameters() {
		sc.AddSweepParameter(&sp)
	}
	return sc
}

// QueueProfileFromCfg recovers a profile from a parameter group built by SweepCfg
func QueueProfileFromCfg(sc *SweepCfg) (QueueProfile, error) {
	qp := QueueProfile{Name: sc.Name}
	for _, sp := range sc.Parameters {
		switch sp.Key {
		case KeyMapQueue:
			qp.MapQueue = sp.Value
		case KeyWeights:
			qp.Weights = sp.Value
		case KeyMarkingPort:
			qp.MarkingPort = sp.Value
		default:
			return qp, fmt.Errorf("queue profile %s: unexpected key %s", sc.Name, sp.Key)
		}
	}
	_, err := ParseQueueProfile(qp)
	return qp, err
}

// BuiltinQueueProfiles are the profiles the backhaul studies were run with
var BuiltinQueueProfiles = []QueueProfile{
	{Name: "FHcbr", MapQueue: "8 0", Weights: "1", MarkingPort: "8080 46 11000 8 12000 8 13000 8"},
	{Name: "FH", MapQueue: "8 0 16 1", Weights: "1000 1", MarkingPort: "8080 46 11000 46 12000 8 13000 16"},
	{Name: "FHWRR2", MapQueue: "8 0 16 1", Weights: "1000 1", MarkingPort: "8080 46 11000 8 12000 8 13000 16"},
	{Name: "FHWRR3", MapQueue: "8 0 16 1 24 2", Weights: "1000 300 1", MarkingPort: "8080 46 11000 8 12000 16 13000 24"},
	{Name: "FHWRR3b", MapQueue: "8 0 16 1 24 2", Weights: "1000 500 1", MarkingPort: "8080 46 11000 8 12000 16 13000 24"},
}

// BuiltinProfileDict holds BuiltinQueueProfiles as a SweepCfgDict
func BuiltinProfileDict() *SweepCfgDict {
	scd := CreateSweepCfgDict("queue-profiles")
	for _, qp := range BuiltinQueueProfiles {
		// names are distinct, so no overwrite check can fail
		_ = scd.AddSweepCfg(qp.SweepCfg(), false)
	}
	return scd
}

// LookupQueueProfile finds a profile by name in scd
func LookupQueueProfile(scd *SweepCfgDict, name string) (QueueProfile, error) {
	sc, present := scd.RecoverSweepCfg(name)
	if !present {
		return QueueProfile{}, fmt.Errorf("queue profile %s not in dictionary %s", name, scd.DictName)
	}
	return QueueProfileFromCfg(sc)
}
