package fhsweep

// hierarchy.go describes the HL3/HL4/HL5 aggregation levels the scenarios are built on
// and computes the one-way propagation delay from the DU to the HL5 sites

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// PropDelayPerKm is the propagation delay of fibre, in microseconds per km
const PropDelayPerKm = 5.0

// aggregation levels, ordered from the core towards the cell sites
const (
	LevelHL3 = "hl3"
	LevelHL4 = "hl4"
	LevelHL5 = "hl5"
)

var levels = []string{LevelHL3, LevelHL4, LevelHL5}

// scenario keys holding the one-way link delays (microseconds)
const (
	KeyDelHL3HL4 = "del-hl3hl4"
	KeyDelHL4HL5 = "del-hl4hl5"
)

// A DistanceMode names a set of link lengths (km) between adjacent levels
type DistanceMode struct {
	Name   string  `json:"name" yaml:"name"`
	HL3HL4 float64 `json:"hl3hl4" yaml:"hl3hl4"`
	HL4HL5 float64 `json:"hl4hl5" yaml:"hl4hl5"`
}

// DistanceModes are the average and worst case link lengths
var DistanceModes = []DistanceMode{
	{Name: "avg", HL3HL4: 27.5, HL4HL5: 17.5},
	{Name: "worst", HL3HL4: 35, HL4HL5: 25},
}

// LookupDistanceMode returns the named mode
func LookupDistanceMode(name string) (DistanceMode, error) {
	idx := slices.IndexFunc(DistanceModes, func(dm DistanceMode) bool { return dm.Name == name })
	if idx < 0 {
		return DistanceMode{}, fmt.Errorf("unknown distance mode %q", name)
	}
	return DistanceModes[idx], nil
}

// Parameters sets the link delays of the mode
func (dm DistanceMode) Parameters() []SweepParameter {
	return []SweepParameter{
		FloatParam(KeyDelHL4HL5, PropDelayPerKm*dm.HL4HL5),
		FloatParam(KeyDelHL3HL4, PropDelayPerKm*dm.HL3HL4),
	}
}

// NoPropagationParameters zeroes both link delays
func NoPropagationParameters() []SweepParameter {
	return []SweepParameter{
		IntParam(KeyDelHL4HL5, 0),
		IntParam(KeyDelHL3HL4, 0),
	}
}

// HL5Nodes returns the number of HL5 nodes aggregated when the DU sits at level du
func HL5Nodes(du string) (int, error) {
	switch du {
	case LevelHL3:
		return 23, nil
	case LevelHL4:
		return 9, nil
	}
	return 0, fmt.Errorf("DU location %q is not one of %s, %s", du, LevelHL3, LevelHL4)
}

// BaselineFor names the baseline scenario of a topology with nodes HL5 nodes.
// suffix distinguishes variants of the same topology, e.g. "test".
func BaselineFor(nodes int, suffix string) string {
	return fmt.Sprintf("scratch/hl3-hl5-%d%s.json", nodes, suffix)
}

// levelGraph builds the level chain as an undirected graph weighted with link delays
func levelGraph(dm DistanceMode) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	delays := []float64{PropDelayPerKm * dm.HL3HL4, PropDelayPerKm * dm.HL4HL5}
	for idx := 0; idx < len(levels)-1; idx++ {
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(idx), T: simple.Node(idx + 1), W: delays[idx]})
	}
	return g
}

// OneWayDelay returns the propagation delay (microseconds) from a DU at level du to the HL5 sites
func OneWayDelay(du string, dm DistanceMode) (float64, error) {
	from := slices.Index(levels, du)
	if from < 0 || du == LevelHL5 {
		return 0, fmt.Errorf("DU location %q is not one of %s, %s", du, LevelHL3, LevelHL4)
	}

	spTree := path.DijkstraFrom(simple.Node(from), levelGraph(dm))
	_, weight := spTree.To(int64(slices.Index(levels, LevelHL5)))
	if math.IsInf(weight, 1) {
		return 0, fmt.Errorf("no path from %s to %s", du, LevelHL5)
	}
	return weight, nil
}
