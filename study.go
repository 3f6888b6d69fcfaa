package fhsweep

// study.go expands a study description into the ordered list of simulator runs it stands for.
// Each kind of study reproduces one family of sweeps over the HL3-HL5 fronthaul scenarios.

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/slices"
)

// kinds of study
const (
	KindPropDelay  = "propdelay"
	KindBackhaul   = "backhaul"
	KindSaturation = "saturation"
	KindLinkCap    = "linkcap"
	KindMidLink    = "midlink"
	KindCellProv   = "cellprov"
)

// StudyKinds lists the recognized values of Study.Kind
var StudyKinds = []string{KindPropDelay, KindBackhaul, KindSaturation, KindLinkCap, KindMidLink, KindCellProv}

// prop flags: with propagation delay, or without
const (
	PropOn  = "p"
	PropOff = "sp"
)

// rate units of the backhaul flows
const (
	RateMbps = "Mbps"
	RateGbps = "Gbps"
)

// scenario keys written by the studies
const (
	KeyFolderName      = "FolderName"
	KeySecondsSim      = "Seconds_sim"
	KeyNetMTU          = "netmtu"
	KeyEnableSwitching = "EnableSwitching"
	KeyTraceTimeStamps = "EnableTraceTimeStamps"
	KeyEnableModel     = "EnableModel"
	KeyEnableHQoS      = "EnableHQoS"
	KeyPoisson         = "Poisson"
	KeyModel           = "Model"
	KeyBackhaulEnable  = "Backhaulenable"
	KeySlices          = "Slices"
	KeyLinkCap         = "LinkCap"
	KeyMidLinkCap      = "MidLinkCap"
)

// BHShares splits the backhaul capacity over the three backhaul flows, BHFeatures.0 to BHFeatures.2
var BHShares = []float64{0.23, 0.26, 0.51}

// annotation names recorded with each run
const (
	AnnPropDelayUs  = "prop_delay_us"
	AnnRho          = "rho"
	AnnEstLatencyUs = "est_latency_us"
	AnnBackhaulGbps = "backhaul_gbps"
	AnnURateBps     = "urate_bps"
	AnnCRateBps     = "crate_bps"
)

// A RunSpec is one simulator invocation
type RunSpec struct {
	// Folder is the result folder, relative to the results directory
	Folder string `json:"folder" yaml:"folder"`

	// Baseline is the scenario read before mutation, relative to the ns-3 directory
	Baseline string `json:"baseline" yaml:"baseline"`

	// Output is where the mutated scenario is written, relative to the ns-3 directory.
	// Empty selects the configured default
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Program is the scenario program handed to the simulator
	Program string `json:"program" yaml:"program"`

	Parameters []SweepParameter `json:"parameters" yaml:"parameters"`

	// CopyScenario copies the written scenario into the result folder after the run
	CopyScenario bool `json:"copyscenario,omitempty" yaml:"copyscenario,omitempty"`

	// Archive compresses the result folder to <folder>.tar.gz and removes it after the run
	Archive bool `json:"archive,omitempty" yaml:"archive,omitempty"`

	// Annotations are analytic values recorded alongside the run
	Annotations map[string]float64 `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// A Study describes one sweep. Which fields matter depends on Kind.
type Study struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`

	// Program, Baseline and Output replace the kind's defaults when given
	Program  string `json:"program,omitempty" yaml:"program,omitempty"`
	Baseline string `json:"baseline,omitempty" yaml:"baseline,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`

	// BaselineSuffix picks a variant of the per-topology baseline, e.g. "test"
	BaselineSuffix string `json:"baselinesuffix,omitempty" yaml:"baselinesuffix,omitempty"`

	DULocations []string `json:"dulocations,omitempty" yaml:"dulocations,omitempty"`

	// Nodes replaces the HL5 node count implied by the DU location when positive
	Nodes    int   `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	NumSites []int `json:"numsites,omitempty" yaml:"numsites,omitempty"`

	MTUs      []int    `json:"mtus,omitempty" yaml:"mtus,omitempty"`
	PropFlags []string `json:"propflags,omitempty" yaml:"propflags,omitempty"`
	Modes     []string `json:"modes,omitempty" yaml:"modes,omitempty"`

	SecondsSim      float64 `json:"secondssim,omitempty" yaml:"secondssim,omitempty"`
	TraceTimeStamps bool    `json:"tracetimestamps,omitempty" yaml:"tracetimestamps,omitempty"`
	EnableSwitching *bool   `json:"enableswitching,omitempty" yaml:"enableswitching,omitempty"`
	Poisson         bool    `json:"poisson,omitempty" yaml:"poisson,omitempty"`
	Model           string  `json:"model,omitempty" yaml:"model,omitempty"`
	Slices          int     `json:"slices,omitempty" yaml:"slices,omitempty"`

	// Profiles names queue profiles; none leaves the scenario's queueing untouched
	Profiles []string `json:"profiles,omitempty" yaml:"profiles,omitempty"`

	// backhaul capacity sweep: Arange(BHStart, Budget/1e9 - BHStopMargin, BHStep) Gbps,
	// Budget = Capacity - nodes*SiteLimit
	Capacity     float64 `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	SiteLimit    float64 `json:"sitelimit,omitempty" yaml:"sitelimit,omitempty"`
	BHStart      float64 `json:"bhstart,omitempty" yaml:"bhstart,omitempty"`
	BHStopMargin float64 `json:"bhstopmargin,omitempty" yaml:"bhstopmargin,omitempty"`
	BHStep       float64 `json:"bhstep,omitempty" yaml:"bhstep,omitempty"`
	RateUnit     string  `json:"rateunit,omitempty" yaml:"rateunit,omitempty"`

	// saturation levels (percent of Capacity); without SatLevels,
	// SatPoints levels spread evenly from SatStart to SatStop
	SatLevels []float64 `json:"satlevels,omitempty" yaml:"satlevels,omitempty"`
	SatStart  float64   `json:"satstart,omitempty" yaml:"satstart,omitempty"`
	SatStop   float64   `json:"satstop,omitempty" yaml:"satstop,omitempty"`
	SatPoints int       `json:"satpoints,omitempty" yaml:"satpoints,omitempty"`

	// link capacities (Gbps) and the utilization target (percent)
	LinkCaps []float64 `json:"linkcaps,omitempty" yaml:"linkcaps,omitempty"`
	Rho      float64   `json:"rho,omitempty" yaml:"rho,omitempty"`

	// mid link capacity sweep, Stop inclusive
	Start      float64 `json:"start,omitempty" yaml:"start,omitempty"`
	Stop       float64 `json:"stop,omitempty" yaml:"stop,omitempty"`
	Step       float64 `json:"step,omitempty" yaml:"step,omitempty"`
	FolderMode string  `json:"foldermode,omitempty" yaml:"foldermode,omitempty"`

	// cell provisioning
	Radio        *RadioConfig `json:"radio,omitempty" yaml:"radio,omitempty"`
	CellsPerSite int          `json:"cellspersite,omitempty" yaml:"cellspersite,omitempty"`

	// Archive compresses and removes each result folder after its run
	Archive bool `json:"archive,omitempty" yaml:"archive,omitempty"`

	// Replications repeats every run; SeedKey, when set, receives a fresh seed per replication
	Replications int    `json:"replications,omitempty" yaml:"replications,omitempty"`
	SeedKey      string `json:"seedkey,omitempty" yaml:"seedkey,omitempty"`

	// Overrides are applied to every run after the study's own parameters
	Overrides []SweepParameter `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// BuiltinStudies returns the sweeps that were run on the HL3-HL5 and HL4-HL5 scenarios
func BuiltinStudies() []Study {
	return []Study{
		{
			Name:            "propdelay",
			Kind:            KindPropDelay,
			DULocations:     []string{LevelHL3, LevelHL4},
			MTUs:            []int{8000, 1500},
			PropFlags:       []string{PropOn},
			Modes:           []string{"avg", "worst"},
			SecondsSim:      0.5,
			EnableSwitching: boolPtr(true),
			Replications:    1,
		},
		{
			Name:           "backhaul",
			Kind:           KindBackhaul,
			BaselineSuffix: "test",
			DULocations:    []string{LevelHL3},
			MTUs:           []int{8000},
			PropFlags:      []string{PropOff},
			Modes:          []string{"worst"},
			Profiles:       []string{"FHcbr"},
			SecondsSim:     1,
			Poisson:        true,
			Model:          ModelMG1,
			Capacity:       1700e9,
			SiteLimit:      DefaultSiteLimit,
			BHStart:        25,
			BHStopMargin:   5,
			BHStep:         2.5,
			RateUnit:       RateMbps,
			Archive:        true,
		},
		{
			Name:         "backhaul-gbps",
			Kind:         KindBackhaul,
			Program:      "scratch/hl3-hl5theo.cc",
			DULocations:  []string{LevelHL3},
			Nodes:        1,
			MTUs:         []int{8000},
			PropFlags:    []string{PropOff},
			SecondsSim:   1,
			Poisson:      true,
			Slices:       3,
			Capacity:     80e9,
			SiteLimit:    DefaultSiteLimit,
			BHStart:      1,
			BHStopMargin: 1,
			BHStep:       1,
			RateUnit:     RateGbps,
			Overrides:    []SweepParameter{BoolParam("Enableswitching", false)},
		},
		{
			Name:        "saturation",
			Kind:        KindSaturation,
			DULocations: []string{LevelHL3},
			NumSites:    []int{23},
			MTUs:        []int{8000},
			PropFlags:   []string{PropOff},
			Modes:       []string{"worst"},
			Profiles:    []string{"FHWRR3"},
			SecondsSim:  0.1,
			Poisson:     true,
			Model:       ModelMG1,
			Slices:      3,
			Capacity:    1700e9,
			SiteLimit:   DefaultSiteLimit,
			SatLevels:   []float64{98, 98.5, 99, 99.5},
			RateUnit:    RateMbps,
		},
		{
			Name:         "linkcap",
			Kind:         KindLinkCap,
			DULocations:  []string{LevelHL3},
			Nodes:        23,
			MTUs:         []int{64000},
			PropFlags:    []string{PropOff},
			SecondsSim:   0.5,
			Poisson:      true,
			Model:        ModelMM1,
			SiteLimit:    DefaultSiteLimit,
			LinkCaps:     []float64{3220},
			Rho:          99,
			Replications: 1,
		},
		{
			Name:       "midlink",
			Kind:       KindMidLink,
			Start:      5,
			Stop:       4.5,
			Step:       -0.1,
			FolderMode: "PruebaTime",
		},
		{
			Name:         "cellprov",
			Kind:         KindCellProv,
			FolderMode:   "PruebaTime",
			SiteLimit:    DefaultSiteLimit,
			CellsPerSite: DefaultCellsPerSite,
		},
	}
}

// LookupBuiltinStudy returns the built-in study with the given name
func LookupBuiltinStudy(name string) (*Study, error) {
	for _, st := range BuiltinStudies() {
		if st.Name == name {
			return &st, nil
		}
	}
	return nil, fmt.Errorf("no built-in study named %q", name)
}

// defaults per kind for the program run and the scenario files
type kindFiles struct {
	program, baseline, output string
}

var kindDefaults = map[string]kindFiles{
	KindPropDelay:  {program: "scratch/hl3-hl5.cc", output: "scratch/hl3-hl5ex.json"},
	KindBackhaul:   {program: "scratch/hl3-hl5theocombi.cc", output: "scratch/hl3-hl5ex.json"},
	KindSaturation: {program: "scratch/hl3-hl5theo.cc", output: "scratch/hl3-hl5ex.json"},
	KindLinkCap:    {program: "scratch/hl3-hl5.cc", output: "scratch/hl3-hl5ex.json"},
	KindMidLink: {program: "scratch/time-analysissimple.cc", baseline: "scratch/time-template.json",
		output: "scratch/scen_ex.json"},
	KindCellProv: {program: "scratch/hl5hl4-setup.cc", baseline: "scratch/hl4hl5.json",
		output: "scratch/hl4hl5ex.json"},
}

// formatPlain writes v without a forced fractional part, e.g. 3220 or 98.5
func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// validate reports every problem found in the study's description
func (st *Study) validate(profiles *SweepCfgDict) error {
	errs := []error{}
	if !slices.Contains(StudyKinds, st.Kind) {
		errs = append(errs, fmt.Errorf("study %s has unrecognized kind %q", st.Name, st.Kind))
	}
	for _, du := range st.DULocations {
		if _, err := HL5Nodes(du); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pf := range st.PropFlags {
		if pf != PropOn && pf != PropOff {
			errs = append(errs, fmt.Errorf("prop flag %q is neither %s nor %s", pf, PropOn, PropOff))
		}
	}
	for _, mode := range st.Modes {
		if _, err := LookupDistanceMode(mode); err != nil {
			errs = append(errs, err)
		}
	}
	if slices.Contains(st.PropFlags, PropOn) && len(st.Modes) == 0 {
		errs = append(errs, fmt.Errorf("study %s uses prop flag %s but lists no distance modes", st.Name, PropOn))
	}
	for _, mtu := range st.MTUs {
		if mtu <= 0 {
			errs = append(errs, fmt.Errorf("mtu %d must be positive", mtu))
		}
	}
	for _, name := range st.Profiles {
		if _, err := LookupQueueProfile(profiles, name); err != nil {
			errs = append(errs, err)
		}
	}
	if st.RateUnit != "" && st.RateUnit != RateMbps && st.RateUnit != RateGbps {
		errs = append(errs, fmt.Errorf("rate unit %q is neither %s nor %s", st.RateUnit, RateMbps, RateGbps))
	}
	if st.Replications < 0 {
		errs = append(errs, fmt.Errorf("replications %d is negative", st.Replications))
	}
	for _, sp := range st.Overrides {
		errs = append(errs, ValidateParameter(sp.Key, sp.Value, sp.Type))
	}
	return ReportErrs(errs)
}

// Expand turns the study into its runs, in the order they are to be executed.
// profiles resolves the queue profile names.
func (st *Study) Expand(profiles *SweepCfgDict) ([]RunSpec, error) {
	if err := st.validate(profiles); err != nil {
		return nil, fmt.Errorf("study %s: %w", st.Name, err)
	}

	var runs []RunSpec
	var err error

	switch st.Kind {
	case KindPropDelay:
		runs, err = st.expandPropDelay()
	case KindBackhaul:
		runs, err = st.expandBackhaul(profiles)
	case KindSaturation:
		runs, err = st.expandSaturation(profiles)
	case KindLinkCap:
		runs, err = st.expandLinkCap()
	case KindMidLink:
		runs, err = st.expandMidLink()
	case KindCellProv:
		runs, err = st.expandCellProv()
	}
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", st.Name, err)
	}

	runs, err = st.replicate(runs)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", st.Name, err)
	}

	files := kindDefaults[st.Kind]
	for idx := range runs {
		run := &runs[idx]
		run.Program = firstNonEmpty(st.Program, run.Program, files.program)
		run.Baseline = firstNonEmpty(st.Baseline, run.Baseline, files.baseline)
		run.Output = firstNonEmpty(st.Output, run.Output, files.output)
		run.Archive = run.Archive || st.Archive
		run.Parameters = append(run.Parameters, StringParam(KeyFolderName, run.Folder))
		run.Parameters = append(run.Parameters, st.Overrides...)
	}
	return runs, nil
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if len(s) > 0 {
			return s
		}
	}
	return ""
}

// replicate repeats every run Replications times. The propagation delay and link capacity
// studies repeat their simulations themselves; the other kinds get a _r<n> suffix when there
// is more than one replication.
func (st *Study) replicate(runs []RunSpec) ([]RunSpec, error) {
	n := max(st.Replications, 1)
	selfReplicated := st.Kind == KindPropDelay || st.Kind == KindLinkCap
	if selfReplicated && len(st.SeedKey) == 0 {
		return runs, nil
	}

	var seeds []int
	if len(st.SeedKey) > 0 {
		count := len(runs) * n
		if selfReplicated {
			count = len(runs)
		}
		var err error
		seeds, err = ReplicationSeeds(st.Name, count)
		if err != nil {
			return nil, err
		}
	}

	if selfReplicated {
		// one run per replication already, seed each in turn
		for idx := range runs {
			runs[idx].Parameters = append(runs[idx].Parameters, IntParam(st.SeedKey, seeds[idx]))
		}
		return runs, nil
	}

	replicated := make([]RunSpec, 0, len(runs)*n)
	for idx, run := range runs {
		for rep := 1; rep <= n; rep++ {
			rr := run
			rr.Parameters = slices.Clone(run.Parameters)
			if n > 1 {
				rr.Folder = fmt.Sprintf("%s_r%d", run.Folder, rep)
			}
			if seeds != nil {
				rr.Parameters = append(rr.Parameters, IntParam(st.SeedKey, seeds[idx*n+rep-1]))
			}
			replicated = append(replicated, rr)
		}
	}
	return replicated, nil
}

// nodesFor gives the HL5 node count of the topology under du
func (st *Study) nodesFor(du string) (int, error) {
	if st.Nodes > 0 {
		return st.Nodes, nil
	}
	return HL5Nodes(du)
}

// baselineFor gives the per-topology baseline
func (st *Study) baselineFor(nodes int) string {
	return BaselineFor(nodes, st.BaselineSuffix)
}

// propParameters sets or zeroes the link delays.  The returned delay is the DU to HL5
// propagation delay in microseconds.
func propParameters(du, propFlag string, mode DistanceMode) ([]SweepParameter, float64, error) {
	if propFlag == PropOff {
		return NoPropagationParameters(), 0, nil
	}
	delay, err := OneWayDelay(du, mode)
	if err != nil {
		return nil, 0, err
	}
	return mode.Parameters(), delay, nil
}

func (st *Study) expandPropDelay() ([]RunSpec, error) {
	runs := []RunSpec{}
	sims := max(st.Replications, 1)

	for _, du := range st.DULocations {
		nodes, err := st.nodesFor(du)
		if err != nil {
			return nil, err
		}
		for _, mtu := range st.MTUs {
			for _, propFlag := range st.PropFlags {
				filename := fmt.Sprintf("%shl5-%d%s", du, mtu, propFlag)
				for sim := 1; sim <= sims; sim++ {
					modes := []string{""}
					if propFlag == PropOn {
						modes = st.Modes
					}
					for _, modeName := range modes {
						var mode DistanceMode
						if propFlag == PropOn {
							mode, _ = LookupDistanceMode(modeName)
						}
						delays, delay, err := propParameters(du, propFlag, mode)
						if err != nil {
							return nil, err
						}

						run := RunSpec{
							Folder:      fmt.Sprintf("%s%s%d", filename, modeName, sim),
							Baseline:    st.baselineFor(nodes),
							Annotations: map[string]float64{AnnPropDelayUs: delay},
						}
						run.Parameters = append(delays,
							BoolParam(KeyTraceTimeStamps, st.TraceTimeStamps),
							FloatParam(KeySecondsSim, st.SecondsSim),
							IntParam(KeyNetMTU, mtu))
						if st.EnableSwitching != nil {
							run.Parameters = append(run.Parameters, BoolParam(KeyEnableSwitching, *st.EnableSwitching))
						}
						runs = append(runs, run)
					}
				}
			}
		}
	}
	return runs, nil
}

// backhaulRates splits capacity c over the backhaul flows. Each rate is written as
// c*scale*share/div followed by unit.
func backhaulRates(c, scale, div float64, unit string) []SweepParameter {
	params := make([]SweepParameter, 0, len(BHShares))
	for idx, share := range BHShares {
		rate := float64(float64(c*scale)*share) / div
		params = append(params, StringParam(fmt.Sprintf("BHFeatures.%d.Rate", idx), FormatFloat(rate)+unit))
	}
	return params
}

// rateScale gives the scale and divisor taking a capacity in Gbps to the study's rate unit
func (st *Study) rateScale() (float64, float64, string) {
	if st.RateUnit == RateGbps {
		return 1, 1, RateGbps
	}
	return 1e9, 1e6, RateMbps
}

// hqosParameters are the settings shared by the backhaul and saturation sweeps
func (st *Study) hqosParameters(mtu int) []SweepParameter {
	params := []SweepParameter{
		BoolParam(KeyEnableModel, true),
		BoolParam(KeyEnableHQoS, true),
		IntParam(KeyNetMTU, mtu),
		FloatParam(KeySecondsSim, st.SecondsSim),
		BoolParam(KeyPoisson, st.Poisson),
		BoolParam(KeyBackhaulEnable, true),
	}
	if len(st.Model) > 0 {
		params = append(params, StringParam(KeyModel, st.Model))
	}
	if st.Slices > 0 {
		params = append(params, IntParam(KeySlices, st.Slices))
	}
	if st.EnableSwitching != nil {
		params = append(params, BoolParam(KeyEnableSwitching, *st.EnableSwitching))
	}
	return params
}

// resolveProfiles returns the named profiles, or a single unnamed placeholder when none are given
func resolveProfiles(names []string, dict *SweepCfgDict) ([]*QueueProfile, error) {
	if len(names) == 0 {
		return []*QueueProfile{nil}, nil
	}
	qps := make([]*QueueProfile, 0, len(names))
	for _, name := range names {
		qp, err := LookupQueueProfile(dict, name)
		if err != nil {
			return nil, err
		}
		qps = append(qps, &qp)
	}
	return qps, nil
}

// propVariants lists, for one prop flag, the mode name folded into the folder and the mode itself
func (st *Study) propVariants(propFlag string) []DistanceMode {
	if propFlag == PropOff {
		return []DistanceMode{{}}
	}
	modes := make([]DistanceMode, 0, len(st.Modes))
	for _, name := range st.Modes {
		mode, _ := LookupDistanceMode(name)
		modes = append(modes, mode)
	}
	return modes
}

// annotateQueueing records the bottleneck utilization and the estimated mean sojourn at it
func (st *Study) annotateQueueing(ann map[string]float64, capacity, rho float64, mtu int) {
	ann[AnnRho] = rho
	model := st.Model
	if len(model) == 0 {
		model = ModelMM1
	}
	if est, err := EstLatency(model, capacity, rho, mtu); err == nil {
		ann[AnnEstLatencyUs] = est * 1e6
	}
}

func (st *Study) expandBackhaul(profiles *SweepCfgDict) ([]RunSpec, error) {
	qps, err := resolveProfiles(st.Profiles, profiles)
	if err != nil {
		return nil, err
	}
	if st.BHStep == 0 {
		return nil, fmt.Errorf("backhaul step must not be zero")
	}
	scale, div, unit := st.rateScale()

	runs := []RunSpec{}
	for _, du := range st.DULocations {
		nodes, err := st.nodesFor(du)
		if err != nil {
			return nil, err
		}
		budget := st.Capacity - float64(nodes)*st.SiteLimit
		sweep, err := Arange(st.BHStart, budget/1e9-st.BHStopMargin, st.BHStep)
		if err != nil {
			return nil, err
		}

		for _, mtu := range st.MTUs {
			for _, qp := range qps {
				for _, c := range sweep {
					for _, propFlag := range st.PropFlags {
						for _, mode := range st.propVariants(propFlag) {
							filename := fmt.Sprintf("%shl5-%d%s", du, mtu, propFlag)
							if qp != nil {
								filename += qp.Name
							}
							filename += mode.Name

							delays, delay, err := propParameters(du, propFlag, mode)
							if err != nil {
								return nil, err
							}
							run := RunSpec{
								Folder:   filename + FormatFloat(c),
								Baseline: st.baselineFor(nodes),
								Annotations: map[string]float64{
									AnnPropDelayUs:  delay,
									AnnBackhaulGbps: c,
								},
							}
							run.Parameters = append(delays, st.hqosParameters(mtu)...)
							if qp != nil {
								run.Parameters = append(run.Parameters, qp.Parameters()...)
							}
							run.Parameters = append(run.Parameters, backhaulRates(c, scale, div, unit)...)
							if st.Capacity > 0 {
								rho := (float64(nodes)*st.SiteLimit + c*1e9) / st.Capacity
								st.annotateQueueing(run.Annotations, st.Capacity, rho, mtu)
							}
							runs = append(runs, run)
						}
					}
				}
			}
		}
	}
	return runs, nil
}

// satLevels gives SatLevels, or SatPoints levels from SatStart to SatStop when none are listed
func (st *Study) satLevels() ([]float64, error) {
	if len(st.SatLevels) > 0 || st.SatPoints == 0 {
		return st.SatLevels, nil
	}
	return Linspace(st.SatStart, st.SatStop, st.SatPoints)
}

func (st *Study) expandSaturation(profiles *SweepCfgDict) ([]RunSpec, error) {
	qps, err := resolveProfiles(st.Profiles, profiles)
	if err != nil {
		return nil, err
	}
	levels, err := st.satLevels()
	if err != nil {
		return nil, err
	}
	scale, div, unit := st.rateScale()

	runs := []RunSpec{}
	for _, du := range st.DULocations {
		numSites := st.NumSites
		if len(numSites) == 0 {
			nodes, err := st.nodesFor(du)
			if err != nil {
				return nil, err
			}
			numSites = []int{nodes}
		}
		for _, nodes := range numSites {
			for _, mtu := range st.MTUs {
				for _, qp := range qps {
					for _, sat := range levels {
						capGbps := float64(st.Capacity * 1e-9)
						c := float64(capGbps*(sat/100)) - float64(float64(nodes)*st.SiteLimit)*1e-9

						for _, propFlag := range st.PropFlags {
							for _, mode := range st.propVariants(propFlag) {
								filename := fmt.Sprintf("%shl5-%d%s", du, mtu, propFlag)
								if qp != nil {
									filename += qp.Name
								}
								filename += fmt.Sprintf("N%dC%s", nodes, mode.Name)

								delays, delay, err := propParameters(du, propFlag, mode)
								if err != nil {
									return nil, err
								}
								run := RunSpec{
									Folder:   filename + FormatFloat(c),
									Baseline: st.baselineFor(nodes),
									Annotations: map[string]float64{
										AnnPropDelayUs:  delay,
										AnnBackhaulGbps: c,
									},
								}
								run.Parameters = append(delays, st.hqosParameters(mtu)...)
								if qp != nil {
									run.Parameters = append(run.Parameters, qp.Parameters()...)
								}
								run.Parameters = append(run.Parameters, backhaulRates(c, scale, div, unit)...)
								st.annotateQueueing(run.Annotations, st.Capacity, sat/100, mtu)
								runs = append(runs, run)
							}
						}
					}
				}
			}
		}
	}
	return runs, nil
}

func (st *Study) expandLinkCap() ([]RunSpec, error) {
	runs := []RunSpec{}
	sims := max(st.Replications, 1)
	rho := formatPlain(st.Rho)

	for _, du := range st.DULocations {
		nodes, err := st.nodesFor(du)
		if err != nil {
			return nil, err
		}
		for _, mtu := range st.MTUs {
			for _, capGbps := range st.LinkCaps {
				mainFolder := formatPlain(capGbps)
				capBps := capGbps * 1e9
				c := capBps*(st.Rho/100) - float64(nodes)*st.SiteLimit

				for _, propFlag := range st.PropFlags {
					for _, mode := range st.propVariants(propFlag) {
						filename := fmt.Sprintf("%shl5-%d%s%s", du, mtu, propFlag, mode.Name)
						delays, delay, err := propParameters(du, propFlag, mode)
						if err != nil {
							return nil, err
						}

						// every simulation of a capacity shares its folder
						for sim := 1; sim <= sims; sim++ {
							run := RunSpec{
								Folder:   fmt.Sprintf("%s/%s%s", rho, filename, mainFolder),
								Baseline: st.baselineFor(nodes),
								Annotations: map[string]float64{
									AnnPropDelayUs:  delay,
									AnnBackhaulGbps: c / 1e9,
								},
							}
							run.Parameters = append(delays,
								StringParam(KeyLinkCap, mainFolder+RateGbps),
								BoolParam(KeyEnableHQoS, true),
								IntParam(KeyNetMTU, mtu),
								FloatParam(KeySecondsSim, st.SecondsSim),
								BoolParam(KeyPoisson, st.Poisson),
								BoolParam(KeyBackhaulEnable, true))
							if len(st.Model) > 0 {
								run.Parameters = append(run.Parameters, StringParam(KeyModel, st.Model))
							}
							run.Parameters = append(run.Parameters, backhaulRates(c, 1, 1e9, RateGbps)...)
							st.annotateQueueing(run.Annotations, capBps, st.Rho/100, mtu)
							runs = append(runs, run)
						}
					}
				}
			}
		}
	}
	return runs, nil
}

func (st *Study) expandMidLink() ([]RunSpec, error) {
	if st.Step == 0 {
		return nil, fmt.Errorf("mid link step must not be zero")
	}
	caps, err := Arange(st.Start, st.Stop+st.Step, st.Step)
	if err != nil {
		return nil, err
	}

	runs := make([]RunSpec, 0, len(caps))
	for _, linkCap := range caps {
		runs = append(runs, RunSpec{
			Folder:     fmt.Sprintf("%s_%.2f", st.FolderMode, linkCap),
			Parameters: []SweepParameter{FloatParam(KeyMidLinkCap, linkCap)},
		})
	}
	return runs, nil
}

func (st *Study) expandCellProv() ([]RunSpec, error) {
	rc := DefaultRadioConfig().WithHeaderOverhead()
	if st.Radio != nil {
		rc = *st.Radio
	}
	cells := st.CellsPerSite
	if cells == 0 {
		cells = DefaultCellsPerSite
	}
	siteLimit := st.SiteLimit
	if siteLimit == 0 {
		siteLimit = DefaultSiteLimit
	}

	prov, err := ProvisionCells(rc, siteLimit, cells)
	if err != nil {
		return nil, err
	}

	run := RunSpec{
		Folder:       st.FolderMode,
		Parameters:   prov.Parameters(),
		CopyScenario: true,
		Annotations: map[string]float64{
			AnnURateBps: prov.URate,
			AnnCRateBps: prov.CRate,
		},
	}
	return []RunSpec{run}, nil
}

// A StudyFile holds the studies of one sweep campaign, plus any queue profiles
// beyond the built-in ones
type StudyFile struct {
	Studies       []Study        `json:"studies" yaml:"studies"`
	QueueProfiles []QueueProfile `json:"queueprofiles,omitempty" yaml:"queueprofiles,omitempty"`
}

// WriteToFile stores the StudyFile struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (sf *StudyFile) WriteToFile(filename string) error {
	return writeDesc(filename, *sf)
}

// ReadStudyFile deserializes a byte slice holding a representation of a StudyFile struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadStudyFile(filename string, useYAML bool, dict []byte) (*StudyFile, error) {
	example := StudyFile{}
	if err := readDesc(filename, useYAML, dict, &example); err != nil {
		return nil, err
	}
	return &example, nil
}

// ProfileDict merges the file's queue profiles over the built-in ones
func (sf *StudyFile) ProfileDict() (*SweepCfgDict, error) {
	scd := BuiltinProfileDict()
	errs := []error{}
	for _, qp := range sf.QueueProfiles {
		if _, err := ParseQueueProfile(qp); err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, scd.AddSweepCfg(qp.SweepCfg(), true))
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}
	return scd, nil
}

// Expand expands every study of the file, in order
func (sf *StudyFile) Expand() ([]RunSpec, error) {
	profiles, err := sf.ProfileDict()
	if err != nil {
		return nil, err
	}
	runs := []RunSpec{}
	for idx := range sf.Studies {
		studyRuns, err := sf.Studies[idx].Expand(profiles)
		if err != nil {
			return nil, err
		}
		runs = append(runs, studyRuns...)
	}
	return runs, nil
}
