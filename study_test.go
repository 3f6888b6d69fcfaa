package fhsweep

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// paramValue returns the value of the last parameter on key
func paramValue(t *testing.T, pL []SweepParameter, key string) string {
	t.Helper()
	for idx := len(pL) - 1; idx >= 0; idx-- {
		if pL[idx].Key == key {
			return pL[idx].Value
		}
	}
	t.Fatalf("no parameter %s", key)
	return ""
}

func expandBuiltin(t *testing.T, name string) []RunSpec {
	t.Helper()
	st, err := LookupBuiltinStudy(name)
	require.NoError(t, err)
	runs, err := st.Expand(BuiltinProfileDict())
	require.NoError(t, err)
	return runs
}

func TestExpandPropDelay(t *testing.T) {
	runs := expandBuiltin(t, "propdelay")
	require.Len(t, runs, 8)

	first := runs[0]
	require.Equal(t, "hl3hl5-8000pavg1", first.Folder)
	require.Equal(t, "scratch/hl3-hl5-23.json", first.Baseline)
	require.Equal(t, "scratch/hl3-hl5ex.json", first.Output)
	require.Equal(t, "scratch/hl3-hl5.cc", first.Program)
	require.Equal(t, "87.5", paramValue(t, first.Parameters, KeyDelHL4HL5))
	require.Equal(t, "137.5", paramValue(t, first.Parameters, KeyDelHL3HL4))
	require.Equal(t, "false", paramValue(t, first.Parameters, KeyTraceTimeStamps))
	require.Equal(t, "0.5", paramValue(t, first.Parameters, KeySecondsSim))
	require.Equal(t, "true", paramValue(t, first.Parameters, KeyEnableSwitching))
	require.Equal(t, "8000", paramValue(t, first.Parameters, KeyNetMTU))
	require.Equal(t, first.Folder, paramValue(t, first.Parameters, KeyFolderName))
	require.Equal(t, 225.0, first.Annotations[AnnPropDelayUs])
	require.False(t, first.Archive)

	require.Equal(t, "hl3hl5-8000pworst1", runs[1].Folder)
	require.Equal(t, "hl3hl5-1500pavg1", runs[2].Folder)

	hl4 := runs[4]
	require.Equal(t, "hl4hl5-8000pavg1", hl4.Folder)
	require.Equal(t, "scratch/hl3-hl5-9.json", hl4.Baseline)
	require.Equal(t, 87.5, hl4.Annotations[AnnPropDelayUs])
}

func TestExpandBackhaul(t *testing.T) {
	runs := expandBuiltin(t, "backhaul")
	require.Len(t, runs, 24)

	first := runs[0]
	require.Equal(t, "hl3hl5-8000spFHcbr25.0", first.Folder)
	require.Equal(t, "scratch/hl3-hl5-23test.json", first.Baseline)
	require.Equal(t, "scratch/hl3-hl5theocombi.cc", first.Program)
	require.True(t, first.Archive)
	require.Equal(t, "5750.0Mbps", paramValue(t, first.Parameters, "BHFeatures.0.Rate"))
	require.Equal(t, "6500.0Mbps", paramValue(t, first.Parameters, "BHFeatures.1.Rate"))
	require.Equal(t, "12750.0Mbps", paramValue(t, first.Parameters, "BHFeatures.2.Rate"))
	require.Equal(t, "0", paramValue(t, first.Parameters, KeyDelHL3HL4))
	require.Equal(t, "mg1", paramValue(t, first.Parameters, KeyModel))
	require.Equal(t, "8 0", paramValue(t, first.Parameters, KeyMapQueue))
	require.Equal(t, 25.0, first.Annotations[AnnBackhaulGbps])
	require.InDelta(t, 1635.0/1700.0, first.Annotations[AnnRho], 1e-12)
	require.Greater(t, first.Annotations[AnnEstLatencyUs], 0.0)

	require.Equal(t, "hl3hl5-8000spFHcbr27.5", runs[1].Folder)
	require.Equal(t, "hl3hl5-8000spFHcbr82.5", runs[23].Folder)
}

func TestExpandBackhaulGbps(t *testing.T) {
	runs := expandBuiltin(t, "backhaul-gbps")
	require.Len(t, runs, 8)

	first := runs[0]
	require.Equal(t, "hl3hl5-8000sp1.0", first.Folder)
	require.Equal(t, "scratch/hl3-hl5-1.json", first.Baseline)
	require.Equal(t, "scratch/hl3-hl5theo.cc", first.Program)
	require.Equal(t, "0.23Gbps", paramValue(t, first.Parameters, "BHFeatures.0.Rate"))
	require.Equal(t, "3", paramValue(t, first.Parameters, KeySlices))

	// overrides are applied last
	last := first.Parameters[len(first.Parameters)-1]
	require.Equal(t, "Enableswitching", last.Key)
	require.Equal(t, "false", last.Value)
}

func TestExpandSaturation(t *testing.T) {
	runs := expandBuiltin(t, "saturation")
	require.Len(t, runs, 4)
	for _, run := range runs {
		require.True(t, strings.HasPrefix(run.Folder, "hl3hl5-8000spFHWRR3N23C"), run.Folder)
		require.Equal(t, "scratch/hl3-hl5-23.json", run.Baseline)
		require.Equal(t, "scratch/hl3-hl5theo.cc", run.Program)
		require.Equal(t, "1000 300 1", paramValue(t, run.Parameters, KeyWeights))
	}
	require.InDelta(t, 56.0, runs[0].Annotations[AnnBackhaulGbps], 1e-6)
	require.InDelta(t, 0.98, runs[0].Annotations[AnnRho], 1e-12)
	require.InDelta(t, 0.995, runs[3].Annotations[AnnRho], 1e-12)
}

func TestExpandSaturationSpread(t *testing.T) {
	listed := expandBuiltin(t, "saturation")

	st, err := LookupBuiltinStudy("saturation")
	require.NoError(t, err)
	st.SatLevels = nil
	st.SatStart, st.SatStop, st.SatPoints = 98, 99.5, 4
	spread, err := st.Expand(BuiltinProfileDict())
	require.NoError(t, err)
	require.Len(t, spread, len(listed))
	for idx := range listed {
		require.Equal(t, listed[idx].Folder, spread[idx].Folder)
	}

	st.SatPoints = 1
	_, err = st.Expand(BuiltinProfileDict())
	require.Error(t, err)
}

func TestExpandLinkCap(t *testing.T) {
	runs := expandBuiltin(t, "linkcap")
	require.Len(t, runs, 1)

	run := runs[0]
	require.Equal(t, "99/hl3hl5-64000sp3220", run.Folder)
	require.Equal(t, "3220Gbps", paramValue(t, run.Parameters, KeyLinkCap))
	require.Equal(t, "mm1", paramValue(t, run.Parameters, KeyModel))
	require.Equal(t, "64000", paramValue(t, run.Parameters, KeyNetMTU))
	require.InDelta(t, 3187.8-1610, run.Annotations[AnnBackhaulGbps], 1e-6)
}

func TestExpandMidLink(t *testing.T) {
	runs := expandBuiltin(t, "midlink")
	folders := []string{}
	for _, run := range runs {
		folders = append(folders, run.Folder)
		require.Equal(t, "scratch/time-template.json", run.Baseline)
		require.Equal(t, "scratch/scen_ex.json", run.Output)
		require.Equal(t, "scratch/time-analysissimple.cc", run.Program)
	}
	require.Equal(t, []string{
		"PruebaTime_5.00", "PruebaTime_4.90", "PruebaTime_4.80",
		"PruebaTime_4.70", "PruebaTime_4.60", "PruebaTime_4.50",
	}, folders)
}

func TestExpandCellProv(t *testing.T) {
	runs := expandBuiltin(t, "cellprov")
	require.Len(t, runs, 1)

	run := runs[0]
	require.Equal(t, "PruebaTime", run.Folder)
	require.True(t, run.CopyScenario)
	require.Equal(t, "scratch/hl4hl5.json", run.Baseline)
	require.Equal(t, "scratch/hl4hl5ex.json", run.Output)
	require.InDelta(t, DefaultSiteLimit/DefaultCellsPerSite, run.Annotations[AnnURateBps]+run.Annotations[AnnCRateBps], 1e-3)
}

func TestReplications(t *testing.T) {
	st, err := LookupBuiltinStudy("saturation")
	require.NoError(t, err)
	st.Replications = 2
	st.SeedKey = "RngRun"

	runs, err := st.Expand(BuiltinProfileDict())
	require.NoError(t, err)
	require.Len(t, runs, 8)
	require.True(t, strings.HasSuffix(runs[0].Folder, "_r1"))
	require.True(t, strings.HasSuffix(runs[1].Folder, "_r2"))
	require.NotEqual(t, paramValue(t, runs[0].Parameters, "RngRun"), paramValue(t, runs[1].Parameters, "RngRun"))
	require.Equal(t, runs[1].Folder, paramValue(t, runs[1].Parameters, KeyFolderName))

	// runs repeated in place keep their folder and still get a seed each
	st, err = LookupBuiltinStudy("linkcap")
	require.NoError(t, err)
	st.Replications = 3
	st.SeedKey = "RngRun"
	runs, err = st.Expand(BuiltinProfileDict())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for _, run := range runs {
		require.Equal(t, "99/hl3hl5-64000sp3220", run.Folder)
		paramValue(t, run.Parameters, "RngRun")
	}
}

func TestStudyValidation(t *testing.T) {
	tests := []struct {
		name string
		st   Study
	}{
		{name: "kind", st: Study{Kind: "sweepall"}},
		{name: "du", st: Study{Kind: KindPropDelay, DULocations: []string{"hl2"}}},
		{name: "prop flag", st: Study{Kind: KindPropDelay, DULocations: []string{LevelHL3}, PropFlags: []string{"x"}}},
		{name: "prop without modes", st: Study{Kind: KindPropDelay, DULocations: []string{LevelHL3}, PropFlags: []string{PropOn}}},
		{name: "mode", st: Study{Kind: KindPropDelay, Modes: []string{"best"}}},
		{name: "mtu", st: Study{Kind: KindPropDelay, MTUs: []int{0}}},
		{name: "profile", st: Study{Kind: KindBackhaul, Profiles: []string{"FH9"}, BHStep: 1}},
		{name: "rate unit", st: Study{Kind: KindBackhaul, RateUnit: "kbps", BHStep: 1}},
		{name: "override", st: Study{Kind: KindMidLink, Step: 1, Overrides: []SweepParameter{{Key: "a", Value: "x", Type: "int"}}}},
		{name: "zero step", st: Study{Kind: KindMidLink}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.st.Name = tc.name
			_, err := tc.st.Expand(BuiltinProfileDict())
			require.Error(t, err)
		})
	}
}

func TestStudyFile(t *testing.T) {
	sf := StudyFile{
		Studies: []Study{
			{
				Name:        "custom",
				Kind:        KindSaturation,
				DULocations: []string{LevelHL4},
				MTUs:        []int{1500},
				PropFlags:   []string{PropOn},
				Modes:       []string{"avg"},
				Profiles:    []string{"FH4"},
				SecondsSim:  0.1,
				Capacity:    800e9,
				SiteLimit:   DefaultSiteLimit,
				SatLevels:   []float64{99},
				RateUnit:    RateGbps,
			},
		},
		QueueProfiles: []QueueProfile{
			{Name: "FH4", MapQueue: "8 0 16 1 24 2 32 3", Weights: "1000 300 100 1", MarkingPort: "8080 46 11000 8"},
		},
	}

	filename := filepath.Join(t.TempDir(), "studies.yaml")
	require.NoError(t, sf.WriteToFile(filename))
	back, err := ReadStudyFile(filename, true, nil)
	require.NoError(t, err)
	require.Equal(t, sf, *back)

	runs, err := back.Expand()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "hl4hl5-1500pFH4N9Cavg"+FormatFloat(800*0.99-9*70), runs[0].Folder)
	require.Equal(t, "1000 300 100 1", paramValue(t, runs[0].Parameters, KeyWeights))
	require.Equal(t, "87.5", paramValue(t, runs[0].Parameters, KeyDelHL4HL5))
	require.Equal(t, 87.5, runs[0].Annotations[AnnPropDelayUs])

	bad := StudyFile{QueueProfiles: []QueueProfile{{Name: "broken", Weights: "0"}}}
	_, err = bad.Expand()
	require.Error(t, err)
}
