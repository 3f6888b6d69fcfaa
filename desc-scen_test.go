package fhsweep

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readTestScenario(t *testing.T) *Scenario {
	t.Helper()
	scn, err := ReadScenario(filepath.Join("testdata", "hl3-hl5-2.json"), false, nil)
	require.NoError(t, err)
	return scn
}

func TestReadScenarioKeepsIntegers(t *testing.T) {
	scn := readTestScenario(t)

	v, err := scn.Get("netmtu")
	require.NoError(t, err)
	require.Equal(t, json.Number("1500"), v)

	rate, err := scn.Get("BHFeatures.2.Rate")
	require.NoError(t, err)
	require.Equal(t, "1000Mbps", rate)

	hl5, err := scn.GetFloat("HL5")
	require.NoError(t, err)
	require.Equal(t, 2.0, hl5)
}

func TestReadScenarioFromBytes(t *testing.T) {
	scn, err := ReadScenario("inline", false, []byte(`{"a": {"b": [1, 2]}}`))
	require.NoError(t, err)
	v, err := scn.Get("a.b.1")
	require.NoError(t, err)
	require.Equal(t, json.Number("2"), v)

	scn, err = ReadScenario("inline.yaml", true, []byte("a:\n  b: [1, 2]\n"))
	require.NoError(t, err)
	v, err = scn.Get("a.b.0")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = ReadScenario("broken", false, []byte(`{"a": `))
	require.Error(t, err)
}

func TestScenarioSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		written int
		wantErr bool
	}{
		{name: "top level", key: "netmtu", written: 1},
		{name: "new top level key", key: "Slices", written: 1},
		{name: "array index", key: "BHFeatures.1.Rate", written: 1},
		{name: "array wildcard", key: "BHFeatures.*.Rate", written: 3},
		{name: "nested wildcards", key: "Hl5Agreggration.*.Sites.*.CellFeatures.*.URatenum", written: 4},
		{name: "missing intermediate", key: "Missing.key", wantErr: true},
		{name: "index out of range", key: "BHFeatures.3.Rate", wantErr: true},
		{name: "non numeric index", key: "BHFeatures.first.Rate", wantErr: true},
		{name: "into scalar", key: "netmtu.value", wantErr: true},
		{name: "empty segment", key: "BHFeatures..Rate", wantErr: true},
		{name: "empty path", key: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scn := readTestScenario(t)
			n, err := scn.Set(tc.key, 42)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.written, n)
		})
	}
}

func TestScenarioGetRejectsWildcard(t *testing.T) {
	scn := readTestScenario(t)
	_, err := scn.Get("BHFeatures.*.Rate")
	require.Error(t, err)
}

func TestScenarioClone(t *testing.T) {
	scn := readTestScenario(t)
	cp := scn.Clone()

	_, err := cp.Set("BHFeatures.*.Rate", "5Gbps")
	require.NoError(t, err)

	orig, err := scn.Get("BHFeatures.0.Rate")
	require.NoError(t, err)
	require.Equal(t, "1000Mbps", orig)

	changed, err := cp.Get("BHFeatures.0.Rate")
	require.NoError(t, err)
	require.Equal(t, "5Gbps", changed)
}

func TestScenarioWriteToFile(t *testing.T) {
	scn := readTestScenario(t)
	_, err := scn.Set("del-hl3hl4", 137.5)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"ex.json", "ex.yaml"} {
		filename := filepath.Join(dir, name)
		require.NoError(t, scn.WriteToFile(filename))

		back, err := ReadScenario(filename, isYAMLPath(filename), nil)
		require.NoError(t, err)

		del, err := back.GetFloat("del-hl3hl4")
		require.NoError(t, err)
		require.Equal(t, 137.5, del)

		mtu, err := back.GetFloat("netmtu")
		require.NoError(t, err)
		require.Equal(t, 1500.0, mtu)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "ex.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"netmtu": 1500`)

	require.Error(t, scn.WriteToFile(filepath.Join(dir, "missing", "ex.json")))
}

func TestReportErrs(t *testing.T) {
	require.NoError(t, ReportErrs(nil))
	require.NoError(t, ReportErrs([]error{nil, nil}))

	err := ReportErrs([]error{nil, os.ErrNotExist, os.ErrExist})
	require.EqualError(t, err, os.ErrNotExist.Error()+","+os.ErrExist.Error())
}

func TestCheckDirectoriesAndFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	ok, err := CheckDirectories([]string{dir, ""})
	require.True(t, ok)
	require.NoError(t, err)

	ok, err = CheckDirectories([]string{file, filepath.Join(dir, "nope")})
	require.False(t, ok)
	require.Error(t, err)

	ok, err = CheckReadableFiles([]string{file})
	require.True(t, ok)
	require.NoError(t, err)

	ok, _ = CheckReadableFiles([]string{filepath.Join(dir, "absent.json")})
	require.False(t, ok)

	ok, err = CheckOutputFiles([]string{filepath.Join(dir, "absent.json")})
	require.True(t, ok)
	require.NoError(t, err)

	ok, _ = CheckOutputFiles([]string{filepath.Join(dir, "nodir", "absent.json")})
	require.False(t, ok)
}
