package main

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iti/fhsweep"
	"github.com/stretchr/testify/require"
)

func TestWriteTableEmptyCells(t *testing.T) {
	pt := &fhsweep.PacketTable{
		SCS:        []int{15, 60},
		Bandwidths: []int{5, 10},
		Bytes:      [][]float64{{700, 1456}, {math.NaN(), 308.5}},
	}
	filename := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, writeTable(pt, filename))

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"SCS (kHz)", "5", "10"},
		{"15", "700", "1456"},
		{"60", "", "308.5"},
	}, records)
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeTables(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2*len(fhsweep.Compressions))
	for _, cmp := range fhsweep.Compressions {
		require.FileExists(t, filepath.Join(dir, cmp.Name+"_user_plane.csv"))
		require.FileExists(t, filepath.Join(dir, cmp.Name+"_control_plane.csv"))
	}

	bytes, err := os.ReadFile(filepath.Join(dir, "BFP9_user_plane.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(bytes)), "\n")
	require.Equal(t, []string{
		"SCS (kHz),5,10,15,20,25,30,40,50,60,70,80,90,100",
		"15,700,1456,2212,2968,3724,4480,6048,7560,,,,,",
		"30,308,672,1064,1428,1820,2184,2968,3724,4536,5292,6076,6860,7644",
		"60,,308,504,672,868,1064,1428,1820,2212,2604,2996,3388,3780",
	}, lines)

	bytes, err = os.ReadFile(filepath.Join(dir, "BFP9_control_plane.csv"))
	require.NoError(t, err)
	require.Contains(t, string(bytes), ",614.25\n")
}

func TestWriteTablesMissingDirectory(t *testing.T) {
	require.Error(t, writeTables(filepath.Join(t.TempDir(), "absent")))
}
