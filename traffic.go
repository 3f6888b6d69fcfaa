package fhsweep

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// SCSValues are the subcarrier spacings (kHz) of the resource-block table
var SCSValues = []int{15, 30, 60}

// BandwidthValues are the channel bandwidths (MHz) of the resource-block table
var BandwidthValues = []int{5, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100}

// nprbTable holds the maximum transmission bandwidth N_RB (TS 38.101-1 Table 5.3.2-1),
// rows by SCSValues and columns by BandwidthValues. Zero marks a combination the table leaves out.
var nprbTable = [][]int{
	{25, 52, 79, 106, 133, 160, 216, 270, 0, 0, 0, 0, 0},
	{11, 24, 38, 51, 65, 78, 106, 133, 162, 189, 217, 245, 273},
	{0, 11, 18, 24, 31, 38, 51, 65, 79, 93, 107, 121, 135},
}

// HeaderOverheadBytes is what the packet headers add to each U-plane packet
const HeaderOverheadBytes = 36

// A Compression describes an IQ compression method by the width of each I and Q sample
// and the bits of the per-PRB scaler
type Compression struct {
	Name       string
	IQWidth    int
	ScalerBits int
}

// Compressions lists the methods the traffic formulas know
var Compressions = []Compression{
	{Name: "BFP9", IQWidth: 9, ScalerBits: 8},
	{Name: "BS", IQWidth: 8, ScalerBits: 16},
	{Name: "uLaw", IQWidth: 6, ScalerBits: 4},
	{Name: "M8", IQWidth: 8, ScalerBits: 0},
	{Name: "M4", IQWidth: 4, ScalerBits: 0},
}

// LookupCompression returns the named method
func LookupCompression(name string) (Compression, error) {
	idx := slices.IndexFunc(Compressions, func(c Compression) bool { return c.Name == name })
	if idx < 0 {
		return Compression{}, fmt.Errorf("unknown compression method %q", name)
	}
	return Compressions[idx], nil
}

// NPRB returns the resource-block count of a subcarrier spacing and bandwidth pair
func NPRB(scsKHz, bandwidthMHz int) (int, error) {
	row := slices.Index(SCSValues, scsKHz)
	if row < 0 {
		return 0, fmt.Errorf("subcarrier spacing %d kHz not in %v", scsKHz, SCSValues)
	}
	col := slices.Index(BandwidthValues, bandwidthMHz)
	if col < 0 {
		return 0, fmt.Errorf("bandwidth %d MHz not in %v", bandwidthMHz, BandwidthValues)
	}
	nprb := nprbTable[row][col]
	if nprb == 0 {
		return 0, fmt.Errorf("invalid SCS and bandwidth combination (%d kHz, %d MHz)", scsKHz, bandwidthMHz)
	}
	return nprb, nil
}

// SlotMs is the slot duration in milliseconds at the given subcarrier spacing
func SlotMs(scsKHz int) float64 {
	return 1.0 / (float64(scsKHz) / 15.0)
}

// RadioConfig gathers the radio parameters that size the fronthaul traffic of one cell
type RadioConfig struct {
	BandwidthMHz int     `json:"bandwidth" yaml:"bandwidth" mapstructure:"bandwidth"`
	SCSkHz       int     `json:"scs" yaml:"scs" mapstructure:"scs"`
	TDD          float64 `json:"tdd" yaml:"tdd" mapstructure:"tdd"`
	Symbols      int     `json:"symbols" yaml:"symbols" mapstructure:"symbols"`
	Compression  string  `json:"compression" yaml:"compression" mapstructure:"compression"`
	Ports        int     `json:"ports" yaml:"ports" mapstructure:"ports"`
	TxAntennas   int     `json:"txantennas" yaml:"txantennas" mapstructure:"txantennas"`

	// HeaderOverhead adds HeaderOverheadBytes to every U-plane packet
	HeaderOverhead bool `json:"headeroverhead" yaml:"headeroverhead" mapstructure:"headeroverhead"`
}

// DefaultRadioConfig is the 100 MHz, 30 kHz, BFP9 cell the studies provision
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		BandwidthMHz: 100,
		SCSkHz:       30,
		TDD:          1,
		Symbols:      14,
		Compression:  "BFP9",
		Ports:        16,
		TxAntennas:   32,
	}
}

// WithHeaderOverhead returns a copy of rc that counts packet headers in the U-plane
func (rc RadioConfig) WithHeaderOverhead() RadioConfig {
	rc.HeaderOverhead = true
	return rc
}

// Traffic is the fronthaul load of one cell
type Traffic struct {
	NPRB               int     `json:"nprb"`
	SlotMs             float64 `json:"slotms"`
	UserPacketBytes    float64 `json:"userpacketbytes"`
	UserGbps           float64 `json:"usergbps"`
	ControlPacketBytes float64 `json:"controlpacketbytes"`
	ControlGbps        float64 `json:"controlgbps"`
}

// String gives the one-line summary printed for a radio configuration
func (tr Traffic) String() string {
	return fmt.Sprintf("PRB: %d || U-Rb %v Gbps || U-Pkt %v B || C-Rb %v Gbps || C-Pkt %v B || SlotTime: %v ms",
		tr.NPRB, tr.UserGbps, tr.UserPacketBytes, tr.ControlGbps, tr.ControlPacketBytes, tr.SlotMs)
}

// FronthaulTraffic computes U-plane and C-plane packet sizes and bitrates for rc
func FronthaulTraffic(rc RadioConfig) (Traffic, error) {
	cmp, err := LookupCompression(rc.Compression)
	if err != nil {
		return Traffic{}, err
	}
	nprb, err := NPRB(rc.SCSkHz, rc.BandwidthMHz)
	if err != nil {
		return Traffic{}, err
	}
	if rc.Symbols <= 0 || rc.Ports <= 0 || rc.TxAntennas <= 0 {
		return Traffic{}, fmt.Errorf("symbols %d, ports %d and tx antennas %d must be positive",
			rc.Symbols, rc.Ports, rc.TxAntennas)
	}
	if rc.TDD <= 0 || rc.TDD > 1 {
		return Traffic{}, fmt.Errorf("tdd ratio %v outside (0,1]", rc.TDD)
	}

	iq := float64(cmp.IQWidth)
	prb := float64(nprb)
	slotSec := SlotMs(rc.SCSkHz) * 1e-3

	// bits per PRB of one symbol: 12 subcarriers of I and Q, plus the scaler
	prbBits := 2*iq*12 + float64(cmp.ScalerBits)

	symbolBits := prbBits * prb
	userBytes := prbBits / 8 * prb
	if rc.HeaderOverhead {
		symbolBits += HeaderOverheadBytes * 8
		userBytes += HeaderOverheadBytes
	}

	tr := Traffic{
		NPRB:               nprb,
		SlotMs:             SlotMs(rc.SCSkHz),
		UserPacketBytes:    userBytes,
		UserGbps:           rc.TDD * (symbolBits * float64(rc.Symbols) * float64(rc.Ports)) / slotSec / 1e9,
		ControlPacketBytes: 2 * iq * prb / 8,
		ControlGbps:        (2 * iq * prb * float64(rc.Ports) * float64(rc.TxAntennas)) / slotSec / 1e9,
	}
	return tr, nil
}

// Plane selects user or control plane packets
type Plane string

const (
	UserPlane    Plane = "user"
	ControlPlane Plane = "control"
)

// A PacketTable is the packet size (bytes) of one compression method and plane
// over every SCS and bandwidth pair. Missing combinations are NaN.
type PacketTable struct {
	Compression string
	Plane       Plane
	SCS         []int
	Bandwidths  []int
	Bytes       [][]float64
}

// PacketSizeTable fills a PacketTable. Packet headers are not counted.
func PacketSizeTable(compression string, plane Plane) (*PacketTable, error) {
	cmp, err := LookupCompression(compression)
	if err != nil {
		return nil, err
	}
	if plane != UserPlane && plane != ControlPlane {
		return nil, fmt.Errorf("unknown plane %q", plane)
	}

	pt := &PacketTable{Compression: cmp.Name, Plane: plane, SCS: SCSValues, Bandwidths: BandwidthValues}
	iq := float64(cmp.IQWidth)
	for _, scs := range SCSValues {
		row := make([]float64, len(BandwidthValues))
		for col, bw := range BandwidthValues {
			nprb, err := NPRB(scs, bw)
			if err != nil {
				row[col] = math.NaN()
				continue
			}
			if plane == UserPlane {
				row[col] = (2*iq*12 + float64(cmp.ScalerBits)) / 8 * float64(nprb)
			} else {
				row[col] = 2 * iq * float64(nprb) / 8
			}
		}
		pt.Bytes = append(pt.Bytes, row)
	}
	return pt, nil
}
