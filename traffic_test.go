package fhsweep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNPRB(t *testing.T) {
	n, err := NPRB(30, 100)
	require.NoError(t, err)
	require.Equal(t, 273, n)

	n, err = NPRB(15, 50)
	require.NoError(t, err)
	require.Equal(t, 270, n)

	_, err = NPRB(15, 60)
	require.Error(t, err)
	_, err = NPRB(120, 100)
	require.Error(t, err)
	_, err = NPRB(30, 35)
	require.Error(t, err)
}

func TestSlotMs(t *testing.T) {
	require.Equal(t, 1.0, SlotMs(15))
	require.Equal(t, 0.5, SlotMs(30))
	require.Equal(t, 0.25, SlotMs(60))
}

func TestFronthaulTraffic(t *testing.T) {
	rc := RadioConfig{
		BandwidthMHz: 100,
		SCSkHz:       30,
		TDD:          1,
		Symbols:      14,
		Compression:  "BFP9",
		Ports:        4,
		TxAntennas:   4,
	}
	tr, err := FronthaulTraffic(rc)
	require.NoError(t, err)
	require.Equal(t, 273, tr.NPRB)
	require.Equal(t, 0.5, tr.SlotMs)
	require.InDelta(t, 7644, tr.UserPacketBytes, 1e-9)
	require.InDelta(t, 6.849024, tr.UserGbps, 1e-9)
	require.InDelta(t, 614.25, tr.ControlPacketBytes, 1e-9)
	require.InDelta(t, 0.157248, tr.ControlGbps, 1e-9)
	require.Contains(t, tr.String(), "PRB: 273 ||")

	tr, err = FronthaulTraffic(rc.WithHeaderOverhead())
	require.NoError(t, err)
	require.InDelta(t, 7680, tr.UserPacketBytes, 1e-9)
	require.InDelta(t, 6.88128, tr.UserGbps, 1e-9)
	require.InDelta(t, 614.25, tr.ControlPacketBytes, 1e-9)

	// half the slots carrying downlink halves the U-plane rate only
	rc.TDD = 0.5
	tr, err = FronthaulTraffic(rc)
	require.NoError(t, err)
	require.InDelta(t, 6.849024/2, tr.UserGbps, 1e-9)
	require.InDelta(t, 0.157248, tr.ControlGbps, 1e-9)
}

func TestFronthaulTrafficErrors(t *testing.T) {
	good := DefaultRadioConfig()
	tests := []struct {
		name   string
		modify func(rc *RadioConfig)
	}{
		{name: "compression", modify: func(rc *RadioConfig) { rc.Compression = "BFP7" }},
		{name: "table gap", modify: func(rc *RadioConfig) { rc.SCSkHz, rc.BandwidthMHz = 15, 60 }},
		{name: "symbols", modify: func(rc *RadioConfig) { rc.Symbols = 0 }},
		{name: "ports", modify: func(rc *RadioConfig) { rc.Ports = -1 }},
		{name: "tdd zero", modify: func(rc *RadioConfig) { rc.TDD = 0 }},
		{name: "tdd above one", modify: func(rc *RadioConfig) { rc.TDD = 1.5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rc := good
			tc.modify(&rc)
			_, err := FronthaulTraffic(rc)
			require.Error(t, err)
		})
	}
}

func TestPacketSizeTable(t *testing.T) {
	pt, err := PacketSizeTable("BFP9", UserPlane)
	require.NoError(t, err)
	require.Len(t, pt.Bytes, len(SCSValues))
	require.Len(t, pt.Bytes[0], len(BandwidthValues))
	require.InDelta(t, 7644, pt.Bytes[1][12], 1e-9)
	require.True(t, math.IsNaN(pt.Bytes[0][8]))
	require.True(t, math.IsNaN(pt.Bytes[2][0]))

	pt, err = PacketSizeTable("BFP9", ControlPlane)
	require.NoError(t, err)
	require.InDelta(t, 614.25, pt.Bytes[1][12], 1e-9)

	_, err = PacketSizeTable("BFP9", Plane("management"))
	require.Error(t, err)
	_, err = PacketSizeTable("none", UserPlane)
	require.Error(t, err)
}
