package fhsweep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstLatency(t *testing.T) {
	mm1, err := EstLatency(ModelMM1, 1e9, 0.5, 1000)
	require.NoError(t, err)
	require.InDelta(t, 1.6e-5, mm1, 1e-12)

	md1, err := EstLatency(ModelMD1, 1e9, 0.5, 1000)
	require.NoError(t, err)
	require.InDelta(t, 1.2e-5, md1, 1e-12)

	mg1, err := EstLatency(ModelMG1, 1e9, 0.5, 1000)
	require.NoError(t, err)
	require.Equal(t, md1, mg1)

	// a saturated queue is clamped rather than infinite
	full, err := EstLatency(ModelMM1, 1e9, 1, 1000)
	require.NoError(t, err)
	require.InDelta(t, EstMM1Latency(1e9, 0.95, 1000), full, 1e-12)
}

func TestEstLatencyErrors(t *testing.T) {
	_, err := EstLatency("gg1", 1e9, 0.5, 1000)
	require.Error(t, err)
	_, err = EstLatency(ModelMM1, 1e9, 1.2, 1000)
	require.Error(t, err)
	_, err = EstLatency(ModelMM1, 1e9, 0, 1000)
	require.Error(t, err)
	_, err = EstLatency(ModelMM1, 0, 0.5, 1000)
	require.Error(t, err)
	_, err = EstLatency(ModelMM1, 1e9, 0.5, 0)
	require.Error(t, err)
}
