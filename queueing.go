package fhsweep

import (
	"fmt"
	"math"
)

// queueing models the scenarios select through the "Model" key
const (
	ModelMM1 = "mm1"
	ModelMG1 = "mg1"
	ModelMD1 = "md1"
)

// EstMM1Latency estimates the mean time (seconds) a packet of msgLen bytes spends
// in an M/M/1 queue served at bitRate bps with utilization rho
func EstMM1Latency(bitRate, rho float64, msgLen int) float64 {
	// mean time in system is 1/(mu - lambda), in packets per second.
	// with mu = bitRate/(msgLen*8) and lambda = rho*mu this is 1/(mu*(1-rho))
	if math.Abs(1.0-rho) < 1e-3 {
		// force rho to be 95%
		rho = 0.95
	}
	mu := bitRate / float64(msgLen*8)
	return 1.0 / (mu * (1.0 - rho))
}

// EstMD1Latency estimates the mean time (seconds) a packet of msgLen bytes spends
// in an M/D/1 queue served at bitRate bps with utilization rho
func EstMD1Latency(bitRate, rho float64, msgLen int) float64 {
	// mean time in system is 1/mu + rho/(2*mu*(1-rho))
	mu := bitRate / float64(msgLen*8)
	imu := 1.0 / mu

	if math.Abs(1.0-rho) < 1e-3 {
		// if rho too large, force it to be 99%
		rho = 0.99
	}
	denom := 2 * mu * (1.0 - rho)
	return imu + rho/denom
}

// EstLatency dispatches on the scenario model name.  mg1 is estimated with
// deterministic service, since the fronthaul packet sizes are fixed.
func EstLatency(model string, bitRate, rho float64, msgLen int) (float64, error) {
	if bitRate <= 0 || msgLen <= 0 {
		return 0, fmt.Errorf("bit rate %v and message length %d must be positive", bitRate, msgLen)
	}
	if rho <= 0 || rho > 1 {
		return 0, fmt.Errorf("utilization %v outside (0,1]", rho)
	}
	switch model {
	case ModelMM1:
		return EstMM1Latency(bitRate, rho, msgLen), nil
	case ModelMG1, ModelMD1:
		return EstMD1Latency(bitRate, rho, msgLen), nil
	}
	return 0, fmt.Errorf("unknown queueing model %q", model)
}
