package fhsweep

import (
	"fmt"

	"github.com/iti/rngstream"
)

// maxSeed bounds the seeds handed to the simulator's RNG run number
const maxSeed = 1<<31 - 1

// ReplicationSeeds draws n seeds in [1, 2^31-1) from a stream named after the study.
// Streams are handed out in creation order, so a sweep expanded in the same order
// gets the same seeds.
func ReplicationSeeds(name string, n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("replication count %d is negative", n)
	}
	rng := rngstream.New(name)
	seeds := make([]int, n)
	for idx := range seeds {
		u01 := rng.RandU01()
		seeds[idx] = 1 + int(u01*float64(maxSeed-2))
	}
	return seeds, nil
}
