package fhsweep

import (
	"sync"
	"time"
)

// run outcomes recorded in a RunRecord
const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusDryRun   = "dryrun"
	StatusCanceled = "canceled"
)

// A RunRecord saves what happened to one RunSpec, for post-sweep analysis
type RunRecord struct {
	// Index is the position of the run within the sweep
	Index int `json:"index" yaml:"index"`

	Folder   string `json:"folder" yaml:"folder"`
	Program  string `json:"program" yaml:"program"`
	Baseline string `json:"baseline" yaml:"baseline"`
	Status   string `json:"status" yaml:"status"`

	// Error holds the failure message, if any
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	Start   string  `json:"start" yaml:"start"`
	Elapsed float64 `json:"elapsed" yaml:"elapsed"` // seconds

	// Archive is the compressed result folder, and its size in bytes
	Archive      string `json:"archive,omitempty" yaml:"archive,omitempty"`
	ArchiveBytes int64  `json:"archivebytes,omitempty" yaml:"archivebytes,omitempty"`

	Parameters  []SweepParameter   `json:"parameters" yaml:"parameters"`
	Annotations map[string]float64 `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// RunLog gathers the records of one sweep. Archive workers fill in their
// part of a record concurrently with the runner, hence the lock.
type RunLog struct {
	// name of the sweep
	SweepName string `json:"sweepname" yaml:"sweepname"`

	Records []RunRecord `json:"records" yaml:"records"`

	mu sync.Mutex
}

// CreateRunLog is a constructor.  It saves the name of the sweep.
func CreateRunLog(sweepName string) *RunLog {
	rl := new(RunLog)
	rl.SweepName = sweepName
	rl.Records = make([]RunRecord, 0)
	return rl
}

// AddRecord appends rr and returns its position
func (rl *RunLog) AddRecord(rr RunRecord) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.Records = append(rl.Records, rr)
	return len(rl.Records) - 1
}

// SetArchive saves the archive produced for the record at pos, or the archiving failure
func (rl *RunLog) SetArchive(pos int, archive string, size int64, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rr := &rl.Records[pos]
	if err != nil {
		rr.Status = StatusFailed
		rr.Error = err.Error()
		return
	}
	rr.Archive = archive
	rr.ArchiveBytes = size
}

// Count returns the number of records with the given status
func (rl *RunLog) Count(status string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for _, rr := range rl.Records {
		if rr.Status == status {
			n += 1
		}
	}
	return n
}

// WriteToFile stores the RunLog struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rl *RunLog) WriteToFile(filename string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return writeDesc(filename, struct {
		SweepName string      `json:"sweepname" yaml:"sweepname"`
		Records   []RunRecord `json:"records" yaml:"records"`
	}{rl.SweepName, rl.Records})
}

// ReadRunLog deserializes a byte slice holding a representation of a RunLog.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadRunLog(filename string, useYAML bool, dict []byte) (*RunLog, error) {
	rl := CreateRunLog("")
	if err := readDesc(filename, useYAML, dict, rl); err != nil {
		return nil, err
	}
	return rl, nil
}

// startStamp formats the start time of a run
func startStamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
