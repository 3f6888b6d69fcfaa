package fhsweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/iti/fhsweep/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// SimulatorLog is the file in each result folder receiving the simulator's output
const SimulatorLog = "simulator.log"

// waitDelay bounds how long output copying may outlive a killed simulator
const waitDelay = 10 * time.Second

// A Runner carries out runs one after the other. Every run writes the same scenario
// file the simulator reads, so runs never overlap; only archiving proceeds in the background.
type Runner struct {
	Cfg     *Config
	Metrics *Metrics

	// Echo, when set, also receives the simulator's output
	Echo io.Writer

	baselines map[string]*Scenario
}

// NewRunner is a constructor
func NewRunner(cfg *Config) *Runner {
	return &Runner{Cfg: cfg, Metrics: NewMetrics(), baselines: make(map[string]*Scenario)}
}

// baseline returns the decoded baseline at rel, reading it on first use
func (r *Runner) baseline(rel string) (*Scenario, error) {
	scn, present := r.baselines[rel]
	if present {
		return scn, nil
	}
	name := r.Cfg.NS3Path(rel)
	scn, err := ReadScenario(name, isYAMLPath(name), nil)
	if err != nil {
		return nil, err
	}
	r.baselines[rel] = scn
	return scn, nil
}

// Prepare creates the run's result folder, builds its scenario and writes it where
// the simulator expects it.  Returns the folder and the scenario file.
func (r *Runner) Prepare(run *RunSpec) (string, string, error) {
	folder := filepath.Join(r.Cfg.ResultsPath(), run.Folder)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", err
	}

	base, err := r.baseline(run.Baseline)
	if err != nil {
		return folder, "", err
	}
	scn := base.Clone()
	if err := ApplyParameters(scn, run.Parameters); err != nil {
		return folder, "", fmt.Errorf("baseline %s: %w", run.Baseline, err)
	}

	out := r.Cfg.NS3Path(firstNonEmpty(run.Output, r.Cfg.ScenarioOut))
	if err := scn.WriteToFile(out); err != nil {
		return folder, "", err
	}
	return folder, out, nil
}

// execute runs the simulator on the run's program, its output going to the folder's log
func (r *Runner) execute(ctx context.Context, run *RunSpec, folder string) error {
	if r.Cfg.SimTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Cfg.SimTimeout)
		defer cancel()
	}

	// runs sharing a folder add to one log
	logFile, err := os.OpenFile(filepath.Join(folder, SimulatorLog), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var out io.Writer = logFile
	if r.Echo != nil {
		out = io.MultiWriter(logFile, r.Echo)
	}

	cmd := exec.CommandContext(ctx, r.Cfg.Simulator, "run", run.Program)
	cmd.Dir = r.Cfg.NS3Dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s run %s: timed out after %v", r.Cfg.Simulator, run.Program, r.Cfg.SimTimeout)
		}
		return fmt.Errorf("%s run %s: %w", r.Cfg.Simulator, run.Program, err)
	}
	return nil
}

// copyFile copies src into the directory dir, keeping its base name
func copyFile(src, dir string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(dir, filepath.Base(src)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Run carries out runs in order and returns the log of what happened.  A failed run is
// recorded and the sweep goes on; cancellation of ctx stops it and is returned.
func (r *Runner) Run(ctx context.Context, name string, runs []RunSpec) (*RunLog, error) {
	dirs := []string{r.Cfg.NS3Dir}
	if len(r.Cfg.ScratchDir) > 0 {
		dirs = append(dirs, r.Cfg.NS3Path(r.Cfg.ScratchDir))
	}
	if ok, err := CheckDirectories(dirs); !ok {
		return nil, err
	}
	if ok, err := CheckOutputFiles(r.outputFiles(runs)); !ok {
		return nil, err
	}

	// a folder is archived after the last run writing into it
	lastUse := make(map[string]int, len(runs))
	for idx, run := range runs {
		lastUse[run.Folder] = idx
	}

	rl := CreateRunLog(name)
	archiver := NewArchiver(ctx, r.Cfg.ResultsPath(), r.Cfg.ArchiveWorkers, rl, r.Metrics)
	logger.SweepLog.Infof("sweep %s: %d runs", name, len(runs))

	var runErr error
	for idx := range runs {
		run := &runs[idx]
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		start := time.Now()
		rr := RunRecord{
			Index:       idx,
			Folder:      run.Folder,
			Program:     run.Program,
			Baseline:    run.Baseline,
			Start:       startStamp(start),
			Parameters:  run.Parameters,
			Annotations: run.Annotations,
		}
		entry := logger.RunLog.WithFields(logrus.Fields{"folder": run.Folder, "program": run.Program})
		entry.Infof("run %d/%d", idx+1, len(runs))

		status, err := r.runOne(ctx, run)
		rr.Status = status
		rr.Elapsed = time.Since(start).Seconds()
		if err != nil {
			rr.Error = err.Error()
			entry.WithField("elapsed", rr.Elapsed).Errorf("run failed: %v", err)
		} else {
			entry.WithField("elapsed", rr.Elapsed).Infof("run %s", status)
		}
		pos := rl.AddRecord(rr)

		if status == StatusCanceled {
			runErr = ctx.Err()
			break
		}
		if run.Archive && status != StatusDryRun && lastUse[run.Folder] == idx {
			archiver.Submit(pos, run.Folder)
		}
	}

	if err := archiver.Wait(); err != nil && runErr == nil {
		runErr = err
	}

	// counted once archiving is over, so a failed archive shows as a failed run
	for _, rr := range rl.Records {
		r.Metrics.observe(rr.Status, rr.Elapsed)
	}
	logger.SweepLog.Infof("sweep %s done: %d ok, %d failed", name, rl.Count(StatusOK), rl.Count(StatusFailed))

	if len(r.Cfg.RunLogFile) > 0 {
		if err := rl.WriteToFile(r.Cfg.NS3Path(r.Cfg.RunLogFile)); err != nil {
			logger.SweepLog.Errorf("write run log: %v", err)
		}
	}
	if len(r.Cfg.MetricsFile) > 0 {
		if err := r.Metrics.WriteToFile(r.Cfg.NS3Path(r.Cfg.MetricsFile)); err != nil {
			logger.SweepLog.Errorf("write metrics: %v", err)
		}
	}
	return rl, runErr
}

// outputFiles lists every file a sweep writes outside the result folders
func (r *Runner) outputFiles(runs []RunSpec) []string {
	names := []string{r.Cfg.NS3Path(r.Cfg.ScenarioOut)}
	for _, run := range runs {
		if len(run.Output) > 0 && !slices.Contains(names, r.Cfg.NS3Path(run.Output)) {
			names = append(names, r.Cfg.NS3Path(run.Output))
		}
	}
	for _, name := range []string{r.Cfg.RunLogFile, r.Cfg.MetricsFile} {
		if len(name) > 0 {
			names = append(names, r.Cfg.NS3Path(name))
		}
	}
	return names
}

// runOne prepares and executes a single run and returns its status
func (r *Runner) runOne(ctx context.Context, run *RunSpec) (string, error) {
	folder, out, err := r.Prepare(run)
	if err != nil {
		return StatusFailed, err
	}
	if r.Cfg.DryRun {
		return StatusDryRun, nil
	}

	if err := r.execute(ctx, run, folder); err != nil {
		if ctx.Err() != nil {
			return StatusCanceled, err
		}
		return StatusFailed, err
	}

	if run.CopyScenario {
		if err := copyFile(out, folder); err != nil {
			return StatusFailed, fmt.Errorf("copy scenario: %w", err)
		}
	}
	return StatusOK, nil
}
