package main

// fhsweep expands sweep studies into simulator runs and carries them out

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/iti/cmdline"
	"github.com/iti/fhsweep"
	"github.com/iti/fhsweep/logger"
)

// cmdlineParameters define variables that may appear on the command line
func cmdlineParameters() *cmdline.CmdParser {
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.StringFlag, "config", false) // viper config file
	cp.AddFlag(cmdline.StringFlag, "study", false)  // study file, json or yaml
	cp.AddFlag(cmdline.StringFlag, "kind", false)   // name of a built-in study, used when no study file is given
	cp.AddFlag(cmdline.BoolFlag, "dryrun", false)   // write scenarios and folders, do not run the simulator
	cp.AddFlag(cmdline.BoolFlag, "list", false)     // print the result folders and stop

	return cp
}

// stringVar returns the value of a string flag, empty if it was not given
func stringVar(cp *cmdline.CmdParser, name string) string {
	if !cp.IsLoaded(name) {
		return ""
	}
	return cp.GetVar(name).(string)
}

// boolVar returns the value of a bool flag, false if it was not given
func boolVar(cp *cmdline.CmdParser, name string) bool {
	if !cp.IsLoaded(name) {
		return false
	}
	return cp.GetVar(name).(bool)
}

// loadStudies reads the study file, or builds one around the named built-in study
func loadStudies(studyFile, kind string) (*fhsweep.StudyFile, string, error) {
	if len(studyFile) > 0 {
		valid, err := fhsweep.CheckReadableFiles([]string{studyFile})
		if !valid {
			return nil, "", err
		}
		ext := filepath.Ext(studyFile)
		useYAML := ext == ".yaml" || ext == ".yml"
		sf, err := fhsweep.ReadStudyFile(studyFile, useYAML, nil)
		if err != nil {
			return nil, "", err
		}
		return sf, strings.TrimSuffix(filepath.Base(studyFile), ext), nil
	}

	if len(kind) == 0 {
		return nil, "", fmt.Errorf("one of -study or -kind is required")
	}
	st, err := fhsweep.LookupBuiltinStudy(kind)
	if err != nil {
		return nil, "", err
	}
	return &fhsweep.StudyFile{Studies: []fhsweep.Study{*st}}, st.Name, nil
}

func main() {
	cp := cmdlineParameters()
	cp.Parse()

	cfg, err := fhsweep.LoadConfig(stringVar(cp, "config"))
	if err != nil {
		logger.MainLog.Fatal(err)
	}
	logger.SetLogLevel(cfg.LogLevel)
	if boolVar(cp, "dryrun") {
		cfg.DryRun = true
	}

	sf, name, err := loadStudies(stringVar(cp, "study"), stringVar(cp, "kind"))
	if err != nil {
		logger.MainLog.Fatal(err)
	}

	runs, err := sf.Expand()
	if err != nil {
		logger.MainLog.Fatal(err)
	}

	if boolVar(cp, "list") {
		for _, run := range runs {
			fmt.Println(run.Folder)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := fhsweep.NewRunner(cfg)
	runner.Echo = os.Stdout

	rl, err := runner.Run(ctx, name, runs)
	if err != nil {
		logger.MainLog.Errorf("sweep %s stopped: %v", name, err)
	}
	if rl == nil || rl.Count(fhsweep.StatusFailed) > 0 || err != nil {
		stop()
		os.Exit(1)
	}
}
