package fhsweep

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/iti/fhsweep/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that override configuration keys,
// e.g. FHSWEEP_NS3_DIR
const EnvPrefix = "FHSWEEP"

// Config says where the simulator lives and how a sweep is carried out
type Config struct {
	// NS3Dir is the simulator's top directory; every other path is relative to it
	NS3Dir string `mapstructure:"ns3_dir"`

	// Simulator is the launcher, run as "<Simulator> run <program>" in NS3Dir
	Simulator string `mapstructure:"simulator"`

	ScratchDir  string `mapstructure:"scratch_dir"`
	ResultsDir  string `mapstructure:"results_dir"`
	ScenarioOut string `mapstructure:"scenario_out"`

	ArchiveWorkers int    `mapstructure:"archive_workers"`
	LogLevel       string `mapstructure:"log_level"`
	DryRun         bool   `mapstructure:"dry_run"`

	// MetricsFile and RunLogFile are written at the end of a sweep when set
	MetricsFile string `mapstructure:"metrics_file"`
	RunLogFile  string `mapstructure:"runlog_file"`

	// SimTimeout bounds each simulator run; zero means no bound
	SimTimeout time.Duration `mapstructure:"sim_timeout"`
}

// setDefaults installs the layout of an ns-3 tree and the HL3-HL5 scenario file
func setDefaults(v *viper.Viper) {
	v.SetDefault("ns3_dir", ".")
	v.SetDefault("simulator", "./ns3")
	v.SetDefault("scratch_dir", "scratch")
	v.SetDefault("results_dir", "sim_results")
	v.SetDefault("scenario_out", "scratch/hl3-hl5ex.json")
	v.SetDefault("archive_workers", 2)
	v.SetDefault("log_level", "info")
	v.SetDefault("dry_run", false)
	v.SetDefault("metrics_file", "")
	v.SetDefault("runlog_file", "")
	v.SetDefault("sim_timeout", "0s")
}

// LoadConfig reads the optional config file, applies FHSWEEP_* environment overrides
// on top of it and decodes the result.  An empty filename uses defaults and environment only.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(filename) > 0 {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", filename, err)
		}
		logger.CfgLog.Debugf("read config %s", v.ConfigFileUsed())
	}

	return decodeConfig(v)
}

// decodeConfig resolves every known key (so environment values are seen) and decodes them
func decodeConfig(v *viper.Viper) (*Config, error) {
	settings := make(map[string]any)
	for _, key := range v.AllKeys() {
		settings[key] = v.Get(key)
	}

	cfg := new(Config)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted away
func (cfg *Config) Validate() error {
	errs := []error{}
	if len(cfg.NS3Dir) == 0 {
		errs = append(errs, errors.New("ns3_dir is empty"))
	}
	if len(cfg.Simulator) == 0 {
		errs = append(errs, errors.New("simulator is empty"))
	}
	if len(cfg.ResultsDir) == 0 {
		errs = append(errs, errors.New("results_dir is empty"))
	}
	if len(cfg.ScenarioOut) == 0 {
		errs = append(errs, errors.New("scenario_out is empty"))
	}
	if cfg.ArchiveWorkers < 1 {
		errs = append(errs, fmt.Errorf("archive_workers %d must be at least 1", cfg.ArchiveWorkers))
	}
	if cfg.SimTimeout < 0 {
		errs = append(errs, fmt.Errorf("sim_timeout %v is negative", cfg.SimTimeout))
	}
	return ReportErrs(errs)
}

// NS3Path resolves a path relative to the simulator's directory
func (cfg *Config) NS3Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(cfg.NS3Dir, rel)
}

// ResultsPath is the directory holding the result folders
func (cfg *Config) ResultsPath() string {
	return cfg.NS3Path(cfg.ResultsDir)
}
