package types

import (
	"adicare.it/ace/utils"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"strings"
)

const (
	// extraction strategies
	StrategyRules  = "rules"
	StrategyModel  = "model"
	StrategyHybrid = "hybrid"

	// controllo_parametri_vitali trigger policies
	VitalsTriggerKeyword   = "keyword"
	VitalsTriggerConfirmed = "confirmed"

	DefaultModel          = "llama3.1:8b"
	DefaultEndpoint       = "http://localhost:11434"
	DefaultTimeoutSeconds = 90
	DefaultFuzzyThreshold = 90
)

// RunConfig selects the extraction path for a run and carries the tuning
// knobs that were deliberately kept out of the rule logic.
type RunConfig struct {
	Strategy       string `yaml:"strategy" json:"strategy"`
	Model          string `yaml:"model" json:"model"`
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	VitalsTrigger  string `yaml:"vitals_trigger" json:"vitals_trigger"`
	FuzzyThreshold int    `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
}

func (cfg *RunConfig) ApplyDefaults() {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyRules
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.VitalsTrigger == "" {
		cfg.VitalsTrigger = VitalsTriggerKeyword
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultFuzzyThreshold
	}
}

func (cfg RunConfig) Validate() error {
	switch cfg.Strategy {
	case StrategyRules, StrategyModel, StrategyHybrid:
	default:
		return fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
	switch cfg.VitalsTrigger {
	case VitalsTriggerKeyword, VitalsTriggerConfirmed:
	default:
		return fmt.Errorf("unknown vitals trigger policy %q", cfg.VitalsTrigger)
	}
	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 100 {
		return errors.New("fuzzy threshold must be in [0,100]")
	}
	return nil
}

func (cfg RunConfig) GetHashCode() uint64 {
	parts := []string{
		strings.ToLower(cfg.Strategy),
		strings.ToLower(cfg.Model),
		strings.ToLower(cfg.Endpoint),
		fmt.Sprint(cfg.TimeoutSeconds),
		strings.ToLower(cfg.VitalsTrigger),
		fmt.Sprint(cfg.FuzzyThreshold),
	}
	return utils.HashString(strings.Join(parts, "|"))
}

func LoadRunConfig(filePath string) (RunConfig, error) {
	var cfg RunConfig
	buf, err := ioutil.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
