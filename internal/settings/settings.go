// Package settings loads the triage tuning file: rule weights and thresholds,
// evidence lookup timeout and lifecycle policy. Values come from the built-in
// defaults, then the YAML file, then CLAIMGUARD_* environment variables
// (CLAIMGUARD_LIFECYCLE_AUTO_DISPOSITION=false overrides lifecycle.auto_disposition).
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"claimguard/internal/claims/service"
	"claimguard/internal/decision"
	"claimguard/internal/rules"
)

const EnvPrefix = "CLAIMGUARD"

// Settings is the decoded tuning file.
type Settings struct {
	Rules     rules.Config   `mapstructure:"rules" yaml:"rules"`
	Evidence  Evidence       `mapstructure:"evidence" yaml:"evidence"`
	Lifecycle service.Config `mapstructure:"lifecycle" yaml:"lifecycle"`
}

type Evidence struct {
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
}

func Default() Settings {
	return Settings{
		Rules:     rules.DefaultConfig(),
		Evidence:  Evidence{LookupTimeout: decision.DefaultLookupTimeout},
		Lifecycle: service.DefaultConfig(),
	}
}

// Validate checks the rule registry and the lifecycle knobs.
func (s Settings) Validate() error {
	var errs []error
	if err := s.Rules.Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.Evidence.LookupTimeout <= 0 {
		errs = append(errs, errors.New("evidence.lookup_timeout must be positive"))
	}
	if s.Lifecycle.MaxConflictRetries < 0 {
		errs = append(errs, errors.New("lifecycle.max_conflict_retries must not be negative"))
	}
	if s.Lifecycle.BatchWorkers < 1 {
		errs = append(errs, errors.New("lifecycle.batch_workers must be at least 1"))
	}
	if s.Lifecycle.IntakeLookupTimeout <= 0 {
		errs = append(errs, errors.New("lifecycle.intake_lookup_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads path (optional) over the defaults and applies env overrides.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The defaults go in as a config layer so every key is known to
	// AutomaticEnv and lists in the file replace the default lists.
	base, err := yaml.Marshal(Default())
	if err != nil {
		return Settings{}, fmt.Errorf("encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return Settings{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Encode renders s as YAML, the format Load reads.
func Encode(s Settings) ([]byte, error) {
	return yaml.Marshal(s)
}
