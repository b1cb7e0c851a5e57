package netsynth

// param.go holds the tunable settings of the analyses, and the code that
// loads them from a configuration file and the environment

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// validate is shared by everything that checks struct tags; it caches struct metadata
// and is safe for concurrent use
var validate = newValidator()

// newValidator returns a validator that also understands the tag "known", which
// accepts a value of one of the enumerated types only if it is one of the listed values
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("known", func(fl validator.FieldLevel) bool {
		enum, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && enum.Valid()
	})
	return v
}

// SamplePolicy selects the device pairs that the path-based measurements look at.
// The first Sources devices (in topology order) are each paired with up to Span
// devices that follow them.
type SamplePolicy struct {
	Sources int `json:"sources" yaml:"sources" mapstructure:"sources" validate:"min=1"`
	Span    int `json:"span" yaml:"span" mapstructure:"span" validate:"min=1"`
}

// PathPolicy bounds the simple-path enumeration behind the balance measurement
type PathPolicy struct {
	MaxSimplePaths   int     `json:"maxsimplepaths" yaml:"maxsimplepaths" mapstructure:"max_simple_paths" validate:"min=1"`
	HopCutoff        int     `json:"hopcutoff" yaml:"hopcutoff" mapstructure:"hop_cutoff" validate:"min=1"`
	BalanceThreshold float64 `json:"balancethreshold" yaml:"balancethreshold" mapstructure:"balance_threshold" validate:"gt=0,lte=1"`
}

// OverloadPolicy gives the degree, as a percentage of the average degree,
// above which a device is flagged as overloaded
type OverloadPolicy struct {
	MediumPct float64 `json:"mediumpct" yaml:"mediumpct" mapstructure:"medium_pct" validate:"gt=100"`
	HighPct   float64 `json:"highpct" yaml:"highpct" mapstructure:"high_pct" validate:"gtfield=MediumPct"`
}

// LogSettings configures the logger built by NewLogger
type LogSettings struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Settings gathers every tunable of the analyzer, validator and simulator
type Settings struct {
	Sampling SamplePolicy   `json:"sampling" yaml:"sampling" mapstructure:"sampling"`
	Paths    PathPolicy     `json:"paths" yaml:"paths" mapstructure:"paths"`
	Overload OverloadPolicy `json:"overload" yaml:"overload" mapstructure:"overload"`

	// RecoverySeconds is the convergence time reported for a failure
	RecoverySeconds float64 `json:"recoveryseconds" yaml:"recoveryseconds" mapstructure:"recovery_seconds" validate:"gt=0"`

	// MultiRecoverySeconds is reported for the canned multiple-link scenario
	MultiRecoverySeconds float64 `json:"multirecoveryseconds" yaml:"multirecoveryseconds" mapstructure:"multi_recovery_seconds" validate:"gt=0"`

	Log LogSettings `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		Sampling:             SamplePolicy{Sources: 5, Span: 2},
		Paths:                PathPolicy{MaxSimplePaths: 5, HopCutoff: 5, BalanceThreshold: 0.8},
		Overload:             OverloadPolicy{MediumPct: 150, HighPct: 250},
		RecoverySeconds:      30,
		MultiRecoverySeconds: 45,
		Log:                  LogSettings{Level: "info", Format: "json"},
	}
}

// Validate checks the ranges of the settings
func (s Settings) Validate() error {
	return errors.Wrap(validate.Struct(s), "invalid settings")
}

// envPrefix prefixes the environment variables that override settings,
// e.g. NETSYNTH_SAMPLING_SOURCES
const envPrefix = "NETSYNTH"

// LoadSettings returns the default settings overridden first by the yaml (or json) file
// whose name is given, if any, and then by NETSYNTH_* environment variables
func LoadSettings(filename string) (Settings, error) {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("sampling.sources", defaults.Sampling.Sources)
	v.SetDefault("sampling.span", defaults.Sampling.Span)
	v.SetDefault("paths.max_simple_paths", defaults.Paths.MaxSimplePaths)
	v.SetDefault("paths.hop_cutoff", defaults.Paths.HopCutoff)
	v.SetDefault("paths.balance_threshold", defaults.Paths.BalanceThreshold)
	v.SetDefault("overload.medium_pct", defaults.Overload.MediumPct)
	v.SetDefault("overload.high_pct", defaults.Overload.HighPct)
	v.SetDefault("recovery_seconds", defaults.RecoverySeconds)
	v.SetDefault("multi_recovery_seconds", defaults.MultiRecoverySeconds)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(filename) > 0 {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, errors.Wrapf(err, "reading settings %s", filename)
		}
	}

	settings := Settings{}
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, errors.Wrap(err, "decoding settings")
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
