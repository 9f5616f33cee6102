package atom

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/opd-ai/atomgo/argstring"
	"github.com/opd-ai/atomgo/factory"
	"github.com/opd-ai/atomgo/handle"
	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/trampoline"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidOptions indicates Options that fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// Options configures an Engine. Options files are YAML with the keys given
// in the field tags; durations are written as "5ms", "2s".
type Options struct {
	UseSimulation        bool          `yaml:"use_simulation"`
	ServerFrequency      float64       `yaml:"server_frequency"`
	MaxVirtualVoices     int           `yaml:"max_virtual_voices"`
	TextEncoding         string        `yaml:"text_encoding"`
	NormalizeNFC         bool          `yaml:"normalize_nfc"`
	LogLevel             string        `yaml:"log_level"`
	SlowReleaseThreshold time.Duration `yaml:"slow_release_threshold"`
	DrainTimeout         time.Duration `yaml:"drain_timeout"`
	CallbackBudget       time.Duration `yaml:"callback_budget"`
}

// NewOptions returns the default options.
func NewOptions() *Options {
	config := factory.DefaultConfig()
	return &Options{
		UseSimulation:        config.UseSimulation,
		ServerFrequency:      config.ServerFrequency,
		MaxVirtualVoices:     config.MaxVirtualVoices,
		TextEncoding:         argstring.UTF8.String(),
		SlowReleaseThreshold: handle.DefaultSlowReleaseThreshold,
		DrainTimeout:         trampoline.DefaultDrainTimeout,
	}
}

// LoadOptions reads a YAML options file over the defaults, then applies
// ATOM_* environment overrides.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// ParseOptions decodes YAML options over the defaults, then applies ATOM_*
// environment overrides.
func ParseOptions(data []byte) (*Options, error) {
	opts := NewOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	opts.ApplyEnvironment()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// ApplyEnvironment overrides fields from ATOM_* environment variables.
func (o *Options) ApplyEnvironment() {
	config := o.engineConfig()
	factory.ApplyEnvironmentOverrides(config)
	o.UseSimulation = config.UseSimulation
	o.ServerFrequency = config.ServerFrequency
	o.MaxVirtualVoices = config.MaxVirtualVoices

	if enc, ok := factory.TextEncodingOverride(); ok {
		if _, err := argstring.ParseEncoding(enc); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "ApplyEnvironment",
				"env_var":     factory.EnvTextEncoding,
				"value":       enc,
				"using_value": o.TextEncoding,
			}).Warn("Unknown ATOM_TEXT_ENCODING value, using default")
		} else {
			o.TextEncoding = enc
		}
	}
	if level, ok := factory.LogLevelOverride(); ok {
		if _, err := logrus.ParseLevel(level); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "ApplyEnvironment",
				"env_var":     factory.EnvLogLevel,
				"value":       level,
				"using_value": o.LogLevel,
			}).Warn("Unknown ATOM_LOG_LEVEL value, using default")
		} else {
			o.LogLevel = level
		}
	}
}

// Validate checks every field.
func (o *Options) Validate() error {
	if err := o.engineConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if _, err := argstring.ParseEncoding(o.TextEncoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if o.LogLevel != "" {
		if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}
	if o.SlowReleaseThreshold < 0 || o.DrainTimeout < 0 || o.CallbackBudget < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidOptions)
	}
	return nil
}

func (o *Options) engineConfig() *interfaces.EngineConfig {
	enc, _ := argstring.ParseEncoding(o.TextEncoding)
	return &interfaces.EngineConfig{
		UseSimulation:    o.UseSimulation,
		ServerFrequency:  o.ServerFrequency,
		MaxVirtualVoices: o.MaxVirtualVoices,
		TextEncoding:     enc,
	}
}

func (o *Options) encoder() *argstring.Encoder {
	enc, _ := argstring.ParseEncoding(o.TextEncoding)
	return argstring.NewEncoder(argstring.WithEncoding(enc), argstring.WithNFC(o.NormalizeNFC))
}
