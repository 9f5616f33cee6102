package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/real"
	"github.com/opd-ai/atomgo/testing"
	"github.com/sirupsen/logrus"
)

// Environment variables read by the factory and the root package.
const (
	EnvUseSimulation    = "ATOM_USE_SIMULATION"
	EnvServerFrequency  = "ATOM_SERVER_FREQUENCY"
	EnvMaxVirtualVoices = "ATOM_MAX_VIRTUAL_VOICES"
	EnvTextEncoding     = "ATOM_TEXT_ENCODING"
	EnvLogLevel         = "ATOM_LOG_LEVEL"
)

// Defaults for EngineConfig.
const (
	DefaultServerFrequency  = 60.0
	DefaultMaxVirtualVoices = 32
)

// EngineFactory creates engine implementations based on configuration.
// It is safe for concurrent use.
type EngineFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.EngineConfig
}

// TestConfigOption customizes the configuration of a test simulation.
type TestConfigOption func(*interfaces.EngineConfig)

// NewEngineFactory creates a factory with defaults and environment overrides
// applied.
func NewEngineFactory() *EngineFactory {
	config := DefaultConfig()
	ApplyEnvironmentOverrides(config)
	logConfigurationInfo(config)

	return &EngineFactory{defaultConfig: config}
}

// DefaultConfig returns the built-in engine configuration. The native engine
// is the default; simulation is selected explicitly.
func DefaultConfig() *interfaces.EngineConfig {
	return &interfaces.EngineConfig{
		UseSimulation:    false,
		ServerFrequency:  DefaultServerFrequency,
		MaxVirtualVoices: DefaultMaxVirtualVoices,
	}
}

// ApplyEnvironmentOverrides updates config from ATOM_* variables.
func ApplyEnvironmentOverrides(config *interfaces.EngineConfig) {
	parseSimulationSetting(config)
	parseFrequencySetting(config)
	parseVoicesSetting(config)
}

func parseSimulationSetting(config *interfaces.EngineConfig) {
	raw := os.Getenv(EnvUseSimulation)
	if raw == "" {
		return
	}
	useSim, err := strconv.ParseBool(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseSimulationSetting",
			"env_var":     EnvUseSimulation,
			"value":       raw,
			"error":       err.Error(),
			"using_value": config.UseSimulation,
		}).Warn("Failed to parse ATOM_USE_SIMULATION environment variable, using default")
		return
	}
	config.UseSimulation = useSim
}

func parseFrequencySetting(config *interfaces.EngineConfig) {
	raw := os.Getenv(EnvServerFrequency)
	if raw == "" {
		return
	}
	freq, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseFrequencySetting",
			"env_var":     EnvServerFrequency,
			"value":       raw,
			"error":       err.Error(),
			"using_value": config.ServerFrequency,
		}).Warn("Failed to parse ATOM_SERVER_FREQUENCY environment variable, using default")
		return
	}
	if freq < interfaces.MinServerFrequency || freq > interfaces.MaxServerFrequency {
		logrus.WithFields(logrus.Fields{
			"function":    "parseFrequencySetting",
			"env_var":     EnvServerFrequency,
			"value":       freq,
			"min":         interfaces.MinServerFrequency,
			"max":         interfaces.MaxServerFrequency,
			"using_value": config.ServerFrequency,
		}).Warn("ATOM_SERVER_FREQUENCY value out of bounds, using default")
		return
	}
	config.ServerFrequency = freq
}

func parseVoicesSetting(config *interfaces.EngineConfig) {
	raw := os.Getenv(EnvMaxVirtualVoices)
	if raw == "" {
		return
	}
	voices, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseVoicesSetting",
			"env_var":     EnvMaxVirtualVoices,
			"value":       raw,
			"error":       err.Error(),
			"using_value": config.MaxVirtualVoices,
		}).Warn("Failed to parse ATOM_MAX_VIRTUAL_VOICES environment variable, using default")
		return
	}
	if voices < interfaces.MinMaxVirtualVoices || voices > interfaces.MaxMaxVirtualVoices {
		logrus.WithFields(logrus.Fields{
			"function":    "parseVoicesSetting",
			"env_var":     EnvMaxVirtualVoices,
			"value":       voices,
			"min":         interfaces.MinMaxVirtualVoices,
			"max":         interfaces.MaxMaxVirtualVoices,
			"using_value": config.MaxVirtualVoices,
		}).Warn("ATOM_MAX_VIRTUAL_VOICES value out of bounds, using default")
		return
	}
	config.MaxVirtualVoices = voices
}

// TextEncodingOverride returns ATOM_TEXT_ENCODING when set.
func TextEncodingOverride() (string, bool) {
	v := os.Getenv(EnvTextEncoding)
	return v, v != ""
}

// LogLevelOverride returns ATOM_LOG_LEVEL when set.
func LogLevelOverride() (string, bool) {
	v := os.Getenv(EnvLogLevel)
	return v, v != ""
}

func logConfigurationInfo(config *interfaces.EngineConfig) {
	logrus.WithFields(logrus.Fields{
		"function":           "NewEngineFactory",
		"use_simulation":     config.UseSimulation,
		"server_frequency":   config.ServerFrequency,
		"max_virtual_voices": config.MaxVirtualVoices,
	}).Info("Created engine factory with configuration")
}

// CreateEngine creates an engine for config, or for the factory default when
// config is nil. The engine is not initialized.
func (f *EngineFactory) CreateEngine(config *interfaces.EngineConfig) (interfaces.NativeEngine, error) {
	if config == nil {
		config = f.GetCurrentConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "CreateEngine",
			"type":     "simulation",
		}).Info("Creating simulated engine")
		return testing.NewSimulatedEngine(), nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "CreateEngine",
		"type":     "real",
	}).Info("Creating native engine")

	engine, err := real.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("create native engine: %w", err)
	}
	return engine, nil
}

// WithServerFrequency sets the server rate of the test configuration.
func WithServerFrequency(hz float64) TestConfigOption {
	return func(c *interfaces.EngineConfig) { c.ServerFrequency = hz }
}

// WithMaxVirtualVoices sets the voice limit of the test configuration.
func WithMaxVirtualVoices(n int) TestConfigOption {
	return func(c *interfaces.EngineConfig) { c.MaxVirtualVoices = n }
}

// TestConfig returns the configuration CreateSimulationForTesting uses:
// 250 Hz so server-driven tests finish quickly, 8 voices.
func TestConfig(opts ...TestConfigOption) *interfaces.EngineConfig {
	config := &interfaces.EngineConfig{
		UseSimulation:    true,
		ServerFrequency:  250,
		MaxVirtualVoices: 8,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// CreateSimulationForTesting creates and initializes a simulated engine with
// the test configuration.
func (f *EngineFactory) CreateSimulationForTesting(opts ...TestConfigOption) (*testing.SimulatedEngine, error) {
	config := TestConfig(opts...)

	logrus.WithFields(logrus.Fields{
		"function":           "CreateSimulationForTesting",
		"server_frequency":   config.ServerFrequency,
		"max_virtual_voices": config.MaxVirtualVoices,
	}).Info("Creating simulated engine for testing")

	sim := testing.NewSimulatedEngine()
	if err := sim.Initialize(config); err != nil {
		return nil, err
	}
	return sim, nil
}

// SwitchToSimulation makes the factory default the simulation.
func (f *EngineFactory) SwitchToSimulation() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToSimulation",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to simulation mode")
	f.defaultConfig.UseSimulation = true
}

// SwitchToReal makes the factory default the native engine.
func (f *EngineFactory) SwitchToReal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "SwitchToReal",
		"previous": f.defaultConfig.UseSimulation,
	}).Info("Switching factory to real mode")
	f.defaultConfig.UseSimulation = false
}

// GetCurrentConfig returns a copy of the default configuration.
func (f *EngineFactory) GetCurrentConfig() *interfaces.EngineConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()

	copied := *f.defaultConfig
	return &copied
}

// IsUsingSimulation reports whether the default is the simulation.
func (f *EngineFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultConfig.UseSimulation
}

// UpdateConfig replaces the default configuration after validating it.
func (f *EngineFactory) UpdateConfig(config *interfaces.EngineConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.defaultConfig.UseSimulation,
		"new_simulation": config.UseSimulation,
		"old_frequency":  f.defaultConfig.ServerFrequency,
		"new_frequency":  config.ServerFrequency,
	}).Info("Updating factory configuration")

	copied := *config
	f.defaultConfig = &copied
	return nil
}
