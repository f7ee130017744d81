// hot-reload.go: dynamic EstimatorConfig reload with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package omnisketch

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file and updates the defaults new
// sketches are constructed with. It never touches an already-built
// OmniSketch: dimensions are immutable once constructed (spec §3), so a
// reload only affects sketches built after the change is observed.
type HotConfig struct {
	watcher *argus.Watcher
	mu      sync.RWMutex
	config  EstimatorConfig

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig EstimatorConfig)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig EstimatorConfig)

	// Logger for hot reload operations. If nil, uses NoOpLogger.
	Logger Logger
}

// NewHotConfig creates a new hot-reloadable EstimatorConfig and starts
// watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	estimator:
//	  default_width: 256
//	  default_depth: 4
//	  default_sample_capacity: 128
//	  range_expansion_cap: 10000
//
// Supported configuration keys:
//   - estimator.default_width (int): column count new sketches use
//   - estimator.default_depth (int): row count new sketches use
//   - estimator.default_sample_capacity (int): min-hash sample capacity K
//   - estimator.range_expansion_cap (int): widest range predicate span
//     convertRange accepts before rejecting it (spec §6)
//
// Note: changes only affect sketches constructed after the reload. Any
// sketch already built keeps its original dimensions (spec §3).
func NewHotConfig(opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		OnReload: opts.OnReload,
		config:   DefaultEstimatorConfig(),
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil // Already started
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the current configuration (thread-safe). Its
// DefaultWidth, DefaultDepth and DefaultSampleCapacity fields supply the
// width, depth and capacity arguments of NewOmniSketch for a new sketch.
func (hc *HotConfig) GetConfig() EstimatorConfig {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when the configuration file changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	_ = newConfig.Validate()
	hc.config = newConfig
	hc.mu.Unlock()

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parsePositiveInt64 extracts a positive int64 from interface{} value.
func parsePositiveInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return int64(v), true
		}
	case float64:
		if v > 0 {
			return int64(v), true
		}
	}
	return 0, false
}

// parseConfig extracts estimator configuration from Argus config data.
func (hc *HotConfig) parseConfig(data map[string]interface{}) EstimatorConfig {
	config := hc.config

	section, ok := data["estimator"].(map[string]interface{})
	if !ok {
		if _, hasWidth := data["default_width"]; hasWidth {
			section = data
		} else {
			return config
		}
	}

	if width, ok := parsePositiveInt(section["default_width"]); ok {
		config.DefaultWidth = width
	}
	if depth, ok := parsePositiveInt(section["default_depth"]); ok {
		config.DefaultDepth = depth
	}
	if cap, ok := parsePositiveInt(section["default_sample_capacity"]); ok {
		config.DefaultSampleCapacity = cap
	}
	if rangeCap, ok := parsePositiveInt64(section["range_expansion_cap"]); ok {
		config.RangeExpansionCap = rangeCap
	}

	return config
}
