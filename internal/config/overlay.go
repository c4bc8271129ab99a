// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Overlay keys, shared by flags and environment variables
const (
	KeyLogFormat         = "logging.format"
	KeyLogLevel          = "logging.level"
	KeyTemporalHostPort  = "temporal.host_port"
	KeyTemporalNamespace = "temporal.namespace"
	KeyTemporalTaskQueue = "temporal.task_queue"
	KeyCoverageThreshold = "coverage.threshold"
	KeyTelemetryEnabled  = "telemetry.enabled"
	KeyTelemetryURL      = "telemetry.collector_url"
)

var envNames = map[string]string{
	KeyLogFormat:         "CALC_LOG_FORMAT",
	KeyLogLevel:          "CALC_LOG_LEVEL",
	KeyTemporalHostPort:  "CALC_TEMPORAL_HOST_PORT",
	KeyTemporalNamespace: "CALC_TEMPORAL_NAMESPACE",
	KeyTemporalTaskQueue: "CALC_TEMPORAL_TASK_QUEUE",
	KeyCoverageThreshold: "CALC_COVERAGE_THRESHOLD",
	KeyTelemetryEnabled:  "CALC_TELEMETRY_ENABLED",
	KeyTelemetryURL:      "CALC_TELEMETRY_COLLECTOR_URL",
}

// NewViper returns a viper instance with every overlay key bound to its
// CALC_* environment variable and, when present in flags, to that flag.
// Flags are looked up by the key with the section prefix replaced, e.g.
// "log-format" for logging.format.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if flags == nil {
		return v, nil
	}
	for key, name := range FlagNames {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	return v, nil
}

// FlagNames maps overlay keys to command-line flag names
var FlagNames = map[string]string{
	KeyLogFormat:         "log-format",
	KeyLogLevel:          "log-level",
	KeyTemporalHostPort:  "temporal-host-port",
	KeyTemporalNamespace: "temporal-namespace",
	KeyTemporalTaskQueue: "task-queue",
	KeyCoverageThreshold: "threshold",
}

// Apply copies every key set in v (by a changed flag or an environment
// variable) over the file values.
func (c *Config) Apply(v *viper.Viper) {
	if v.IsSet(KeyLogFormat) {
		c.Logging.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyLogLevel) {
		c.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyTemporalHostPort) {
		c.Temporal.HostPort = v.GetString(KeyTemporalHostPort)
	}
	if v.IsSet(KeyTemporalNamespace) {
		c.Temporal.Namespace = v.GetString(KeyTemporalNamespace)
	}
	if v.IsSet(KeyTemporalTaskQueue) {
		c.Temporal.TaskQueue = v.GetString(KeyTemporalTaskQueue)
	}
	if v.IsSet(KeyCoverageThreshold) {
		c.Coverage.Threshold = v.GetFloat64(KeyCoverageThreshold)
	}
	if v.IsSet(KeyTelemetryEnabled) {
		c.Telemetry.Enabled = v.GetBool(KeyTelemetryEnabled)
	}
	if v.IsSet(KeyTelemetryURL) {
		c.Telemetry.CollectorURL = v.GetString(KeyTelemetryURL)
	}
}

// Resolve loads path (or DefaultPath if it exists, or the defaults) and
// applies the overlay from v.
func Resolve(path string, v *viper.Viper) (*Config, error) {
	var cfg *Config
	switch {
	case path != "":
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		loaded, err := Load(DefaultPath)
		if err != nil {
			if _, statErr := os.Stat(DefaultPath); !errors.Is(statErr, os.ErrNotExist) {
				return nil, err
			}
			loaded = Default()
		}
		cfg = loaded
	}

	if v != nil {
		cfg.Apply(v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
