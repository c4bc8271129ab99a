// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"coverage-demo/internal/telemetry"
	"coverage-demo/pkg/types"
)

// DefaultPath is the file Load reads when no path is given
const DefaultPath = "calc.yaml"

// Defaults applied to fields a config file leaves empty
const (
	DefaultHostPort    = "localhost:7233"
	DefaultNamespace   = "default"
	DefaultTaskQueue   = "calc-task-queue"
	DefaultCoverageCmd = "go test -cover ./..."
	DefaultLogFormat   = "text"
	DefaultLogLevel    = "info"
	DefaultCollector   = "localhost:4318"
	DefaultServiceName = "calc"
	DefaultEnvironment = "development"
	DefaultSampling    = 1.0
)

// ErrInvalid is returned by Validate for a configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete calc configuration
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Logging   LoggingConfig   `yaml:"logging"`
	Temporal  TemporalConfig  `yaml:"temporal"`
	Coverage  CoverageConfig  `yaml:"coverage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Steps     []StepConfig    `yaml:"steps"`
}

// ProjectConfig holds project-level configuration
type ProjectConfig struct {
	Name             string `yaml:"name"`
	WorkingDirectory string `yaml:"working_directory"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`  // debug, info, warn, error
}

// TemporalConfig locates the Temporal frontend and task queue
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// CoverageConfig configures the coverage runner
type CoverageConfig struct {
	Command   string  `yaml:"command"`
	Threshold float64 `yaml:"threshold"`
}

// TelemetryConfig configures OpenTelemetry tracing. Tracing is off unless enabled.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	CollectorURL string  `yaml:"collector_url"` // OTLP HTTP host:port
	ServiceName  string  `yaml:"service_name"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Tracing converts the section into a tracer provider configuration.
func (t TelemetryConfig) Tracing(version string) *telemetry.Config {
	return &telemetry.Config{
		ServiceName:    t.ServiceName,
		ServiceVersion: version,
		CollectorURL:   t.CollectorURL,
		Environment:    t.Environment,
		SamplingRate:   t.SamplingRate,
	}
}

// StepConfig is one plan step as written in YAML.
// Operands are integer literals or the name of another step.
type StepConfig struct {
	Name string `yaml:"name"`
	Op   string `yaml:"op"`
	A    string `yaml:"a"`
	B    string `yaml:"b"`
}

// Default returns a configuration with every default applied and no steps.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads the configuration from path, or DefaultPath when path is empty
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.WorkingDirectory == "" {
		if cwd, err := os.Getwd(); err == nil {
			c.Project.WorkingDirectory = cwd
		}
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Temporal.HostPort == "" {
		c.Temporal.HostPort = DefaultHostPort
	}
	if c.Temporal.Namespace == "" {
		c.Temporal.Namespace = DefaultNamespace
	}
	if c.Temporal.TaskQueue == "" {
		c.Temporal.TaskQueue = DefaultTaskQueue
	}
	if c.Coverage.Command == "" {
		c.Coverage.Command = DefaultCoverageCmd
	}
	if c.Telemetry.CollectorURL == "" {
		c.Telemetry.CollectorURL = DefaultCollector
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = DefaultEnvironment
	}
	if c.Telemetry.SamplingRate == 0 {
		c.Telemetry.SamplingRate = DefaultSampling
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Project.WorkingDirectory == "" {
		return fmt.Errorf("%w: working directory is required", ErrInvalid)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Temporal.TaskQueue == "" {
		return fmt.Errorf("%w: task queue is required", ErrInvalid)
	}

	if c.Coverage.Threshold < 0 || c.Coverage.Threshold > 100 {
		return fmt.Errorf("%w: coverage threshold %.1f outside 0-100", ErrInvalid, c.Coverage.Threshold)
	}

	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("%w: sampling rate %.2f outside 0-1", ErrInvalid, c.Telemetry.SamplingRate)
	}

	return nil
}

// Plan converts the configured steps into plan steps.
// It checks operand syntax only; ordering and references are checked by the scheduler.
func (c *Config) Plan() ([]types.Step, error) {
	steps := make([]types.Step, 0, len(c.Steps))
	for i, sc := range c.Steps {
		if sc.Name == "" {
			return nil, fmt.Errorf("%w: step %d has no name", ErrInvalid, i)
		}

		a, err := ParseOperand(sc.A)
		if err != nil {
			return nil, fmt.Errorf("%w: step %s operand a: %v", ErrInvalid, sc.Name, err)
		}
		b, err := ParseOperand(sc.B)
		if err != nil {
			return nil, fmt.Errorf("%w: step %s operand b: %v", ErrInvalid, sc.Name, err)
		}

		steps = append(steps, types.Step{
			Name: sc.Name,
			Op:   types.Op(strings.ToLower(strings.TrimSpace(sc.Op))),
			A:    a,
			B:    b,
		})
	}
	return steps, nil
}

// ParseOperand reads a base-10 int32 literal, or else a step reference.
func ParseOperand(s string) (types.Operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Operand{}, errors.New("operand is empty")
	}

	n, err := strconv.ParseInt(s, 10, 32)
	if err == nil {
		return types.Operand{Literal: int32(n)}, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return types.Operand{}, fmt.Errorf("literal %s does not fit in int32", s)
	}
	if s[0] == '-' || s[0] == '+' || (s[0] >= '0' && s[0] <= '9') {
		return types.Operand{}, fmt.Errorf("malformed literal %q", s)
	}
	return types.Operand{Ref: s}, nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// NewLogger builds the structured logger the logging section describes.
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if l.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}
