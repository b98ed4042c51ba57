// Package config loads weaver's run configuration from a YAML file,
// environment variables, and CLI flags, layered the way the sibling
// evaluation tool layers config file defaults under flag overrides,
// generalized here to also read from the environment via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TargetConfig describes the API under test.
type TargetConfig struct {
	Protocol string `mapstructure:"protocol" yaml:"protocol"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	SchemaURL string `mapstructure:"schema_url" yaml:"schema_url"`
	SchemaFile string `mapstructure:"schema_file" yaml:"schema_file"`
}

// ExecutionConfig configures one exploration run.
type ExecutionConfig struct {
	Behaviour          string        `mapstructure:"behaviour" yaml:"behaviour"`
	MinSequenceLength  int           `mapstructure:"min_sequence_length" yaml:"min_sequence_length"`
	MaxSequenceLength  int           `mapstructure:"max_sequence_length" yaml:"max_sequence_length"`
	MaxTests           int           `mapstructure:"max_tests" yaml:"max_tests"`
	RateLimitPerSecond float64       `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OutputConfig configures where exploration reports land.
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Format    string `mapstructure:"format" yaml:"format"`
}

// LoggingConfig configures weaverlog.
type LoggingConfig struct {
	Style string `mapstructure:"style" yaml:"style"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is weaver's complete run configuration.
type Config struct {
	Target    TargetConfig    `mapstructure:"target" yaml:"target"`
	Execution ExecutionConfig `mapstructure:"execution" yaml:"execution"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// Default returns the built-in defaults applied before the file,
// environment, and flags are layered on top.
func Default() Config {
	return Config{
		Target: TargetConfig{Protocol: "http", Host: "localhost", Port: 8080},
		Execution: ExecutionConfig{
			Behaviour:         "fuzz",
			MinSequenceLength: 2,
			MaxSequenceLength: 4,
			MaxTests:          100,
			Timeout:           30 * time.Second,
		},
		Output: OutputConfig{Directory: ".", Format: "json"},
		Logging: LoggingConfig{Style: "terminal", Level: "info"},
	}
}

// Load layers, in increasing priority: built-in defaults, an optional
// YAML config file, WEAVER_-prefixed environment variables, and
// already-parsed CLI flags.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("target", def.Target)
	v.SetDefault("execution", def.Execution)
	v.SetDefault("output", def.Output)
	v.SetDefault("logging", def.Logging)

	v.SetEnvPrefix("weaver")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &c, nil
}

// BaseURL renders the target's address as an http(s)://host:port root.
func (t TargetConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", t.Protocol, t.Host, t.Port)
}
