package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GriffinCanCode/tinypy/pkg/frontend"
	"github.com/GriffinCanCode/tinypy/pkg/interp"
	"github.com/GriffinCanCode/tinypy/pkg/logger"
)

// Config holds the complete toolchain configuration
type Config struct {
	Log         LogConfig         `toml:"log" yaml:"log"`
	Interpreter InterpreterConfig `toml:"interpreter" yaml:"interpreter"`
	Parser      ParserConfig      `toml:"parser" yaml:"parser"`
	Output      OutputConfig      `toml:"output" yaml:"output"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	File   string `toml:"file" yaml:"file"`
}

// InterpreterConfig holds interpreter limits
type InterpreterConfig struct {
	MaxCallDepth int `toml:"max_call_depth" yaml:"max_call_depth"`
}

// ParserConfig holds parser limits
type ParserConfig struct {
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
}

// OutputConfig holds terminal output settings
type OutputConfig struct {
	Color bool `toml:"color" yaml:"color"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Interpreter: InterpreterConfig{MaxCallDepth: interp.DefaultMaxCallDepth},
		Parser:      ParserConfig{MaxDepth: frontend.DefaultMaxDepth},
		Output:      OutputConfig{Color: true},
	}
}

// Load reads configuration from a TOML or YAML file, chosen by extension.
// An empty path yields the defaults. Values absent from the file keep their
// defaults, and TINYPY_LOG_LEVEL overrides the log level.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		path = os.ExpandEnv(path)

		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if _, err := toml.Decode(string(content), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
		}
		cfg.Log.File = os.ExpandEnv(cfg.Log.File)
	}

	if level := os.Getenv("TINYPY_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by TINYPY_CONFIG, falling back to
// ./tinypy.toml and ./tinypy.yaml, then to the defaults.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("TINYPY_CONFIG"); path != "" {
		return Load(path)
	}
	for _, p := range []string{"./tinypy.toml", "./tinypy.yaml", "./tinypy.yml"} {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Load("")
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	if c.Interpreter.MaxCallDepth < 0 {
		return fmt.Errorf("interpreter.max_call_depth: must not be negative, got %d", c.Interpreter.MaxCallDepth)
	}
	if c.Parser.MaxDepth < 0 {
		return fmt.Errorf("parser.max_depth: must not be negative, got %d", c.Parser.MaxDepth)
	}
	return nil
}

// LoggerConfig converts the log section for logger.Init
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	if level, err := logger.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = c.Log.Format
	lc.LogFile = c.Log.File
	return lc
}
