// Package config loads the YAML-driven configuration consumed by the cmd/run driver, mirroring
// the teacher's run.Config + gopkg.in/yaml.v3 convention.
package config

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"golang.org/x/exp/slices"

	"github.com/relex/logcore/level"
	"github.com/relex/logcore/util"
)

var validDefaultFormats = []string{"", "text", "json", "msgpack"}

var validRotationRules = []string{"", "none", "size", "time", "sizeAndTime"}

// Config is the root of the logging engine's YAML config file.
type Config struct {
	// Workers is the number of dispatch pool worker goroutines. Zero keeps the manager's
	// default of half of GOMAXPROCS, at least 1.
	Workers int `yaml:"workers"`

	// DefaultLevel is the admission threshold newly created loggers start at.
	DefaultLevel string `yaml:"defaultLevel"`

	// DefaultFormat selects the formatter newly created loggers start with: "text", "json" or
	// "msgpack".
	DefaultFormat string `yaml:"defaultFormat"`

	// RecordPoolInitialChunk is the number of Record slots preallocated in the pool's first
	// chunk, given as a plain integer count of records, not bytes.
	RecordPoolInitialChunk int `yaml:"recordPoolInitialChunk"`

	// HazardTableSize is the fixed size of the hazard pointer protection table.
	HazardTableSize int `yaml:"hazardTableSize"`

	Sinks []SinkConfig `yaml:"sinks"`
}

// SinkKind selects which concrete sink implementation a SinkConfig builds.
type SinkKind string

const (
	SinkConsole SinkKind = "console"
	SinkFile    SinkKind = "file"
)

// SinkConfig configures one sink entry. Fields not relevant to Kind are ignored.
type SinkConfig struct {
	Kind   SinkKind `yaml:"kind"`
	Filter string   `yaml:"filter"`

	// File sink fields.
	Path             string            `yaml:"path"`
	Rotation         string            `yaml:"rotation"` // "none", "size", "time", "sizeAndTime"
	MaxSize          datasize.ByteSize `yaml:"maxSize"`
	RotationInterval string            `yaml:"rotationInterval"`
	MaxBackups       int               `yaml:"maxBackups"`
	CompressBackups  bool              `yaml:"compressBackups"`
}

// Load reads and unmarshals the config file at path, then validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := util.UnmarshalYamlFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the config's fields are internally consistent, the way the teacher's
// Config.VerifyConfig methods check each section before the engine starts.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be non-negative")
	}
	if c.DefaultLevel != "" {
		if _, ok := level.ParseLevel(c.DefaultLevel); !ok {
			return fmt.Errorf("config: unrecognized defaultLevel %q", c.DefaultLevel)
		}
	}
	if slices.Index(validDefaultFormats, c.DefaultFormat) == -1 {
		return fmt.Errorf("config: unrecognized defaultFormat %q", c.DefaultFormat)
	}
	for i, s := range c.Sinks {
		if err := s.validate(); err != nil {
			return fmt.Errorf("config: sinks[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *SinkConfig) validate() error {
	switch s.Kind {
	case SinkConsole:
		return nil
	case SinkFile:
		if s.Path == "" {
			return fmt.Errorf("file sink requires a path")
		}
		if slices.Index(validRotationRules, s.Rotation) == -1 {
			return fmt.Errorf("unrecognized rotation rule %q", s.Rotation)
		}
		return nil
	default:
		return fmt.Errorf("unrecognized sink kind %q", s.Kind)
	}
}
