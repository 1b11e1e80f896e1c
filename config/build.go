package config

import (
	"fmt"
	"time"

	"github.com/relex/logcore/format"
	"github.com/relex/logcore/format/json"
	"github.com/relex/logcore/format/msgpack"
	"github.com/relex/logcore/format/text"
	"github.com/relex/logcore/sink"
)

// BuildFormat constructs the Format named by c.DefaultFormat, defaulting to text.
func (c *Config) BuildFormat() (format.Format, error) {
	switch c.DefaultFormat {
	case "", "text":
		return text.New(), nil
	case "json":
		return json.New(), nil
	case "msgpack":
		return msgpack.New(), nil
	default:
		return nil, fmt.Errorf("config: unrecognized defaultFormat %q", c.DefaultFormat)
	}
}

// BuildSinks constructs one sink.Sink per entry in c.Sinks, in order.
func (c *Config) BuildSinks() ([]sink.Sink, error) {
	sinks := make([]sink.Sink, 0, len(c.Sinks))
	for i, s := range c.Sinks {
		built, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("config: sinks[%d]: %w", i, err)
		}
		sinks = append(sinks, built)
	}
	return sinks, nil
}

func (s *SinkConfig) build() (sink.Sink, error) {
	filter, err := sink.NewNameFilter(s.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	switch s.Kind {
	case SinkConsole:
		return sink.NewConsole().WithFilter(filter), nil
	case SinkFile:
		rule := sink.RotationNone
		switch s.Rotation {
		case "size":
			rule = sink.RotationSize
		case "time":
			rule = sink.RotationTime
		case "sizeAndTime":
			rule = sink.RotationSizeAndTime
		}
		var interval time.Duration
		if s.RotationInterval != "" {
			parsed, err := time.ParseDuration(s.RotationInterval)
			if err != nil {
				return nil, fmt.Errorf("rotationInterval: %w", err)
			}
			interval = parsed
		}
		fileSink, err := sink.NewFile(sink.FileConfig{
			Path:             s.Path,
			Rule:             rule,
			MaxSizeBytes:     int64(s.MaxSize.Bytes()),
			RotationInterval: interval,
			MaxBackups:       s.MaxBackups,
			CompressBackups:  s.CompressBackups,
			Filter:           filter,
		})
		if err != nil {
			return nil, err
		}
		return fileSink, nil
	default:
		return nil, fmt.Errorf("unrecognized sink kind %q", s.Kind)
	}
}
