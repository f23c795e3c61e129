// Package config loads the vizkit YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no --config flag is given.
const EnvPath = "VIZKIT_CONFIG"

// Config is the decoded configuration file.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Interval time.Duration `mapstructure:"interval"`
	Listen   string        `mapstructure:"listen"`
	Metrics  bool          `mapstructure:"metrics"`
	Redis    Redis         `mapstructure:"redis"`
	// PortProxy names the task that bridges port readers. When no registry
	// knows it, a local bridge is started under that name.
	PortProxy string `mapstructure:"port_proxy"`
	// Types is a typekit YAML file with record and array definitions.
	Types string  `mapstructure:"types"`
	Watch []Watch `mapstructure:"watch"`
}

// Redis configures the remote task registry. An empty Addr keeps everything in memory.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Watch is one tree to show. Without a port the whole task is shown.
type Watch struct {
	Name       string        `mapstructure:"name"`
	Task       string        `mapstructure:"task"`
	Port       string        `mapstructure:"port"`
	WriterPort string        `mapstructure:"writer_port"`
	ReadOnly   bool          `mapstructure:"read_only"`
	Interval   time.Duration `mapstructure:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Interval: time.Second,
		Listen:   ":8080",
		Redis: Redis{
			Prefix:  "vizkit:",
			Timeout: 500 * time.Millisecond,
		},
	}
}

// Path picks the config file: the flag value first, then VIZKIT_CONFIG.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(EnvPath)
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return err
	}
	return c.Validate()
}

// millisecondsHook reads bare numbers as milliseconds for duration fields.
func millisecondsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	}
	return data, nil
}

// Validate checks watch entries and fills their names.
func (c *Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	seen := make(map[string]bool, len(c.Watch))
	for i := range c.Watch {
		w := &c.Watch[i]
		if w.Task == "" {
			errs = append(errs, fmt.Errorf("watch[%d]: task is required", i))
			continue
		}
		if w.Name == "" {
			w.Name = w.Task
			if w.Port != "" {
				w.Name += "." + w.Port
			}
		}
		if seen[w.Name] {
			errs = append(errs, fmt.Errorf("watch[%d]: duplicate name %q", i, w.Name))
		}
		seen[w.Name] = true
		if w.Port == "" && w.WriterPort != "" {
			errs = append(errs, fmt.Errorf("watch[%d]: writer_port needs a port", i))
		}
		if c.PortProxy != "" && w.Task == c.PortProxy {
			errs = append(errs, fmt.Errorf("watch[%d]: task %q is the port proxy", i, w.Task))
		}
	}
	return errors.Join(errs...)
}
