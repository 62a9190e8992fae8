package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration file
type Config struct {
	Endpoint string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Username string   `json:"username,omitempty" yaml:"username,omitempty"`
	Secret   string   `json:"secret,omitempty" yaml:"secret,omitempty"`
	Prefix   string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix   string   `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
	MaxWait  Duration `json:"maxWait,omitempty" yaml:"maxWait,omitempty"`
	Timeout  Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Output   string   `json:"output,omitempty" yaml:"output,omitempty"`

	// RateLimit caps API calls per second; zero means unlimited
	RateLimit float64 `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
}

// Duration is a time.Duration read from strings like "30s", "5m" or
// "2 minutes". Bare numbers are seconds.
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the Go duration format
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalJSON accepts a duration string or a number of seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalYAML accepts a duration string or a number of seconds
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) set(raw interface{}) error {
	switch v := raw.(type) {
	case nil:
		*d = 0
	case string:
		parsed, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration '%s': %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration: %v", raw)
	}
	return nil
}

// LoadConfig loads a configuration file, choosing the format by extension
func LoadConfig(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data. Files ending in .json are read as
// JSON, everything else as YAML.
func ParseConfig(data []byte, path string) (*Config, error) {
	var config Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if errs := ValidateConfig(&config); errs.HasErrors() {
		return nil, errs
	}

	return &config, nil
}

// ParseDuration parses duration strings like "30s", "5m", "1h" or
// "30 seconds"
func ParseDuration(duration string) (time.Duration, error) {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}

	// Try parsing as Go duration
	if d, err := time.ParseDuration(duration); err == nil {
		return d, nil
	}

	duration = strings.ToLower(duration)
	duration = strings.ReplaceAll(duration, " ", "")

	// Longer words first so "seconds" is not left as "s" + "s"
	replacements := []struct{ word, abbrev string }{
		{"seconds", "s"},
		{"second", "s"},
		{"minutes", "m"},
		{"minute", "m"},
		{"hours", "h"},
		{"hour", "h"},
	}

	for _, r := range replacements {
		duration = strings.ReplaceAll(duration, r.word, r.abbrev)
	}

	return time.ParseDuration(duration)
}

// Merge returns a copy of base with every non-zero field of override applied
func Merge(base, override Config) Config {
	result := base

	setString := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	setDuration := func(dst *Duration, src Duration) {
		if src != 0 {
			*dst = src
		}
	}

	setString(&result.Endpoint, override.Endpoint)
	setString(&result.Username, override.Username)
	setString(&result.Secret, override.Secret)
	setString(&result.Prefix, override.Prefix)
	setString(&result.Suffix, override.Suffix)
	setString(&result.Output, override.Output)
	setDuration(&result.Interval, override.Interval)
	setDuration(&result.MaxWait, override.MaxWait)
	setDuration(&result.Timeout, override.Timeout)
	if override.RateLimit != 0 {
		result.RateLimit = override.RateLimit
	}

	return result
}
