package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"histbeat/internal/domain"
)

const (
	// DefaultHistoryDir is where VS Code based editors keep local history on Linux
	DefaultHistoryDir = "~/.config/Code/User/History"

	// DefaultConfigPath is read when no config file is given explicitly
	DefaultConfigPath = "~/.histbeat/config.yaml"

	DefaultTrackerCommand = "wakatime"
	DefaultPlugin         = "histbeat"
	DefaultSampleSize     = 5
	DefaultProgressEvery  = 10

	envPrefix = "HISTBEAT"
)

// Config holds every tunable of a backfill run
type Config struct {
	HistoryDir     string            `yaml:"history_dir" mapstructure:"history_dir"`
	Start          string            `yaml:"start" mapstructure:"start"`
	End            string            `yaml:"end" mapstructure:"end"`
	DedupThreshold time.Duration     `yaml:"-" mapstructure:"dedup_threshold"`
	HomeMarker     string            `yaml:"home_marker" mapstructure:"home_marker"`
	Timezones      map[string]string `yaml:"timezones" mapstructure:"timezones"`
	SampleSize     int               `yaml:"sample_size" mapstructure:"sample_size"`
	ProgressEvery  int               `yaml:"progress_every" mapstructure:"progress_every"`
	Ledger         string            `yaml:"ledger,omitempty" mapstructure:"ledger"`

	Tracker TrackerConfig `yaml:"tracker" mapstructure:"tracker"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// TrackerConfig configures the external heartbeat client
type TrackerConfig struct {
	Command string `yaml:"command" mapstructure:"command"`
	Plugin  string `yaml:"plugin" mapstructure:"plugin"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultTimezones maps common abbreviations to IANA zones
func DefaultTimezones() map[string]string {
	return map[string]string{
		"UTC": "UTC",
		"GMT": "UTC",
		"EST": "America/New_York",
		"EDT": "America/New_York",
		"CST": "America/Chicago",
		"CDT": "America/Chicago",
		"MST": "America/Denver",
		"MDT": "America/Denver",
		"PST": "America/Los_Angeles",
		"PDT": "America/Los_Angeles",
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryDir:     DefaultHistoryDir,
		DedupThreshold: domain.DefaultDedupThreshold,
		HomeMarker:     DefaultHomeMarker(),
		Timezones:      DefaultTimezones(),
		SampleSize:     DefaultSampleSize,
		ProgressEvery:  DefaultProgressEvery,
		Tracker: TrackerConfig{
			Command: DefaultTrackerCommand,
			Plugin:  DefaultPlugin,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultHomeMarker returns the current user's home directory with a
// trailing separator, or "" when it cannot be determined.
func DefaultHomeMarker() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return strings.TrimSuffix(home, "/") + "/"
}

// ConfigPath returns the config path from HISTBEAT_CONFIG env var,
// falling back to DefaultConfigPath.
func ConfigPath() string {
	if env := os.Getenv(envPrefix + "_CONFIG"); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Load merges defaults, an optional YAML file and HISTBEAT_* environment
// variables. An explicit path must exist; the implicit default path may not.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
		explicit = os.Getenv(envPrefix+"_CONFIG") != ""
	}
	path = ExpandHome(path)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	defaults := cfg.Timezones
	cfg.Timezones = nil
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Timezones = mergeTimezones(defaults, cfg.Timezones)

	cfg.HistoryDir = ExpandHome(cfg.HistoryDir)
	cfg.Ledger = ExpandHome(cfg.Ledger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("history_dir", cfg.HistoryDir)
	v.SetDefault("start", cfg.Start)
	v.SetDefault("end", cfg.End)
	v.SetDefault("dedup_threshold", cfg.DedupThreshold)
	v.SetDefault("home_marker", cfg.HomeMarker)
	v.SetDefault("sample_size", cfg.SampleSize)
	v.SetDefault("progress_every", cfg.ProgressEvery)
	v.SetDefault("ledger", cfg.Ledger)
	v.SetDefault("tracker.command", cfg.Tracker.Command)
	v.SetDefault("tracker.plugin", cfg.Tracker.Plugin)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// viper lowercases map keys; abbreviations are matched upper-case.
func mergeTimezones(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[strings.ToUpper(k)] = v
	}
	for k, v := range overrides {
		merged[strings.ToUpper(k)] = v
	}
	return merged
}

// Validate checks values that would otherwise fail late in a run
func (c *Config) Validate() error {
	if c.DedupThreshold < 0 {
		return fmt.Errorf("dedup_threshold must not be negative, got %s", c.DedupThreshold)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must not be negative, got %d", c.SampleSize)
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative, got %d", c.ProgressEvery)
	}
	if strings.TrimSpace(c.Tracker.Command) == "" {
		return fmt.Errorf("tracker.command is required")
	}
	for abbrev, zone := range c.Timezones {
		if _, err := time.LoadLocation(zone); err != nil {
			return fmt.Errorf("timezone %s: unknown zone %q: %w", abbrev, zone, err)
		}
	}
	return nil
}

// MarshalYAML renders the threshold as a duration string
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		HistoryDir     string            `yaml:"history_dir"`
		Start          string            `yaml:"start"`
		End            string            `yaml:"end"`
		DedupThreshold string            `yaml:"dedup_threshold"`
		HomeMarker     string            `yaml:"home_marker"`
		Timezones      map[string]string `yaml:"timezones"`
		SampleSize     int               `yaml:"sample_size"`
		ProgressEvery  int               `yaml:"progress_every"`
		Ledger         string            `yaml:"ledger,omitempty"`
		Tracker        TrackerConfig     `yaml:"tracker"`
		Log            LogConfig         `yaml:"log"`
	}{
		HistoryDir:     c.HistoryDir,
		Start:          c.Start,
		End:            c.End,
		DedupThreshold: c.DedupThreshold.String(),
		HomeMarker:     c.HomeMarker,
		Timezones:      c.Timezones,
		SampleSize:     c.SampleSize,
		ProgressEvery:  c.ProgressEvery,
		Ledger:         c.Ledger,
		Tracker:        c.Tracker,
		Log:            c.Log,
	}, nil
}

// WriteDefault writes the default configuration to path
func WriteDefault(path string) error {
	path = ExpandHome(path)

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# histbeat configuration\n# start/end accept free-form dates, optionally suffixed with a zone abbreviation from timezones\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
