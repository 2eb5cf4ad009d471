// ABOUTME: Configuration loading and parsing for shellbot
// ABOUTME: Reads YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete shellbot configuration
type Config struct {
	Bot      BotConfig      `yaml:"bot" toml:"bot"`
	Matrix   MatrixConfig   `yaml:"matrix" toml:"matrix"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Audit    AuditConfig    `yaml:"audit" toml:"audit"`
	Timing   TimingConfig   `yaml:"timing" toml:"timing"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Process  ProcessConfig  `yaml:"process" toml:"process"`
	Intake   []InputConfig  `yaml:"intake" toml:"intake"`

	// Settings are copied into the bot context; nested maps become dotted keys.
	Settings map[string]any `yaml:"settings" toml:"settings"`
}

// BotConfig holds the identity of the bot
type BotConfig struct {
	Name          string `yaml:"name" toml:"name"`
	QueueCapacity int    `yaml:"queue_capacity" toml:"queue_capacity"`
	Greeting      string `yaml:"greeting" toml:"greeting"` // said on join, "{}" is the newcomer
}

// MatrixConfig holds the Matrix account and room
type MatrixConfig struct {
	Homeserver  string `yaml:"homeserver" toml:"homeserver"`
	UserID      string `yaml:"user_id" toml:"user_id"`
	AccessToken string `yaml:"access_token" toml:"access_token"`
	RoomID      string `yaml:"room_id" toml:"room_id"`
}

// Enabled reports whether a homeserver is configured.
func (m MatrixConfig) Enabled() bool {
	return m.Homeserver != ""
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuditConfig controls recording of inbound events
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	File    string `yaml:"file" toml:"file"` // JSON lines; empty uses the database, or stdout
}

// TimingConfig holds worker timing
type TimingConfig struct {
	PollInterval  time.Duration `yaml:"-" toml:"-"`
	NotReadyDelay time.Duration `yaml:"-" toml:"-"`
	FanWindow     time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	PollIntervalRaw  string `yaml:"poll_interval" toml:"poll_interval"`
	NotReadyDelayRaw string `yaml:"not_ready_delay" toml:"not_ready_delay"`
	FanWindowRaw     string `yaml:"fan_window" toml:"fan_window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// ProcessConfig describes a Steps process
type ProcessConfig struct {
	Recycle         bool         `yaml:"recycle" toml:"recycle"`
	CancelOnAdvance bool         `yaml:"cancel_on_advance" toml:"cancel_on_advance"`
	Steps           []StepConfig `yaml:"steps" toml:"steps"`
}

// StepConfig describes one step of a process
type StepConfig struct {
	Label        string        `yaml:"label" toml:"label"`
	Message      string        `yaml:"message" toml:"message"`
	Content      string        `yaml:"content" toml:"content"`
	Participants []string      `yaml:"participants" toml:"participants"`
	Inputs       []InputConfig `yaml:"inputs" toml:"inputs"`
}

// InputConfig describes one question
type InputConfig struct {
	Question string   `yaml:"question" toml:"question"`
	Key      string   `yaml:"key" toml:"key"`
	Mask     string   `yaml:"mask" toml:"mask"`
	Regex    string   `yaml:"regex" toml:"regex"`
	Options  []string `yaml:"options" toml:"options"` // turns the question into a menu
	OnAnswer string   `yaml:"on_answer" toml:"on_answer"`
	OnRetry  string   `yaml:"on_retry" toml:"on_retry"`
	OnCancel string   `yaml:"on_cancel" toml:"on_cancel"`
	Retries  int      `yaml:"retries" toml:"retries"`

	Tip     time.Duration `yaml:"-" toml:"-"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	TipRaw     string `yaml:"tip" toml:"tip"`
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DefaultPath returns where the config file is looked up.
// Priority: SHELLBOT_CONFIG env var > $XDG_CONFIG_HOME/shellbot/shellbot.yaml > ~/.config/shellbot/shellbot.yaml
func DefaultPath() string {
	if path := os.Getenv("SHELLBOT_CONFIG"); path != "" {
		return path
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shellbot", "shellbot.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "shellbot.yaml"
	}
	return filepath.Join(home, ".config", "shellbot", "shellbot.yaml")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Matrix.Enabled() {
		if c.Matrix.UserID == "" {
			return fmt.Errorf("matrix.user_id is required when matrix.homeserver is set")
		}
		if c.Matrix.AccessToken == "" {
			return fmt.Errorf("matrix.access_token is required when matrix.homeserver is set")
		}
		if c.Matrix.RoomID == "" {
			return fmt.Errorf("matrix.room_id is required when matrix.homeserver is set")
		}
	}

	if c.Bot.QueueCapacity < 0 {
		return fmt.Errorf("bot.queue_capacity must not be negative")
	}

	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if len(c.Process.Steps) > 0 && len(c.Intake) > 0 {
		return fmt.Errorf("configure either process.steps or intake, not both")
	}

	for i, step := range c.Process.Steps {
		if step.Label == "" {
			return fmt.Errorf("process.steps[%d].label is required", i)
		}
		for j, in := range step.Inputs {
			if err := in.validate(); err != nil {
				return fmt.Errorf("process.steps[%d].inputs[%d]: %w", i, j, err)
			}
		}
	}

	for i, in := range c.Intake {
		if err := in.validate(); err != nil {
			return fmt.Errorf("intake[%d]: %w", i, err)
		}
	}

	return nil
}

func (in InputConfig) validate() error {
	if in.Question == "" {
		return fmt.Errorf("question is required")
	}
	if in.Mask != "" && in.Regex != "" {
		return fmt.Errorf("mask and regex are mutually exclusive")
	}
	if in.Regex != "" {
		if _, err := regexp.Compile(in.Regex); err != nil {
			return fmt.Errorf("invalid regex %q: %w", in.Regex, err)
		}
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if err := parseDuration("timing.poll_interval", cfg.Timing.PollIntervalRaw, &cfg.Timing.PollInterval); err != nil {
		return err
	}
	if err := parseDuration("timing.not_ready_delay", cfg.Timing.NotReadyDelayRaw, &cfg.Timing.NotReadyDelay); err != nil {
		return err
	}
	if err := parseDuration("timing.fan_window", cfg.Timing.FanWindowRaw, &cfg.Timing.FanWindow); err != nil {
		return err
	}

	for i := range cfg.Intake {
		if err := cfg.Intake[i].parseDurations(); err != nil {
			return fmt.Errorf("intake[%d]: %w", i, err)
		}
	}

	for i := range cfg.Process.Steps {
		for j := range cfg.Process.Steps[i].Inputs {
			if err := cfg.Process.Steps[i].Inputs[j].parseDurations(); err != nil {
				return fmt.Errorf("process.steps[%d].inputs[%d]: %w", i, j, err)
			}
		}
	}

	return nil
}

func (in *InputConfig) parseDurations() error {
	if err := parseDuration("tip", in.TipRaw, &in.Tip); err != nil {
		return err
	}
	return parseDuration("timeout", in.TimeoutRaw, &in.Timeout)
}

func parseDuration(name, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", name, raw, err)
	}
	*dst = d
	return nil
}
