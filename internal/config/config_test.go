// ABOUTME: Tests for configuration loading, validation and context seeding
// ABOUTME: Covers YAML and TOML loading, env var expansion, and duration parsing

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/shellbot/internal/botctx"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	t.Setenv("TEST_SHELLBOT_TOKEN", "secret-token")

	path := writeConfig(t, "shellbot.yaml", `
bot:
  name: shelly
  greeting: "Welcome {}"

matrix:
  homeserver: "https://matrix.example.org"
  user_id: "@shelly:example.org"
  access_token: "${TEST_SHELLBOT_TOKEN}"
  room_id: "!ops:example.org"

database:
  path: "./test.db"

timing:
  poll_interval: "20ms"
  not_ready_delay: "2s"

process:
  cancel_on_advance: true
  steps:
    - label: Triage
      message: "Collect details"
      inputs:
        - question: "Ticket?"
          mask: "9999"
          key: input.ticket
          tip: "10s"
          timeout: "1m"
    - label: Closure
      message: "Done"

settings:
  team:
    lead: "@boss:example.org"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bot.Name != "shelly" {
		t.Errorf("Bot.Name = %q, want %q", cfg.Bot.Name, "shelly")
	}
	if cfg.Matrix.AccessToken != "secret-token" {
		t.Errorf("Matrix.AccessToken = %q, want %q", cfg.Matrix.AccessToken, "secret-token")
	}
	if cfg.Timing.PollInterval != 20*time.Millisecond {
		t.Errorf("Timing.PollInterval = %v, want 20ms", cfg.Timing.PollInterval)
	}
	if cfg.Timing.NotReadyDelay != 2*time.Second {
		t.Errorf("Timing.NotReadyDelay = %v, want 2s", cfg.Timing.NotReadyDelay)
	}
	if !cfg.Process.CancelOnAdvance {
		t.Error("Process.CancelOnAdvance = false, want true")
	}
	if len(cfg.Process.Steps) != 2 {
		t.Fatalf("len(Process.Steps) = %d, want 2", len(cfg.Process.Steps))
	}
	in := cfg.Process.Steps[0].Inputs[0]
	if in.Tip != 10*time.Second || in.Timeout != time.Minute {
		t.Errorf("input durations = %v/%v, want 10s/1m", in.Tip, in.Timeout)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "shellbot.toml", `
[bot]
name = "tomlbot"

[timing]
fan_window = "3s"

[[intake]]
question = "Your name?"
key = "input.name"

[[intake]]
question = "Favourite colour?"
key = "input.colour"
options = ["red", "green"]
timeout = "30s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bot.Name != "tomlbot" {
		t.Errorf("Bot.Name = %q, want %q", cfg.Bot.Name, "tomlbot")
	}
	if cfg.Timing.FanWindow != 3*time.Second {
		t.Errorf("Timing.FanWindow = %v, want 3s", cfg.Timing.FanWindow)
	}
	if len(cfg.Intake) != 2 || len(cfg.Intake[1].Options) != 2 {
		t.Fatalf("Intake = %+v, want two questions with options on the second", cfg.Intake)
	}
	if cfg.Intake[1].Timeout != 30*time.Second {
		t.Errorf("Intake[1].Timeout = %v, want 30s", cfg.Intake[1].Timeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "matrix without token",
			content: "matrix:\n  homeserver: https://m\n  user_id: '@a:m'\n  room_id: '!r:m'\n",
			wantErr: "matrix.access_token is required",
		},
		{
			name:    "bad duration",
			content: "timing:\n  poll_interval: soon\n",
			wantErr: "parsing timing.poll_interval",
		},
		{
			name:    "input without question",
			content: "intake:\n  - key: input.x\n",
			wantErr: "question is required",
		},
		{
			name:    "mask and regex",
			content: "intake:\n  - question: q\n    mask: '99'\n    regex: '[0-9]+'\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "steps and intake",
			content: "intake:\n  - question: q\nprocess:\n  steps:\n    - label: a\n",
			wantErr: "either process.steps or intake",
		},
		{
			name:    "bad log format",
			content: "logging:\n  format: xml\n",
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "shellbot.yaml", tt.content))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")

	got := expandEnvVars("a=${TEST_EXPAND_A} b=${TEST_EXPAND_UNSET} c=$TEST_EXPAND_A")
	want := "a=alpha b= c=$TEST_EXPAND_A"
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("SHELLBOT_CONFIG", "/etc/shellbot.toml")
	if got := DefaultPath(); got != "/etc/shellbot.toml" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}

	t.Setenv("SHELLBOT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := DefaultPath(); got != filepath.Join("/xdg", "shellbot", "shellbot.yaml") {
		t.Errorf("DefaultPath() = %q, want XDG location", got)
	}
}

func TestSeed(t *testing.T) {
	t.Setenv("TEST_SEED_ROOM", "!resolved:example.org")

	cfg := &Config{
		Bot:      BotConfig{Name: "shelly"},
		Audit:    AuditConfig{Enabled: true},
		Matrix:   MatrixConfig{Homeserver: "https://m", UserID: "@s:m", AccessToken: "t", RoomID: "$TEST_SEED_ROOM"},
		Settings: map[string]any{"team": map[string]any{"lead": "@boss"}},
	}
	ctx := botctx.New(nil)

	if err := cfg.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if got := ctx.GetString(botctx.KeyBotName, ""); got != "shelly" {
		t.Errorf("bot.name = %q, want shelly", got)
	}
	if got := ctx.GetString(botctx.KeyAuditSwitch, ""); got != "on" {
		t.Errorf("audit.switch = %q, want on", got)
	}
	if got := ctx.GetString("matrix.room_id", ""); got != "!resolved:example.org" {
		t.Errorf("matrix.room_id = %q, want resolved value", got)
	}
	if got := ctx.GetString("team.lead", ""); got != "@boss" {
		t.Errorf("team.lead = %q, want @boss", got)
	}
}

func TestSeed_UnresolvedVariable(t *testing.T) {
	cfg := &Config{
		Matrix: MatrixConfig{Homeserver: "https://m", UserID: "$TEST_SEED_UNSET_USER", AccessToken: "t", RoomID: "!r"},
	}

	err := cfg.Seed(botctx.New(nil))
	if !errors.Is(err, botctx.ErrConfiguration) {
		t.Fatalf("Seed() error = %v, want configuration error", err)
	}
}

func TestSeed_DefaultName(t *testing.T) {
	ctx := botctx.New(nil)
	if err := (&Config{}).Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if got := ctx.GetString(botctx.KeyBotName, ""); got != DefaultBotName {
		t.Errorf("bot.name = %q, want %q", got, DefaultBotName)
	}
}
