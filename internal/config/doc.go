// Package config handles configuration loading for shellbot.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from SHELLBOT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/shellbot/shellbot.yaml
//  3. ~/.config/shellbot/shellbot.yaml
//
// Files ending in .toml are read as TOML; everything else as YAML.
//
// # Environment Variable Expansion
//
// ${VAR_NAME} anywhere in the file is replaced before parsing:
//
//	matrix:
//	  access_token: "${SHELLBOT_MATRIX_TOKEN}"
//
// Seed additionally resolves values of the form $NAME for bot.name and the
// matrix settings when they are copied into the bot context, and fails with a
// configuration error when a required one cannot be resolved.
//
// # Example
//
//	bot:
//	  name: shelly
//	  greeting: "Welcome {}!"
//
//	matrix:
//	  homeserver: "https://matrix.example.org"
//	  user_id: "@shelly:example.org"
//	  access_token: "${SHELLBOT_MATRIX_TOKEN}"
//	  room_id: "!ops:example.org"
//
//	database:
//	  path: "/var/lib/shellbot/shellbot.db"
//
//	audit:
//	  enabled: true
//
//	timing:
//	  poll_interval: "50ms"
//	  not_ready_delay: "5s"
//	  fan_window: "1s"
//
//	process:
//	  cancel_on_advance: false
//	  steps:
//	    - label: Triage
//	      message: "Collect the facts"
//	      inputs:
//	        - question: "What is the ticket number?"
//	          mask: "9999"
//	          key: input.ticket
//	          on_answer: "Ticket {} noted"
//	    - label: Escalation
//	      message: "Bring in the expert"
//	      participants: ["@expert:example.org"]
//
// Instead of process, intake lists questions asked once at start.
//
// # Usage
//
//	cfg, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Seed(bot.Context()); err != nil {
//	    return err
//	}
package config
