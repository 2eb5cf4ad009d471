// ABOUTME: Entry point for shellbot, a chat bot driven by commands and state machines
// ABOUTME: Cobra commands: serve on Matrix, console on stdin/stdout, version

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var version = "dev"

const banner = `
     _          _ _ _           _
 ___| |__   ___| | | |__   ___ | |_
/ __| '_ \ / _ \ | | '_ \ / _ \| __|
\__ \ | | |  __/ | | |_) | (_) | |_
|___/_| |_|\___|_|_|_.__/ \___/ \__|
`

var configPath string

var rootCmd = &cobra.Command{
	Use:           "shellbot",
	Short:         "Conversational bot with commands and guided dialogs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot in the configured Matrix room",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot on stdin/stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runConsole(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shellbot version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("shellbot %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $SHELLBOT_CONFIG or ~/.config/shellbot/shellbot.yaml)")
	rootCmd.AddCommand(serveCmd, consoleCmd, versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getDataPath returns the path to the shellbot data directory.
// Priority: XDG_DATA_HOME/shellbot > ~/.local/share/shellbot
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "shellbot")
}

func printBanner() {
	cyan := color.New(color.FgCyan)
	cyan.Fprint(os.Stderr, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(os.Stderr, "    version: %s\n\n", version)
}
