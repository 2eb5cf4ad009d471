// ABOUTME: serve and console commands wiring a configured bot to a space
// ABOUTME: serve joins the Matrix room, console reads chat lines from stdin

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389/shellbot/internal/bot"
	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/config"
	"github.com/2389/shellbot/internal/listener"
	"github.com/2389/shellbot/internal/spaces"
)

const (
	consoleActor = "console"
	consoleSpace = "console"
)

// loadConfig reads the configuration from the --config flag or the default
// location. A missing default file yields an empty configuration.
func loadConfig() (*config.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &config.Config{}, nil
		}
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

func runServe(ctx context.Context) error {
	printBanner()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Matrix.Enabled() {
		return fmt.Errorf("serve needs matrix.homeserver in the configuration")
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	a, err := assemble(cfg, nil, filepath.Join(getDataPath(), "shellbot.db"), os.Stdout, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.bot
	space, err := spaces.NewMatrix(spaces.MatrixConfig{
		Homeserver:  b.Context().GetString("matrix.homeserver", cfg.Matrix.Homeserver),
		UserID:      b.Context().GetString("matrix.user_id", cfg.Matrix.UserID),
		AccessToken: cfg.Matrix.AccessToken,
	}, b.Context(), b.Ears(), logger)
	if err != nil {
		return fmt.Errorf("creating matrix space: %w", err)
	}
	b.Attach(space)

	room := b.Context().GetString("matrix.room_id", cfg.Matrix.RoomID)
	if err := space.Bind(ctx, room); err != nil {
		return fmt.Errorf("joining %s: %w", room, err)
	}

	logger.Info("serving", "room", room, "user", cfg.Matrix.UserID)
	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runConsole(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)

	space := spaces.NewLocal(os.Stdout)
	space.Bind(consoleSpace)

	a, err := assemble(cfg, space, "", os.Stderr, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.bot
	b.Context().Set(botctx.KeySpaceID, consoleSpace)

	go feed(ctx, b, os.Stdin, cfg.Timing.FanWindow)

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// feed pushes each line of in onto the bot's ears and stops the bot at EOF.
func feed(ctx context.Context, b *bot.Bot, in io.Reader, window time.Duration) {
	name := b.Context().GetString(botctx.KeyBotName, bot.DefaultName)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		record := map[string]any{
			"actor_id": consoleActor,
			"space_id": consoleSpace,
			"text":     consoleText(b.Context(), name, line, window),
		}
		if err := b.Ears().Put(ctx, record); err != nil {
			return
		}
	}
	b.Stop()
}

// consoleText addresses line to the bot unless a machine is waiting for
// an answer or the line already names the bot.
func consoleText(bctx *botctx.Context, name, line string, window time.Duration) string {
	if _, ok := listener.Addressed(line, name); ok {
		return line
	}
	if window <= 0 {
		window = listener.DefaultFanWindow
	}
	if stamp, ok := bctx.Get(botctx.KeyFanStamp, nil).(time.Time); ok && time.Since(stamp) <= window {
		return line
	}
	return name + " " + line
}
