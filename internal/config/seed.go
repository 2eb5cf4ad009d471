// ABOUTME: Seeds the bot context from loaded configuration
// ABOUTME: Copies free-form settings and checks the keys the bot requires

package config

import (
	"github.com/2389/shellbot/internal/botctx"
)

// DefaultBotName is used when bot.name is not configured.
const DefaultBotName = "shellbot"

// Seed writes the configuration into ctx. Values of the form $NAME in
// bot.name and the matrix settings are resolved from the environment.
func (c *Config) Seed(ctx *botctx.Context) error {
	ctx.Apply(c.Settings)

	if c.Bot.Name != "" {
		ctx.Set(botctx.KeyBotName, c.Bot.Name)
	}
	if err := ctx.Check(botctx.KeyBotName, DefaultBotName, true); err != nil {
		return err
	}

	if c.Audit.Enabled {
		ctx.Set(botctx.KeyAuditSwitch, botctx.SwitchOn)
	} else {
		ctx.Set(botctx.KeyAuditSwitch, botctx.SwitchOff)
	}

	if c.Matrix.Enabled() {
		ctx.Set("matrix.homeserver", c.Matrix.Homeserver)
		ctx.Set("matrix.user_id", c.Matrix.UserID)
		ctx.Set("matrix.room_id", c.Matrix.RoomID)
		for _, key := range []string{"matrix.homeserver", "matrix.user_id", "matrix.room_id"} {
			if err := ctx.Check(key, nil, true); err != nil {
				return err
			}
		}
	}

	return nil
}
