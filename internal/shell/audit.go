// ABOUTME: Audit command toggling the recording of inbound events
// ABOUTME: Flips audit.switch in the Context, read by the auditor worker

package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/shellbot/internal/botctx"
)

// Audit reports or toggles event auditing.
type Audit struct {
	Base
}

// NewAudit creates the audit command.
func NewAudit() *Audit {
	return &Audit{Base: Base{Key: "audit", Info: "Check and change auditing of chat events", Syntax: "audit [on|off]"}}
}

func (c *Audit) Execute(_ context.Context, agent Agent, arguments string) error {
	ctx := agent.Context()

	switch strings.ToLower(arguments) {
	case "":
	case botctx.SwitchOn:
		ctx.Set(botctx.KeyAuditSwitch, botctx.SwitchOn)
	case botctx.SwitchOff:
		ctx.Set(botctx.KeyAuditSwitch, botctx.SwitchOff)
	default:
		agent.Say(fmt.Sprintf("usage: %s", c.Usage()))
		return nil
	}

	if ctx.GetString(botctx.KeyAuditSwitch, botctx.SwitchOff) == botctx.SwitchOn {
		agent.Say("Chat interactions are currently audited.")
	} else {
		agent.Say("Chat interactions are not audited.")
	}
	return nil
}
