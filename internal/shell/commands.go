// ABOUTME: Generic commands every bot loads: default, empty, help, echo, input, version
// ABOUTME: Help lists visible commands alphabetically; input shows answers gathered by machines

package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// InputPrefix is the context prefix under which machines store gathered answers.
const InputPrefix = "input"

// Default answers lines whose keyword is unknown.
type Default struct {
	Base
	Message string
}

// NewDefault creates the fallback command.
func NewDefault() *Default {
	return &Default{
		Base:    Base{Key: KeywordDefault, Info: "Handle unmatched commands", Hidden: true},
		Message: "Sorry, I do not know how to handle '%s'",
	}
}

func (c *Default) Execute(_ context.Context, agent Agent, arguments string) error {
	agent.Say(fmt.Sprintf(c.Message, arguments))
	return nil
}

// Empty answers lines that only address the bot.
type Empty struct {
	Base
	shell *Shell
}

// NewEmpty creates the command run for empty lines; it delegates to help.
func NewEmpty(sh *Shell) *Empty {
	return &Empty{
		Base:  Base{Key: KeywordEmpty, Info: "Handle empty command", Hidden: true},
		shell: sh,
	}
}

func (c *Empty) Execute(ctx context.Context, agent Agent, _ string) error {
	help := c.shell.Command(KeywordHelp)
	if help == nil {
		agent.Say("No help command has been found.")
		return nil
	}
	return help.Execute(ctx, agent, "")
}

// Help lists commands.
type Help struct {
	Base
	shell *Shell
}

// NewHelp creates the help command for sh.
func NewHelp(sh *Shell) *Help {
	return &Help{
		Base:  Base{Key: KeywordHelp, Info: "Show commands and usage", Syntax: "help <command>"},
		shell: sh,
	}
}

func (c *Help) Execute(_ context.Context, agent Agent, arguments string) error {
	if arguments == "" {
		lines := []string{"Available commands:"}
		for _, key := range c.shell.Keywords() {
			cmd := c.shell.Command(key)
			if cmd == nil || cmd.IsHidden() {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s - %s", cmd.Keyword(), cmd.Information()))
			if usage := cmd.Usage(); usage != cmd.Keyword() {
				lines = append(lines, fmt.Sprintf("  usage: %s", usage))
			}
		}
		if len(lines) == 1 {
			agent.Say("No command has been found.")
			return nil
		}
		agent.Say(strings.Join(lines, "\n"))
		return nil
	}

	cmd := c.shell.Command(arguments)
	if cmd == nil {
		agent.Say("This command is unknown.")
		return nil
	}
	agent.Say(fmt.Sprintf("%s - %s\nusage: %s", cmd.Keyword(), cmd.Information(), cmd.Usage()))
	return nil
}

// Echo repeats its arguments.
type Echo struct {
	Base
}

// NewEcho creates the echo command.
func NewEcho() *Echo {
	return &Echo{Base: Base{Key: "echo", Info: "Echo input string", Syntax: "echo <text>", Hidden: true}}
}

func (c *Echo) Execute(_ context.Context, agent Agent, arguments string) error {
	agent.Say(arguments)
	return nil
}

// Input displays answers collected by machines.
type Input struct {
	Base
}

// NewInput creates the input command.
func NewInput() *Input {
	return &Input{Base: Base{Key: "input", Info: "Display all input"}}
}

func (c *Input) Execute(_ context.Context, agent Agent, _ string) error {
	values := agent.Context().Prefix(InputPrefix)
	if len(values) == 0 {
		agent.Say("There is nothing to display")
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"Input:"}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s - %v", k, values[k]))
	}
	agent.Say(strings.Join(lines, "\n"))
	return nil
}

// Version reports the running build.
type Version struct {
	Base
	version string
}

// NewVersion creates the version command.
func NewVersion(version string) *Version {
	return &Version{
		Base:    Base{Key: "version", Info: "Display software version"},
		version: version,
	}
}

func (c *Version) Execute(_ context.Context, agent Agent, _ string) error {
	name := agent.Context().GetString("bot.name", "shellbot")
	agent.Say(fmt.Sprintf("%s version %s", name, c.version))
	return nil
}
