package tui

import (
	"fmt"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// commandSpec describes a ':' command. Commands with needsArgs reject an empty argument.
type commandSpec struct {
	needsArgs bool
	usage     string
}

var commandSpecs = map[string]commandSpec{
	"open":     {needsArgs: true, usage: "open <id>"},
	"search":   {needsArgs: true, usage: "search <query>"},
	"submit":   {needsArgs: true, usage: "submit <details>"},
	"photo":    {needsArgs: true, usage: "photo <uri>"},
	"attach":   {needsArgs: true, usage: "attach <uri>"},
	"meet":     {needsArgs: true, usage: "meet <time and place>"},
	"request":  {},
	"approve":  {},
	"reject":   {},
	"returned": {},
	"karma":    {},
	"handoff":  {},
	"redeem":   {needsArgs: true, usage: "redeem <token>"},
	"as":       {needsArgs: true, usage: "as owner|finder"},
	"help":     {},
	"quit":     {},
}

var commandAliases = map[string]string{
	"o":      "open",
	"s":      "search",
	"verify": "request",
	"return": "returned",
	"h":      "help",
	"q":      "quit",
	"q!":     "quit",
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Validate checks that the command exists and carries its required argument.
func (c Command) Validate() error {
	spec, ok := commandSpecs[c.Name]
	if !ok {
		return fmt.Errorf("unknown command %q", c.Name)
	}
	if spec.needsArgs && c.Args == "" {
		return fmt.Errorf("usage: :%s", spec.usage)
	}
	return nil
}
