// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/session"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
)

// ErrNotCommand is returned by Execute for input without a leading slash.
var ErrNotCommand = errors.New("not a command")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/remember <text>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler executes the command. rawArgs is everything after the name.
	Handler func(ctx *Context, args []string, rawArgs string) (Result, error)

	// Hidden commands don't appear in help
	Hidden bool
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Description string
}

// =============================================================================
// CONTEXT AND RESULT
// =============================================================================

// Context is what a handler acts on.
type Context struct {
	// Ctx bounds blocking work such as memory queries. Nil means
	// context.Background.
	Ctx context.Context

	Session *session.Session
	Config  *config.Config

	// Registry is set by Execute for /help.
	Registry *Registry
}

func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// Result tells the front end what to show or do.
type Result struct {
	// Text is shown to the user. Markdown marks it for rendering.
	Text     string
	Markdown bool

	// Stats is set by /stats.
	Stats *components.ContextStats

	// Quit asks the front end to exit.
	Quit bool

	// ToggleTokenCounts flips the footer between percent and counts.
	ToggleTokenCounts bool
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
	parser   *Parser
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.parser = NewParser(r)
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Complete returns the visible command names starting with prefix.
func (r *Registry) Complete(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !strings.HasPrefix(prefix, "/") {
		return nil
	}
	var out []string
	for _, cmd := range r.All() {
		if !cmd.Hidden && strings.HasPrefix(cmd.Name, prefix) {
			out = append(out, cmd.Name)
		}
	}
	return out
}

// Execute parses input and runs the matching command.
func (r *Registry) Execute(ctx *Context, input string) (Result, error) {
	parsed := r.parser.Parse(input)
	if !parsed.IsCommand {
		return Result{}, ErrNotCommand
	}
	if parsed.Command == nil {
		return Result{}, &ValidationError{
			Command:  parsed.CommandName,
			Message:  "unknown command",
			Expected: "/help for a list",
		}
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{}, err
	}

	if ctx == nil {
		ctx = &Context{}
	}
	ctx.Registry = r
	if ctx.Session == nil && parsed.Command.needsSession() {
		return Result{}, errors.New(parsed.Command.Name + ": no active session")
	}
	return parsed.Command.Handler(ctx, parsed.Args, parsed.RawArgs)
}

func (c *Command) needsSession() bool {
	switch c.Name {
	case "/help", "/quit", "/counts":
		return false
	}
	return true
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help",
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit",
		Usage:       "/quit",
		Handler:     handleQuit,
	})
	r.Register(&Command{
		Name:        "/remember",
		Aliases:     []string{"/mem"},
		Description: "Save text to memory",
		Usage:       "/remember <text>",
		Args:        []ArgDef{{Name: "text", Required: true, Description: "text to remember"}},
		Handler:     handleRemember,
	})
	r.Register(&Command{
		Name:        "/memories",
		Description: "List saved memories",
		Usage:       "/memories",
		Handler:     handleMemories,
	})
	r.Register(&Command{
		Name:        "/forget",
		Description: "Delete a saved memory",
		Usage:       "/forget <id-prefix>",
		Args:        []ArgDef{{Name: "id", Required: true, Description: "memory ID or prefix"}},
		Handler:     handleForget,
	})
	r.Register(&Command{
		Name:        "/compress",
		Description: "Compress the history at the current prompt size",
		Usage:       "/compress",
		Handler:     handleCompress,
	})
	r.Register(&Command{
		Name:        "/stats",
		Aliases:     []string{"/usage"},
		Description: "Show context stats",
		Usage:       "/stats",
		Handler:     handleStats,
	})
	r.Register(&Command{
		Name:        "/model",
		Description: "Show or switch the model",
		Usage:       "/model [id]",
		Args:        []ArgDef{{Name: "id", Description: "model ID"}},
		Handler:     handleModel,
	})
	r.Register(&Command{
		Name:        "/models",
		Description: "List known models and their context windows",
		Usage:       "/models",
		Handler:     handleModels,
	})
	r.Register(&Command{
		Name:        "/counts",
		Description: "Toggle token counts in the footer",
		Usage:       "/counts",
		Handler:     handleCounts,
	})
	r.Register(&Command{
		Name:        "/reset",
		Description: "Reset usage counters",
		Usage:       "/reset",
		Handler:     handleReset,
	})
}
