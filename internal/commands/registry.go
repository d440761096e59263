// Package commands is the dispatch table behind every chat and http
// command of the bot.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pricewatch/internal/components/assert"
)

// ErrUnknownCommand is returned by Dispatch for names that are not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Request is a single invocation of a command.
type Request struct {
	// ChatID identifies the conversation the command came from, it is zero
	// for invocations that do not come from a chat.
	ChatID int64
	Args   string
}

// Response is the html text to reply with.
type Response struct {
	Text string
}

type Handler func(ctx context.Context, req Request) (Response, error)

type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     Handler
}

// Registry maps command names to their handlers and keeps the order they
// were registered in for help listings.
type Registry struct {
	commands map[string]Command
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}}
}

// Register adds a command, registering the same name twice is a wiring
// error and panics.
func (r *Registry) Register(command Command) {
	assert.NotEmptyStr(command.Name)
	assert.NotNil(command.Handler, command.Name)
	if _, exists := r.commands[command.Name]; exists {
		panic(fmt.Sprintf("command %q registered twice", command.Name))
	}
	r.commands[command.Name] = command
	r.order = append(r.order, command.Name)
}

func (r *Registry) Lookup(name string) (Command, bool) {
	command, ok := r.commands[name]
	return command, ok
}

// Commands returns every registered command in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.order))
	for i, name := range r.order {
		out[i] = r.commands[name]
	}
	return out
}

func (r *Registry) Dispatch(ctx context.Context, name string, req Request) (Response, error) {
	command, ok := r.commands[name]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return command.Handler(ctx, req)
}

// Parse splits a chat message like `/buscar@pricebot bondiola` into the
// command name and its arguments. ok is false when the text is not a command.
func Parse(text string) (name string, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(head, "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}
