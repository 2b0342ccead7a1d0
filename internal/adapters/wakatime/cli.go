package wakatime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"histbeat/internal/domain"
	"histbeat/internal/ports"
)

// CLI implements ports.Tracker by invoking the wakatime command-line client
type CLI struct {
	command string
	plugin  string
}

// Ensure CLI implements Tracker
var _ ports.Tracker = (*CLI)(nil)

// Option configures the CLI
type Option func(*CLI)

// WithCommand sets the executable to invoke
func WithCommand(command string) Option {
	return func(c *CLI) {
		c.command = command
	}
}

// WithPlugin sets the plugin identifier reported with every heartbeat
func WithPlugin(plugin string) Option {
	return func(c *CLI) {
		c.plugin = plugin
	}
}

// NewCLI creates a new wakatime CLI tracker
func NewCLI(opts ...Option) *CLI {
	c := &CLI{
		command: "wakatime",
		plugin:  "histbeat",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendError is returned when the client exits unsuccessfully
type SendError struct {
	Entity string
	Stderr string
	Err    error
}

func (e *SendError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("wakatime failed for %s: %s", e.Entity, e.Stderr)
	}
	return fmt.Sprintf("wakatime failed for %s: %v", e.Entity, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Args builds the client arguments for a heartbeat
func (c *CLI) Args(hb domain.Heartbeat) []string {
	args := []string{
		"--entity", hb.Entity,
		"--time", hb.TimeString(),
	}
	if hb.IsWrite {
		args = append(args, "--write")
	}
	args = append(args,
		"--plugin", c.plugin,
		// The client would otherwise buffer heartbeats closer than its own
		// rate limit and drop most of a backfill.
		"--heartbeat-rate-limit-seconds", "0",
	)
	if hb.Unsaved {
		args = append(args, "--is-unsaved-entity")
	}
	return args
}

// Send invokes the client once and waits for it to exit
func (c *CLI) Send(ctx context.Context, hb domain.Heartbeat) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.command, c.Args(hb)...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &SendError{
				Entity: hb.Entity,
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    err,
			}
		}
		return fmt.Errorf("wakatime CLI error: %w", err)
	}
	return nil
}

// IsAvailable checks if the client is installed and accessible
func (c *CLI) IsAvailable() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

// Command returns the configured executable
func (c *CLI) Command() string {
	return c.command
}
