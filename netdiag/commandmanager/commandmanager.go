package commandmanager

import (
	"context"
	"errors"
	"time"
)

// ErrStart is returned when a command could not be launched at all, as
// opposed to a command that ran and exited with a failure status.
var ErrStart = errors.New("command could not be started")

// CommandConfig describes one command invocation.
type CommandConfig struct {
	Command string
	Args    []string
}

// CommandResult describes how a streamed command ended. Its output went to
// the LineHandler.
type CommandResult struct {
	Command   string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// LineHandler receives each output line of a streamed command, without the
// trailing newline.
type LineHandler func(line string)

// CommandManager runs commands on the local system or on a remote one over SSH.
type CommandManager interface {
	// Stream runs a command with stderr merged into stdout and hands every
	// output line to onLine as it arrives. A non-zero exit status is reported
	// in CommandResult.ExitCode and is not an error.
	Stream(ctx context.Context, config CommandConfig, onLine LineHandler) (CommandResult, error)
}
