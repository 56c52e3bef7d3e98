package hook

import (
	"fmt"
	"strings"

	shlex "github.com/flynn-archive/go-shlex"
	"go.uber.org/multierr"

	apperrors "github.com/ksyq12/heroku-auto-ssl/internal/errors"
	"github.com/ksyq12/heroku-auto-ssl/internal/executor"
	"github.com/ksyq12/heroku-auto-ssl/internal/logger"
)

// Chain runs several hook commands with the same arguments
type Chain struct {
	exec     executor.CommandExecutor
	commands [][]string
}

// NewChain splits each command line with shell quoting rules
func NewChain(exec executor.CommandExecutor, lines []string) (*Chain, error) {
	c := &Chain{exec: exec}
	for i, line := range lines {
		parts, err := shlex.Split(line)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfig, fmt.Sprintf("hook.chain[%d]", i), err)
		}
		if len(parts) == 0 {
			return nil, apperrors.Newf(apperrors.ErrCodeConfig, "hook.chain[%d]: empty command", i)
		}
		c.commands = append(c.commands, parts)
	}
	return c, nil
}

// Len returns the number of commands
func (c *Chain) Len() int {
	return len(c.commands)
}

// Run calls every command in order with args appended. A failing command
// does not stop the chain; all failures are returned together.
func (c *Chain) Run(args []string) error {
	var errs error
	for _, cmd := range c.commands {
		argv := append(append([]string{}, cmd[1:]...), args...)
		line := strings.Join(cmd, " ")
		logger.Debug("Running hook: %s %s", line, strings.Join(args, " "))

		res, err := c.exec.Run(cmd[0], argv...)
		if err != nil {
			logger.Error("hook %s could not be started: %v", line, err)
			errs = multierr.Append(errs, apperrors.Wrap(apperrors.ErrCodeHook, line, err))
			continue
		}
		if out := res.Trimmed(); out != "" {
			logger.Info("%s", out)
		}
		if !res.OK() {
			stderr := strings.TrimSpace(res.StderrString())
			logger.Error("hook %s exited with %d: %s", line, res.ExitCode, stderr)
			errs = multierr.Append(errs, apperrors.Subject(apperrors.ErrCodeHook, line,
				fmt.Sprintf("exited with %d", res.ExitCode)))
		}
	}
	return errs
}
