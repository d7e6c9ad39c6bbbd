package extension

import (
	"context"
	"errors"
	"strings"

	"kubeapply/pkg/execs"
)

// CommandClient is a [Client] that queries and installs the extension by
// running configured commands through the bridge, e.g. `kubectl krew list`
// and `kubectl krew install`.
type CommandClient struct {
	bridge  *execs.Bridge
	check   execs.Command
	install execs.Command
}

// NewCommandClient creates a [CommandClient].
func NewCommandClient(bridge *execs.Bridge, check, install execs.Command) *CommandClient {
	return &CommandClient{
		bridge:  bridge,
		check:   check,
		install: install,
	}
}

// IsInstalled runs the check command. A clean exit means installed; a plain
// nonzero exit means not installed; any other stderr is reported as an error.
func (c *CommandClient) IsInstalled(ctx context.Context) (bool, error) {
	res := c.bridge.Run(ctx, c.check)
	if res.Stderr == "" {
		return true, nil
	}
	if strings.HasPrefix(res.Stderr, "Command exited with code") {
		return false, nil
	}

	return false, errors.New(strings.TrimSpace(res.Stderr))
}

// Install runs the install command.
func (c *CommandClient) Install(ctx context.Context) error {
	res := c.bridge.Run(ctx, c.install)
	if res.Stderr != "" {
		return errors.New(strings.TrimSpace(res.Stderr))
	}

	return nil
}
