package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(GroupSync, &PushCmd{})
	Register(GroupSync, &PullCmd{})
	Register(GroupSync, &StatusCmd{})
}

// PushCmd implements the push command.
type PushCmd struct{}

func (c *PushCmd) Name() string       { return "push" }
func (c *PushCmd) Aliases() []string  { return nil }
func (c *PushCmd) Synopsis() string   { return "Overwrite the remote store with local lists" }
func (c *PushCmd) Usage() string      { return "todo push [common flags]" }
func (c *PushCmd) NeedsService() bool { return true }

func (c *PushCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PushCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	result, err := svc.Push(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if !cfg.Quiet {
		output.FormatSync(out, "pushed", result)
	}
	return exitcode.Success
}

// PullCmd implements the pull command.
type PullCmd struct {
	merge   bool
	replace bool
}

// SetPolicy sets the policy flags (for testing).
func (c *PullCmd) SetPolicy(merge, replace bool) {
	c.merge = merge
	c.replace = replace
}

func (c *PullCmd) Name() string       { return "pull" }
func (c *PullCmd) Aliases() []string  { return nil }
func (c *PullCmd) Synopsis() string   { return "Bring remote lists into the local cache" }
func (c *PullCmd) Usage() string      { return "todo pull [--merge|--replace]" }
func (c *PullCmd) NeedsService() bool { return true }

func (c *PullCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.merge, "merge", false, "")
	fs.BoolVar(&c.replace, "replace", false, "")
}

func (c *PullCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.merge && c.replace {
		return usageError(errOut, "--merge and --replace are mutually exclusive")
	}

	var policy service.PullPolicy
	switch {
	case c.merge:
		policy = service.PullMerge
	case c.replace:
		policy = service.PullReplace
	}

	result, err := svc.Pull(ctx, policy)
	if err != nil {
		return fail(errOut, err)
	}
	if !cfg.Quiet {
		output.FormatSync(out, "pulled", result)
	}
	return exitcode.Success
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return nil }
func (c *StatusCmd) Synopsis() string   { return "Show whether local changes are pushed" }
func (c *StatusCmd) Usage() string      { return "todo status [common flags]" }
func (c *StatusCmd) NeedsService() bool { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	st, err := svc.Status(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	output.FormatStatus(out, output.StylesFor(out), st)
	return exitcode.Success
}
