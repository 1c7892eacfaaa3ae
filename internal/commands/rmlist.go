package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &RmListCmd{})
}

// RmListCmd implements the rmlist command.
type RmListCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmListCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmListCmd) Name() string       { return "rmlist" }
func (c *RmListCmd) Aliases() []string  { return nil }
func (c *RmListCmd) Synopsis() string   { return "Delete a list" }
func (c *RmListCmd) Usage() string      { return "todo rmlist [--force] <list-name>" }
func (c *RmListCmd) NeedsService() bool { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	name := listName(args)
	if name == "" {
		return usageError(errOut, "list name required")
	}

	l, err := resolveList(ctx, svc, name)
	if err != nil {
		return fail(errOut, err)
	}

	if len(l.Items) > 0 && !c.force {
		return usageError(errOut, "list not empty (use --force)")
	}

	if err := svc.RemoveList(ctx, l.Name); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
