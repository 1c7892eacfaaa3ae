package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &CreateListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct{}

func (c *CreateListCmd) Name() string       { return "createlist" }
func (c *CreateListCmd) Aliases() []string  { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string   { return "Create an empty list" }
func (c *CreateListCmd) Usage() string      { return "todo createlist [common flags] <list-name>" }
func (c *CreateListCmd) NeedsService() bool { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	name := listName(args)
	if name == "" {
		return usageError(errOut, "list name required")
	}

	// CreateList overwrites, so an existing list is refused here.
	_, err := svc.List(ctx, name)
	if err == nil {
		fmt.Fprintf(errOut, "error: list already exists: %s\n", name)
		return exitcode.UserError
	}
	if service.KindOf(err) != service.ErrListNotFound {
		return fail(errOut, err)
	}

	if err := svc.CreateList(ctx, name); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
