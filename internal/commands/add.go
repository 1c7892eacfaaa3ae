package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Add an item, creating the list if needed" }
func (c *AddCmd) Usage() string      { return "todo add <list-name> <description...>" }
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "list name required")
	}
	if len(args) < 2 {
		return usageError(errOut, "description required")
	}

	description := strings.Join(args[1:], " ")
	if strings.TrimSpace(description) == "" {
		return usageError(errOut, "description required")
	}

	name := args[0]
	l, err := resolveList(ctx, svc, name)
	switch {
	case err == nil:
		name = l.Name
	case service.KindOf(err) == service.ErrListNotFound:
		if err := svc.CreateList(ctx, name); err != nil {
			return fail(errOut, err)
		}
	default:
		return fail(errOut, err)
	}

	if err := svc.AddItem(ctx, name, service.Item{Description: description}); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
