package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &CompleteCmd{})
	Register(GroupLists, &IncompleteCmd{})
}

// CompleteCmd implements the complete command.
type CompleteCmd struct{}

func (c *CompleteCmd) Name() string       { return "complete" }
func (c *CompleteCmd) Aliases() []string  { return []string{"done"} }
func (c *CompleteCmd) Synopsis() string   { return "Mark an item completed" }
func (c *CompleteCmd) Usage() string      { return "todo complete <list-name> <n>" }
func (c *CompleteCmd) NeedsService() bool { return true }

func (c *CompleteCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CompleteCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, svc, args, true, out, errOut)
}

// IncompleteCmd implements the incomplete command.
type IncompleteCmd struct{}

func (c *IncompleteCmd) Name() string       { return "incomplete" }
func (c *IncompleteCmd) Aliases() []string  { return []string{"undone"} }
func (c *IncompleteCmd) Synopsis() string   { return "Mark an item not completed" }
func (c *IncompleteCmd) Usage() string      { return "todo incomplete <list-name> <n>" }
func (c *IncompleteCmd) NeedsService() bool { return true }

func (c *IncompleteCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *IncompleteCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, svc, args, false, out, errOut)
}

// runSetCompleted is the shared implementation for complete and incomplete.
func runSetCompleted(ctx context.Context, cfg *config.Config, svc service.Service, args []string, completed bool, out, errOut io.Writer) int {
	ref, err := ParseItemRef(args)
	if err != nil {
		return usageError(errOut, err.Error())
	}

	l, err := resolveList(ctx, svc, ref.List)
	if err != nil {
		return fail(errOut, err)
	}
	if err := svc.SetCompleted(ctx, l.Name, ref.N, completed); err != nil {
		return fail(errOut, err)
	}
	return ok(cfg, out)
}
