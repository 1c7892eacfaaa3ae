package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(GroupLists, &ShowCmd{})
}

// ShowCmd implements the show command.
// Handles both `todo` (no args) and `todo show <list-name>`.
type ShowCmd struct {
	completed  bool
	incomplete bool
	all        bool
}

// SetFilter sets the completion filter flags (for testing).
func (c *ShowCmd) SetFilter(completed, incomplete bool) {
	c.completed = completed
	c.incomplete = incomplete
}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return []string{"list"} }
func (c *ShowCmd) Synopsis() string   { return "Print lists and their items" }
func (c *ShowCmd) Usage() string      { return "todo show [--completed|--incomplete|--all] [list-name]" }
func (c *ShowCmd) NeedsService() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.completed, "completed", false, "")
	fs.BoolVar(&c.incomplete, "incomplete", false, "")
	fs.BoolVar(&c.all, "all", false, "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.completed && c.incomplete {
		return usageError(errOut, "--completed and --incomplete are mutually exclusive")
	}

	filter := output.FilterAll
	switch {
	case c.all:
	case c.completed:
		filter = output.FilterCompleted
	case c.incomplete:
		filter = output.FilterIncomplete
	}
	styles := output.StylesFor(out)

	if len(args) > 0 {
		name := listName(args)
		if name == "" {
			return usageError(errOut, "list name required")
		}
		l, err := resolveList(ctx, svc, name)
		if err != nil {
			return fail(errOut, err)
		}
		output.FormatList(out, styles, l, filter)
		return exitcode.Success
	}

	lists, err := svc.Lists(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if len(lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists found")
		}
		return exitcode.Success
	}
	for _, l := range lists {
		output.FormatList(out, styles, l, filter)
	}
	return exitcode.Success
}
